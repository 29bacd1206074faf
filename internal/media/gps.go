package media

import (
	"math"
	"strings"
)

// DMSToDecimal 把度分秒分量换算为十进制度数：sum(c / 60^i)。
//
// ref 为 "S"（纬度）或 "W"（经度）时取负；其余（含空）保持为正。
// 分量个数不限：exiftool 直接给出十进制时只有一个分量，结果即原值。
func DMSToDecimal(dms []float64, ref string) float64 {
	var v float64
	for i, c := range dms {
		v += c / math.Pow(60, float64(i))
	}
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		v = -v
	}
	return v
}

// GeoTag 是换算后的十进制坐标。
type GeoTag struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
