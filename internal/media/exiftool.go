package media

import (
	"fmt"
	"math"
	"strings"

	"github.com/barasher/go-exiftool"
)

// ExiftoolReader 通过常驻的 exiftool 进程读取 EXIF（goexif 解析失败的 PNG 等文件可改用此后端）。
//
// 使用 -n（NoPrintConversion）：GPS 以十进制度数给出，引用方向单独读取。
type ExiftoolReader struct {
	et *exiftool.Exiftool
}

func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("启动 exiftool 失败：%w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

func (r *ExiftoolReader) Close() error {
	if r == nil || r.et == nil {
		return nil
	}
	return r.et.Close()
}

func (r *ExiftoolReader) Read(path string) (Tags, error) {
	fms := r.et.ExtractMetadata(path)
	if len(fms) != 1 {
		return Tags{}, fmt.Errorf("exiftool 返回了 %d 条结果", len(fms))
	}
	fm := fms[0]
	if fm.Err != nil {
		return Tags{}, fm.Err
	}
	return tagsFromFields(fm.Fields), nil
}

// tagsFromFields 从 exiftool 的扁平字段表中取出关心的标签。
func tagsFromFields(fields map[string]interface{}) Tags {
	var t Tags
	for k := range fields {
		if k == "ExifVersion" || strings.HasPrefix(k, "GPS") || k == "DateTimeOriginal" {
			t.HasEXIF = true
		}
		if strings.HasPrefix(k, "GPS") {
			t.HasGPS = true
		}
	}
	if !t.HasEXIF {
		return Tags{}
	}

	fm := exiftool.FileMetadata{Fields: fields}
	if s, err := fm.GetString("DateTimeOriginal"); err == nil {
		t.DateTimeOriginal = strings.TrimSpace(s)
	}
	t.Lat, t.LatRef = signedCoord(fm, "GPSLatitude", "GPSLatitudeRef", "S")
	t.Lon, t.LonRef = signedCoord(fm, "GPSLongitude", "GPSLongitudeRef", "W")
	return t
}

// signedCoord 读取十进制坐标与方向；方向缺失时以数值符号推断。
func signedCoord(fm exiftool.FileMetadata, key, refKey, negRef string) ([]float64, string) {
	v, err := fm.GetFloat(key)
	if err != nil {
		return nil, ""
	}
	ref, _ := fm.GetString(refKey)
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" && v < 0 {
		ref = negRef
	}
	return []float64{math.Abs(v)}, ref
}
