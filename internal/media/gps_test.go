package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDMSToDecimal(t *testing.T) {
	cases := []struct {
		name string
		dms  []float64
		ref  string
		want float64
	}{
		{"北纬", []float64{48, 51, 24}, "N", 48 + 51.0/60 + 24.0/3600},
		{"南纬取负", []float64{33, 52, 4}, "S", -(33 + 52.0/60 + 4.0/3600)},
		{"西经取负", []float64{2, 21, 0}, "w", -(2 + 21.0/60)},
		{"东经", []float64{2, 21, 0}, "E", 2 + 21.0/60},
		{"单分量（十进制）", []float64{48.8566}, "N", 48.8566},
		{"缺 ref 视为正", []float64{10, 30}, "", 10.5},
		{"空分量", nil, "N", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, DMSToDecimal(c.dms, c.ref), 1e-9)
		})
	}
}
