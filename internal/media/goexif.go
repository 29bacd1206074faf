package media

import (
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// GoexifReader 是默认的纯 Go EXIF 后端。
type GoexifReader struct{}

func (GoexifReader) Read(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		// 没有 EXIF 或 EXIF 头无法解析：按“无 EXIF”处理。
		return Tags{}, nil
	}

	t := Tags{HasEXIF: true}
	if s, ok := asciiTag(x, exif.DateTimeOriginal); ok {
		t.DateTimeOriginal = s
	}

	_, ptrErr := x.Get(exif.GPSInfoIFDPointer)
	latTag, latErr := x.Get(exif.GPSLatitude)
	lonTag, lonErr := x.Get(exif.GPSLongitude)
	t.HasGPS = ptrErr == nil || latErr == nil || lonErr == nil
	if !t.HasGPS {
		return t, nil
	}

	if latErr == nil {
		t.Lat = rationals(latTag)
	}
	if lonErr == nil {
		t.Lon = rationals(lonTag)
	}
	t.LatRef, _ = asciiTag(x, exif.GPSLatitudeRef)
	t.LonRef, _ = asciiTag(x, exif.GPSLongitudeRef)
	return t, nil
}

func asciiTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	return s, s != ""
}

// rationals 把 RATIONAL 数组转成 float；任一分量非法则视为缺失。
func rationals(tag *tiff.Tag) []float64 {
	if tag == nil || tag.Count == 0 {
		return nil
	}
	out := make([]float64, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		out = append(out, float64(num)/float64(den))
	}
	return out
}
