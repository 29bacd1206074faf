package media

// Tags 是抽取阶段关心的 EXIF 子集（与具体解析后端无关）。
type Tags struct {
	// HasEXIF 为 false 表示文件根本没有可解析的 EXIF 块。
	HasEXIF bool
	// HasGPS 表示存在 GPS IFD（即便缺少经纬度分量）。
	HasGPS bool

	Lat    []float64 // 度、分、秒；nil 表示缺失
	LatRef string
	Lon    []float64
	LonRef string

	DateTimeOriginal string // "YYYY:MM:DD HH:MM:SS"，缺失为空
}

// HasCoords 表示纬度与经度分量齐全。
func (t Tags) HasCoords() bool { return len(t.Lat) > 0 && len(t.Lon) > 0 }

// ExifReader 读取单个文件的 EXIF。
//
// 约束：文件没有 EXIF 不是错误（返回 HasEXIF=false）；只有 I/O 等无法继续的情况才返回 error。
type ExifReader interface {
	Read(path string) (Tags, error)
}
