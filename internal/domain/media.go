package domain

import "time"

// MediaFile 描述一次扫描得到的候选文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 已转小写（例如 ".jpg"）
type MediaFile struct {
	AbsPath string
	RelPath string
	Name    string // 含扩展名
	Ext     string
	Size    int64
	ModTime time.Time

	// Hidden 表示文件名以 . 开头；这类文件不参与整理，但要出现在报告的 skipped 中。
	Hidden bool
}

// MediaKind 是按扩展名判定的媒体类型。
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindOther MediaKind = "other"
)

const (
	DateSourceEXIF  = "exif"
	DateSourceMvhd  = "mvhd"
	DateSourceMtime = "mtime"
)

// MediaRecord 是单个文件的最终元数据（抽取后不可变）。
type MediaRecord struct {
	Path       string    `json:"path"`
	Kind       MediaKind `json:"kind"`
	Location   Location  `json:"location"`
	Date       Date      `json:"date"`
	DateSource string    `json:"date_source"`
}
