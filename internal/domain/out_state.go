package domain

import "time"

// OutState 描述 <output>/<label>/ 的现状（只做 stat/ReadDir，不读内容）。
type OutState struct {
	OutDir string

	// Exists 为 false 表示目录尚不存在（dry-run 规划时常见）。
	Exists bool

	// Existing 是目录内现有普通文件的 stat 结果，用于 O(1) 冲突与“未变化”判定。
	Existing map[string]ExistingFile

	// Reserved 记录本进程内已被先前计划占用的文件名（标签相同的 run 共用一个目录）。
	Reserved map[string]struct{}
}

type ExistingFile struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}
