package domain

// CopyPlan 规划一次文件复制（只描述 src/dst，不做任何写入）。
type CopyPlan struct {
	SrcAbs string
	DstAbs string

	// Unchanged 表示目标已存在且 size+mtime 与源一致，执行时跳过复制。
	Unchanged bool
}

// RunPlan 是某个 run 的最小执行计划。
type RunPlan struct {
	Label  string
	OutDir string
	Run    Run
	Copies []CopyPlan
}
