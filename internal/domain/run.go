package domain

// Run 是按日期排序后、位置相同的一段最长连续记录。
//
// 不变量：Records 非空，且所有记录的 Location 与 Run.Location 相同。
type Run struct {
	Location Location
	Start    Date
	End      Date
	Records  []MediaRecord
}

// Paths 按顺序返回 run 内所有文件路径。
func (r Run) Paths() []string {
	out := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, rec.Path)
	}
	return out
}
