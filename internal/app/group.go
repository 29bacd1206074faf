package app

import (
	"sort"

	"github.com/John-Robertt/PMC/internal/domain"
)

// SortRecords 按日期升序稳定排序（同日记录保持列表顺序）。
func SortRecords(records []domain.MediaRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
}

// GroupRuns 把已排序的记录切分为位置相同的最长连续段。
//
// - (country, city) 变化即开启新 run；最后一个 run 总会输出
// - 空输入返回空结果
// - 所有 run 的 Records 依次拼接等于输入（不重排、不丢失）
func GroupRuns(records []domain.MediaRecord) []domain.Run {
	runs := make([]domain.Run, 0, 16)
	if len(records) == 0 {
		return runs
	}

	cur := newRun(records[0])
	for _, rec := range records[1:] {
		loc := rec.Location.Normalize()
		if loc == cur.Location {
			cur.Records = append(cur.Records, rec)
			extend(&cur, rec.Date)
			continue
		}
		runs = append(runs, cur)
		cur = newRun(rec)
	}
	return append(runs, cur)
}

func newRun(rec domain.MediaRecord) domain.Run {
	return domain.Run{
		Location: rec.Location.Normalize(),
		Start:    rec.Date,
		End:      rec.Date,
		Records:  []domain.MediaRecord{rec},
	}
}

func extend(r *domain.Run, d domain.Date) {
	if d.Before(r.Start) {
		r.Start = d
	}
	if r.End.Before(d) {
		r.End = d
	}
}

// InheritVideoLocations 让位置为 Unknown 的视频继承列表中前一条记录的位置（按列表顺序，在排序之前调用）。
//
// 只修改视频记录；图片的 Unknown 保持不变，但会把“前一条位置”重置为 Unknown。
func InheritVideoLocations(records []domain.MediaRecord) int {
	n := 0
	last := domain.UnknownLocation()
	for i := range records {
		rec := &records[i]
		if rec.Kind == domain.KindVideo && rec.Location.IsUnknown() && !last.IsUnknown() {
			rec.Location = last
			n++
		}
		last = rec.Location.Normalize()
	}
	return n
}
