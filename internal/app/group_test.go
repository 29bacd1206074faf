package app

import (
	"testing"
	"time"

	"github.com/John-Robertt/PMC/internal/domain"
)

func rec(path, country, city string, y int, m time.Month, d int) domain.MediaRecord {
	loc := domain.Location{Country: country, City: city}.Normalize()
	return domain.MediaRecord{
		Path:     path,
		Kind:     domain.KindImage,
		Location: loc,
		Date:     domain.Date{Year: y, Month: m, Day: d},
	}
}

func TestGroupRuns_Empty(t *testing.T) {
	if runs := GroupRuns(nil); len(runs) != 0 {
		t.Fatalf("空输入期望 0 个 run，实际 %d", len(runs))
	}
}

func TestGroupRuns_SingleLocation(t *testing.T) {
	records := []domain.MediaRecord{
		rec("c.jpg", "France", "Paris", 2024, time.January, 3),
		rec("a.jpg", "France", "Paris", 2024, time.January, 1),
		rec("b.jpg", "France", "Paris", 2024, time.January, 1),
	}
	SortRecords(records)
	runs := GroupRuns(records)
	if len(runs) != 1 {
		t.Fatalf("期望 1 个 run，实际 %d", len(runs))
	}
	if got := RunLabel(runs[0]); got != "2024-01-01_2024-01-03_france_paris" {
		t.Fatalf("label 不符合预期：%q", got)
	}
	// 同日记录保持原列表顺序。
	paths := runs[0].Paths()
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("期望 %v，实际 %v", want, paths)
		}
	}
}

func TestGroupRuns_UnknownThenKnown(t *testing.T) {
	records := []domain.MediaRecord{
		rec("a.jpg", "", "", 2024, time.February, 2),
		rec("b.jpg", "Spain", "Madrid", 2024, time.February, 2),
	}
	SortRecords(records)
	runs := GroupRuns(records)
	if len(runs) != 2 {
		t.Fatalf("期望 2 个 run，实际 %d", len(runs))
	}
	if got := RunLabel(runs[0]); got != "2024-02-02" {
		t.Fatalf("Unknown run 的 label 只应包含日期：%q", got)
	}
	if got := RunLabel(runs[1]); got != "2024-02-02_spain_madrid" {
		t.Fatalf("label 不符合预期：%q", got)
	}
}

func TestGroupRuns_ConcatenationReconstructsInput(t *testing.T) {
	records := []domain.MediaRecord{
		rec("1", "France", "Paris", 2024, time.March, 1),
		rec("2", "France", "Paris", 2024, time.March, 1),
		rec("3", "Spain", "Madrid", 2024, time.March, 2),
		rec("4", "France", "Paris", 2024, time.March, 3),
		rec("5", "", "", 2024, time.March, 4),
		rec("6", "", "", 2024, time.March, 4),
	}
	runs := GroupRuns(records)
	if len(runs) != 4 {
		t.Fatalf("期望 4 个 run，实际 %d", len(runs))
	}

	var all []string
	for _, r := range runs {
		for _, x := range r.Records {
			if x.Location.Normalize() != r.Location {
				t.Fatalf("run 内位置不一致：%v vs %v", x.Location, r.Location)
			}
		}
		all = append(all, r.Paths()...)
	}
	for i := range records {
		if all[i] != records[i].Path {
			t.Fatalf("拼接结果与输入不一致：%v", all)
		}
	}
	// 相邻 run 的位置必须不同（最长连续段）。
	for i := 1; i < len(runs); i++ {
		if runs[i].Location == runs[i-1].Location {
			t.Fatalf("相邻 run 位置相同：%v", runs[i].Location)
		}
	}
}

func TestInheritVideoLocations(t *testing.T) {
	records := []domain.MediaRecord{
		rec("a.jpg", "France", "Paris", 2024, time.January, 1),
		{Path: "b.mp4", Kind: domain.KindVideo, Location: domain.UnknownLocation()},
		rec("c.jpg", "", "", 2024, time.January, 2),
		{Path: "d.mp4", Kind: domain.KindVideo, Location: domain.UnknownLocation()},
	}
	n := InheritVideoLocations(records)
	if n != 1 {
		t.Fatalf("期望继承 1 条，实际 %d", n)
	}
	if records[1].Location != (domain.Location{Country: "France", City: "Paris"}) {
		t.Fatalf("视频应继承前一条记录的位置：%v", records[1].Location)
	}
	if !records[3].Location.IsUnknown() {
		t.Fatalf("前一条为 Unknown 时不应继承：%v", records[3].Location)
	}
}
