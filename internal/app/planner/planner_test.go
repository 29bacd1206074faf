package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/infra/fsx"
)

func parisRun(paths ...string) domain.Run {
	d := domain.Date{Year: 2024, Month: time.January, Day: 1}
	r := domain.Run{Location: domain.Location{Country: "France", City: "Paris"}, Start: d, End: d}
	for _, p := range paths {
		r.Records = append(r.Records, domain.MediaRecord{Path: p, Kind: domain.KindImage, Location: r.Location, Date: d})
	}
	return r
}

func TestReadOutState_Missing(t *testing.T) {
	st, err := ReadOutState(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if st.Exists || len(st.Existing) != 0 {
		t.Fatalf("目录不存在时应返回空状态：%+v", st)
	}
}

func TestReadOutState_FileInTheWay(t *testing.T) {
	p := filepath.Join(t.TempDir(), "2024-01-01_france_paris")
	write(t, p, "x")
	_, err := ReadOutState(p)
	if !fsx.IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际 %v", err)
	}
}

func TestPlanRun_KeepsNamesAndAllocatesSuffix(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "in", "a", "IMG_1.jpg"), "aaa")
	b := write(t, filepath.Join(root, "in", "b", "IMG_1.jpg"), "bbbb")
	c := write(t, filepath.Join(root, "in", "c.jpg"), "c")
	outRoot := filepath.Join(root, "out")

	run := parisRun(a, b, c)
	st, err := ReadOutState(OutDir(outRoot, run))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	plan, err := PlanRun(outRoot, run, &st)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if plan.Label != "2024-01-01_france_paris" {
		t.Fatalf("label 不符合预期：%q", plan.Label)
	}
	want := []string{"IMG_1.jpg", "IMG_1__2.jpg", "c.jpg"}
	for i, cp := range plan.Copies {
		if filepath.Base(cp.DstAbs) != want[i] {
			t.Fatalf("第 %d 个目标名期望 %q，实际 %q", i, want[i], filepath.Base(cp.DstAbs))
		}
		if filepath.Dir(cp.DstAbs) != plan.OutDir {
			t.Fatalf("目标应位于 %q：%q", plan.OutDir, cp.DstAbs)
		}
		if cp.Unchanged {
			t.Fatalf("新目录不应出现 Unchanged：%+v", cp)
		}
	}
}

func TestPlanRun_UnchangedAndConflictingExisting(t *testing.T) {
	root := t.TempDir()
	same := write(t, filepath.Join(root, "in", "same.jpg"), "same")
	diff := write(t, filepath.Join(root, "in", "diff.jpg"), "new content")
	outRoot := filepath.Join(root, "out")
	run := parisRun(same, diff)
	outDir := OutDir(outRoot, run)

	// same.jpg：已复制过（size+mtime 一致）。
	if err := fsx.CopyFile(same, filepath.Join(outDir, "same.jpg")); err != nil {
		t.Fatalf("准备目标失败：%v", err)
	}
	// diff.jpg：同名但内容不同，不允许覆盖。
	write(t, filepath.Join(outDir, "diff.jpg"), "old")

	st, err := ReadOutState(outDir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	plan, err := PlanRun(outRoot, run, &st)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !plan.Copies[0].Unchanged || filepath.Base(plan.Copies[0].DstAbs) != "same.jpg" {
		t.Fatalf("same.jpg 应标记 Unchanged：%+v", plan.Copies[0])
	}
	if plan.Copies[1].Unchanged || filepath.Base(plan.Copies[1].DstAbs) != "diff__2.jpg" {
		t.Fatalf("diff.jpg 应分配新名字：%+v", plan.Copies[1])
	}
}

func TestPlanRun_SharedDirAcrossRuns(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "in", "x", "p.jpg"), "1")
	b := write(t, filepath.Join(root, "in", "y", "p.jpg"), "22")
	outRoot := filepath.Join(root, "out")

	r1, r2 := parisRun(a), parisRun(b)
	st, err := ReadOutState(OutDir(outRoot, r1))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	p1, err := PlanRun(outRoot, r1, &st)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	p2, err := PlanRun(outRoot, r2, &st)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p1.OutDir != p2.OutDir {
		t.Fatalf("标签相同的 run 应共用目录")
	}
	if p1.Copies[0].DstAbs == p2.Copies[0].DstAbs {
		t.Fatalf("共用目录时不应分配相同的目标名：%q", p1.Copies[0].DstAbs)
	}
}

func TestPlanRun_MissingSource(t *testing.T) {
	st := domain.OutState{}
	if _, err := PlanRun(t.TempDir(), parisRun("/nonexistent/pmc/a.jpg"), &st); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	return path
}
