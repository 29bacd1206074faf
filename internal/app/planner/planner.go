package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/PMC/internal/app"
	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/infra/fsx"
)

// ReadOutState 读取 outDir 的现状（只做 ReadDir + stat，不读文件内容）。
// 若 outDir 不存在，返回空状态且不报错。
func ReadOutState(outDir string) (domain.OutState, error) {
	st := domain.OutState{
		OutDir:   filepath.Clean(outDir),
		Existing: map[string]domain.ExistingFile{},
		Reserved: map[string]struct{}{},
	}

	entries, err := os.ReadDir(st.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		if fi, statErr := os.Stat(st.OutDir); statErr == nil && !fi.IsDir() {
			return domain.OutState{}, &fsx.PathTypeConflictError{Path: st.OutDir, Want: "dir", Got: "file"}
		}
		return domain.OutState{}, err
	}
	st.Exists = true

	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return domain.OutState{}, err
		}
		st.Existing[e.Name()] = domain.ExistingFile{
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		}
	}
	return st, nil
}

// OutDir 返回 run 的输出目录：<outRoot>/<label>。
func OutDir(outRoot string, run domain.Run) string {
	return filepath.Join(filepath.Clean(outRoot), app.RunLabel(run))
}

// PlanRun 基于 run + OutState 生成确定性的复制计划（不做任何写入）。
//
// 规则：
// - 目标文件名尽量保留源文件名（含扩展名大小写）
// - 同名已被本计划（或同目录的先前计划）占用：追加 __N
// - 目录中已有同名文件且 size+mtime 与源一致：标记 Unchanged，复用该名字
// - 目录中已有同名但内容不同的文件：不覆盖，另分配 __N
//
// st 会被更新（Reserved），以便标签相同的下一个 run 继续在同一目录里分配名字。
func PlanRun(outRoot string, run domain.Run, st *domain.OutState) (domain.RunPlan, error) {
	if st == nil {
		return domain.RunPlan{}, fmt.Errorf("nil OutState")
	}
	if st.Existing == nil {
		st.Existing = map[string]domain.ExistingFile{}
	}
	if st.Reserved == nil {
		st.Reserved = map[string]struct{}{}
	}

	label := app.RunLabel(run)
	outDir := filepath.Join(filepath.Clean(outRoot), label)
	if st.OutDir != "" && filepath.Clean(st.OutDir) != outDir {
		return domain.RunPlan{}, fmt.Errorf("OutState 目录不匹配：%q != %q", st.OutDir, outDir)
	}
	st.OutDir = outDir

	copies := make([]domain.CopyPlan, 0, len(run.Records))
	for _, rec := range run.Records {
		src, err := os.Stat(rec.Path)
		if err != nil {
			return domain.RunPlan{}, err
		}
		name, unchanged := allocName(filepath.Base(rec.Path), src, st)
		st.Reserved[name] = struct{}{}

		copies = append(copies, domain.CopyPlan{
			SrcAbs:    rec.Path,
			DstAbs:    filepath.Join(outDir, name),
			Unchanged: unchanged,
		})
	}

	return domain.RunPlan{
		Label:  label,
		OutDir: outDir,
		Run:    run,
		Copies: copies,
	}, nil
}

func allocName(name string, src os.FileInfo, st *domain.OutState) (string, bool) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		cand := name
		if n > 1 {
			cand = fmt.Sprintf("%s__%d%s", base, n, ext)
		}
		if _, ok := st.Reserved[cand]; ok {
			continue
		}
		ex, ok := st.Existing[cand]
		if !ok {
			return cand, false
		}
		if !ex.IsDir && fsx.SameContentHint(src, ex.Size, ex.ModTime) {
			return cand, true
		}
	}
}
