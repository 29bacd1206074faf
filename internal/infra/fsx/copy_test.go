package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCopyFile_PreservesContentAndMtime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IMG_0001.jpg")
	if err := os.WriteFile(src, []byte("jpeg-bytes"), 0o640); err != nil {
		t.Fatalf("写入源文件失败：%v", err)
	}
	mtime := time.Date(2024, 1, 3, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatalf("设置时间失败：%v", err)
	}

	outDir := filepath.Join(dir, "out", "2024-01-03")
	if err := EnsureDir(outDir); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	dst := filepath.Join(outDir, "IMG_0001.jpg")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("读取目标失败：%v", err)
	}
	if string(b) != "jpeg-bytes" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	fi, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}
	if !fi.ModTime().Equal(mtime) {
		t.Fatalf("mtime 未保留：want=%v got=%v", mtime, fi.ModTime())
	}
	if fi.Mode().Perm() != 0o640 {
		t.Fatalf("权限位未保留：%v", fi.Mode().Perm())
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}

func TestCopyFile_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("写入源文件失败：%v", err)
	}
	if err := os.WriteFile(dst, []byte("old-content"), 0o644); err != nil {
		t.Fatalf("写入目标失败：%v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, _ := os.ReadFile(dst)
	if string(b) != "new" {
		t.Fatalf("期望覆盖，实际：%q", string(b))
	}
}

func TestCopyFile_TargetIsDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入源文件失败：%v", err)
	}
	dst := filepath.Join(dir, "out", "a.jpg")
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := CopyFile(src, dst)
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "2024-01-01_france_paris")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := EnsureDir(p)
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}

	// 幂等：目录已存在时不报错。
	q := filepath.Join(dir, "2024-01-02")
	if err := EnsureDir(q); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := EnsureDir(q); err != nil {
		t.Fatalf("重复创建不应报错：%v", err)
	}
}

func TestSameContentHint(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}
	if !SameContentHint(fi, 3, fi.ModTime()) {
		t.Fatalf("size+mtime 相同应判定为相同")
	}
	if SameContentHint(fi, 4, fi.ModTime()) {
		t.Fatalf("size 不同不应判定为相同")
	}
	if SameContentHint(nil, 3, fi.ModTime()) {
		t.Fatalf("nil FileInfo 不应判定为相同")
	}
}
