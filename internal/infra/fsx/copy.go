package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/djherbis/times"
)

// EnsureDir 幂等创建目录；若路径已存在但不是目录，返回 PathTypeConflictError。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// CopyFile 把 src 复制到 dst（覆盖已存在的普通文件），并保留权限位与访问/修改时间。
//
// 复制走临时文件 + rename：中途失败不会在 dst 留下半截文件。
// dst 所在目录必须已存在（由上层 EnsureDir 负责）。
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: src, Want: "regular file", Got: fi.Mode().Type().String()}
	}

	if dfi, err := os.Lstat(dst); err == nil {
		if dfi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !dfi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: dst, Want: "regular file", Got: dfi.Mode().Type().String()}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	atime, mtime := fileTimes(src, fi)

	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	return writeAtomic(dir, name, fi.Mode().Perm(), func(f *os.File) error {
		n, err := io.Copy(f, in)
		if err != nil {
			return err
		}
		if n != fi.Size() {
			return fmt.Errorf("复制不完整：%q 期望 %d 字节，实际 %d", src, fi.Size(), n)
		}
		// 在 rename 之前设置时间：目标文件一出现就带着源文件的时间戳。
		return os.Chtimes(f.Name(), atime, mtime)
	})
}

// SameContentHint 用 size + mtime 粗略判断 dst 是否已是 src 的副本（不读内容）。
func SameContentHint(src os.FileInfo, dstSize int64, dstMod time.Time) bool {
	if src == nil {
		return false
	}
	return src.Size() == dstSize && src.ModTime().Equal(dstMod)
}

func fileTimes(path string, fi os.FileInfo) (atime, mtime time.Time) {
	mtime = fi.ModTime()
	atime = mtime
	if ts, err := times.Stat(path); err == nil {
		atime = ts.AccessTime()
		mtime = ts.ModTime()
	}
	return atime, mtime
}
