package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// 测试通过替换它模拟 EXDEV/权限错误。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型不对，例如 run 目录的位置上已有同名文件。
// 上层映射为 error_code=target_conflict。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示临时文件无法落到目标位置（EXDEV）。
// 临时文件与目标同目录，出现它说明目标目录在写入期间被换成了挂载点。
type CrossDeviceError struct {
	Tmp string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("无法落盘到 %q（EXDEV，临时文件 %q）：%v", e.Dst, e.Tmp, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// WriteFileAtomicReplace 原子地把 data 写成 dir/name，已存在则替换。
// 缓存文档与 report.json 都经由它写出：读者只会看到旧内容或完整的新内容。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeAtomic(dir, name, 0o644, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// writeAtomic 是 WriteFileAtomicReplace 与 CopyFile 的共同落盘路径：
// 同目录隐藏临时文件 → fill → chmod/fsync → 替换目标。失败时不留下临时文件或半截目标。
func writeAtomic(dir, name string, perm os.FileMode, fill func(f *os.File) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	published := false
	defer func() {
		_ = tmp.Close()
		if !published {
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)
	if err := renameFunc(tmpName, dst); err != nil {
		if crossDevice(err) {
			return &CrossDeviceError{Tmp: tmpName, Dst: dst, Err: err}
		}
		return err
	}
	published = true

	syncDir(dir)
	return nil
}

// syncDir 让目录项的变更持久化；失败不影响结果。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
