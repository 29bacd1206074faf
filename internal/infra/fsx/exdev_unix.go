//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// crossDevice 识别 rename 返回的 EXDEV；*os.LinkError 会被 errors.Is 展开。
func crossDevice(err error) bool { return errors.Is(err, syscall.EXDEV) }
