package cache

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Store 是一个持久化的 key→value 查找表（值为 JSON 文本）。
//
// 约束：
// - 一个 key 至多对应一个值；写入后不过期、不失效
// - 读到自己的写入：Put 成功后，重启进程再 Get 必须命中
// - 只读模式（dry-run）：Put 返回 ErrReadOnly
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Close() error
}

var ErrReadOnly = errors.New("cache: read-only")

// CorruptError 表示持久化的缓存无法读取或解析。
// 按约定它是致命错误：调用方不得把坏缓存当成空缓存继续运行。
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("缓存文件损坏或不可读：%q：%v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func IsCorrupt(err error) bool {
	var e *CorruptError
	return errors.As(err, &e)
}

// Key 把若干参数拼成规范、保序的文本指纹。
//
// 每个部分先做 strconv.Quote，再用 ',' 连接：不同切分方式不会撞成同一个 key。
func Key(parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(p))
	}
	return b.String()
}

var namespaceRE = regexp.MustCompile(`^[a-z0-9_]+$`)

func cleanNamespace(ns string) (string, error) {
	ns = strings.ToLower(strings.TrimSpace(ns))
	if ns == "" {
		return "", fmt.Errorf("namespace 不能为空")
	}
	// 最小约束：namespace 会成为文件名的一部分，避免路径穿越。
	if !namespaceRE.MatchString(ns) {
		return "", fmt.Errorf("非法 namespace：%q", ns)
	}
	return ns, nil
}
