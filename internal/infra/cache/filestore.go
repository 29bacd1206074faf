package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/PMC/internal/infra/fsx"
)

const fileFormatVersion = 1

// fileDoc 是 <dir>/<namespace>.json 的磁盘格式（内部实现细节，不是对外契约）。
type fileDoc struct {
	Version int                        `json:"version"`
	Entries map[string]json.RawMessage `json:"entries"`
}

// FileStore 把一个 namespace 的全部条目保存为单个 JSON 文档。
//
// - 首次访问时懒加载；文件不存在视为空表
// - 每次未命中写入都整体重写文档（临时文件 + rename）
// - 单进程使用，不加锁
type FileStore struct {
	Dir       string
	Namespace string
	ReadOnly  bool

	loaded  bool
	entries map[string]json.RawMessage
}

func NewFileStore(dir, namespace string, readOnly bool) (*FileStore, error) {
	ns, err := cleanNamespace(namespace)
	if err != nil {
		return nil, err
	}
	return &FileStore{
		Dir:       filepath.Clean(strings.TrimSpace(dir)),
		Namespace: ns,
		ReadOnly:  readOnly,
	}, nil
}

func (s *FileStore) Path() string {
	return filepath.Join(s.Dir, s.Namespace+".json")
}

// Load 强制执行懒加载；用于在开始工作前暴露坏缓存。
func (s *FileStore) Load() error {
	if s.loaded {
		return nil
	}
	path := s.Path()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.entries = map[string]json.RawMessage{}
			s.loaded = true
			return nil
		}
		return &CorruptError{Path: path, Err: err}
	}

	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return &CorruptError{Path: path, Err: err}
	}
	if doc.Version != fileFormatVersion {
		return &CorruptError{Path: path, Err: fmt.Errorf("不支持的版本 %d", doc.Version)}
	}
	if doc.Entries == nil {
		doc.Entries = map[string]json.RawMessage{}
	}
	s.entries = doc.Entries
	s.loaded = true
	return nil
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if err := s.Load(); err != nil {
		return nil, false, err
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *FileStore) Put(key string, value []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if err := s.Load(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("cache 值必须是合法 JSON：key=%s", key)
	}
	if old, ok := s.entries[key]; ok && bytes.Equal(old, value) {
		return nil
	}
	s.entries[key] = append(json.RawMessage(nil), value...)
	return s.flush()
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Len() int { return len(s.entries) }

func (s *FileStore) flush() error {
	b, err := json.Marshal(fileDoc{Version: fileFormatVersion, Entries: s.entries})
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(s.Dir, s.Namespace+".json", b)
}
