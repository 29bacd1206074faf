package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

const (
	NamespaceCoords = "coords" // GPS 度分秒 → 十进制
	NamespaceMedia  = "media"  // 单文件元数据抽取结果
	NamespacePlaces = "places" // 逆地理编码结果
)

// Stores 是一次运行用到的全部缓存实例（进程启动时打开一次，注入各组件）。
type Stores struct {
	Coords Store
	Media  Store
	Places Store

	loaders []func() error
	closers []func() error
}

// OpenStores 在 dir 下按 backend 打开三个 namespace。
func OpenStores(dir, backend string, readOnly bool) (*Stores, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if dir == "" || dir == "." {
		return nil, fmt.Errorf("cache.dir 不能为空")
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return openFileStores(dir, readOnly)
	case BackendSQLite:
		return openSQLiteStores(dir, readOnly)
	default:
		return nil, fmt.Errorf("未知 cache.backend：%q（只能是 json 或 sqlite）", backend)
	}
}

func openFileStores(dir string, readOnly bool) (*Stores, error) {
	out := &Stores{}
	open := func(ns string) (Store, error) {
		fs, err := NewFileStore(dir, ns, readOnly)
		if err != nil {
			return nil, err
		}
		out.loaders = append(out.loaders, fs.Load)
		out.closers = append(out.closers, fs.Close)
		return fs, nil
	}

	var err error
	if out.Coords, err = open(NamespaceCoords); err != nil {
		return nil, err
	}
	if out.Media, err = open(NamespaceMedia); err != nil {
		return nil, err
	}
	if out.Places, err = open(NamespacePlaces); err != nil {
		return nil, err
	}
	return out, nil
}

func openSQLiteStores(dir string, readOnly bool) (*Stores, error) {
	db, err := OpenSQLite(filepath.Join(dir, "cache.db"), readOnly)
	if err != nil {
		return nil, err
	}
	out := &Stores{closers: []func() error{db.Close}}

	ns := func(name string) (Store, error) {
		st, err := db.Namespace(name)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	if out.Coords, err = ns(NamespaceCoords); err != nil {
		_ = db.Close()
		return nil, err
	}
	if out.Media, err = ns(NamespaceMedia); err != nil {
		_ = db.Close()
		return nil, err
	}
	if out.Places, err = ns(NamespacePlaces); err != nil {
		_ = db.Close()
		return nil, err
	}
	return out, nil
}

// Load 强制加载所有懒加载的 store；任何坏缓存都会在这里以 CorruptError 暴露。
func (s *Stores) Load() error {
	for _, load := range s.loaders {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
