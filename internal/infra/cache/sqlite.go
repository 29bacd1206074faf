package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS entries (
	ns    TEXT NOT NULL,
	key   TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (ns, key)
)`

// SQLiteDB 是所有 namespace 共享的单个数据库文件（增量持久化，不整体重写）。
type SQLiteDB struct {
	Path     string
	ReadOnly bool

	db *sql.DB // ReadOnly 且文件不存在时为 nil：所有 Get 都未命中
}

// OpenSQLite 打开（或在可写模式下创建）path 处的缓存数据库，并做一次完整性检查。
func OpenSQLite(path string, readOnly bool) (*SQLiteDB, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	s := &SQLiteDB{Path: path, ReadOnly: readOnly}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, &CorruptError{Path: path, Err: err}
		}
		if readOnly {
			// dry-run：不为了“读一个空缓存”去创建文件。
			return s, nil
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	// 单进程单线程使用；一个连接即可，也避免多连接下的锁竞争。
	db.SetMaxOpenConns(1)

	if err := checkSQLite(db, readOnly); err != nil {
		_ = db.Close()
		return nil, &CorruptError{Path: path, Err: err}
	}
	s.db = db
	return s, nil
}

func checkSQLite(db *sql.DB, readOnly bool) error {
	var res string
	if err := db.QueryRow(`PRAGMA quick_check`).Scan(&res); err != nil {
		return err
	}
	if res != "ok" {
		return fmt.Errorf("quick_check: %s", res)
	}
	if readOnly {
		return nil
	}
	_, err := db.Exec(sqliteSchema)
	return err
}

// Namespace 返回绑定到 ns 的 Store 视图。
func (s *SQLiteDB) Namespace(ns string) (*SQLiteStore, error) {
	n, err := cleanNamespace(ns)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: s, ns: n}, nil
}

func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SQLiteStore 是 SQLiteDB 中一个 namespace 的 Store 实现。
type SQLiteStore struct {
	db *SQLiteDB
	ns string
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	if s.db.db == nil {
		return nil, false, nil
	}
	var v []byte
	err := s.db.db.QueryRow(`SELECT value FROM entries WHERE ns = ? AND key = ?`, s.ns, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		// 只读模式下表可能尚不存在（旧库为空）：视为未命中。
		if s.db.ReadOnly && strings.Contains(err.Error(), "no such table") {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) Put(key string, value []byte) error {
	if s.db.ReadOnly || s.db.db == nil {
		return ErrReadOnly
	}
	_, err := s.db.db.Exec(`INSERT INTO entries (ns, key, value) VALUES (?, ?, ?)
ON CONFLICT (ns, key) DO UPDATE SET value = excluded.value`, s.ns, key, value)
	return err
}

// Close 由 SQLiteDB 统一关闭；namespace 视图本身不持有资源。
func (s *SQLiteStore) Close() error { return nil }
