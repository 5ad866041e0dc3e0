package groupstore

import (
	"database/sql"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"autograph-ds-builder/utils"
)

const defaultBatchSize = 10000

const createTableSQL = `CREATE TABLE IF NOT EXISTS group_keys (key TEXT NOT NULL PRIMARY KEY) WITHOUT ROWID`

/*
sqliteSet 把 key 以批量事务写入 SQLite，内存中只保留尚未落盘的一批。
*/
type sqliteSet struct {
	db        *sql.DB
	path      string
	pending   map[string]struct{}
	batchSize int
}

/*
NewSQLiteSet 在 path 处新建（覆盖已有文件）一个基于 SQLite 的 Set，path 为空时使用内存数据库。
*/
func NewSQLiteSet(path string) (Set, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, utils.WrapErrorf(err, "remove old group store [%s] fail", path)
		}
		dsn = "file:" + path + "?_pragma=journal_mode(OFF)&_pragma=synchronous(OFF)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, utils.WrapError(err, "open sqlite fail")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, utils.WrapError(err, "create group table fail")
	}

	return &sqliteSet{
		db:        db,
		path:      path,
		pending:   make(map[string]struct{}),
		batchSize: defaultBatchSize,
	}, nil
}

func (s *sqliteSet) flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return utils.WrapError(err, "begin tx fail")
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO group_keys (key) VALUES (?)`)
	if err != nil {
		_ = tx.Rollback()
		return utils.WrapError(err, "prepare insert fail")
	}
	defer stmt.Close()

	for key := range s.pending {
		if _, err := stmt.Exec(key); err != nil {
			_ = tx.Rollback()
			return utils.WrapError(err, "insert group key fail")
		}
	}
	if err := tx.Commit(); err != nil {
		return utils.WrapError(err, "commit group keys fail")
	}

	s.pending = make(map[string]struct{})
	return nil
}

func (s *sqliteSet) Add(key string) error {
	s.pending[key] = struct{}{}
	if len(s.pending) >= s.batchSize {
		return s.flush()
	}
	return nil
}

func (s *sqliteSet) Has(key string) (bool, error) {
	if _, ok := s.pending[key]; ok {
		return true, nil
	}

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM group_keys WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, utils.WrapError(err, "query group key fail")
	}
	return true, nil
}

func (s *sqliteSet) Len() (int, error) {
	if err := s.flush(); err != nil {
		return 0, err
	}

	var cnt int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM group_keys`).Scan(&cnt); err != nil {
		return 0, utils.WrapError(err, "count group keys fail")
	}
	return cnt, nil
}

func (s *sqliteSet) Each(fn func(key string) error) error {
	if err := s.flush(); err != nil {
		return err
	}

	rows, err := s.db.Query(`SELECT key FROM group_keys ORDER BY key`)
	if err != nil {
		return utils.WrapError(err, "select group keys fail")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return utils.WrapError(err, "scan group key fail")
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *sqliteSet) Close() error {
	err := s.db.Close()
	if s.path != "" {
		_ = os.Remove(s.path)
	}
	return utils.WrapError(err, "close group store fail")
}
