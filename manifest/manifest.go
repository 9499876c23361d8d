// Package manifest 把每次运行写出的结构记录到 SQLite 索引中。
package manifest

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"regionstruct/batch"
)

// DB 结构清单
type DB struct {
	db     *sql.DB
	format string
}

// Entry structures 表中的一行
type Entry struct {
	Key         string
	Region      string
	Origin      [3]int
	Size        [3]int
	PaletteLen  int
	BlockCount  int
	DataVersion int32
	Format      string
	Path        string
	Checksum    string
}

// Open 打开（必要时创建）清单数据库，formatName 记录到每一行
func Open(path, formatName string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// 工作协程并发写入，单连接串行化
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, format: formatName}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS structures (
			key TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			min_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			min_z INTEGER NOT NULL,
			size_x INTEGER NOT NULL,
			size_y INTEGER NOT NULL,
			size_z INTEGER NOT NULL,
			palette_len INTEGER NOT NULL,
			block_count INTEGER NOT NULL,
			data_version INTEGER NOT NULL,
			format TEXT NOT NULL,
			path TEXT NOT NULL,
			checksum TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_structures_region ON structures(region);`,
		`CREATE TABLE IF NOT EXISTS regions (
			name TEXT PRIMARY KEY,
			structures INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			skipped_chunks INTEGER NOT NULL,
			data_version INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close 关闭数据库
func (m *DB) Close() error {
	return m.db.Close()
}

// AfterRegion 实现 batch.Hook
func (m *DB) AfterRegion(o *batch.Outcome) error {
	return m.RecordRegion(o)
}

// RecordRegion 在一个事务中写入区域及其全部结构，失败的区域不记录
func (m *DB) RecordRegion(o *batch.Outcome) error {
	if o == nil || o.Err != nil || o.Result == nil {
		return nil
	}

	// 先在事务外计算校验和
	sums := make([]string, len(o.Files))
	for i, f := range o.Files {
		sum, err := Checksum(f.Path)
		if err != nil {
			return fmt.Errorf("计算校验和失败: %w", err)
		}
		sums[i] = sum
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, f := range o.Files {
		_, err := tx.Exec(`INSERT INTO structures
			(key, region, min_x, min_y, min_z, size_x, size_y, size_z, palette_len, block_count, data_version, format, path, checksum)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				region=excluded.region, min_x=excluded.min_x, min_y=excluded.min_y, min_z=excluded.min_z,
				size_x=excluded.size_x, size_y=excluded.size_y, size_z=excluded.size_z,
				palette_len=excluded.palette_len, block_count=excluded.block_count,
				data_version=excluded.data_version, format=excluded.format,
				path=excluded.path, checksum=excluded.checksum;`,
			f.Key, o.Name, f.Origin[0], f.Origin[1], f.Origin[2], f.Size[0], f.Size[1], f.Size[2],
			f.PaletteLen, f.Blocks, f.DataVersion, m.format, f.Path, sums[i])
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT INTO regions (name, structures, chunks, skipped_chunks, data_version, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			structures=excluded.structures, chunks=excluded.chunks, skipped_chunks=excluded.skipped_chunks,
			data_version=excluded.data_version, elapsed_ms=excluded.elapsed_ms;`,
		o.Name, len(o.Files), o.Result.ChunksRead, o.Result.ChunksSkipped, o.Result.DataVersion, o.Elapsed.Milliseconds())
	if err != nil {
		return err
	}
	return tx.Commit()
}

const selectEntry = `SELECT key, region, min_x, min_y, min_z, size_x, size_y, size_z,
	palette_len, block_count, data_version, format, path, checksum FROM structures`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Key, &e.Region, &e.Origin[0], &e.Origin[1], &e.Origin[2],
		&e.Size[0], &e.Size[1], &e.Size[2], &e.PaletteLen, &e.BlockCount,
		&e.DataVersion, &e.Format, &e.Path, &e.Checksum)
	return e, err
}

// Structures 列出所有结构，按 key 排序
func (m *DB) Structures() ([]Entry, error) {
	rows, err := m.db.Query(selectEntry + ` ORDER BY key;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Lookup 按 key 查询结构
func (m *DB) Lookup(key string) (Entry, bool, error) {
	e, err := scanEntry(m.db.QueryRow(selectEntry+` WHERE key = ?;`, key))
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Checksum 文件内容的 BLAKE3-256 十六进制摘要
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
