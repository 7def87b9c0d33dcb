// Package sqlitecas keeps encoded blocks in a single SQLite database file.
package sqlitecas

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	_ "modernc.org/sqlite" // Import SQLite driver for database/sql

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/casregistry"
)

const opTimeout = 5 * time.Second

// CAS is a SQLite-backed content-addressable store.
type CAS struct{ db *sql.DB }

var (
	_ storage.CAS    = (*CAS)(nil)
	_ storage.Closer = (*CAS)(nil)
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "sqlite",
		Description: "SQLite database file",
		Keys:        map[string]string{"path": "database file (or DSN), created if missing"},
		Open: func(settings map[string]string) (storage.CAS, error) {
			path, err := casregistry.Require("sqlite", settings, "path")
			if err != nil {
				return nil, err
			}
			return Open(path)
		},
	})
}

// Open opens/creates a SQLite DB and ensures schema + PRAGMAs.
func Open(dsn string) (*CAS, error) {
	if dsn == "" {
		return nil, errors.New("sqlitecas: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlitecas: set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS blocks (
  cid   TEXT    PRIMARY KEY,
  data  BLOB,
  added INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &CAS{db: db}, nil
}

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return cid.Undef, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	switch err := tx.QueryRowContext(ctx, `SELECT data FROM blocks WHERE cid = ?`, id.String()).Scan(&existing); {
	case err == nil:
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return cid.Undef, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO blocks(cid, data, added) VALUES(?, ?, ?)`,
		id.String(), data, time.Now().UnixMilli()); err != nil {
		return cid.Undef, err
	}
	if err := tx.Commit(); err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM blocks WHERE cid = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	got, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrCIDMismatch
	}
	return data, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	var one int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE cid = ?`, id.String()).Scan(&one)
	return err == nil
}

// Count reports the number of stored objects.
func (c *CAS) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *CAS) Close() error { return c.db.Close() }
