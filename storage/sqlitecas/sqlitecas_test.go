package sqlitecas

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/casregistry"
	"xdao.co/skipproof/storage/testkit"
)

func openTemp(t *testing.T) *CAS {
	t.Helper()
	cas, err := Open(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return cas
}

func TestSQLite_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS { return openTemp(t) })
}

func TestSQLite_RejectsTamperedRow(t *testing.T) {
	cas := openTemp(t)
	defer cas.Close()

	id, err := cas.Put([]byte("original block"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := cas.db.Exec(`UPDATE blocks SET data = ? WHERE cid = ?`, []byte("corrupted"), id.String()); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := cas.Get(id); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get: got %v want ErrCIDMismatch", err)
	}
	if _, err := cas.Put([]byte("original block")); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put: got %v want ErrImmutable", err)
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	cas, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := cas.Put([]byte("kept"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cas.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := casregistry.Open("sqlite", map[string]string{"path": path})
	if err != nil {
		t.Fatalf("registry Open: %v", err)
	}
	defer reopened.(storage.Closer).Close()
	got, err := reopened.Get(id)
	if err != nil || string(got) != "kept" {
		t.Fatalf("Get after reopen: %q %v", got, err)
	}
	n, err := reopened.(*CAS).Count(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Count: %d %v", n, err)
	}
}
