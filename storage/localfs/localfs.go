// Package localfs stores canonical block encodings as files, one per block,
// named by the hex block id.
package localfs

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/casregistry"
)

const ext = ".blk"

// CAS is a local filesystem-backed content-addressable store.
//
// Objects are stored immutably under <root>/<hex[:2]>/<hex>.blk where hex is
// the sha2-256 digest of the stored bytes (the block id). Only raw sha2-256
// CIDs are addressable.
type CAS struct {
	root string
}

var _ storage.CAS = (*CAS)(nil)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem block directory",
		Keys:        map[string]string{"dir": "root directory, created if missing"},
		Open: func(settings map[string]string) (storage.CAS, error) {
			dir, err := casregistry.Require("localfs", settings, "dir")
			if err != nil {
				return nil, err
			}
			return New(dir)
		},
	})
}

// New constructs a filesystem CAS rooted at root. The directory will be created if needed.
func New(root string) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root}, nil
}

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	path, err := c.pathFor(id)
	if err != nil {
		return cid.Undef, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	// Write to a temp file, then hard-link it into place: the final name
	// either does not exist or holds complete bytes.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return cid.Undef, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return cid.Undef, err
	}
	if err := tmp.Close(); err != nil {
		return cid.Undef, err
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		return cid.Undef, err
	}

	if err := os.Link(tmpName, path); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return cid.Undef, err
		}
		existing, rerr := os.ReadFile(path)
		if rerr != nil || !bytes.Equal(existing, data) {
			// Present but unreadable or different: never repair in place.
			return cid.Undef, storage.ErrImmutable
		}
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	path, err := c.pathFor(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	path, err := c.pathFor(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// IDs lists the digests of every stored object in ascending hex order.
func (c *CAS) IDs() ([][32]byte, error) {
	var out [][32]byte
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		raw, err := hex.DecodeString(strings.TrimSuffix(d.Name(), ext))
		if err != nil || len(raw) != 32 {
			return nil
		}
		var digest [32]byte
		copy(digest[:], raw)
		out = append(out, digest)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localfs: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out, nil
}

func (c *CAS) pathFor(id cid.Cid) (string, error) {
	if !id.Defined() {
		return "", storage.ErrInvalidCID
	}
	digest, err := cidutil.SHA256Digest(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidCID, err)
	}
	h := hex.EncodeToString(digest[:])
	return filepath.Join(c.root, h[:2], h+ext), nil
}
