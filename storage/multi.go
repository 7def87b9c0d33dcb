package storage

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/skipproof/cidutil"
)

// WritePolicy selects which backends receive writes.
type WritePolicy string

const (
	// WriteFirst writes only to the first backend.
	WriteFirst WritePolicy = "first"
	// WriteAll writes to every backend and requires identical CIDs.
	WriteAll WritePolicy = "all"
)

// ParseWritePolicy maps a configuration value to a policy; "" is WriteFirst.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(s) {
	case "", WriteFirst:
		return WriteFirst, nil
	case WriteAll:
		return WriteAll, nil
	default:
		return "", fmt.Errorf("storage: unknown write policy %q", s)
	}
}

// NamedCAS associates a CAS with a stable backend name for reporting.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// MultiCAS provides deterministic, ordered fallback across several backends.
//
// Reads try backends in slice order; callers MUST supply a fixed order.
// Writes follow Policy.
type MultiCAS struct {
	Backends []NamedCAS
	Policy   WritePolicy
}

var _ CAS = (*MultiCAS)(nil)

func (m *MultiCAS) Put(bytes []byte) (cid.Cid, error) {
	if m.Policy == WriteAll {
		id, _, err := m.PutAll(bytes)
		return id, err
	}
	if len(m.Backends) == 0 {
		return cid.Undef, ErrNoBackends
	}
	return m.Backends[0].CAS.Put(bytes)
}

// PutAll writes the same bytes to every backend and returns the canonical
// CID with the per-backend results. A backend returning a different CID
// yields ErrCIDMismatch.
func (m *MultiCAS) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(m.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	out := make(map[string]cid.Cid, len(m.Backends))
	for _, b := range m.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(bytes)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (m *MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, b := range m.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, fmt.Errorf("storage: backend %q: %w", b.Name, err)
	}
	return nil, ErrNotFound
}

func (m *MultiCAS) Has(id cid.Cid) bool {
	for _, b := range m.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}

// Close closes every backend that holds resources.
func (m *MultiCAS) Close() error {
	var errs []error
	for _, b := range m.Backends {
		if c, ok := b.CAS.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: close %q: %w", b.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
