package testkit

import (
	"bytes"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/storage"
)

// MemCAS is an in-memory CAS for tests. Failing, when non-nil, is returned
// from every Get to simulate an unavailable backend.
type MemCAS struct {
	mu      sync.Mutex
	objects map[cid.Cid][]byte

	Failing error
}

var _ storage.CAS = (*MemCAS)(nil)

func NewMemCAS() *MemCAS { return &MemCAS{objects: map[cid.Cid][]byte{}} }

func (m *MemCAS) Put(data []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.objects[id]; ok {
		if !bytes.Equal(prev, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	m.objects[id] = bytes.Clone(data)
	return id, nil
}

func (m *MemCAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	if m.Failing != nil {
		return nil, m.Failing
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(b), nil
}

func (m *MemCAS) Has(id cid.Cid) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok
}

// Len reports the number of stored objects.
func (m *MemCAS) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
