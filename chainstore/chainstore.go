// Package chainstore stores skipchain blocks in a CAS, addressed by block id.
//
// A block id is the sha2-256 digest of the canonical encoding, so the CAS
// key for a block is cidutil.FromSHA256(id). Every read is decoded and
// re-hashed; a backend cannot substitute one block for another.
package chainstore

import (
	"context"

	"golang.org/x/sync/errgroup"

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/verr"
)

// Store is a typed view over a storage.CAS.
type Store struct {
	cas storage.CAS
}

// New stores blocks in cas.
func New(cas storage.CAS) *Store { return &Store{cas: cas} }

// CAS returns the underlying store.
func (s *Store) CAS() storage.CAS { return s.cas }

// PutBlock stores b and returns its id.
func (s *Store) PutBlock(b *skipchain.Block) (skipchain.BlockID, error) {
	if b == nil {
		return skipchain.BlockID{}, verr.New(verr.KindFormat, "STORE-001", "nil block")
	}
	id := b.Hash()
	got, err := s.cas.Put(b.Encode())
	if err != nil {
		return skipchain.BlockID{}, err
	}
	digest, err := cidutil.SHA256Digest(got)
	if err != nil {
		return skipchain.BlockID{}, verr.Wrap(verr.KindMismatch, "STORE-002", "backend returned unexpected cid", err)
	}
	if skipchain.BlockID(digest) != id {
		return skipchain.BlockID{}, verr.Newf(verr.KindMismatch, "STORE-002", "backend stored block %s under %s", id, got)
	}
	return id, nil
}

// GetBlock loads and decodes the block with the given id. Absent blocks
// yield storage.ErrNotFound.
func (s *Store) GetBlock(id skipchain.BlockID) (*skipchain.Block, error) {
	key, err := cidutil.FromSHA256(id)
	if err != nil {
		return nil, err
	}
	data, err := s.cas.Get(key)
	if err != nil {
		return nil, err
	}
	b, err := skipchain.DecodeBlock(data)
	if err != nil {
		return nil, err
	}
	if got := b.Hash(); got != id {
		return nil, verr.Newf(verr.KindMismatch, "STORE-003", "stored block hashes to %s, want %s", got, id)
	}
	return b, nil
}

// HasBlock reports whether the backend holds id. Contents are not checked.
func (s *Store) HasBlock(id skipchain.BlockID) bool {
	key, err := cidutil.FromSHA256(id)
	if err != nil {
		return false
	}
	return s.cas.Has(key)
}

// GetBlocks loads several blocks concurrently, at most limit at a time
// (limit <= 0 means unbounded). The result is in the order of ids.
func (s *Store) GetBlocks(ctx context.Context, ids []skipchain.BlockID, limit int) ([]*skipchain.Block, error) {
	out := make([]*skipchain.Block, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := s.GetBlock(id)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PutChain stores every block of a chain, genesis first.
func (s *Store) PutChain(blocks []*skipchain.Block) ([]skipchain.BlockID, error) {
	ids := make([]skipchain.BlockID, 0, len(blocks))
	for _, b := range blocks {
		id, err := s.PutBlock(b)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
