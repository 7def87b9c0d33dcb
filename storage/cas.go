// Package storage defines the content-addressed store that holds encoded
// skipchain blocks, keyed by the CIDv1 (raw, sha2-256) of their bytes.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical block encodings).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Closer is implemented by backends that hold resources (files, database
// handles, connections).
type Closer interface {
	Close() error
}
