// Package cidutil maps block bytes and block ids to content identifiers.
//
// A block id is the SHA-256 of the block's canonical encoding, so the
// CIDv1 (raw codec, sha2-256 multihash) of those bytes carries exactly the
// block id as its digest. Either form can be derived from the other.
package cidutil

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// FromSHA256 wraps an existing sha2-256 digest as a CIDv1 (raw).
func FromSHA256(digest [sha256.Size]byte) (cid.Cid, error) {
	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// SHA256Digest returns the digest of a raw sha2-256 CID.
func SHA256Digest(id cid.Cid) ([sha256.Size]byte, error) {
	var out [sha256.Size]byte
	if !id.Defined() {
		return out, fmt.Errorf("cidutil: undefined cid")
	}
	if id.Type() != cid.Raw {
		return out, fmt.Errorf("cidutil: cid %s has codec %#x, want raw", id, id.Type())
	}
	dm, err := multihash.Decode(id.Hash())
	if err != nil {
		return out, fmt.Errorf("cidutil: %w", err)
	}
	if dm.Code != multihash.SHA2_256 || len(dm.Digest) != sha256.Size {
		return out, fmt.Errorf("cidutil: cid %s is not sha2-256", id)
	}
	copy(out[:], dm.Digest)
	return out, nil
}
