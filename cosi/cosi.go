// Package cosi verifies collective Schnorr signatures produced by a roster.
//
// A collective signature is an ordinary Schnorr signature under the roster's
// effective key: the aggregate of all member keys minus the keys of members
// marked in the exception set. Which members may be excepted is decided by a
// Policy.
package cosi

import (
	"bytes"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/schnorr"
	"xdao.co/skipproof/verr"
)

// Signature is a collective signature.
type Signature struct {
	// Msg is the message the signers claim to have signed.
	Msg []byte
	Sig schnorr.Signature
	// Exceptions marks, by roster index, the members that did not sign.
	// Nil means everyone signed.
	Exceptions *bitset.BitSet
}

// Participants returns the number of roster members that signed.
func (s *Signature) Participants(n int) int {
	if s.Exceptions == nil {
		return n
	}
	return n - int(s.Exceptions.Count())
}

// ExceptionIndexes lists the excepted roster indexes in ascending order.
func (s *Signature) ExceptionIndexes() []int {
	if s.Exceptions == nil {
		return nil
	}
	var out []int
	for i, ok := s.Exceptions.NextSet(0); ok; i, ok = s.Exceptions.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// NewExceptions returns an exception set marking the given indexes.
func NewExceptions(indexes ...int) *bitset.BitSet {
	b := bitset.New(0)
	for _, i := range indexes {
		b.Set(uint(i))
	}
	return b
}

// EffectiveKey returns the roster aggregate with the keys of excepted members
// removed. An exception index outside the roster is a format error.
func EffectiveKey(r *roster.Roster, exceptions *bitset.BitSet) (curve.Point, error) {
	key := r.Aggregate()
	if exceptions == nil {
		return key, nil
	}
	for i, ok := exceptions.NextSet(0); ok; i, ok = exceptions.NextSet(i + 1) {
		if int(i) >= r.Len() {
			return curve.Point{}, verr.Newf(verr.KindFormat, "COSI-FMT-001", "exception index %d outside roster of %d", i, r.Len())
		}
		key = key.Add(r.Get(int(i)).Public.Neg())
	}
	return key, nil
}

// Verify checks sig as a collective signature by r over msg.
//
// The checks run in order and stop at the first failure: the claimed message
// must match msg, the exception set must index existing members, the policy
// must accept the participation, and the Schnorr equation must hold for the
// effective key. A nil policy means DefaultPolicy.
func Verify(r *roster.Roster, msg []byte, sig *Signature, policy Policy) error {
	if r == nil {
		return verr.New(verr.KindCommittee, "COSI-001", "no roster to verify against")
	}
	if sig == nil {
		return verr.New(verr.KindSignature, "COSI-002", "missing collective signature")
	}
	if sig.Msg != nil && !bytes.Equal(sig.Msg, msg) {
		return verr.New(verr.KindMismatch, "COSI-003", "signed message differs from expected message")
	}
	key, err := EffectiveKey(r, sig.Exceptions)
	if err != nil {
		return err
	}
	if policy == nil {
		policy = DefaultPolicy
	}
	if err := policy.Check(sig.Participants(r.Len()), r.Len()); err != nil {
		return verr.Wrap(verr.KindSignature, "COSI-004", "participation rejected by policy", err)
	}
	if err := schnorr.Verify(key, msg, sig.Sig); err != nil {
		return verr.Wrap(verr.KindSignature, "COSI-005", "collective signature does not verify", err)
	}
	return nil
}

// Clone returns a copy of s that shares no mutable state with it.
func (s *Signature) Clone() *Signature {
	if s == nil {
		return nil
	}
	c := *s
	c.Msg = append([]byte(nil), s.Msg...)
	if s.Exceptions != nil {
		c.Exceptions = s.Exceptions.Clone()
	}
	return &c
}

func (s *Signature) String() string {
	return fmt.Sprintf("cosi.Signature(msg=%x, exceptions=%v)", s.Msg, s.ExceptionIndexes())
}
