// Package cositest produces collective signatures for tests and fixtures by
// simulating every signer locally. Production code only verifies.
package cositest

import (
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/schnorr"
)

// Sign produces a collective signature over msg by every member of r that is
// not in exceptions. privs[i] is the private key of roster member i; entries
// for excepted members are ignored.
//
// Each participant commits to r_i·G; with R = Σ r_i·G and c = H(R, P', msg)
// for the effective key P', the response is s = Σ (r_i + c·x_i).
func Sign(rnd io.Reader, r *roster.Roster, privs []curve.Scalar, msg []byte, exceptions *bitset.BitSet) (*cosi.Signature, error) {
	if len(privs) != r.Len() {
		return nil, fmt.Errorf("cositest: %d private keys for roster of %d", len(privs), r.Len())
	}
	excepted := func(i int) bool { return exceptions != nil && exceptions.Test(uint(i)) }

	nonces := make([]curve.Scalar, r.Len())
	var R curve.Point
	for i := range privs {
		if excepted(i) {
			continue
		}
		if !curve.MulBase(privs[i]).Equal(r.Get(i).Public) {
			return nil, fmt.Errorf("cositest: private key %d does not match roster", i)
		}
		n, err := curve.RandomScalar(rnd)
		if err != nil {
			return nil, err
		}
		nonces[i] = n
		R = R.Add(curve.MulBase(n))
	}

	key, err := cosi.EffectiveKey(r, exceptions)
	if err != nil {
		return nil, err
	}
	c := schnorr.Challenge(R, key, msg)

	var s curve.Scalar
	for i := range privs {
		if excepted(i) {
			continue
		}
		s = s.Add(nonces[i].Add(c.Mul(privs[i])))
	}
	return &cosi.Signature{
		Msg:        append([]byte(nil), msg...),
		Sig:        schnorr.Signature{R: R, S: s},
		Exceptions: exceptions,
	}, nil
}

// Committee is a roster together with its members' private keys.
type Committee struct {
	Roster *roster.Roster
	Privs  []curve.Scalar
}

// NewCommittee derives one key per name from the name itself, so the same
// names always give the same committee.
func NewCommittee(names ...string) (*Committee, error) {
	list := make([]roster.Identity, len(names))
	privs := make([]curve.Scalar, len(names))
	for i, n := range names {
		privs[i] = curve.ScalarFromSeed([]byte("cositest:" + n))
		list[i] = roster.Identity{Address: "tcp://" + n + ":7770", Public: curve.MulBase(privs[i]), Description: n}
	}
	r, err := roster.New(list)
	if err != nil {
		return nil, err
	}
	return &Committee{Roster: r, Privs: privs}, nil
}

// Sign signs msg with the whole committee minus exceptions.
func (c *Committee) Sign(rnd io.Reader, msg []byte, exceptions ...int) (*cosi.Signature, error) {
	var set *bitset.BitSet
	if len(exceptions) > 0 {
		set = cosi.NewExceptions(exceptions...)
	}
	return Sign(rnd, c.Roster, c.Privs, msg, set)
}
