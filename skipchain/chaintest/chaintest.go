// Package chaintest builds signed skipchains for tests.
package chaintest

import (
	"io"
	"testing"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/cosi/cositest"
	"xdao.co/skipproof/skipchain"
)

// Chain is a linear skipchain with one forward link between consecutive
// blocks. Links[i] goes from Blocks[i] to Blocks[i+1] and is signed by
// Committees[i].
type Chain struct {
	Blocks     []*skipchain.Block
	Links      []*skipchain.ForwardLink
	Committees []*cositest.Committee

	// Rand feeds signing nonces; nil means crypto/rand.
	Rand io.Reader
}

// New starts a chain whose genesis block is governed by c.
func New(c *cositest.Committee, data []byte) *Chain {
	genesis := &skipchain.Block{Index: 0, Height: 1, Roster: c.Roster, Data: data}
	return &Chain{
		Blocks:     []*skipchain.Block{genesis},
		Committees: []*cositest.Committee{c},
	}
}

func (ch *Chain) Genesis() *skipchain.Block { return ch.Blocks[0] }

func (ch *Chain) GenesisID() skipchain.BlockID { return ch.Blocks[0].Hash() }

func (ch *Chain) Last() *skipchain.Block { return ch.Blocks[len(ch.Blocks)-1] }

// Append adds a block carrying data. A non-nil next hands the chain over to
// that committee; the link is still signed by the outgoing one. exceptions
// lists roster indexes of the signing committee that sit the link out.
func (ch *Chain) Append(data []byte, next *cositest.Committee, exceptions ...int) (*skipchain.Block, *skipchain.ForwardLink, error) {
	prev := ch.Last()
	signer := ch.Committees[len(ch.Committees)-1]
	incoming := signer
	if next != nil {
		incoming = next
	}
	b := &skipchain.Block{
		Index:     prev.Index + 1,
		Height:    1,
		GenesisID: ch.GenesisID(),
		BackLinks: []skipchain.BlockID{prev.Hash()},
		Roster:    incoming.Roster,
		Data:      data,
	}
	l := &skipchain.ForwardLink{From: prev.Hash(), To: b.Hash()}
	if next != nil {
		l.NewRoster = next.Roster
	}
	sig, err := signer.Sign(ch.Rand, l.Hash(), exceptions...)
	if err != nil {
		return nil, nil, err
	}
	l.Signature = sig

	ch.Blocks = append(ch.Blocks, b)
	ch.Links = append(ch.Links, l)
	ch.Committees = append(ch.Committees, incoming)
	return b, l, nil
}

// MustAppend is Append for tests.
func (ch *Chain) MustAppend(t testing.TB, data []byte, next *cositest.Committee, exceptions ...int) (*skipchain.Block, *skipchain.ForwardLink) {
	t.Helper()
	b, l, err := ch.Append(data, next, exceptions...)
	if err != nil {
		t.Fatalf("chaintest: append: %v", err)
	}
	return b, l
}

// Proof assembles a proof over all links, sealed with the last block.
func (ch *Chain) Proof(policy cosi.Policy) (*skipchain.Proof, error) {
	var last *skipchain.Block
	if len(ch.Links) > 0 {
		last = ch.Last()
	}
	return skipchain.Assemble(ch.GenesisID(), ch.Genesis().Roster, ch.Links, last, policy)
}

// MustCommittee is cositest.NewCommittee for tests.
func MustCommittee(t testing.TB, names ...string) *cositest.Committee {
	t.Helper()
	c, err := cositest.NewCommittee(names...)
	if err != nil {
		t.Fatalf("chaintest: committee: %v", err)
	}
	return c
}
