package skipchain

import (
	"bytes"
	"crypto/sha256"

	"google.golang.org/protobuf/encoding/protowire"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/verr"
)

// ForwardLink asserts, under the collective signature of the roster active
// at From, that To follows From. A non-nil NewRoster hands the chain over to
// a new committee from To onwards.
type ForwardLink struct {
	From      BlockID
	To        BlockID
	NewRoster *roster.Roster
	Signature *cosi.Signature
}

// Clone returns a deep copy of l. Rosters are immutable and stay shared.
func (l *ForwardLink) Clone() *ForwardLink {
	if l == nil {
		return nil
	}
	c := *l
	c.Signature = l.Signature.Clone()
	return &c
}

// Message returns from(32) ‖ to(32) ‖ [new roster id(16)].
func (l *ForwardLink) Message() []byte {
	msg := make([]byte, 0, 2*BlockIDSize+16)
	msg = append(msg, l.From[:]...)
	msg = append(msg, l.To[:]...)
	if l.NewRoster != nil {
		id := l.NewRoster.ID()
		msg = append(msg, id[:]...)
	}
	return msg
}

// Hash returns SHA-256 of Message(). This digest is what the committee signs
// and what the signature claims as its message.
func (l *ForwardLink) Hash() []byte {
	h := sha256.Sum256(l.Message())
	return h[:]
}

// CheckClaimedMessage confirms the signature claims to cover this link.
func (l *ForwardLink) CheckClaimedMessage() error {
	if l.Signature == nil {
		return verr.New(verr.KindSignature, "SKIP-LINK-003", "forward link is not signed")
	}
	if !bytes.Equal(l.Signature.Msg, l.Hash()) {
		return verr.New(verr.KindMismatch, "SKIP-LINK-004", "forward link signature claims a different message")
	}
	return nil
}

// Verify checks the link's collective signature against active.
func (l *ForwardLink) Verify(active *roster.Roster, policy cosi.Policy) error {
	if l.Signature == nil {
		return verr.New(verr.KindSignature, "SKIP-LINK-003", "forward link is not signed")
	}
	return cosi.Verify(active, l.Hash(), l.Signature, policy)
}

// Binary layout (protobuf wire):
//
//	1: from(32)
//	2: to(32)
//	3: new roster
//	4: collective signature
const (
	fieldFrom      protowire.Number = 1
	fieldTo        protowire.Number = 2
	fieldNewRoster protowire.Number = 3
	fieldSignature protowire.Number = 4
)

// Encode returns the binary form of l.
func (l *ForwardLink) Encode() []byte {
	var b []byte
	b = wire.AppendBytes(b, fieldFrom, l.From[:])
	b = wire.AppendBytes(b, fieldTo, l.To[:])
	if l.NewRoster != nil {
		b = wire.AppendBytes(b, fieldNewRoster, l.NewRoster.Encode())
	}
	if l.Signature != nil {
		b = wire.AppendBytes(b, fieldSignature, l.Signature.Encode())
	}
	return b
}

// DecodeForwardLink parses the binary form.
func DecodeForwardLink(data []byte) (*ForwardLink, error) {
	fields, err := wire.Parse(data)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "SKIP-FMT-004", "malformed forward link", err)
	}
	l := &ForwardLink{}
	var haveFrom, haveTo bool
	for _, f := range fields {
		switch f.Num {
		case fieldFrom:
			if l.From, err = BlockIDFromBytes(f.Bytes); err != nil {
				return nil, err
			}
			haveFrom = true
		case fieldTo:
			if l.To, err = BlockIDFromBytes(f.Bytes); err != nil {
				return nil, err
			}
			haveTo = true
		case fieldNewRoster:
			if l.NewRoster, err = roster.Decode(f.Bytes); err != nil {
				return nil, err
			}
		case fieldSignature:
			if l.Signature, err = cosi.DecodeSignature(f.Bytes); err != nil {
				return nil, err
			}
		}
	}
	if !haveFrom || !haveTo {
		return nil, verr.New(verr.KindFormat, "SKIP-FMT-004", "forward link needs from and to")
	}
	return l, nil
}
