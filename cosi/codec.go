package cosi

import (
	"github.com/bits-and-blooms/bitset"
	"google.golang.org/protobuf/encoding/protowire"

	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/schnorr"
	"xdao.co/skipproof/verr"
)

// Binary layout (protobuf wire):
//
//	1: msg
//	2: signature R(32) ‖ s(32)
//	3: exception mask, bit i of byte i/8 marks roster index i
const (
	fieldMsg        protowire.Number = 1
	fieldSig        protowire.Number = 2
	fieldExceptions protowire.Number = 3
)

// Encode returns the binary form of s.
func (s *Signature) Encode() []byte {
	var b []byte
	if s.Msg != nil {
		b = wire.AppendBytes(b, fieldMsg, s.Msg)
	}
	b = wire.AppendBytes(b, fieldSig, s.Sig.Bytes())
	if mask := MaskBytes(s.Exceptions); len(mask) > 0 {
		b = wire.AppendBytes(b, fieldExceptions, mask)
	}
	return b
}

// DecodeSignature parses the binary form.
func DecodeSignature(b []byte) (*Signature, error) {
	fields, err := wire.Parse(b)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "COSI-FMT-002", "malformed collective signature", err)
	}
	out := &Signature{}
	var haveSig bool
	for _, f := range fields {
		switch f.Num {
		case fieldMsg:
			out.Msg = f.Bytes
		case fieldSig:
			sig, err := schnorr.SignatureFromBytes(f.Bytes)
			if err != nil {
				return nil, err
			}
			out.Sig, haveSig = sig, true
		case fieldExceptions:
			out.Exceptions = MaskFromBytes(f.Bytes)
		}
	}
	if !haveSig {
		return nil, verr.New(verr.KindFormat, "COSI-FMT-003", "collective signature has no schnorr signature")
	}
	return out, nil
}

// MaskBytes packs an exception set, trimming trailing zero bytes. A nil or
// empty set packs to nil.
func MaskBytes(set *bitset.BitSet) []byte {
	if set == nil || set.Count() == 0 {
		return nil
	}
	var last uint
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		last = i
	}
	out := make([]byte, last/8+1)
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// MaskFromBytes unpacks a mask produced by MaskBytes.
func MaskFromBytes(mask []byte) *bitset.BitSet {
	set := bitset.New(uint(len(mask) * 8))
	for i, b := range mask {
		for bit := uint(0); bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				set.Set(uint(i)*8 + bit)
			}
		}
	}
	return set
}
