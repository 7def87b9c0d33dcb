package skipchain

import (
	"crypto/sha256"
	"encoding/hex"

	"google.golang.org/protobuf/encoding/protowire"

	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/verr"
)

// BlockIDSize is the length of a block id.
const BlockIDSize = sha256.Size

// BlockID is the SHA-256 of a block's canonical encoding.
type BlockID [BlockIDSize]byte

// IsZero reports whether id is unset.
func (id BlockID) IsZero() bool { return id == BlockID{} }

func (id BlockID) Bytes() []byte { return append([]byte(nil), id[:]...) }

// String returns id as lower-case hex.
func (id BlockID) String() string { return hex.EncodeToString(id[:]) }

func (id BlockID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *BlockID) UnmarshalText(text []byte) error {
	got, err := BlockIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = got
	return nil
}

// BlockIDFromBytes copies a 32-byte id.
func BlockIDFromBytes(b []byte) (BlockID, error) {
	var id BlockID
	if len(b) != BlockIDSize {
		return id, verr.Newf(verr.KindFormat, "SKIP-FMT-001", "block id must be %d bytes, got %d", BlockIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// BlockIDFromHex parses a hex-encoded block id.
func BlockIDFromHex(s string) (BlockID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return BlockID{}, verr.Wrap(verr.KindFormat, "SKIP-FMT-001", "block id is not hex", err)
	}
	return BlockIDFromBytes(b)
}

// Block is one skipchain block.
//
// The genesis block has Index 0 and a zero GenesisID; every later block names
// the genesis block of its chain.
type Block struct {
	Index     int
	Height    int
	GenesisID BlockID
	BackLinks []BlockID
	Roster    *roster.Roster
	Data      []byte
}

// Clone returns a deep copy of b. The roster is immutable and stays shared.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := *b
	c.BackLinks = append([]BlockID(nil), b.BackLinks...)
	if b.Data != nil {
		c.Data = append([]byte{}, b.Data...)
	}
	return &c
}

// Binary layout (protobuf wire), fields written in this order:
//
//	1: index
//	2: height
//	3: genesis id (omitted for genesis)
//	4: repeated back link
//	5: roster
//	6: data
const (
	fieldIndex    protowire.Number = 1
	fieldHeight   protowire.Number = 2
	fieldGenesis  protowire.Number = 3
	fieldBackLink protowire.Number = 4
	fieldRoster   protowire.Number = 5
	fieldData     protowire.Number = 6
)

// Encode returns the canonical encoding of b.
func (b *Block) Encode() []byte {
	var out []byte
	out = wire.AppendVarint(out, fieldIndex, uint64(b.Index))
	out = wire.AppendVarint(out, fieldHeight, uint64(b.Height))
	if !b.GenesisID.IsZero() {
		out = wire.AppendBytes(out, fieldGenesis, b.GenesisID[:])
	}
	for _, bl := range b.BackLinks {
		out = wire.AppendBytes(out, fieldBackLink, bl[:])
	}
	if b.Roster != nil {
		out = wire.AppendBytes(out, fieldRoster, b.Roster.Encode())
	}
	if len(b.Data) > 0 {
		out = wire.AppendBytes(out, fieldData, b.Data)
	}
	return out
}

// Hash returns the block id.
func (b *Block) Hash() BlockID {
	return sha256.Sum256(b.Encode())
}

// IsGenesis reports whether b starts a chain.
func (b *Block) IsGenesis() bool { return b.Index == 0 && b.GenesisID.IsZero() }

// SkipChainID returns the id of the chain b belongs to.
func (b *Block) SkipChainID() BlockID {
	if b.IsGenesis() {
		return b.Hash()
	}
	return b.GenesisID
}

// DecodeBlock parses a canonical block encoding. Encodings that would not
// re-encode to the same bytes are rejected, so a decoded block always hashes
// to the id of the bytes it came from.
func DecodeBlock(data []byte) (*Block, error) {
	fields, err := wire.Parse(data)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "SKIP-FMT-002", "malformed block", err)
	}
	b := &Block{}
	for _, f := range fields {
		switch f.Num {
		case fieldIndex:
			b.Index = int(f.Varint)
		case fieldHeight:
			b.Height = int(f.Varint)
		case fieldGenesis:
			if b.GenesisID, err = BlockIDFromBytes(f.Bytes); err != nil {
				return nil, err
			}
		case fieldBackLink:
			id, err := BlockIDFromBytes(f.Bytes)
			if err != nil {
				return nil, err
			}
			b.BackLinks = append(b.BackLinks, id)
		case fieldRoster:
			if b.Roster, err = roster.Decode(f.Bytes); err != nil {
				return nil, err
			}
		case fieldData:
			b.Data = f.Bytes
		}
	}
	if string(b.Encode()) != string(data) {
		return nil, verr.New(verr.KindFormat, "SKIP-FMT-003", "block encoding is not canonical")
	}
	return b, nil
}
