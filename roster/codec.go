package roster

import (
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/verr"
)

// Binary layout (protobuf wire):
//
//	1: repeated identity { 1: address, 2: public(32), 3: description }
//	2: aggregate(32)
//	3: id(16)
const (
	fieldIdentity  protowire.Number = 1
	fieldAggregate protowire.Number = 2
	fieldID        protowire.Number = 3

	fieldAddress     protowire.Number = 1
	fieldPublic      protowire.Number = 2
	fieldDescription protowire.Number = 3
)

// Encode returns the binary form of r.
func (r *Roster) Encode() []byte {
	var b []byte
	for _, id := range r.list {
		var ib []byte
		if id.Address != "" {
			ib = wire.AppendString(ib, fieldAddress, id.Address)
		}
		ib = wire.AppendBytes(ib, fieldPublic, id.Public.Bytes())
		if id.Description != "" {
			ib = wire.AppendString(ib, fieldDescription, id.Description)
		}
		b = wire.AppendBytes(b, fieldIdentity, ib)
	}
	b = wire.AppendBytes(b, fieldAggregate, r.aggregate.Bytes())
	b = wire.AppendBytes(b, fieldID, r.id[:])
	return b
}

// Decode parses the binary form. The aggregate and id are recomputed from
// the member list; serialized values that disagree are rejected.
func Decode(b []byte) (*Roster, error) {
	fields, err := wire.Parse(b)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "ROSTER-FMT-001", "malformed roster", err)
	}
	var (
		list    []Identity
		aggEnc  []byte
		idEnc   []byte
		haveAgg bool
		haveID  bool
	)
	for _, f := range fields {
		switch f.Num {
		case fieldIdentity:
			if err := f.Expect(protowire.BytesType); err != nil {
				return nil, verr.Wrap(verr.KindFormat, "ROSTER-FMT-001", "malformed roster", err)
			}
			id, err := decodeIdentity(f.Bytes)
			if err != nil {
				return nil, err
			}
			list = append(list, id)
		case fieldAggregate:
			aggEnc, haveAgg = f.Bytes, true
		case fieldID:
			idEnc, haveID = f.Bytes, true
		}
	}
	r, err := New(list)
	if err != nil {
		return nil, err
	}
	if haveAgg {
		agg, err := curve.PointFromBytes(aggEnc)
		if err != nil {
			return nil, verr.Wrap(verr.KindFormat, "ROSTER-FMT-003", "roster aggregate", err)
		}
		if !agg.Equal(r.aggregate) {
			return nil, verr.New(verr.KindFormat, "ROSTER-FMT-004", "serialized aggregate does not match member keys")
		}
	}
	if haveID {
		if len(idEnc) != len(r.id) || string(idEnc) != string(r.id[:]) {
			return nil, verr.New(verr.KindFormat, "ROSTER-FMT-005", "serialized id does not match member keys")
		}
	}
	return r, nil
}

func decodeIdentity(b []byte) (Identity, error) {
	fields, err := wire.Parse(b)
	if err != nil {
		return Identity{}, verr.Wrap(verr.KindFormat, "ROSTER-FMT-002", "malformed identity", err)
	}
	var id Identity
	var havePub bool
	for _, f := range fields {
		switch f.Num {
		case fieldAddress:
			id.Address = string(f.Bytes)
		case fieldPublic:
			p, err := curve.PointFromBytes(f.Bytes)
			if err != nil {
				return Identity{}, verr.Wrap(verr.KindFormat, "ROSTER-FMT-002", "identity public key", err)
			}
			id.Public, havePub = p, true
		case fieldDescription:
			id.Description = string(f.Bytes)
		}
	}
	if !havePub {
		return Identity{}, verr.New(verr.KindFormat, "ROSTER-FMT-002", "identity without public key")
	}
	return id, nil
}

// Document is the JSON/YAML form of a roster. Keys are lower-case hex.
type Document struct {
	ID        string             `json:"id,omitempty" yaml:"id,omitempty"`
	Aggregate string             `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	List      []IdentityDocument `json:"list" yaml:"list"`
}

type IdentityDocument struct {
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	Public      string `json:"public" yaml:"public"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Document returns the document form of r.
func (r *Roster) Document() Document {
	doc := Document{
		ID:        r.id.String(),
		Aggregate: r.aggregate.String(),
		List:      make([]IdentityDocument, len(r.list)),
	}
	for i, id := range r.list {
		doc.List[i] = IdentityDocument{Address: id.Address, Public: id.Public.String(), Description: id.Description}
	}
	return doc
}

// FromDocument builds a roster from its document form, checking the optional
// id and aggregate against the member keys.
func FromDocument(doc Document) (*Roster, error) {
	list := make([]Identity, len(doc.List))
	for i, d := range doc.List {
		p, err := curve.PointFromHex(d.Public)
		if err != nil {
			return nil, verr.Wrap(verr.KindFormat, "ROSTER-FMT-002", "identity public key", err)
		}
		list[i] = Identity{Address: d.Address, Public: p, Description: d.Description}
	}
	r, err := New(list)
	if err != nil {
		return nil, err
	}
	if doc.Aggregate != "" {
		agg, err := hex.DecodeString(doc.Aggregate)
		if err != nil || string(agg) != string(r.aggregate.Bytes()) {
			return nil, verr.New(verr.KindFormat, "ROSTER-FMT-004", "document aggregate does not match member keys")
		}
	}
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil || id != r.id {
			return nil, verr.New(verr.KindFormat, "ROSTER-FMT-005", "document id does not match member keys")
		}
	}
	return r, nil
}

// MarshalJSON encodes r as its Document.
func (r *Roster) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

// UnmarshalJSON decodes a Document, recomputing aggregate and id.
func (r *Roster) UnmarshalJSON(b []byte) error {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return verr.Wrap(verr.KindFormat, "ROSTER-FMT-006", "roster json", err)
	}
	got, err := FromDocument(doc)
	if err != nil {
		return err
	}
	*r = *got
	return nil
}
