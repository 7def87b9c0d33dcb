// Package record reads key/value records out of skipchain block payloads.
//
// A payload is a 16-byte type header followed by a mapping from string keys
// to byte values. The mapping is a sequence of protobuf-wire entries
// {1: key, 2: value}; Encode writes them sorted by key so equal mappings give
// equal payloads.
package record

import (
	"sort"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/verr"
)

// HeaderSize is the length of the type header that precedes the mapping.
const HeaderSize = 16

// KeyValueType tags payloads written by Encode.
var KeyValueType = uuid.NewSHA1(uuid.NameSpaceURL, []byte("xdao.co/skipproof/record/KeyValueData"))

const (
	fieldEntry protowire.Number = 1

	fieldKey   protowire.Number = 1
	fieldValue protowire.Number = 2
)

// Payload is a parsed block payload.
type Payload struct {
	Type   uuid.UUID
	fields map[string][]byte
}

// Parse skips the header and decodes the mapping. The header is not
// interpreted beyond being exposed as Type.
func Parse(data []byte) (*Payload, error) {
	if len(data) < HeaderSize {
		return nil, verr.Newf(verr.KindFormat, "RECORD-FMT-001", "payload shorter than its %d-byte header", HeaderSize)
	}
	p := &Payload{fields: make(map[string][]byte)}
	copy(p.Type[:], data[:HeaderSize])

	entries, err := wire.Parse(data[HeaderSize:])
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "RECORD-FMT-002", "malformed payload mapping", err)
	}
	for _, e := range entries {
		if e.Num != fieldEntry {
			continue
		}
		if err := e.Expect(protowire.BytesType); err != nil {
			return nil, verr.Wrap(verr.KindFormat, "RECORD-FMT-002", "malformed payload mapping", err)
		}
		kv, err := wire.Parse(e.Bytes)
		if err != nil {
			return nil, verr.Wrap(verr.KindFormat, "RECORD-FMT-002", "malformed payload entry", err)
		}
		var key string
		var value []byte
		for _, f := range kv {
			switch f.Num {
			case fieldKey:
				key = string(f.Bytes)
			case fieldValue:
				value = f.Bytes
			}
		}
		if _, dup := p.fields[key]; dup {
			return nil, verr.Newf(verr.KindFormat, "RECORD-FMT-003", "payload repeats key %q", key)
		}
		if value == nil {
			value = []byte{}
		}
		p.fields[key] = value
	}
	return p, nil
}

// Lookup returns the value stored under key.
func (p *Payload) Lookup(key string) ([]byte, bool) {
	v, ok := p.fields[key]
	return v, ok
}

// Keys returns the payload keys in sorted order.
func (p *Payload) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode builds a KeyValueType payload from fields.
func Encode(fields map[string][]byte) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := append([]byte(nil), KeyValueType[:]...)
	for _, k := range keys {
		var entry []byte
		entry = wire.AppendString(entry, fieldKey, k)
		entry = wire.AppendBytes(entry, fieldValue, fields[k])
		out = wire.AppendBytes(out, fieldEntry, entry)
	}
	return out
}
