package record

import (
	"io"
	"strconv"
	"time"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/schnorr"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/verr"
)

// Payload keys of the most recent update a block represents.
const (
	KeyKey       = "newkey"
	KeyValue     = "newvalue"
	KeySignature = "newsig"
	KeyTimestamp = "timestamp"
)

// Record is the key/value update carried by a block. Absent fields are nil.
type Record struct {
	Key       []byte
	Value     []byte
	Signature []byte
	Timestamp []byte
}

// Extract parses b's payload and returns its record. Only a malformed
// payload is an error; missing fields are left nil for the caller to judge.
func Extract(b *skipchain.Block) (*Record, error) {
	p, err := Parse(b.Data)
	if err != nil {
		return nil, err
	}
	return FromPayload(p), nil
}

// FromPayload picks the record fields out of p.
func FromPayload(p *Payload) *Record {
	r := &Record{}
	r.Key, _ = p.Lookup(KeyKey)
	r.Value, _ = p.Lookup(KeyValue)
	r.Signature, _ = p.Lookup(KeySignature)
	r.Timestamp, _ = p.Lookup(KeyTimestamp)
	return r
}

// SignedMessage returns key ‖ value, the bytes the author signs.
func (r *Record) SignedMessage() []byte {
	msg := make([]byte, 0, len(r.Key)+len(r.Value))
	msg = append(msg, r.Key...)
	return append(msg, r.Value...)
}

// Time parses the timestamp, stored as decimal Unix milliseconds.
func (r *Record) Time() (time.Time, error) {
	if r.Timestamp == nil {
		return time.Time{}, verr.New(verr.KindMissingField, "RECORD-002", "record has no timestamp")
	}
	ms, err := strconv.ParseInt(string(r.Timestamp), 10, 64)
	if err != nil {
		return time.Time{}, verr.Wrap(verr.KindFormat, "RECORD-FMT-004", "timestamp is not decimal milliseconds", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// VerifyAuthor checks the author's Schnorr signature over key ‖ value.
func (r *Record) VerifyAuthor(author curve.Point) error {
	if r.Signature == nil {
		return verr.Newf(verr.KindMissingField, "RECORD-001", "record has no %q field", KeySignature)
	}
	return schnorr.VerifyBytes(author, r.SignedMessage(), r.Signature)
}

// Fields returns the non-nil record fields keyed by payload key.
func (r *Record) Fields() map[string][]byte {
	out := make(map[string][]byte, 4)
	for k, v := range map[string][]byte{
		KeyKey:       r.Key,
		KeyValue:     r.Value,
		KeySignature: r.Signature,
		KeyTimestamp: r.Timestamp,
	} {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Payload encodes r as a block payload.
func (r *Record) Payload() []byte { return Encode(r.Fields()) }

// Sign creates a record for key and value signed by the writer's private key.
func Sign(rnd io.Reader, priv curve.Scalar, key, value []byte, at time.Time) (*Record, error) {
	r := &Record{
		Key:       append([]byte(nil), key...),
		Value:     append([]byte(nil), value...),
		Timestamp: []byte(strconv.FormatInt(at.UnixMilli(), 10)),
	}
	sig, err := schnorr.Sign(rnd, priv, r.SignedMessage())
	if err != nil {
		return nil, err
	}
	r.Signature = sig.Bytes()
	return r, nil
}
