// Package curve provides immutable Ristretto255 points and scalars.
//
// Every operation returns a fresh value; receivers and arguments are never
// modified. The zero Point is the group identity and the zero Scalar is 0, so
// an aggregate can always start from a zero value.
package curve

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"

	"xdao.co/skipproof/verr"
)

const (
	// PointSize is the length of a canonical point encoding.
	PointSize = 32
	// ScalarSize is the length of a canonical (little-endian) scalar encoding.
	ScalarSize = 32
)

var suite = group.Ristretto255

var (
	dstRandom = []byte("xdao-skipproof-random-scalar-v1")
	dstSeed   = []byte("xdao-skipproof-seed-scalar-v1")
)

// Point is a Ristretto255 group element.
type Point struct {
	e group.Element
}

// Zero returns the group identity.
func Zero() Point { return Point{} }

// Base returns the default base point.
func Base() Point { return Point{e: suite.Generator()} }

func (p Point) elem() group.Element {
	if p.e == nil {
		return suite.Identity()
	}
	return p.e
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{e: suite.NewElement().Add(p.elem(), q.elem())}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// Neg returns -p.
func (p Point) Neg() Point {
	return Point{e: suite.NewElement().Neg(p.elem())}
}

// Mul returns s·p.
func (p Point) Mul(s Scalar) Point {
	return Point{e: suite.NewElement().Mul(p.elem(), s.scalar())}
}

// MulBase returns s·B for the default base point B.
func MulBase(s Scalar) Point {
	return Point{e: suite.NewElement().MulGen(s.scalar())}
}

// Equal reports whether p and q are the same group element.
func (p Point) Equal(q Point) bool { return p.elem().IsEqual(q.elem()) }

// IsZero reports whether p is the identity.
func (p Point) IsZero() bool { return p.elem().IsIdentity() }

// Bytes returns the 32-byte canonical encoding.
func (p Point) Bytes() []byte {
	// Ristretto encoding cannot fail for a valid element.
	b, _ := p.elem().MarshalBinary()
	return b
}

// String returns the hex of the canonical encoding.
func (p Point) String() string { return hex.EncodeToString(p.Bytes()) }

// MarshalText encodes p as lower-case hex.
func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes hex produced by MarshalText, rejecting
// non-canonical encodings.
func (p *Point) UnmarshalText(text []byte) error {
	got, err := PointFromHex(string(text))
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// PointFromBytes decodes a canonical point encoding.
func PointFromBytes(b []byte) (Point, error) {
	if len(b) != PointSize {
		return Point{}, verr.Newf(verr.KindFormat, "CURVE-FMT-001", "point must be %d bytes, got %d", PointSize, len(b))
	}
	e := suite.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return Point{}, verr.Wrap(verr.KindFormat, "CURVE-FMT-002", "invalid point encoding", err)
	}
	return Point{e: e}, nil
}

// PointFromHex decodes a hex-encoded point.
func PointFromHex(s string) (Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Point{}, verr.Wrap(verr.KindFormat, "CURVE-FMT-005", "point is not hex", err)
	}
	return PointFromBytes(b)
}

// Scalar is an integer modulo the Ristretto255 group order.
type Scalar struct {
	s group.Scalar
}

// NewScalar returns the scalar v.
func NewScalar(v uint64) Scalar {
	return Scalar{s: suite.NewScalar().SetUint64(v)}
}

func (s Scalar) scalar() group.Scalar {
	if s.s == nil {
		return suite.NewScalar()
	}
	return s.s
}

// Add returns s + o mod ℓ.
func (s Scalar) Add(o Scalar) Scalar {
	return Scalar{s: suite.NewScalar().Add(s.scalar(), o.scalar())}
}

// Sub returns s - o mod ℓ.
func (s Scalar) Sub(o Scalar) Scalar {
	return Scalar{s: suite.NewScalar().Sub(s.scalar(), o.scalar())}
}

// Mul returns s · o mod ℓ.
func (s Scalar) Mul(o Scalar) Scalar {
	return Scalar{s: suite.NewScalar().Mul(s.scalar(), o.scalar())}
}

// Neg returns -s mod ℓ.
func (s Scalar) Neg() Scalar {
	return Scalar{s: suite.NewScalar().Neg(s.scalar())}
}

// Equal reports whether s and o are the same scalar.
func (s Scalar) Equal(o Scalar) bool { return s.scalar().IsEqual(o.scalar()) }

// IsZero reports whether s is 0.
func (s Scalar) IsZero() bool { return s.scalar().IsZero() }

// Bytes returns the 32-byte little-endian encoding.
func (s Scalar) Bytes() []byte {
	b, _ := s.scalar().MarshalBinary()
	return b
}

// String returns the hex of the canonical little-endian encoding.
func (s Scalar) String() string { return hex.EncodeToString(s.Bytes()) }

// ScalarFromBytes decodes a canonical scalar. Encodings of values at or above
// the group order are rejected.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarSize {
		return Scalar{}, verr.Newf(verr.KindFormat, "CURVE-FMT-003", "scalar must be %d bytes, got %d", ScalarSize, len(b))
	}
	s := suite.NewScalar()
	if err := s.UnmarshalBinary(b); err != nil {
		return Scalar{}, verr.Wrap(verr.KindFormat, "CURVE-FMT-004", "invalid scalar encoding", err)
	}
	// Adding zero forces a reduction; a canonical input survives unchanged.
	back, err := suite.NewScalar().Add(s, suite.NewScalar()).MarshalBinary()
	if err != nil || string(back) != string(b) {
		return Scalar{}, verr.New(verr.KindFormat, "CURVE-FMT-004", "non-canonical scalar encoding")
	}
	return Scalar{s: s}, nil
}

// ScalarFromHex decodes a hex-encoded scalar.
func ScalarFromHex(str string) (Scalar, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return Scalar{}, verr.Wrap(verr.KindFormat, "CURVE-FMT-005", "scalar is not hex", err)
	}
	return ScalarFromBytes(b)
}

// HashToScalar hashes the concatenation of parts to a uniformly distributed
// scalar: expand_message_xmd(SHA-512) to 64 bytes under dst, reduced mod the
// group order.
func HashToScalar(dst []byte, parts ...[]byte) Scalar {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	msg := make([]byte, 0, n)
	for _, p := range parts {
		msg = append(msg, p...)
	}
	return Scalar{s: suite.HashToScalar(msg, dst)}
}

// RandomScalar reads 64 bytes from r and maps them to a scalar. A nil r means
// crypto/rand.Reader. The result is deterministic given the bytes read.
func RandomScalar(r io.Reader) (Scalar, error) {
	if r == nil {
		r = rand.Reader
	}
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Scalar{}, fmt.Errorf("curve: read randomness: %w", err)
	}
	return HashToScalar(dstRandom, buf[:]), nil
}

// ScalarFromSeed derives a private scalar from seed material.
func ScalarFromSeed(seed []byte) Scalar {
	return HashToScalar(dstSeed, seed)
}
