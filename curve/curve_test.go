package curve

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/skipproof/verr"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestPointRoundTrip(t *testing.T) {
	rnd := &deterministicReader{b: 1}
	for i := 0; i < 16; i++ {
		s, err := RandomScalar(rnd)
		require.NoError(t, err)
		p := MulBase(s)

		b := p.Bytes()
		require.Len(t, b, PointSize)
		got, err := PointFromBytes(b)
		require.NoError(t, err)
		require.True(t, got.Equal(p))
		require.Equal(t, b, got.Bytes())
	}
}

func TestScalarRoundTrip(t *testing.T) {
	rnd := &deterministicReader{b: 7}
	for i := 0; i < 16; i++ {
		s, err := RandomScalar(rnd)
		require.NoError(t, err)
		got, err := ScalarFromBytes(s.Bytes())
		require.NoError(t, err)
		require.True(t, got.Equal(s))
	}
}

func TestZeroValues(t *testing.T) {
	var p Point
	require.True(t, p.IsZero())
	require.True(t, p.Equal(Zero()))
	require.Equal(t, make([]byte, PointSize), p.Bytes())

	q := MulBase(NewScalar(5))
	require.True(t, p.Add(q).Equal(q))
	require.True(t, q.Sub(q).IsZero())

	var s Scalar
	require.True(t, s.IsZero())
	require.True(t, s.Add(NewScalar(3)).Equal(NewScalar(3)))
}

func TestGroupLaws(t *testing.T) {
	a, b := NewScalar(11), NewScalar(31)

	// (a+b)·B == a·B + b·B
	require.True(t, MulBase(a.Add(b)).Equal(MulBase(a).Add(MulBase(b))))
	// (a·b)·B == a·(b·B)
	require.True(t, MulBase(a.Mul(b)).Equal(MulBase(b).Mul(a)))
	// b·B == Base()·b
	require.True(t, MulBase(b).Equal(Base().Mul(b)))
	// -(a·B) == (-a)·B
	require.True(t, MulBase(a).Neg().Equal(MulBase(a.Neg())))
	require.True(t, a.Sub(a).IsZero())
}

func TestOperationsDoNotMutate(t *testing.T) {
	p := MulBase(NewScalar(9))
	before := p.Bytes()
	_ = p.Add(MulBase(NewScalar(2)))
	_ = p.Neg()
	_ = p.Mul(NewScalar(4))
	require.Equal(t, before, p.Bytes())

	s := NewScalar(9)
	sb := s.Bytes()
	_ = s.Add(NewScalar(1))
	_ = s.Mul(NewScalar(3))
	_ = s.Neg()
	require.Equal(t, sb, s.Bytes())
}

func TestPointFromBytesRejects(t *testing.T) {
	_, err := PointFromBytes(make([]byte, 31))
	require.True(t, verr.IsKind(err, verr.KindFormat))
	require.Equal(t, "CURVE-FMT-001", verr.RuleID(err))

	_, err = PointFromBytes(bytes.Repeat([]byte{0xff}, PointSize))
	require.True(t, verr.IsKind(err, verr.KindFormat))
}

func TestScalarFromBytesRejects(t *testing.T) {
	_, err := ScalarFromBytes(make([]byte, 33))
	require.True(t, verr.IsKind(err, verr.KindFormat))

	// 2^256-1 is far above the group order.
	_, err = ScalarFromBytes(bytes.Repeat([]byte{0xff}, ScalarSize))
	require.True(t, verr.IsKind(err, verr.KindFormat))
	require.Equal(t, "CURVE-FMT-004", verr.RuleID(err))
}

func TestTextEncoding(t *testing.T) {
	p := MulBase(NewScalar(42))
	text, err := p.MarshalText()
	require.NoError(t, err)

	var got Point
	require.NoError(t, got.UnmarshalText(text))
	require.True(t, got.Equal(p))

	require.Error(t, got.UnmarshalText([]byte("zz")))
}

func TestDerivationsAreDeterministic(t *testing.T) {
	a, err := RandomScalar(&deterministicReader{b: 3})
	require.NoError(t, err)
	b, err := RandomScalar(&deterministicReader{b: 3})
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	require.True(t, ScalarFromSeed([]byte("seed")).Equal(ScalarFromSeed([]byte("seed"))))
	require.False(t, ScalarFromSeed([]byte("seed")).Equal(ScalarFromSeed([]byte("seed2"))))

	// Concatenation boundaries do not matter.
	dst := []byte("test")
	require.True(t, HashToScalar(dst, []byte("ab"), []byte("c")).Equal(HashToScalar(dst, []byte("a"), []byte("bc"))))
}
