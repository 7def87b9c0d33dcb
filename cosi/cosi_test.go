package cosi_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/cosi/cositest"
	"xdao.co/skipproof/curve"
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

func committee(t *testing.T, n int) *cositest.Committee {
	t.Helper()
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("node-%d", i)
	}
	c, err := cositest.NewCommittee(names...)
	require.NoError(t, err)
	return c
}

func TestFullParticipationVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 4, 7} {
		c := committee(t, n)
		msg := []byte("forward link digest")
		sig, err := c.Sign(&deterministicReader{}, msg)
		require.NoError(t, err)
		require.NoError(t, cosi.Verify(c.Roster, msg, sig, cosi.CompletePolicy{}), "n=%d", n)
	}
}

func TestUnmarkedAbsenceFails(t *testing.T) {
	c := committee(t, 5)
	msg := []byte("m")
	for absent := 0; absent < 5; absent++ {
		sig, err := c.Sign(&deterministicReader{b: byte(absent)}, msg, absent)
		require.NoError(t, err)
		require.NoError(t, cosi.Verify(c.Roster, msg, sig, cosi.ThresholdPolicy{T: 4}))

		// Same signature, but the absence is not declared.
		sig.Exceptions = nil
		err = cosi.Verify(c.Roster, msg, sig, cosi.ThresholdPolicy{T: 4})
		require.True(t, verr.IsKind(err, verr.KindSignature), "absent=%d", absent)
	}
}

func TestByzantinePolicy(t *testing.T) {
	c := committee(t, 7)
	msg := []byte("m")

	// 7 members tolerate 2 absences.
	sig, err := c.Sign(nil, msg, 1, 4)
	require.NoError(t, err)
	require.NoError(t, cosi.Verify(c.Roster, msg, sig, nil))
	require.Equal(t, []int{1, 4}, sig.ExceptionIndexes())
	require.Equal(t, 5, sig.Participants(7))

	sig, err = c.Sign(nil, msg, 1, 4, 6)
	require.NoError(t, err)
	err = cosi.Verify(c.Roster, msg, sig, nil)
	require.True(t, verr.IsKind(err, verr.KindSignature))
	require.Equal(t, "COSI-004", verr.RuleID(err))

	// The math still holds; only the policy objects.
	require.NoError(t, cosi.Verify(c.Roster, msg, sig, cosi.ThresholdPolicy{T: 4}))
}

func TestClaimedMessageMismatch(t *testing.T) {
	c := committee(t, 3)
	sig, err := c.Sign(nil, []byte("one"))
	require.NoError(t, err)
	err = cosi.Verify(c.Roster, []byte("two"), sig, nil)
	require.True(t, verr.IsKind(err, verr.KindMismatch))
}

func TestExceptionOutsideRoster(t *testing.T) {
	c := committee(t, 3)
	sig, err := c.Sign(nil, []byte("m"))
	require.NoError(t, err)
	sig.Exceptions = cosi.NewExceptions(3)
	err = cosi.Verify(c.Roster, []byte("m"), sig, cosi.ThresholdPolicy{T: 1})
	require.True(t, verr.IsKind(err, verr.KindFormat))

	_, err = cosi.EffectiveKey(c.Roster, cosi.NewExceptions(9))
	require.Error(t, err)
}

func TestEffectiveKey(t *testing.T) {
	c := committee(t, 4)
	key, err := cosi.EffectiveKey(c.Roster, cosi.NewExceptions(0, 2))
	require.NoError(t, err)
	want := c.Roster.Get(1).Public.Add(c.Roster.Get(3).Public)
	require.True(t, key.Equal(want))

	key, err = cosi.EffectiveKey(c.Roster, nil)
	require.NoError(t, err)
	require.True(t, key.Equal(c.Roster.Aggregate()))
}

func TestWrongRosterFails(t *testing.T) {
	c := committee(t, 3)
	other, err := cositest.NewCommittee("x", "y", "z")
	require.NoError(t, err)
	sig, err := c.Sign(nil, []byte("m"))
	require.NoError(t, err)
	err = cosi.Verify(other.Roster, []byte("m"), sig, nil)
	require.True(t, verr.IsKind(err, verr.KindSignature))
}

func TestEncodingRoundTrip(t *testing.T) {
	c := committee(t, 10)
	msg := []byte("digest")
	sig, err := c.Sign(&deterministicReader{b: 3}, msg, 9)
	require.NoError(t, err)

	got, err := cosi.DecodeSignature(sig.Encode())
	require.NoError(t, err)
	require.Equal(t, msg, got.Msg)
	require.Equal(t, []int{9}, got.ExceptionIndexes())
	require.NoError(t, cosi.Verify(c.Roster, msg, got, nil))

	require.Equal(t, []byte{0x00, 0x02}, cosi.MaskBytes(sig.Exceptions))
	require.Nil(t, cosi.MaskBytes(nil))

	_, err = cosi.DecodeSignature(nil)
	require.True(t, verr.IsKind(err, verr.KindFormat))
}

func TestParsePolicy(t *testing.T) {
	p, err := cosi.ParsePolicy("", 0)
	require.NoError(t, err)
	require.Equal(t, cosi.ByzantinePolicy{}, p)

	p, err = cosi.ParsePolicy("threshold", 3)
	require.NoError(t, err)
	require.Equal(t, cosi.ThresholdPolicy{T: 3}, p)

	_, err = cosi.ParsePolicy("threshold", 0)
	require.Error(t, err)
	_, err = cosi.ParsePolicy("majority", 0)
	require.Error(t, err)

	require.Error(t, cosi.ThresholdPolicy{T: 5}.Check(5, 4))
	require.NoError(t, cosi.CompletePolicy{}.Check(4, 4))
	require.Error(t, cosi.CompletePolicy{}.Check(3, 4))
}

func TestSignRejectsMismatchedKeys(t *testing.T) {
	c := committee(t, 2)
	privs := []curve.Scalar{c.Privs[1], c.Privs[0]}
	_, err := cositest.Sign(nil, c.Roster, privs, []byte("m"), nil)
	require.Error(t, err)
}
