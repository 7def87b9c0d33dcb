package inclusion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/inclusion"
	"xdao.co/skipproof/record"
	"xdao.co/skipproof/schnorr"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/skipchain/chaintest"
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

var (
	writerKey = curve.ScalarFromSeed([]byte("writer"))
	writerPub = curve.MulBase(writerKey)
	day       = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func signedPayload(t *testing.T, key, value string) []byte {
	t.Helper()
	rec, err := record.Sign(&deterministicReader{b: 5}, writerKey, []byte(key), []byte(value), day)
	require.NoError(t, err)
	return rec.Payload()
}

// scenario: C0 = {A, B, C}; link1 from genesis to B1 carries no committee
// change; B1 records 2024.01.01 -> hashes.
func scenario(t *testing.T) (*chaintest.Chain, inclusion.Request) {
	t.Helper()
	ch := chaintest.New(chaintest.MustCommittee(t, "A", "B", "C"), []byte("genesis"))
	ch.Rand = &deterministicReader{}
	b1, link1 := ch.MustAppend(t, signedPayload(t, "2024.01.01", "hashes"), nil)
	return ch, inclusion.Request{
		Key:           []byte("2024.01.01"),
		Block:         b1,
		GenesisID:     ch.GenesisID(),
		GenesisRoster: ch.Genesis().Roster,
		Links:         []*skipchain.ForwardLink{link1},
		Author:        writerPub,
	}
}

func TestInclusionEndToEnd(t *testing.T) {
	_, req := scenario(t)
	v := inclusion.New(nil, nil)
	require.NoError(t, v.VerifyInclusion(req))
	require.True(t, v.VerifyBlock(req))
}

func TestTamperedValueIsRejected(t *testing.T) {
	_, req := scenario(t)
	rec, err := record.Extract(req.Block)
	require.NoError(t, err)
	rec.Value = []byte("tampered")

	tampered := *req.Block
	tampered.Data = rec.Payload()
	req.Block = &tampered

	v := inclusion.New(nil, nil)
	err = v.VerifyInclusion(req)
	require.True(t, verr.IsKind(err, verr.KindMismatch))
	require.Equal(t, "INCL-004", verr.RuleID(err))
	require.False(t, v.VerifyBlock(req))
}

func TestRecommittedTamperedValueFailsAuthorCheck(t *testing.T) {
	// Even a committee that signs the tampered block cannot forge the writer.
	ch := chaintest.New(chaintest.MustCommittee(t, "A", "B", "C"), []byte("genesis"))
	rec, err := record.Sign(nil, writerKey, []byte("2024.01.01"), []byte("hashes"), day)
	require.NoError(t, err)
	rec.Value = []byte("tampered")
	b1, link1 := ch.MustAppend(t, rec.Payload(), nil)

	err = inclusion.New(nil, nil).VerifyInclusion(inclusion.Request{
		Key:           []byte("2024.01.01"),
		Block:         b1,
		GenesisID:     ch.GenesisID(),
		GenesisRoster: ch.Genesis().Roster,
		Links:         []*skipchain.ForwardLink{link1},
		Author:        writerPub,
	})
	require.True(t, verr.IsKind(err, verr.KindSignature))
}

func TestKeyChecks(t *testing.T) {
	_, req := scenario(t)
	v := inclusion.New(nil, nil)

	req.Key = []byte("2024.01.02")
	err := v.VerifyInclusion(req)
	require.True(t, verr.IsKind(err, verr.KindMismatch))
	require.Equal(t, "INCL-002", verr.RuleID(err))

	ch := chaintest.New(chaintest.MustCommittee(t, "A"), nil)
	b, l := ch.MustAppend(t, record.Encode(map[string][]byte{"newvalue": []byte("v")}), nil)
	err = v.VerifyInclusion(inclusion.Request{
		Key: []byte("k"), Block: b, GenesisID: ch.GenesisID(), GenesisRoster: ch.Genesis().Roster,
		Links: []*skipchain.ForwardLink{l}, Author: writerPub,
	})
	require.True(t, verr.IsKind(err, verr.KindMissingField))
}

func TestClaimedMessageMismatch(t *testing.T) {
	_, req := scenario(t)
	link := *req.Links[0]
	sig := *link.Signature
	sig.Msg = append([]byte(nil), sig.Msg...)
	sig.Msg[0] ^= 1
	link.Signature = &sig
	req.Links = []*skipchain.ForwardLink{&link}

	err := inclusion.New(nil, nil).VerifyInclusion(req)
	require.True(t, verr.IsKind(err, verr.KindMismatch))
	require.Equal(t, "SKIP-LINK-004", verr.RuleID(err))
}

func TestWrongAuthor(t *testing.T) {
	_, req := scenario(t)
	req.Author = curve.MulBase(curve.NewScalar(99))
	err := inclusion.New(nil, nil).VerifyInclusion(req)
	require.True(t, verr.IsKind(err, verr.KindSignature))
}

func TestInclusionAcrossCommitteeChange(t *testing.T) {
	c0 := chaintest.MustCommittee(t, "A", "B", "C")
	c1 := chaintest.MustCommittee(t, "A", "B", "D")
	ch := chaintest.New(c0, []byte("genesis"))
	_, link1 := ch.MustAppend(t, []byte("handover"), c1)
	b2, link2 := ch.MustAppend(t, signedPayload(t, "2024.01.01", "hashes"), nil)

	v := inclusion.New(nil, nil)
	req := inclusion.Request{
		Key:           []byte("2024.01.01"),
		Block:         b2,
		GenesisID:     ch.GenesisID(),
		GenesisRoster: c0.Roster,
		Links:         []*skipchain.ForwardLink{link1, link2},
		Author:        writerPub,
	}
	require.NoError(t, v.VerifyInclusion(req))

	p, err := ch.Proof(nil)
	require.NoError(t, err)
	require.NoError(t, v.VerifyInclusion(inclusion.RequestFromProof([]byte("2024.01.01"), p, writerPub)))

	// Checking link2 straight against the genesis committee must fail.
	req.Links = []*skipchain.ForwardLink{link2}
	require.Error(t, v.VerifyInclusion(req))

	stale := req
	stale.GenesisID = link2.From
	err = v.VerifyInclusion(stale)
	require.True(t, verr.IsKind(err, verr.KindSignature))
}

func TestVerifyBlockLogsFailedCheck(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	v := inclusion.New(nil, zap.New(core))

	_, req := scenario(t)
	require.True(t, v.VerifyBlock(req))
	require.Equal(t, 1, logs.FilterMessage("inclusion proven").Len())

	req.Author = curve.Base()
	require.False(t, v.VerifyBlock(req))
	require.Equal(t, 1, logs.FilterMessage("inclusion proven").Len())

	entries := logs.FilterMessage("inclusion proof rejected").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, string(inclusion.CheckAuthor), entries[0].ContextMap()["check"])
}

func TestVerifyAll(t *testing.T) {
	_, good := scenario(t)
	bad := good
	bad.Key = []byte("other")

	v := &inclusion.Verifier{Concurrency: 2}
	results, err := v.VerifyAll(context.Background(), []inclusion.Request{good, bad, good})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].OK())
	require.Empty(t, results[0].Check)
	require.True(t, verr.IsKind(results[1].Err, verr.KindMismatch))
	require.Equal(t, inclusion.CheckKey, results[1].Check)
	require.True(t, results[2].OK())

	wrongAuthor := good
	wrongAuthor.Author = curve.MulBase(curve.NewScalar(99))
	results, err = v.VerifyAll(context.Background(), []inclusion.Request{wrongAuthor})
	require.NoError(t, err)
	require.Equal(t, inclusion.CheckAuthor, results[0].Check)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err = v.VerifyAll(ctx, []inclusion.Request{good})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestMissingAuthorIsRejected(t *testing.T) {
	// The record carries a signature that verifies under the identity key.
	s := curve.NewScalar(12345)
	forged := schnorr.Signature{R: curve.MulBase(s), S: s}
	rec := &record.Record{
		Key:       []byte("2024.01.01"),
		Value:     []byte("tampered"),
		Signature: forged.Bytes(),
		Timestamp: []byte("1704067200000"),
	}
	ch := chaintest.New(chaintest.MustCommittee(t, "A", "B", "C"), []byte("genesis"))
	b1, link1 := ch.MustAppend(t, rec.Payload(), nil)

	req := inclusion.Request{
		Key:           []byte("2024.01.01"),
		Block:         b1,
		GenesisID:     ch.GenesisID(),
		GenesisRoster: ch.Genesis().Roster,
		Links:         []*skipchain.ForwardLink{link1},
	}
	check, err := inclusion.New(nil, nil).Diagnose(req)
	require.Equal(t, inclusion.CheckAuthor, check)
	require.True(t, verr.IsKind(err, verr.KindMissingField))
	require.Equal(t, "INCL-005", verr.RuleID(err))

	req.Author = curve.Zero()
	require.False(t, inclusion.New(nil, nil).VerifyBlock(req))
}
