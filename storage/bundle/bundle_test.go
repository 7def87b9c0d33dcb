package bundle_test

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/model"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/skipchain/chaintest"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/bundle"
	"xdao.co/skipproof/storage/localfs"
	"xdao.co/skipproof/storage/testkit"
)

func fixture(t *testing.T) (*chaintest.Chain, *chainstore.Store, model.ProofDocument) {
	t.Helper()
	ch := chaintest.New(chaintest.MustCommittee(t, "A", "B", "C"), []byte("genesis"))
	ch.MustAppend(t, []byte("one"), nil)
	ch.MustAppend(t, []byte("two"), chaintest.MustCommittee(t, "B", "C", "D", "E"))

	s := chainstore.New(testkit.NewMemCAS())
	_, err := s.PutChain(ch.Blocks)
	require.NoError(t, err)

	p, err := ch.Proof(cosi.ByzantinePolicy{})
	require.NoError(t, err)
	return ch, s, model.FromProof(p)
}

func TestBundle_DeterministicExport(t *testing.T) {
	ch, s, doc := fixture(t)
	ids, err := bundle.ProofBlockIDs(doc)
	require.NoError(t, err)

	opts := bundle.ExportOptions{
		Proof:        &doc,
		IncludeIndex: true,
		Labels:       map[string]skipchain.BlockID{"genesis": ch.GenesisID(), "tip": ch.Last().Hash()},
	}

	var a, b bytes.Buffer
	require.NoError(t, bundle.Export(&a, s, ids, opts))
	// Reversed and duplicated input must not change the output.
	rev := append([]skipchain.BlockID{ids[0]}, ids...)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	require.NoError(t, bundle.Export(&b, s, rev, opts))
	require.Equal(t, a.Bytes(), b.Bytes())
}

func TestBundle_RoundTripIntoLocalFS(t *testing.T) {
	ch, s, doc := fixture(t)
	ids, err := bundle.ProofBlockIDs(doc)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	var buf bytes.Buffer
	require.NoError(t, bundle.Export(&buf, s, ids, bundle.ExportOptions{Proof: &doc, IncludeIndex: true}))

	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	dst := chainstore.New(cas)

	got, err := bundle.Import(bytes.NewReader(buf.Bytes()), dst, bundle.ImportOptions{})
	require.NoError(t, err)
	require.Len(t, got.IDs, 3)
	require.NotNil(t, got.Proof)

	for _, b := range ch.Blocks {
		require.True(t, dst.HasBlock(b.Hash()))
	}

	p, err := got.Proof.Proof(cosi.ByzantinePolicy{})
	require.NoError(t, err)
	tip, err := p.Verify()
	require.NoError(t, err)
	require.Equal(t, ch.Last().Hash(), tip)
}

func TestBundle_ExportMissingBlock(t *testing.T) {
	_, _, doc := fixture(t)
	ids, err := bundle.ProofBlockIDs(doc)
	require.NoError(t, err)
	empty := chainstore.New(testkit.NewMemCAS())

	var buf bytes.Buffer
	err = bundle.Export(&buf, empty, ids, bundle.ExportOptions{})
	require.ErrorIs(t, err, storage.ErrNotFound)

	buf.Reset()
	require.NoError(t, bundle.Export(&buf, empty, ids, bundle.ExportOptions{SkipMissing: true}))
	got, err := bundle.Import(bytes.NewReader(buf.Bytes()), empty, bundle.ImportOptions{})
	require.NoError(t, err)
	require.Empty(t, got.IDs)
	require.Nil(t, got.Proof)
}

func TestBundle_ImportRejectsIDMismatch(t *testing.T) {
	ch, _, _ := fixture(t)
	// Entry named after block 1 carries block 2.
	data := makeDeterministicTar(t, "blocks/"+ch.Blocks[1].Hash().String(), ch.Blocks[2].Encode())

	_, err := bundle.Import(bytes.NewReader(data), chainstore.New(testkit.NewMemCAS()), bundle.ImportOptions{})
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
}

func TestBundle_ImportRejectsNonBlock(t *testing.T) {
	var id skipchain.BlockID
	id[0] = 7
	data := makeDeterministicTar(t, "blocks/"+id.String(), []byte("not a block"))

	_, err := bundle.Import(bytes.NewReader(data), chainstore.New(testkit.NewMemCAS()), bundle.ImportOptions{})
	require.Error(t, err)
}

func TestBundle_UnknownEntries(t *testing.T) {
	data := makeDeterministicTar(t, "notes.txt", []byte("hello"))
	s := chainstore.New(testkit.NewMemCAS())

	_, err := bundle.Import(bytes.NewReader(data), s, bundle.ImportOptions{})
	require.ErrorContains(t, err, "unknown entry")

	_, err = bundle.Import(bytes.NewReader(data), s, bundle.ImportOptions{IgnoreUnknown: true})
	require.NoError(t, err)
}

func TestBundle_RejectsTraversal(t *testing.T) {
	data := makeDeterministicTar(t, "blocks/../../etc/passwd", []byte("x"))
	_, err := bundle.Import(bytes.NewReader(data), chainstore.New(testkit.NewMemCAS()), bundle.ImportOptions{IgnoreUnknown: true})
	require.ErrorContains(t, err, "invalid entry path")
}

func makeDeterministicTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	require.NoError(t, tw.WriteHeader(h))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}
