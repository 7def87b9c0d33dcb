package chainstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/skipchain/chaintest"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/testkit"
	"xdao.co/skipproof/verr"
)

func chain(t *testing.T) *chaintest.Chain {
	t.Helper()
	ch := chaintest.New(chaintest.MustCommittee(t, "A", "B", "C"), []byte("genesis"))
	ch.MustAppend(t, []byte("one"), nil)
	ch.MustAppend(t, []byte("two"), nil)
	return ch
}

func TestPutGetBlock(t *testing.T) {
	ch := chain(t)
	s := chainstore.New(testkit.NewMemCAS())

	ids, err := s.PutChain(ch.Blocks)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Equal(t, ch.GenesisID(), ids[0])

	for i, id := range ids {
		require.True(t, s.HasBlock(id))
		b, err := s.GetBlock(id)
		require.NoError(t, err)
		require.Equal(t, ch.Blocks[i].Encode(), b.Encode())
	}

	// Same bytes under the block id as under the content CID.
	key, err := cidutil.CIDv1RawSHA256CID(ch.Blocks[1].Encode())
	require.NoError(t, err)
	require.True(t, s.CAS().Has(key))
}

func TestGetMissingBlock(t *testing.T) {
	s := chainstore.New(testkit.NewMemCAS())
	var id skipchain.BlockID
	id[0] = 1
	require.False(t, s.HasBlock(id))
	_, err := s.GetBlock(id)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetRejectsNonBlockBytes(t *testing.T) {
	cas := testkit.NewMemCAS()
	key, err := cas.Put([]byte{0xff, 0xff})
	require.NoError(t, err)
	digest, err := cidutil.SHA256Digest(key)
	require.NoError(t, err)

	_, err = chainstore.New(cas).GetBlock(skipchain.BlockID(digest))
	require.True(t, verr.IsKind(err, verr.KindFormat))
}

func TestGetBlocks(t *testing.T) {
	ch := chain(t)
	s := chainstore.New(testkit.NewMemCAS())
	ids, err := s.PutChain(ch.Blocks)
	require.NoError(t, err)

	got, err := s.GetBlocks(context.Background(), []skipchain.BlockID{ids[2], ids[0]}, 1)
	require.NoError(t, err)
	require.Equal(t, ids[2], got[0].Hash())
	require.Equal(t, ids[0], got[1].Hash())

	var missing skipchain.BlockID
	missing[0] = 7
	_, err = s.GetBlocks(context.Background(), []skipchain.BlockID{ids[0], missing}, 0)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
