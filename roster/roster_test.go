package roster

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/internal/wire"
	"xdao.co/skipproof/verr"
)

func member(name string) Identity {
	return Identity{
		Address:     "tcp://" + name + ".example:7770",
		Public:      curve.MulBase(curve.ScalarFromSeed([]byte(name))),
		Description: "conode " + name,
	}
}

func mustRoster(t *testing.T, names ...string) *Roster {
	t.Helper()
	list := make([]Identity, len(names))
	for i, n := range names {
		list[i] = member(n)
	}
	r, err := New(list)
	require.NoError(t, err)
	return r
}

func TestNewRejects(t *testing.T) {
	_, err := New(nil)
	require.True(t, verr.IsKind(err, verr.KindCommittee))
	require.Equal(t, "ROSTER-001", verr.RuleID(err))

	a := member("a")
	_, err = New([]Identity{a, member("b"), a})
	require.True(t, verr.IsKind(err, verr.KindCommittee))
	require.Equal(t, "ROSTER-003", verr.RuleID(err))

	_, err = New([]Identity{{Address: "x"}})
	require.True(t, verr.IsKind(err, verr.KindCommittee))
}

func TestAggregateIsSumOfKeys(t *testing.T) {
	r := mustRoster(t, "a", "b", "c")
	want := member("a").Public.Add(member("b").Public).Add(member("c").Public)
	require.True(t, r.Aggregate().Equal(want))
	require.Equal(t, 3, r.Len())
}

func TestIDDependsOnKeyOrderOnly(t *testing.T) {
	abc := mustRoster(t, "a", "b", "c")
	acb := mustRoster(t, "a", "c", "b")
	require.NotEqual(t, abc.ID(), acb.ID())

	// Addresses are not part of the id.
	list := abc.List()
	list[0].Address = "tcp://elsewhere:1"
	moved, err := New(list)
	require.NoError(t, err)
	require.Equal(t, abc.ID(), moved.ID())
	require.True(t, abc.Equal(moved))

	require.Equal(t, 5, int(abc.ID().Version()))
}

func TestLookup(t *testing.T) {
	r := mustRoster(t, "a", "b", "c")
	require.Equal(t, 1, r.Index(member("b").Public))
	require.Equal(t, -1, r.Index(member("z").Public))
	require.True(t, r.Contains(member("c").Public))
	require.Len(t, r.Publics(), 3)
	require.Equal(t, member("a").Address, r.Get(0).Address)
}

func TestBinaryRoundTrip(t *testing.T) {
	for n := 1; n <= 5; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("node-%d", i)
		}
		r := mustRoster(t, names...)
		got, err := Decode(r.Encode())
		require.NoError(t, err)
		require.True(t, r.Equal(got))
		for i := 0; i < n; i++ {
			require.Equal(t, r.Get(i).Address, got.Get(i).Address)
			require.Equal(t, r.Get(i).Description, got.Get(i).Description)
			require.True(t, r.Get(i).Public.Equal(got.Get(i).Public))
		}
	}
}

func TestDecodeRejectsForgedAggregate(t *testing.T) {
	r := mustRoster(t, "a", "b")
	other := mustRoster(t, "a", "c")

	// Append a second aggregate field; the last one wins during decode.
	forged := wire.AppendBytes(r.Encode(), fieldAggregate, other.Aggregate().Bytes())
	_, err := Decode(forged)
	require.True(t, verr.IsKind(err, verr.KindFormat))
	require.Equal(t, "ROSTER-FMT-004", verr.RuleID(err))
}

func TestJSONRoundTrip(t *testing.T) {
	r := mustRoster(t, "a", "b", "c")
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got Roster
	require.NoError(t, json.Unmarshal(b, &got))
	require.True(t, r.Equal(&got))

	doc := r.Document()
	doc.ID = mustRoster(t, "x").ID().String()
	_, err = FromDocument(doc)
	require.True(t, verr.IsKind(err, verr.KindFormat))
}
