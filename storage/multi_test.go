package storage_test

import (
	"errors"
	"testing"

	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/testkit"
)

func TestMultiCAS_Conformance(t *testing.T) {
	for _, policy := range []storage.WritePolicy{storage.WriteFirst, storage.WriteAll} {
		t.Run(string(policy), func(t *testing.T) {
			testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
				return &storage.MultiCAS{
					Policy: policy,
					Backends: []storage.NamedCAS{
						{Name: "a", CAS: testkit.NewMemCAS()},
						{Name: "b", CAS: testkit.NewMemCAS()},
					},
				}
			})
		})
	}
}

func TestMultiCAS_OrderedFallback(t *testing.T) {
	primary, secondary := testkit.NewMemCAS(), testkit.NewMemCAS()
	m := &storage.MultiCAS{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: primary},
		{Name: "secondary", CAS: secondary},
	}}

	id, err := secondary.Put([]byte("only in secondary"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(id)
	if err != nil || string(got) != "only in secondary" {
		t.Fatalf("fallback Get: %q %v", got, err)
	}
	if !m.Has(id) {
		t.Fatalf("Has should see secondary")
	}

	// A hard error from an earlier backend stops the walk.
	boom := errors.New("disk on fire")
	primary.Failing = boom
	if _, err := m.Get(id); !errors.Is(err, boom) {
		t.Fatalf("Get: got %v want %v", err, boom)
	}
}

func TestMultiCAS_WritePolicies(t *testing.T) {
	a, b := testkit.NewMemCAS(), testkit.NewMemCAS()
	backends := []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}

	first := &storage.MultiCAS{Backends: backends, Policy: storage.WriteFirst}
	if _, err := first.Put([]byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Len() != 1 || b.Len() != 0 {
		t.Fatalf("WriteFirst wrote to a=%d b=%d", a.Len(), b.Len())
	}

	all := &storage.MultiCAS{Backends: backends, Policy: storage.WriteAll}
	id, per, err := all.PutAll([]byte("y"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	want, _ := cidutil.CIDv1RawSHA256CID([]byte("y"))
	if id != want || per["a"] != want || per["b"] != want {
		t.Fatalf("PutAll results: %s %v", id, per)
	}

	empty := &storage.MultiCAS{}
	if _, err := empty.Put([]byte("z")); !errors.Is(err, storage.ErrNoBackends) {
		t.Fatalf("Put with no backends: %v", err)
	}
}

func TestParseWritePolicy(t *testing.T) {
	for in, want := range map[string]storage.WritePolicy{"": storage.WriteFirst, "first": storage.WriteFirst, "all": storage.WriteAll} {
		got, err := storage.ParseWritePolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseWritePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := storage.ParseWritePolicy("some"); err == nil {
		t.Fatalf("expected error")
	}
}
