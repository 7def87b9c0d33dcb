package keys

import (
	"errors"
	"testing"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/schnorr"
)

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	root := make([]byte, SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "writer")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "writer")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}
	if len(a) != SeedSize {
		t.Fatalf("derived seed is %d bytes", len(a))
	}

	c, err := DeriveRoleSeed(root, "auditor")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different roles to derive different seeds")
	}

	if _, err := DeriveRoleSeed(root[:5], "writer"); err == nil {
		t.Fatalf("expected short root seed to fail")
	}
	if _, err := DeriveRoleSeed(root, "bad role"); err == nil {
		t.Fatalf("expected invalid role to fail")
	}
}

func TestSeedKeysSign(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	priv, err := PrivateKey(seed)
	if err != nil {
		t.Fatalf("PrivateKey: %v", err)
	}
	pub, err := PublicKey(seed)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	sig, err := schnorr.Sign(nil, priv, []byte("hello"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := schnorr.Verify(pub, []byte("hello"), sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestPublicKeyFormat(t *testing.T) {
	pub := curve.MulBase(curve.NewScalar(7))
	s := FormatPublicKey(pub)
	for _, in := range []string{s, pub.String(), " " + s + "\n"} {
		got, err := ParsePublicKey(in)
		if err != nil {
			t.Fatalf("ParsePublicKey(%q): %v", in, err)
		}
		if !got.Equal(pub) {
			t.Fatalf("ParsePublicKey(%q) returned a different point", in)
		}
	}
	if _, err := ParsePublicKey("ristretto255:zz"); err == nil {
		t.Fatalf("expected error")
	}
	identity := FormatPublicKey(curve.Zero())
	if _, err := ParsePublicKey(identity); !errors.Is(err, ErrIdentityKey) {
		t.Fatalf("ParsePublicKey(%q): got %v, want ErrIdentityKey", identity, err)
	}
}
