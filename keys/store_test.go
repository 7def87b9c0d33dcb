package keys

import (
	"os"
	"path/filepath"
	"testing"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestKeyStoreLifecycle(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	seed, err := GenerateSeed(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateSeed: %v", err)
	}

	pub, path, err := ks.InitializeRootKey("alice", seed, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if filepath.Base(path) != "root.key" {
		t.Fatalf("unexpected root key path %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("root key mode %v, want 0600", info.Mode().Perm())
	}

	if _, _, err := ks.InitializeRootKey("alice", seed, false); err == nil {
		t.Fatalf("expected existing root key to be kept")
	}

	rolePub, _, err := ks.DeriveKeyFromRole("alice", "writer", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	if rolePub.Equal(pub) {
		t.Fatalf("role key must differ from root key")
	}

	exported, err := ks.ExportKey("alice", "")
	if err != nil || !exported.Equal(pub) {
		t.Fatalf("ExportKey root: %v", err)
	}
	exported, err = ks.ExportKey("alice", "writer")
	if err != nil || !exported.Equal(rolePub) {
		t.Fatalf("ExportKey role: %v", err)
	}

	loaded, err := ks.LoadSeed("", "alice", "", "")
	if err != nil || string(loaded) != string(seed) {
		t.Fatalf("LoadSeed by name: %v", err)
	}
	loaded, err = ks.LoadSeed("", "", "", path)
	if err != nil || string(loaded) != string(seed) {
		t.Fatalf("LoadSeed by file: %v", err)
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatalf("expected error without signer")
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Identifier != "alice" || len(entries[0].Roles) != 1 || entries[0].Roles[0] != "writer" {
		t.Fatalf("ListKeys: %+v", entries)
	}
}

func TestParseSeedHex(t *testing.T) {
	hexSeed := "0x" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	seed, err := ParseSeedHex(hexSeed)
	if err != nil || len(seed) != SeedSize {
		t.Fatalf("ParseSeedHex: %v", err)
	}
	if _, err := ParseSeedHex("abcd"); err == nil {
		t.Fatalf("expected short seed to fail")
	}
	if err := CheckKeyName("a/b"); err == nil {
		t.Fatalf("expected invalid identifier")
	}
}
