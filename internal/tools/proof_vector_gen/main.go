// Command proof_vector_gen writes a deterministic inclusion fixture: a
// three-block chain with one roster handover whose last block carries a
// signed record. Running it twice gives identical files.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"

	"xdao.co/skipproof/cosi/cositest"
	"xdao.co/skipproof/keys"
	"xdao.co/skipproof/model"
	"xdao.co/skipproof/record"
	"xdao.co/skipproof/skipchain/chaintest"
)

func mustSeed(seedByte byte) []byte {
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	return seed
}

// stream is a fixed nonce source; fixtures are not secrets.
func stream(label string) io.Reader {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte("proof_vector_gen:" + label))
	return h
}

func mustCommittee(names ...string) *cositest.Committee {
	c, err := cositest.NewCommittee(names...)
	if err != nil {
		panic(err)
	}
	return c
}

func write(dir, name string, v any) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		panic(err)
	}
	if err := model.Encode(f, v); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
}

func main() {
	dir := "testdata"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}

	seed := mustSeed(0xA1)
	priv, err := keys.PrivateKey(seed)
	if err != nil {
		panic(err)
	}
	author, err := keys.PublicKey(seed)
	if err != nil {
		panic(err)
	}
	key := []byte("2024.01.01")
	rec, err := record.Sign(stream("record"), priv, key, []byte("conformance vector"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}

	ch := chaintest.New(mustCommittee("A", "B", "C", "D"), []byte("genesis"))
	ch.Rand = stream("cosi")
	if _, _, err := ch.Append([]byte("handover"), mustCommittee("B", "C", "D", "E")); err != nil {
		panic(err)
	}
	// One signer of the new roster sits out; 3 of 4 still meets the byzantine policy.
	if _, _, err := ch.Append(rec.Payload(), nil, 3); err != nil {
		panic(err)
	}

	p, err := ch.Proof(nil)
	if err != nil {
		panic(err)
	}

	write(dir, "genesis.json", model.FromBlock(ch.Genesis()))
	write(dir, "proof.json", model.FromProof(p))
	write(dir, "request.json", model.NewInclusionRequest(key, p, ch.Last(), author))

	fmt.Printf("GENESIS=%s\n", ch.GenesisID())
	fmt.Printf("TIP=%s\n", p.Tip())
	fmt.Printf("AUTHOR=%s\n", keys.FormatPublicKey(author))
}
