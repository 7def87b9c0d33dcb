package keys

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"xdao.co/skipproof/curve"
)

// SeedSize is the length of a key seed in bytes.
const SeedSize = 32

const roleKDFLabel = "xdao-skipproof-keys-v1"

// PrivateKey maps a seed to the private scalar used for Schnorr signing.
func PrivateKey(seed []byte) (curve.Scalar, error) {
	if len(seed) != SeedSize {
		return curve.Scalar{}, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	return curve.ScalarFromSeed(seed), nil
}

// PublicKey returns the public point for a seed.
func PublicKey(seed []byte) (curve.Point, error) {
	priv, err := PrivateKey(seed)
	if err != nil {
		return curve.Point{}, err
	}
	return curve.MulBase(priv), nil
}

// DeriveRoleSeed deterministically derives a role-specific seed from a root seed.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha3.New256()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(roleKDFLabel))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	return h.Sum(nil), nil
}
