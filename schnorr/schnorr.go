// Package schnorr implements single-party Schnorr signatures over Ristretto255.
//
// A signature is (R, s) with R = r·G and s = r + c·x, where
// c = H(R ‖ P ‖ m). It verifies iff s·G == R + c·P.
package schnorr

import (
	"io"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/verr"
)

// SignatureSize is the length of an encoded signature: R(32) ‖ s(32).
const SignatureSize = curve.PointSize + curve.ScalarSize

var challengeDST = []byte("xdao-skipproof-schnorr-v1")

// Signature is a Schnorr signature.
type Signature struct {
	R curve.Point
	S curve.Scalar
}

// Challenge returns c = H(R ‖ P ‖ msg).
//
// Collective signers use the same challenge with P set to the effective
// aggregate key.
func Challenge(R, P curve.Point, msg []byte) curve.Scalar {
	return curve.HashToScalar(challengeDST, R.Bytes(), P.Bytes(), msg)
}

// Sign signs msg with the private scalar priv. rnd supplies the nonce; nil
// means crypto/rand.
func Sign(rnd io.Reader, priv curve.Scalar, msg []byte) (Signature, error) {
	r, err := curve.RandomScalar(rnd)
	if err != nil {
		return Signature{}, err
	}
	R := curve.MulBase(r)
	c := Challenge(R, curve.MulBase(priv), msg)
	return Signature{R: R, S: r.Add(c.Mul(priv))}, nil
}

// Verify checks sig over msg against pub. The identity is never a valid
// key: with P = 0 any (s·G, s) would verify.
func Verify(pub curve.Point, msg []byte, sig Signature) error {
	if pub.IsZero() {
		return verr.New(verr.KindSignature, "SCHNORR-VER-003", "public key is the identity")
	}
	c := Challenge(sig.R, pub, msg)
	left := curve.MulBase(sig.S)
	right := sig.R.Add(pub.Mul(c))
	if !left.Equal(right) {
		return verr.New(verr.KindSignature, "SCHNORR-VER-001", "schnorr signature does not verify")
	}
	return nil
}

// Bytes returns R(32) ‖ s(32).
func (sig Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureSize)
	out = append(out, sig.R.Bytes()...)
	return append(out, sig.S.Bytes()...)
}

// SignatureFromBytes decodes a 64-byte signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureSize {
		return Signature{}, verr.Newf(verr.KindFormat, "SCHNORR-FMT-001", "signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	R, err := curve.PointFromBytes(b[:curve.PointSize])
	if err != nil {
		return Signature{}, verr.Wrap(verr.KindFormat, "SCHNORR-FMT-002", "signature commitment", err)
	}
	s, err := curve.ScalarFromBytes(b[curve.PointSize:])
	if err != nil {
		return Signature{}, verr.Wrap(verr.KindFormat, "SCHNORR-FMT-003", "signature response", err)
	}
	return Signature{R: R, S: s}, nil
}

// VerifyBytes decodes sig and verifies it. A malformed signature is reported
// as a signature failure, since nothing valid was presented.
func VerifyBytes(pub curve.Point, msg, sig []byte) error {
	decoded, err := SignatureFromBytes(sig)
	if err != nil {
		return verr.Wrap(verr.KindSignature, "SCHNORR-VER-002", "malformed schnorr signature", err)
	}
	return Verify(pub, msg, decoded)
}
