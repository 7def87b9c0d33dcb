package keys

import (
	"errors"
	"strings"

	"xdao.co/skipproof/curve"
)

// ErrIdentityKey is returned for the group identity, which no seed produces.
var ErrIdentityKey = errors.New("public key is the identity")

// PublicKeyPrefix tags exported public keys.
const PublicKeyPrefix = "ristretto255:"

// FormatPublicKey renders pub as "ristretto255:<hex>".
func FormatPublicKey(pub curve.Point) string {
	return PublicKeyPrefix + pub.String()
}

// ParsePublicKey accepts the output of FormatPublicKey or bare hex. The
// identity point is rejected.
func ParsePublicKey(s string) (curve.Point, error) {
	s = strings.TrimSpace(s)
	pub, err := curve.PointFromHex(strings.TrimPrefix(s, PublicKeyPrefix))
	if err != nil {
		return curve.Point{}, err
	}
	if pub.IsZero() {
		return curve.Point{}, ErrIdentityKey
	}
	return pub, nil
}
