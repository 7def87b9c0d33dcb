// Package roster models the committee of signer nodes that vouches for a
// stretch of the skipchain.
//
// A Roster is immutable. Its aggregate key and its 16-byte id are derived
// once, at construction or decode time, from the ordered member keys.
package roster

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/verr"
)

// Identity is one committee member.
type Identity struct {
	Address     string
	Public      curve.Point
	Description string
}

// Roster is an ordered, non-empty list of identities with distinct keys.
type Roster struct {
	list      []Identity
	aggregate curve.Point
	id        uuid.UUID
}

// New builds a roster from list. The list order is significant: it fixes the
// id and the bit positions of collective-signature exceptions.
func New(list []Identity) (*Roster, error) {
	if len(list) == 0 {
		return nil, verr.New(verr.KindCommittee, "ROSTER-001", "roster must have at least one member")
	}
	seen := make(map[string]int, len(list))
	for i, id := range list {
		if id.Public.IsZero() {
			return nil, verr.Newf(verr.KindCommittee, "ROSTER-002", "member %d has no public key", i)
		}
		k := string(id.Public.Bytes())
		if j, dup := seen[k]; dup {
			return nil, verr.Newf(verr.KindCommittee, "ROSTER-003", "members %d and %d share public key %s", j, i, id.Public)
		}
		seen[k] = i
	}

	r := &Roster{list: append([]Identity(nil), list...)}
	agg := curve.Zero()
	for _, id := range r.list {
		agg = agg.Add(id.Public)
	}
	r.aggregate = agg
	r.id = computeID(r.list)
	return r, nil
}

// FromPublics builds a roster from bare keys, with empty addresses.
func FromPublics(pubs ...curve.Point) (*Roster, error) {
	list := make([]Identity, len(pubs))
	for i, p := range pubs {
		list[i] = Identity{Public: p}
	}
	return New(list)
}

// computeID is a name-based (SHA-1, URL namespace) UUID over the upper-case
// hex of SHA-256 of the concatenated member keys.
func computeID(list []Identity) uuid.UUID {
	h := sha256.New()
	for _, id := range list {
		_, _ = h.Write(id.Public.Bytes())
	}
	name := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
}

// Aggregate returns the sum of all member keys.
func (r *Roster) Aggregate() curve.Point { return r.aggregate }

// ID returns the roster's 16-byte identifier.
func (r *Roster) ID() uuid.UUID { return r.id }

// Len returns the number of members.
func (r *Roster) Len() int { return len(r.list) }

// Get returns member i.
func (r *Roster) Get(i int) Identity { return r.list[i] }

// List returns a copy of the members.
func (r *Roster) List() []Identity { return append([]Identity(nil), r.list...) }

// Publics returns the member keys in roster order.
func (r *Roster) Publics() []curve.Point {
	out := make([]curve.Point, len(r.list))
	for i, id := range r.list {
		out[i] = id.Public
	}
	return out
}

// Index returns the position of the member with key p, or -1.
func (r *Roster) Index(p curve.Point) int {
	for i, id := range r.list {
		if id.Public.Equal(p) {
			return i
		}
	}
	return -1
}

// Contains reports whether p is a member key.
func (r *Roster) Contains(p curve.Point) bool { return r.Index(p) >= 0 }

// Equal reports whether both rosters list the same keys in the same order.
func (r *Roster) Equal(o *Roster) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.id == o.id && r.aggregate.Equal(o.aggregate)
}
