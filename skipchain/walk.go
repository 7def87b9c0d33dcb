// Package skipchain verifies forward-linked block chains whose signing
// committee may change from link to link.
//
// Walk is the core: starting from a trusted genesis id and roster it checks
// each forward link against the roster active at that point, adopting any new
// roster a verified link declares. Proof wraps Walk in an append-only
// builder.
package skipchain

import (
	"fmt"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/verr"
)

// Walk verifies links in order from (genesisID, genesis) and returns the id
// the last link points to together with the roster active after it.
//
// It stops at the first failing link: a link that does not start where the
// chain currently ends is KindBrokenChain, a link whose collective signature
// does not verify against the active roster is KindSignature.
func Walk(genesisID BlockID, genesis *roster.Roster, links []*ForwardLink, policy cosi.Policy) (BlockID, *roster.Roster, error) {
	if genesis == nil {
		return BlockID{}, nil, verr.New(verr.KindCommittee, "SKIP-WALK-001", "no genesis roster")
	}
	tip, active := genesisID, genesis
	for i, l := range links {
		next, nextRoster, err := step(tip, active, l, policy)
		if err != nil {
			return BlockID{}, nil, verr.Wrap(verr.KindOf(err), verr.RuleID(err), fmt.Sprintf("link %d", i), err)
		}
		tip, active = next, nextRoster
	}
	return tip, active, nil
}

// step checks one link from the current state and returns the next state.
func step(tip BlockID, active *roster.Roster, l *ForwardLink, policy cosi.Policy) (BlockID, *roster.Roster, error) {
	if l == nil {
		return BlockID{}, nil, verr.New(verr.KindFormat, "SKIP-LINK-005", "nil forward link")
	}
	if l.From != tip {
		return BlockID{}, nil, verr.Newf(verr.KindBrokenChain, "SKIP-LINK-001", "link starts at %s, chain is at %s", l.From, tip)
	}
	if err := l.Verify(active, policy); err != nil {
		return BlockID{}, nil, verr.Wrap(verr.KindSignature, "SKIP-LINK-002", fmt.Sprintf("link %s -> %s", l.From, l.To), err)
	}
	if l.NewRoster != nil {
		active = l.NewRoster
	}
	return l.To, active, nil
}
