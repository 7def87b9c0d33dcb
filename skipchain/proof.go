package skipchain

import (
	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/verr"
)

// Proof is a chain of verified forward links from a trusted genesis,
// optionally closed by the block the last link points to.
//
// Links are checked as they are appended, so a Proof never holds a link that
// failed. Once a last block is attached the proof is sealed.
type Proof struct {
	genesisID BlockID
	genesis   *roster.Roster
	policy    cosi.Policy
	links     []*ForwardLink
	lastBlock *Block

	// walk state after links
	tip    BlockID
	active *roster.Roster
}

// NewProof starts an empty proof at genesisID with its roster. A nil policy
// means cosi.DefaultPolicy.
func NewProof(genesisID BlockID, genesis *roster.Roster, policy cosi.Policy) (*Proof, error) {
	if genesis == nil {
		return nil, verr.New(verr.KindCommittee, "SKIP-PROOF-001", "proof needs a genesis roster")
	}
	if genesisID.IsZero() {
		return nil, verr.New(verr.KindFormat, "SKIP-PROOF-002", "proof needs a genesis id")
	}
	if policy == nil {
		policy = cosi.DefaultPolicy
	}
	return &Proof{
		genesisID: genesisID,
		genesis:   genesis,
		policy:    policy,
		tip:       genesisID,
		active:    genesis,
	}, nil
}

// NewProofFromGenesis starts a proof at a genesis block, trusting its roster.
func NewProofFromGenesis(genesis *Block, policy cosi.Policy) (*Proof, error) {
	if genesis == nil || !genesis.IsGenesis() {
		return nil, verr.New(verr.KindFormat, "SKIP-PROOF-002", "block is not a genesis block")
	}
	return NewProof(genesis.Hash(), genesis.Roster, policy)
}

// Assemble builds a proof from its parts, checking every link and the last
// block. last may be nil.
func Assemble(genesisID BlockID, genesis *roster.Roster, links []*ForwardLink, last *Block, policy cosi.Policy) (*Proof, error) {
	p, err := NewProof(genesisID, genesis, policy)
	if err != nil {
		return nil, err
	}
	if err := p.AddLinks(links...); err != nil {
		return nil, err
	}
	if last != nil {
		if err := p.AttachLastBlock(last); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddLink verifies l against the latest roster of the proof and appends a
// copy of it, so later changes to l do not affect the proof.
func (p *Proof) AddLink(l *ForwardLink) error {
	if p.lastBlock != nil {
		return verr.New(verr.KindBrokenChain, "SKIP-PROOF-003", "proof is sealed by its last block")
	}
	l = l.Clone()
	tip, active, err := step(p.tip, p.active, l, p.policy)
	if err != nil {
		return err
	}
	p.links = append(p.links, l)
	p.tip, p.active = tip, active
	return nil
}

// AddLinks appends links in order, stopping at the first failure.
func (p *Proof) AddLinks(links ...*ForwardLink) error {
	for _, l := range links {
		if err := p.AddLink(l); err != nil {
			return err
		}
	}
	return nil
}

// AttachLastBlock seals the proof with the block its last link points to.
func (p *Proof) AttachLastBlock(b *Block) error {
	if p.lastBlock != nil {
		return verr.New(verr.KindBrokenChain, "SKIP-PROOF-003", "proof is sealed by its last block")
	}
	if len(p.links) == 0 {
		return verr.New(verr.KindBrokenChain, "SKIP-PROOF-004", "last block needs at least one forward link")
	}
	if b == nil {
		return verr.New(verr.KindFormat, "SKIP-PROOF-005", "nil last block")
	}
	if got := b.Hash(); got != p.tip {
		return verr.Newf(verr.KindMismatch, "SKIP-PROOF-005", "last block hashes to %s, chain ends at %s", got, p.tip)
	}
	p.lastBlock = b.Clone()
	return nil
}

// Verify re-walks the whole proof from genesis and returns its tip. It does
// not modify the proof, so repeated calls give the same result.
func (p *Proof) Verify() (BlockID, error) {
	tip, _, err := Walk(p.genesisID, p.genesis, p.links, p.policy)
	if err != nil {
		return BlockID{}, err
	}
	if p.lastBlock != nil {
		if got := p.lastBlock.Hash(); got != tip {
			return BlockID{}, verr.Newf(verr.KindMismatch, "SKIP-PROOF-005", "last block hashes to %s, chain ends at %s", got, tip)
		}
	}
	return tip, nil
}

// GenesisID returns the trusted genesis block id the proof starts from.
func (p *Proof) GenesisID() BlockID { return p.genesisID }

// GenesisRoster returns the roster trusted at genesis.
func (p *Proof) GenesisRoster() *roster.Roster { return p.genesis }

// Policy returns the policy every link was checked under.
func (p *Proof) Policy() cosi.Policy { return p.policy }

// LastBlock returns a copy of the sealing block, or nil if the proof is open.
func (p *Proof) LastBlock() *Block { return p.lastBlock.Clone() }

// Tip returns the id the last link points to; the genesis id for an empty proof.
func (p *Proof) Tip() BlockID { return p.tip }

// ActiveRoster returns the roster in charge after the last link.
func (p *Proof) ActiveRoster() *roster.Roster { return p.active }

// Len returns the number of links.
func (p *Proof) Len() int { return len(p.links) }

// Links returns copies of the proof's links in order.
func (p *Proof) Links() []*ForwardLink {
	out := make([]*ForwardLink, len(p.links))
	for i, l := range p.links {
		out[i] = l.Clone()
	}
	return out
}
