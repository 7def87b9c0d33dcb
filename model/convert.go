package model

import (
	"encoding/hex"
	"errors"
	"fmt"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/inclusion"
	"xdao.co/skipproof/keys"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/schnorr"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/verr"
)

// FromBlock wraps the canonical encoding of b.
func FromBlock(b *skipchain.Block) BlockDocument {
	return BlockDocument{ID: b.Hash().String(), Data: b.Encode()}
}

// Block decodes the document, checking ID when present.
func (d BlockDocument) Block() (*skipchain.Block, error) {
	b, err := skipchain.DecodeBlock(d.Data)
	if err != nil {
		return nil, err
	}
	if d.ID != "" {
		want, err := skipchain.BlockIDFromHex(d.ID)
		if err != nil {
			return nil, err
		}
		if got := b.Hash(); got != want {
			return nil, verr.Newf(verr.KindMismatch, "MODEL-001", "block document id %s, data hashes to %s", want, got)
		}
	}
	return b, nil
}

// FromSignature converts s; a nil s gives nil.
func FromSignature(s *cosi.Signature) *SignatureDocument {
	if s == nil {
		return nil
	}
	return &SignatureDocument{
		Msg:        hex.EncodeToString(s.Msg),
		Sig:        hex.EncodeToString(s.Sig.Bytes()),
		Exceptions: s.ExceptionIndexes(),
	}
}

// Signature decodes d.
func (d *SignatureDocument) Signature() (*cosi.Signature, error) {
	msg, err := hex.DecodeString(d.Msg)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "MODEL-002", "signature msg", err)
	}
	raw, err := hex.DecodeString(d.Sig)
	if err != nil {
		return nil, verr.Wrap(verr.KindFormat, "MODEL-002", "signature sig", err)
	}
	sig, err := schnorr.SignatureFromBytes(raw)
	if err != nil {
		return nil, err
	}
	out := &cosi.Signature{Msg: msg, Sig: sig}
	if len(d.Exceptions) > 0 {
		for _, i := range d.Exceptions {
			if i < 0 {
				return nil, verr.Newf(verr.KindFormat, "MODEL-002", "negative exception index %d", i)
			}
		}
		out.Exceptions = cosi.NewExceptions(d.Exceptions...)
	}
	return out, nil
}

// FromLink converts l, including any roster it hands over to.
func FromLink(l *skipchain.ForwardLink) LinkDocument {
	d := LinkDocument{From: l.From.String(), To: l.To.String()}
	if l.NewRoster != nil {
		doc := l.NewRoster.Document()
		d.NewRoster = &doc
	}
	if l.Signature != nil {
		d.Signature = FromSignature(l.Signature)
	}
	return d
}

// Link decodes d. A link without a signature is rejected.
func (d LinkDocument) Link() (*skipchain.ForwardLink, error) {
	from, err := skipchain.BlockIDFromHex(d.From)
	if err != nil {
		return nil, err
	}
	to, err := skipchain.BlockIDFromHex(d.To)
	if err != nil {
		return nil, err
	}
	l := &skipchain.ForwardLink{From: from, To: to}
	if d.NewRoster != nil {
		if l.NewRoster, err = roster.FromDocument(*d.NewRoster); err != nil {
			return nil, err
		}
	}
	if d.Signature == nil {
		return nil, verr.New(verr.KindMissingField, "MODEL-003", "link has no signature")
	}
	if l.Signature, err = d.Signature.Signature(); err != nil {
		return nil, err
	}
	return l, nil
}

// FromProof renders p, including its last block when one is attached.
func FromProof(p *skipchain.Proof) ProofDocument {
	d := ProofDocument{
		GenesisID:     p.GenesisID().String(),
		GenesisRoster: p.GenesisRoster().Document(),
		Links:         []LinkDocument{},
	}
	for _, l := range p.Links() {
		d.Links = append(d.Links, FromLink(l))
	}
	if b := p.LastBlock(); b != nil {
		doc := FromBlock(b)
		d.LastBlock = &doc
	}
	return d
}

// parts decodes the document without verifying any link.
func (d ProofDocument) parts() (skipchain.BlockID, *roster.Roster, []*skipchain.ForwardLink, *skipchain.Block, error) {
	genesisID, err := skipchain.BlockIDFromHex(d.GenesisID)
	if err != nil {
		return skipchain.BlockID{}, nil, nil, nil, err
	}
	genesis, err := roster.FromDocument(d.GenesisRoster)
	if err != nil {
		return skipchain.BlockID{}, nil, nil, nil, err
	}
	links := make([]*skipchain.ForwardLink, len(d.Links))
	for i, ld := range d.Links {
		if links[i], err = ld.Link(); err != nil {
			return skipchain.BlockID{}, nil, nil, nil, fmt.Errorf("link %d: %w", i, err)
		}
	}
	var last *skipchain.Block
	if d.LastBlock != nil {
		if last, err = d.LastBlock.Block(); err != nil {
			return skipchain.BlockID{}, nil, nil, nil, err
		}
	}
	return genesisID, genesis, links, last, nil
}

// Proof decodes and verifies the document under policy.
func (d ProofDocument) Proof(policy cosi.Policy) (*skipchain.Proof, error) {
	genesisID, genesis, links, last, err := d.parts()
	if err != nil {
		return nil, err
	}
	return skipchain.Assemble(genesisID, genesis, links, last, policy)
}

// Request decodes the document into an inclusion request. No check is run;
// that is the verifier's job.
func (d InclusionRequest) Request() (inclusion.Request, error) {
	genesisID, genesis, links, last, err := d.Proof.parts()
	if err != nil {
		return inclusion.Request{}, err
	}
	block := last
	if d.Block != nil {
		if block, err = d.Block.Block(); err != nil {
			return inclusion.Request{}, err
		}
	}
	if block == nil {
		return inclusion.Request{}, errors.New("model: inclusion request has no block")
	}
	author, err := keys.ParsePublicKey(d.Author)
	if err != nil {
		return inclusion.Request{}, err
	}
	return inclusion.Request{
		Key:           []byte(d.Key),
		Block:         block,
		GenesisID:     genesisID,
		GenesisRoster: genesis,
		Links:         links,
		Author:        author,
	}, nil
}

// NewInclusionRequest renders a request; the block travels inside the proof
// when it is the proof's last block.
func NewInclusionRequest(key []byte, p *skipchain.Proof, block *skipchain.Block, author curve.Point) InclusionRequest {
	d := InclusionRequest{Key: string(key), Proof: FromProof(p), Author: keys.FormatPublicKey(author)}
	if block != nil && (p.LastBlock() == nil || p.LastBlock().Hash() != block.Hash()) {
		doc := FromBlock(block)
		d.Block = &doc
	}
	return d
}

// ResultOf summarizes a verification outcome.
func ResultOf(check inclusion.Check, err error) Result {
	if err == nil {
		return Result{OK: true}
	}
	return Result{
		Check:   string(check),
		Kind:    string(verr.KindOf(err)),
		RuleID:  verr.RuleID(err),
		Message: err.Error(),
	}
}
