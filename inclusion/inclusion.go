// Package inclusion proves that a key/value record is part of a skipchain
// that grows out of a trusted genesis block.
package inclusion

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/record"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/verr"
)

// Check names the inclusion step that failed.
type Check string

const (
	CheckKey         Check = "key"
	CheckBlockHash   Check = "block-hash"
	CheckLinkMessage Check = "link-message"
	CheckChain       Check = "chain"
	CheckAuthor      Check = "author"
)

// Request is everything needed to prove one record.
//
// Links run from the genesis block to Block; the last link must point at
// Block. Author is the writer's public key, obtained out of band.
type Request struct {
	Key           []byte
	Block         *skipchain.Block
	GenesisID     skipchain.BlockID
	GenesisRoster *roster.Roster
	Links         []*skipchain.ForwardLink
	Author        curve.Point
}

// RequestFromProof fills a request from a proof sealed with its last block.
func RequestFromProof(key []byte, p *skipchain.Proof, author curve.Point) Request {
	return Request{
		Key:           key,
		Block:         p.LastBlock(),
		GenesisID:     p.GenesisID(),
		GenesisRoster: p.GenesisRoster(),
		Links:         p.Links(),
		Author:        author,
	}
}

// Verifier checks inclusion requests. The zero value uses cosi.DefaultPolicy
// and logs nothing.
type Verifier struct {
	Policy cosi.Policy
	Logger *zap.Logger
	// Concurrency bounds VerifyAll; zero or less means no bound.
	Concurrency int
}

// New returns a Verifier. A nil logger discards logs.
func New(policy cosi.Policy, logger *zap.Logger) *Verifier {
	return &Verifier{Policy: policy, Logger: logger}
}

func (v *Verifier) logger() *zap.Logger {
	if v == nil || v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}

func (v *Verifier) policy() cosi.Policy {
	if v == nil || v.Policy == nil {
		return cosi.DefaultPolicy
	}
	return v.Policy
}

// VerifyInclusion runs the five inclusion checks in order and returns the
// first failure:
//
//  1. the block's record holds Key;
//  2. the block hashes to the last link's target;
//  3. the last link's signature claims this link's message;
//  4. every link verifies against the roster active at its position,
//     walking from genesis;
//  5. the record's author signature verifies under Author.
func (v *Verifier) VerifyInclusion(req Request) error {
	_, err := v.verify(req)
	return err
}

// Diagnose is VerifyInclusion that also names the failed check.
func (v *Verifier) Diagnose(req Request) (Check, error) {
	return v.verify(req)
}

// VerifyBlock is VerifyInclusion reporting only success. The failed check is
// logged at warn level.
func (v *Verifier) VerifyBlock(req Request) bool {
	check, err := v.verify(req)
	if err != nil {
		v.logger().Warn("inclusion proof rejected",
			zap.String("check", string(check)),
			zap.String("rule", verr.RuleID(err)),
			zap.ByteString("key", req.Key),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (v *Verifier) verify(req Request) (Check, error) {
	if req.Block == nil {
		return CheckKey, verr.New(verr.KindFormat, "INCL-000", "no block to verify")
	}

	rec, err := record.Extract(req.Block)
	if err != nil {
		return CheckKey, err
	}
	if rec.Key == nil {
		return CheckKey, verr.Newf(verr.KindMissingField, "INCL-001", "block record has no %q field", record.KeyKey)
	}
	if !bytes.Equal(rec.Key, req.Key) {
		return CheckKey, verr.Newf(verr.KindMismatch, "INCL-002", "block record holds key %q, want %q", rec.Key, req.Key)
	}

	if len(req.Links) == 0 {
		return CheckBlockHash, verr.New(verr.KindBrokenChain, "INCL-003", "no forward link to the block")
	}
	last := req.Links[len(req.Links)-1]
	if last == nil {
		return CheckBlockHash, verr.New(verr.KindFormat, "INCL-003", "nil forward link")
	}
	if got := req.Block.Hash(); got != last.To {
		return CheckBlockHash, verr.Newf(verr.KindMismatch, "INCL-004", "block hashes to %s, link points to %s", got, last.To)
	}

	if err := last.CheckClaimedMessage(); err != nil {
		return CheckLinkMessage, err
	}

	tip, active, err := skipchain.Walk(req.GenesisID, req.GenesisRoster, req.Links, v.policy())
	if err != nil {
		return CheckChain, err
	}

	if req.Author.IsZero() {
		return CheckAuthor, verr.New(verr.KindMissingField, "INCL-005", "no author key to check the record against")
	}
	if err := rec.VerifyAuthor(req.Author); err != nil {
		return CheckAuthor, err
	}

	v.logger().Debug("inclusion proven",
		zap.ByteString("key", req.Key),
		zap.Stringer("block", tip),
		zap.Int("links", len(req.Links)),
		zap.Stringer("roster", active.ID()),
	)
	return "", nil
}

// Outcome is the result of one request in a batch. Check is empty when Err
// is nil or when the request never ran.
type Outcome struct {
	Check Check
	Err   error
}

// OK reports whether the request was proven.
func (o Outcome) OK() bool { return o.Err == nil }

// VerifyAll verifies independent requests concurrently. results[i] is the
// outcome of reqs[i]. Requests not started before ctx is done get ctx.Err().
func (v *Verifier) VerifyAll(ctx context.Context, reqs []Request) ([]Outcome, error) {
	results := make([]Outcome, len(reqs))
	var g errgroup.Group
	if v != nil && v.Concurrency > 0 {
		g.SetLimit(v.Concurrency)
	}
	for i := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			if check, err := v.verify(reqs[i]); err != nil {
				results[i] = Outcome{Check: check, Err: fmt.Errorf("request %d: %w", i, err)}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}
