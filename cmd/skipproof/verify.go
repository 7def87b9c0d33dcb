package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/skipproof/config"
	"xdao.co/skipproof/cosi"
	"xdao.co/skipproof/inclusion"
	"xdao.co/skipproof/model"
	"xdao.co/skipproof/roster"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/verr"
)

// checkGenesis pins a proof to the configured genesis. Without one the proof
// is rejected, unless --trust-proof-genesis was given.
func (a *app) checkGenesis(id skipchain.BlockID, r *roster.Roster) error {
	g, err := a.cfg.LoadGenesis()
	if errors.Is(err, config.ErrNoGenesis) {
		if !a.trustProofGenesis {
			return verr.Wrap(verr.KindMissingField, "CLI-003", "no trusted genesis configured", err)
		}
		a.log.Warn("no trusted genesis configured, trusting the proof's genesis", zap.Stringer("genesis", id))
		return nil
	}
	if err != nil {
		return err
	}
	if g.ID != id {
		return verr.Newf(verr.KindMismatch, "CLI-001", "proof starts at %s, trusted genesis is %s", id, g.ID)
	}
	if !g.Roster.Equal(r) {
		return verr.New(verr.KindMismatch, "CLI-002", "proof genesis roster differs from the trusted one")
	}
	return nil
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return model.Decode(f, v)
}

func (a *app) proofCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "proof", Short: "Inspect skipchain proofs"}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify <proof.json>",
		Short: "Walk a proof from its genesis and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc model.ProofDocument
			if err := decodeFile(args[0], &doc); err != nil {
				return err
			}
			policy, err := a.cfg.CosiPolicy()
			if err != nil {
				return err
			}
			res := a.verifyProof(doc, policy)
			if encErr := model.Encode(a.out, res); encErr != nil {
				return encErr
			}
			if !res.OK {
				return errRejected
			}
			return nil
		},
	})
	return cmd
}

func (a *app) verifyProof(doc model.ProofDocument, policy cosi.Policy) model.Result {
	p, err := doc.Proof(policy)
	if err == nil {
		err = a.checkGenesis(p.GenesisID(), p.GenesisRoster())
	}
	if err != nil {
		a.log.Warn("proof rejected", zap.String("rule", verr.RuleID(err)), zap.Error(err))
		return model.ResultOf(inclusion.CheckChain, err)
	}
	return model.Result{OK: true, Tip: p.Tip().String(), Roster: p.ActiveRoster().ID().String()}
}

func (a *app) inclusionCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{Use: "inclusion", Short: "Prove records are on the chain"}
	verify := &cobra.Command{
		Use:   "verify <request.json>...",
		Short: "Verify inclusion requests and print one result per request",
		Long: `Verify inclusion requests. A request without a block is completed from the
configured block store, using the target of its last forward link.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := a.cfg.CosiPolicy()
			if err != nil {
				return err
			}
			reqs := make([]inclusion.Request, len(args))
			for i, path := range args {
				var doc model.InclusionRequest
				if err := decodeFile(path, &doc); err != nil {
					return err
				}
				if err := a.fillBlock(&doc, backend); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if reqs[i], err = doc.Request(); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			v := &inclusion.Verifier{Policy: policy, Logger: a.log, Concurrency: a.cfg.Verify.Concurrency}
			results := make([]model.Result, len(reqs))
			if len(reqs) == 1 {
				results[0] = model.ResultOf(v.Diagnose(reqs[0]))
			} else {
				outcomes, err := v.VerifyAll(cmd.Context(), reqs)
				if err != nil {
					return err
				}
				for i, o := range outcomes {
					results[i] = model.ResultOf(o.Check, o.Err)
				}
			}

			rejected := 0
			for i := range results {
				if results[i].OK {
					if err := a.checkGenesis(reqs[i].GenesisID, reqs[i].GenesisRoster); err != nil {
						results[i] = model.ResultOf(inclusion.CheckChain, err)
					} else {
						results[i].Tip = reqs[i].Block.Hash().String()
					}
				}
				if !results[i].OK {
					rejected++
				}
			}

			var encErr error
			if len(results) == 1 {
				encErr = model.Encode(a.out, results[0])
			} else {
				encErr = model.Encode(a.out, results)
			}
			if encErr != nil {
				return encErr
			}
			if rejected > 0 {
				return errRejected
			}
			return nil
		},
	}
	verify.Flags().StringVar(&backend, "backend", "", "configured backend to prefer when fetching blocks")
	cmd.AddCommand(verify)
	return cmd
}

func (a *app) fillBlock(doc *model.InclusionRequest, backend string) error {
	if doc.Block != nil || doc.Proof.LastBlock != nil || len(doc.Proof.Links) == 0 {
		return nil
	}
	id, err := skipchain.BlockIDFromHex(doc.Proof.Links[len(doc.Proof.Links)-1].To)
	if err != nil {
		return err
	}
	store, closeFn, err := a.cfg.OpenStore(backend)
	if err != nil {
		return fmt.Errorf("fetch block %s: %w", id, err)
	}
	defer closeFn()
	b, err := store.GetBlock(id)
	if err != nil {
		return fmt.Errorf("fetch block %s: %w", id, err)
	}
	a.log.Debug("block fetched from store", zap.Stringer("block", id))
	bd := model.FromBlock(b)
	doc.Block = &bd
	return nil
}
