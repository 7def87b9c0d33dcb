package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/skipproof/model"
	"xdao.co/skipproof/skipchain"
	"xdao.co/skipproof/storage/bundle"
)

func (a *app) blockExportCmd(open storeOpener) *cobra.Command {
	var (
		proofPath   string
		outPath     string
		skipMissing bool
	)
	cmd := &cobra.Command{
		Use:   "export [block-id...]",
		Short: "Write blocks, and optionally their proof, to a tar bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			var ids []skipchain.BlockID
			opts := bundle.ExportOptions{IncludeIndex: true, SkipMissing: skipMissing}
			if proofPath != "" {
				var doc model.ProofDocument
				if err := decodeFile(proofPath, &doc); err != nil {
					return fmt.Errorf("%s: %w", proofPath, err)
				}
				pids, err := bundle.ProofBlockIDs(doc)
				if err != nil {
					return fmt.Errorf("%s: %w", proofPath, err)
				}
				ids = append(ids, pids...)
				opts.Proof = &doc
				opts.Labels = map[string]skipchain.BlockID{"genesis": pids[0], "tip": pids[len(pids)-1]}
			}
			for _, s := range args {
				id, err := skipchain.BlockIDFromHex(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				return fmt.Errorf("nothing to export: pass block ids or --proof")
			}

			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := bundle.Export(f, store, ids, opts); err != nil {
				_ = f.Close()
				_ = os.Remove(outPath)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.log.Info("bundle written", zap.String("path", outPath), zap.Int("blocks", len(ids)))
			return nil
		},
	}
	cmd.Flags().StringVar(&proofPath, "proof", "", "proof document whose blocks are exported")
	cmd.Flags().StringVar(&outPath, "out", "", "bundle file to write")
	cmd.Flags().BoolVar(&skipMissing, "skip-missing", false, "leave out blocks the store does not hold")
	return cmd
}

func (a *app) blockImportCmd(open storeOpener) *cobra.Command {
	var (
		proofOut      string
		ignoreUnknown bool
	)
	cmd := &cobra.Command{
		Use:   "import <bundle.tar>",
		Short: "Store the blocks of a bundle and print their ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()

			got, err := bundle.Import(f, store, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			for _, id := range got.IDs {
				fmt.Fprintln(a.out, id)
			}
			if proofOut != "" {
				if got.Proof == nil {
					return fmt.Errorf("%s: bundle carries no proof", args[0])
				}
				out, err := os.Create(proofOut)
				if err != nil {
					return err
				}
				if err := model.Encode(out, got.Proof); err != nil {
					_ = out.Close()
					return err
				}
				return out.Close()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&proofOut, "proof-out", "", "write the bundled proof document here")
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "skip entries that are not blocks or proofs")
	return cmd
}
