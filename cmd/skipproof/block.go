package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/cidutil"
	"xdao.co/skipproof/model"
	"xdao.co/skipproof/skipchain"
)

func (a *app) blockCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{Use: "block", Short: "Store and fetch blocks"}
	cmd.PersistentFlags().StringVar(&backend, "backend", "", "configured backend to prefer (name or id)")
	open := func() (*chainstore.Store, func() error, error) { return a.cfg.OpenStore(backend) }
	cmd.AddCommand(
		a.blockPutCmd(open),
		a.blockGetCmd(open),
		a.blockCIDCmd(),
		a.blockExportCmd(open),
		a.blockImportCmd(open),
	)
	return cmd
}

func readBlockDocument(path string) (*skipchain.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var doc model.BlockDocument
	if err := model.Decode(f, &doc); err != nil {
		return nil, err
	}
	return doc.Block()
}

type storeOpener func() (*chainstore.Store, func() error, error)

func (a *app) blockPutCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "put <block.json>...",
		Short: "Store block documents and print their ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()
			for _, path := range args {
				b, err := readBlockDocument(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				id, err := store.PutBlock(b)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintln(a.out, id)
			}
			return nil
		},
	}
}

func (a *app) blockGetCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <block-id>",
		Short: "Print a stored block as a block document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := skipchain.BlockIDFromHex(args[0])
			if err != nil {
				return err
			}
			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer closeFn()
			b, err := store.GetBlock(id)
			if err != nil {
				return err
			}
			return model.Encode(a.out, model.FromBlock(b))
		},
	}
}

func (a *app) blockCIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cid <block.json>",
		Short: "Print the block id and content id of a block document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBlockDocument(args[0])
			if err != nil {
				return err
			}
			c, err := cidutil.FromSHA256(b.Hash())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", b.Hash(), c)
			return nil
		},
	}
}
