package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/skipproof/curve"
	"xdao.co/skipproof/keys"
)

func (a *app) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(a.keysDir)
}

func (a *app) keyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "Manage writer keys"}
	cmd.AddCommand(a.keyInitCmd(), a.keyDeriveCmd(), a.keyListCmd(), a.keyShowCmd())
	return cmd
}

func (a *app) keyInitCmd() *cobra.Command {
	var name, seedHex string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			var seed []byte
			if seedHex != "" {
				if seed, err = keys.ParseSeedHex(seedHex); err != nil {
					return fmt.Errorf("invalid --seed-hex: %w", err)
				}
			} else if seed, err = keys.GenerateSeed(nil); err != nil {
				return err
			}
			pub, path, err := ks.InitializeRootKey(name, seed, force)
			if err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			fmt.Fprintf(a.out, "Created root key: %s\n", keys.FormatPublicKey(pub))
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "seed as 64 hex chars (for reproducible demos)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) keyDeriveCmd() *cobra.Command {
	var from, role string
	var force bool
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a role key from a root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			pub, path, err := ks.DeriveKeyFromRole(from, role, force)
			if err != nil {
				return fmt.Errorf("derive role key: %w", err)
			}
			fmt.Fprintf(a.out, "Created role key: %s\n", keys.FormatPublicKey(pub))
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "root key name")
	cmd.Flags().StringVar(&role, "role", "", "role identifier (e.g. writer)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) keyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			entries, err := ks.ListKeys()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintln(a.out, e.Identifier)
				for _, r := range e.Roles {
					fmt.Fprintf(a.out, "  %s\n", r)
				}
			}
			return nil
		},
	}
}

func (a *app) keyShowCmd() *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the public key of a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			pub, err := ks.ExportKey(name, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, keys.FormatPublicKey(pub))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	cmd.Flags().StringVar(&role, "role", "", "optional role")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// signerFlags selects a signing key the way every signing command does.
type signerFlags struct {
	seedHex, signer, role, keyFile string
}

func (f *signerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.seedHex, "seed-hex", "", "signing seed as 64 hex chars")
	cmd.Flags().StringVar(&f.signer, "signer", "", "stored key name")
	cmd.Flags().StringVar(&f.role, "signer-role", "", "role of the stored key")
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "path to a key file")
}

func (a *app) loadSigner(f signerFlags) (curve.Scalar, error) {
	ks, err := a.keyStore()
	if err != nil {
		return curve.Scalar{}, err
	}
	seed, err := ks.LoadSeed(f.seedHex, f.signer, f.role, f.keyFile)
	if err != nil {
		return curve.Scalar{}, err
	}
	return keys.PrivateKey(seed)
}
