package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"xdao.co/skipproof/record"
)

func (a *app) recordCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "record", Short: "Build key/value records"}
	cmd.AddCommand(a.recordSignCmd())
	return cmd
}

func (a *app) recordSignCmd() *cobra.Command {
	var key, value, at, outFile string
	var sf signerFlags
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a key/value record and print its payload",
		Long: `Sign a key/value record as its writer. The payload is the block data a
record block carries; it is written to --out, or printed as hex.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := a.loadSigner(sf)
			if err != nil {
				return err
			}
			when := time.Now()
			if at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}
			rec, err := record.Sign(nil, priv, []byte(key), []byte(value), when)
			if err != nil {
				return err
			}
			payload := rec.Payload()
			if outFile != "" {
				return os.WriteFile(outFile, payload, 0o644)
			}
			fmt.Fprintln(a.out, hex.EncodeToString(payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "record key")
	cmd.Flags().StringVar(&value, "value", "", "record value")
	cmd.Flags().StringVar(&at, "at", "", "timestamp, RFC 3339 (default now)")
	cmd.Flags().StringVar(&outFile, "out", "", "write the payload bytes to this file")
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
