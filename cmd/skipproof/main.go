// Command skipproof manages writer keys, signs key/value records and
// verifies skipchain proofs and record inclusion.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/skipproof/config"
	"xdao.co/skipproof/internal/logging"

	_ "xdao.co/skipproof/blockrpc"
	_ "xdao.co/skipproof/storage/localfs"
	_ "xdao.co/skipproof/storage/sqlitecas"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errRejected marks a verification that ran and failed; it was already
// reported on stdout.
var errRejected = errors.New("rejected")

func run(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			root.PrintErrln("Error:", err)
		}
		return 1
	}
	return 0
}

type app struct {
	out, errOut io.Writer

	configPath string
	logLevel   string
	keysDir    string

	trustProofGenesis bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "skipproof",
		Short:         "Verify that key/value records are part of a skipchain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.StringVar(&a.keysDir, "keys-dir", "", "key store directory (default ~/.skipproof/keys)")
	pf.BoolVar(&a.trustProofGenesis, "trust-proof-genesis", false, "accept a proof's own genesis when none is configured")

	root.AddCommand(
		a.keyCmd(),
		a.recordCmd(),
		a.blockCmd(),
		a.proofCmd(),
		a.inclusionCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	opts := cfg.LoggingOptions()
	opts.Output = a.errOut
	log, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}
