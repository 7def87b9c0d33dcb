// Command skipproof-blockd serves the configured block store over gRPC.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/skipproof/blockrpc"
	"xdao.co/skipproof/chainstore"
	"xdao.co/skipproof/config"
	"xdao.co/skipproof/internal/logging"
	"xdao.co/skipproof/storage/casregistry"

	_ "xdao.co/skipproof/storage/localfs"
	_ "xdao.co/skipproof/storage/sqlitecas"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		listen       string
		configPath   string
		backend      string
		listBackends bool
	)
	cmd := &cobra.Command{
		Use:           "skipproof-blockd",
		Short:         "Serve skipchain blocks over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listBackends {
				for _, b := range casregistry.List() {
					if b.Description == "" {
						fmt.Fprintln(out, b.Name)
						continue
					}
					fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
				}
				return nil
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			opts := cfg.LoggingOptions()
			opts.Output = errOut
			log, err := logging.New(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, closeStore, err := cfg.OpenStore(backend)
			if err != nil {
				return err
			}
			defer closeStore()

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), lis, store, log)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	f := cmd.Flags()
	f.StringVar(&listen, "listen", "127.0.0.1:7777", "listen address")
	f.StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	f.StringVar(&backend, "backend", "", "configured backend to prefer (name or id)")
	f.BoolVar(&listBackends, "list-backends", false, "list linked backends and exit")
	return cmd
}

// serve runs until ctx is done, then drains in-flight calls.
func serve(ctx context.Context, lis net.Listener, store *chainstore.Store, log *zap.Logger) error {
	s := grpc.NewServer(grpc.UnaryInterceptor(blockrpc.LoggingInterceptor(log)))
	blockrpc.RegisterBlocksServer(s, &blockrpc.Server{Store: store})

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()
	log.Info("listening", zap.Stringer("addr", lis.Addr()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		s.GracefulStop()
		return <-errc
	}
}
