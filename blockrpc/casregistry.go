package blockrpc

import (
	"fmt"
	"strconv"
	"time"

	"xdao.co/skipproof/storage"
	"xdao.co/skipproof/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "Remote block daemon (skipproof-blockd)",
		Keys: map[string]string{
			"target":        "host:port of the daemon",
			"timeout":       "per-RPC timeout, e.g. 5s",
			"max_msg_bytes": "max gRPC message size in bytes",
		},
		Open: func(settings map[string]string) (storage.CAS, error) {
			target, err := casregistry.Require("grpc", settings, "target")
			if err != nil {
				return nil, err
			}
			var opts DialOptions
			if v := settings["timeout"]; v != "" {
				if opts.Timeout, err = time.ParseDuration(v); err != nil {
					return nil, fmt.Errorf("grpc: timeout: %w", err)
				}
			}
			if v := settings["max_msg_bytes"]; v != "" {
				if opts.MaxMsgBytes, err = strconv.Atoi(v); err != nil {
					return nil, fmt.Errorf("grpc: max_msg_bytes: %w", err)
				}
			}
			return Dial(target, opts)
		},
	})
}
