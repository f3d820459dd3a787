package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/balancete/internal/server"
)

const shutdownGrace = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the balance API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions, addr string) error {
	p, err := openProject(cmd, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	agg, err := p.aggregator()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = p.cfg.Server.Addr
	}

	h := server.NewHandler(agg, p.reclassifier(agg, "api"), p.log)
	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: p.cfg.Server.AllowedOrigins,
		Log:            p.log,
	}, h)

	return srv.Run(ctx, shutdownGrace)
}
