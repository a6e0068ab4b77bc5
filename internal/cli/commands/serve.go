package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/conduit-lang/descriptor/internal/cli/ui"
	"github.com/conduit-lang/descriptor/internal/web/router"
	"github.com/conduit-lang/descriptor/internal/web/server"
	"github.com/spf13/cobra"
)

// newServeCommand creates the serve command
func newServeCommand(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dictionary over HTTP",
		Long: `Serve the entities of the persistence unit as read-only JSON:

  GET /entities                  entity summaries
  GET /entities/{name}           a page (row, count query parameters)
  GET /entities/{name}/count     the total number of entities
  GET /entities/{name}/{key}     one entity by key

The listen address, API prefix and rate limit come from descriptor.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}

			handler := router.New(a.model, a.dict,
				router.WithLogger(a.logger),
				router.WithPrefix(a.cfg.Server.APIPrefix),
				router.WithRateLimit(a.cfg.Server.RateLimit.RequestsPerSecond, a.cfg.Server.RateLimit.Burst),
			)

			if addr == "" {
				addr = a.cfg.Address()
			}
			config := server.DefaultConfig(addr, handler)
			config.Logger = a.logger

			srv, err := server.New(config)
			if err != nil {
				a.Close()
				return err
			}
			if err := srv.Listen(); err != nil {
				a.Close()
				return err
			}

			banner := fmt.Sprintf("Serving unit %s on http://%s%s/entities", opts.unit, srv.Addr(), a.cfg.Server.APIPrefix)
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(banner, opts.noColor))
			return srv.Run(ctx, func(context.Context) error { return a.Close() })
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.host and server.port)")
	return cmd
}
