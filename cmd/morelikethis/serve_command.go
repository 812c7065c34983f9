package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"morelikethis/internal/addon"
	"morelikethis/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Stremio addon server",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withPipeline("stdout", func(p *pipeline) error {
				if value := strings.TrimSpace(bind); value != "" {
					p.cfg.Server.Bind = value
				}
				if p.cfg.TMDB.APIKey == "" {
					logging.WarnWithContext(p.logger, "no operator TMDB key configured", "config_missing_tmdb_key",
						logging.String(logging.FieldErrorHint, "set tmdb.api_key or TMDB_API_KEY"),
						logging.String(logging.FieldImpact, "requests without a user key return empty results"),
					)
				}
				server, err := addon.New(p.cfg, p.service,
					addon.WithLogger(p.logger),
					addon.WithBreakers(p.breakers...),
				)
				if err != nil {
					return fmt.Errorf("build addon: %w", err)
				}
				if err := server.ListenAndServe(signalCtx); err != nil {
					logging.ErrorWithContext(p.logger, "addon server stopped", "addon_serve_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check server.bind and that the port is free"),
					)
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
