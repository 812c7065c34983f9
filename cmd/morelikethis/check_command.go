package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"morelikethis/internal/services"
)

type keyCheck struct {
	label  string
	key    string
	env    string
	verify func(ctx context.Context, apiKey string) error
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configured TMDB and Gemini keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline("stderr", func(p *pipeline) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				checks := []keyCheck{
					{label: "TMDB", key: p.cfg.TMDB.APIKey, env: "TMDB_API_KEY", verify: p.tmdb.VerifyKey},
					{label: "Gemini", key: p.cfg.Gemini.APIKey, env: "GEMINI_API_KEY", verify: p.gemini.VerifyKey},
				}

				for _, line := range renderSectionHeader("Upstream keys", colorize) {
					fmt.Fprintln(out, line)
				}
				failed := 0
				for _, check := range checks {
					kind, message := runKeyCheck(cmd.Context(), check)
					if kind == statusError {
						failed++
					}
					fmt.Fprintln(out, renderStatusLine(check.label, kind, message, colorize))
				}
				publicKind, publicMessage := statusOK, p.cfg.Server.PublicURL
				if publicMessage == "" {
					publicKind, publicMessage = statusWarn, "not set; stream shortcuts need a user baseUrl"
				}
				fmt.Fprintln(out, renderStatusLine("Public URL", publicKind, publicMessage, colorize))

				if failed > 0 {
					return errors.New("one or more upstream checks failed")
				}
				return nil
			})
		},
	}
}

func runKeyCheck(ctx context.Context, check keyCheck) (statusKind, string) {
	if check.key == "" {
		return statusWarn, fmt.Sprintf("not configured (set %s)", check.env)
	}
	err := check.verify(ctx, check.key)
	switch {
	case err == nil:
		return statusOK, "key accepted"
	case errors.Is(err, services.ErrTransient), errors.Is(err, services.ErrTimeout):
		return statusError, "unreachable: " + err.Error()
	default:
		return statusError, "rejected: " + err.Error()
	}
}
