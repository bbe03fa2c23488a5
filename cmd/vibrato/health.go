package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/go-vibrato/internal/server"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query a running server's /health endpoint",
		Long: `health asks a running "vibrato serve" for its status and prints the
server version and session pool size. It exits non-zero when the server is
unreachable, answers with a non-200 status or reports a status other than ok.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			h, err := server.FetchHealth(ctx, addr)
			if err != nil {
				return fmt.Errorf("health %s: %w", addr, err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s version=%s workers=%d\n", h.Status, h.Version, h.Workers)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address to query (defaults to --listen-addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")

	return cmd
}
