package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mukamba/internal/config"
	jwtsvc "mukamba/internal/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		agent string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a console token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTAccessTTL
			}
			token, err := jwtsvc.New(cfg.JWTSecret, ttl).GenerateToken(agent, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Agent id (required)")
	cmd.Flags().StringVar(&role, "role", "admin", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: JWT_ACCESS_TTL)")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
