package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mukamba/internal/config"
	"mukamba/internal/database"
	"mukamba/internal/domain/lead"
	"mukamba/internal/logger"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every lead in DATABASE_URL to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.DatabaseURL, zap.NewNop(), logger.GormLevel("silent"))
			if err != nil {
				return err
			}

			leads, err := lead.NewRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(leads, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d lead(s) to %s\n", len(leads), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "leads.json", "Output file")
	return cmd
}
