package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mukamba/internal/domain/lead"
)

var (
	// Global flags
	leadsFile string
	asOf      string
)

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Inspect and manage the Mukamba lead pipeline",
	Long: `leadctl works on a JSON export of the lead collection, so pipeline
questions can be answered without a running API server.

Example:
  leadctl export --out leads.json
  leadctl filter --file leads.json --status new,contacted --budget-max 100000
  leadctl stages --file leads.json`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&leadsFile, "file", "f", "leads.json", "JSON lead export")
	rootCmd.PersistentFlags().StringVar(&asOf, "as-of", "", "Evaluate derived fields at this RFC3339 time (default: now)")

	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newStagesCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newTokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func evalTime() (time.Time, error) {
	if asOf == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of: %w", err)
	}
	return t, nil
}

// loadLeads reads a JSON array of leads as written by `leadctl export`
func loadLeads(path string) ([]lead.Lead, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var leads []lead.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range leads {
		if err := leads[i].Validate(); err != nil {
			return nil, fmt.Errorf("lead %q: %w", leads[i].ID, err)
		}
	}
	return leads, nil
}
