package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mukamba/internal/domain/lead"
)

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Print per-stage metrics and the pipeline summary",
		RunE:  runStages,
	}
}

func runStages(cmd *cobra.Command, _ []string) error {
	now, err := evalTime()
	if err != nil {
		return err
	}
	leads, err := loadLeads(leadsFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tCOUNT\tTOTAL VALUE\tAVG DAYS\tCONVERSION %")
	for _, m := range lead.Aggregate(leads, now) {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.1f\t%.1f\n",
			m.Stage, m.Count, m.TotalValue.StringFixed(2), m.AvgTimeInStage, m.ConversionRate)
	}

	s := lead.Summarize(leads, now)
	fmt.Fprintf(w, "\ntotal %d\toverdue %d\tverified %d\tavg score %.1f\tvalue %s\n",
		s.Total, s.Overdue, s.Verified, s.AvgLeadScore, s.PipelineValue.StringFixed(2))
	return w.Flush()
}
