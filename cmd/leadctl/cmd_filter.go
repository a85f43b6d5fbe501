package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mukamba/internal/domain/lead"
)

type filterOptions struct {
	search       string
	statuses     []string
	priorities   []string
	locations    []string
	propTypes    []string
	sources      []string
	budgetMin    string
	budgetMax    string
	convMin      float64
	convMax      float64
	lastContact  string
	overdueOnly  bool
	verifiedOnly bool
	sortKey      string
	desc         bool
}

func newFilterCmd() *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List leads matching a filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.search, "search", "s", "", "Match name, email or phone")
	f.StringSliceVar(&opts.statuses, "status", nil, "Stages to include")
	f.StringSliceVar(&opts.priorities, "priority", nil, "Priorities to include")
	f.StringSliceVar(&opts.locations, "location", nil, "Locations to include")
	f.StringSliceVar(&opts.propTypes, "property-type", nil, "Property types to include")
	f.StringSliceVar(&opts.sources, "source", nil, "Sources to include")
	f.StringVar(&opts.budgetMin, "budget-min", "", "Lower budget bound")
	f.StringVar(&opts.budgetMax, "budget-max", "", "Upper budget bound")
	f.Float64Var(&opts.convMin, "conversion-min", 0, "Lower conversion probability bound")
	f.Float64Var(&opts.convMax, "conversion-max", 100, "Upper conversion probability bound")
	f.StringVar(&opts.lastContact, "last-contact", string(lead.RecencyAll), "today|week|month|all")
	f.BoolVar(&opts.overdueOnly, "overdue", false, "Only leads with an overdue follow-up")
	f.BoolVar(&opts.verifiedOnly, "verified", false, "Only leads with phone and email verified")
	f.StringVar(&opts.sortKey, "sort", "", "score|budget|last_contact|name|probability|created")
	f.BoolVar(&opts.desc, "desc", false, "Sort descending")
	return cmd
}

func (o filterOptions) patch() lead.FilterPatch {
	statuses := make([]lead.Status, len(o.statuses))
	for i, s := range o.statuses {
		statuses[i] = lead.Status(s)
	}
	priorities := make([]lead.Priority, len(o.priorities))
	for i, p := range o.priorities {
		priorities[i] = lead.Priority(p)
	}
	budget := lead.CoerceBudgetRange(o.budgetMin, o.budgetMax)
	conversion := lead.CoerceConversionRange(o.convMin, o.convMax)
	recency := lead.Recency(o.lastContact)

	return lead.FilterPatch{
		Search:        &o.search,
		Statuses:      &statuses,
		Priorities:    &priorities,
		Locations:     &o.locations,
		PropertyTypes: &o.propTypes,
		Sources:       &o.sources,
		Budget:        &budget,
		Conversion:    &conversion,
		LastContact:   &recency,
		OverdueOnly:   &o.overdueOnly,
		VerifiedOnly:  &o.verifiedOnly,
	}
}

func runFilter(cmd *cobra.Command, opts filterOptions) error {
	now, err := evalTime()
	if err != nil {
		return err
	}
	leads, err := loadLeads(leadsFile)
	if err != nil {
		return err
	}

	matched := lead.Apply(leads, lead.DefaultFilter().Merge(opts.patch()), now)
	if key := lead.SortKey(opts.sortKey); key.Valid() {
		lead.Sort(matched, key, opts.desc)
	}
	return printLeads(cmd.OutOrStdout(), matched, now)
}

func printLeads(out io.Writer, leads []lead.Lead, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTAGE\tPRIORITY\tBUDGET\tCONV%\tDAYS IN STAGE\tOVERDUE")
	for _, l := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			l.ID, l.Name, l.Status, l.Priority,
			l.Budget.Max.StringFixed(0)+" "+l.Budget.Currency,
			l.ConversionProbability, l.TimeInStage(now), l.IsOverdueAt(now),
		)
	}
	fmt.Fprintf(w, "\n%d lead(s)\n", len(leads))
	return w.Flush()
}
