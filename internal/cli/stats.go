package cli

import (
	"fmt"
	"time"

	"invoicer/internal/service"

	"github.com/spf13/cobra"
)

func newStatsCommand(e *env) *cobra.Command {
	var (
		from, to string
		groupBy  string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print invoice totals of a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, err := parseDay(from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := parseDay(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			if !end.IsZero() {
				// inclusive of the whole day
				end = end.Add(24*time.Hour - time.Millisecond)
			}

			workspaceID, err := e.workspaceID(ctx)
			if err != nil {
				return err
			}
			stats, err := e.app.Services.Statistics.GetStatistics(ctx, workspaceID, start, end)
			if err != nil {
				return err
			}
			var revenue []service.RevenueDataPoint
			if groupBy != "" {
				revenue, err = e.app.Services.Revenue.GetRevenueStatistics(ctx, workspaceID, service.RevenueFilter{
					GroupBy:   groupBy,
					StartDate: start,
					EndDate:   end,
				})
				if err != nil {
					return err
				}
			}
			if asJSON {
				if groupBy == "" {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"statistics": stats, "revenue": revenue})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Invoices:    %d\n", stats.TotalInvoices)
			fmt.Fprintf(out, "Invoiced:    %s\n", stats.TotalInvoiced.StringFixed(2))
			fmt.Fprintf(out, "Paid:        %s\n", stats.TotalPaid.StringFixed(2))
			fmt.Fprintf(out, "Outstanding: %s\n\n", stats.Outstanding.StringFixed(2))

			rows := make([][]string, 0, len(stats.ByStatus))
			for _, s := range stats.ByStatus {
				rows = append(rows, []string{string(s.Status), fmt.Sprint(s.Count), s.Total.StringFixed(2)})
			}
			if err := table(out, []string{"STATUS", "COUNT", "TOTAL"}, rows); err != nil {
				return err
			}
			if len(stats.TopCustomers) > 0 {
				fmt.Fprintln(out)
				rows = rows[:0]
				for _, c := range stats.TopCustomers {
					rows = append(rows, []string{c.BusinessName, fmt.Sprint(c.InvoiceCount), c.TotalValue.StringFixed(2)})
				}
				if err := table(out, []string{"CUSTOMER", "INVOICES", "TOTAL"}, rows); err != nil {
					return err
				}
			}
			if groupBy == "" {
				return nil
			}
			fmt.Fprintln(out)
			rows = rows[:0]
			for _, p := range revenue {
				rows = append(rows, []string{p.Period, fmt.Sprint(p.InvoiceCount), p.TotalInvoiced.StringFixed(2), p.TotalTaxCollected.StringFixed(2), p.TotalPaid.StringFixed(2)})
			}
			return table(out, []string{"PERIOD", "INVOICES", "INVOICED", "TAX", "PAID"}, rows)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First invoice date to count (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last invoice date to count (YYYY-MM-DD)")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Also break revenue down by week, month, quarter or year")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
