package cli

import (
	"errors"
	"fmt"
	"os"

	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"

	"github.com/spf13/cobra"
)

func newInvoicesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"inv"},
		Short:   "List, number and export invoices",
	}
	cmd.AddCommand(
		newInvoicesListCommand(e),
		newNextNumberCommand(e),
		newExportCommand(e),
	)
	return cmd
}

func newInvoicesListCommand(e *env) *cobra.Command {
	var (
		filter service.InvoiceFilter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the invoices of a workspace, newest first",
		Example: `  invoicectl invoices list --status pending
  invoicectl invoices list --search acme --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workspaceID, err := e.workspaceID(ctx)
			if err != nil {
				return err
			}
			invoices, total, err := e.app.Services.Invoices.ListInvoices(ctx, workspaceID, filter)
			if err != nil {
				return err
			}

			out := make([]service.InvoiceResponse, 0, len(invoices))
			for _, inv := range invoices {
				out = append(out, service.ToInvoiceResponse(inv))
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(out))
			for _, inv := range out {
				rows = append(rows, []string{
					inv.Number,
					string(inv.Status),
					inv.To.BusinessName,
					inv.Date.Format("2006-01-02"),
					inv.Total.StringFixed(2) + " " + inv.Currency,
					inv.ID,
				})
			}
			if err := table(cmd.OutOrStdout(), []string{"NUMBER", "STATUS", "CUSTOMER", "DATE", "TOTAL", "ID"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d invoices\n", len(out), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only invoices with this status (draft, pending, paid, overdue)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Partial match on number, customer or sender")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Invoices per page (0 lists all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newNextNumberCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "next-number",
		Short: "Print the number the next invoice will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := e.app.Services.Invoices.NextInvoiceNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
}

func newExportCommand(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <invoice-id>",
		Short: "Render an invoice as PDF",
		Example: `  invoicectl invoices export 3f2c... -o INV-0007.pdf
  invoicectl invoices export 3f2c... > invoice.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inv, err := e.app.Services.Invoices.GetInvoice(ctx, args[0])
			if err != nil {
				return err
			}

			var bank *model.BankAccount
			if id := inv.SelectedBankAccountID; id != "" {
				account, err := e.app.Services.BankAccounts.Get(ctx, inv.WorkspaceID, id)
				switch {
				case err == nil:
					bank = &account
				case !errors.Is(err, repository.ErrNotFound):
					return err
				}
			}

			data, err := e.app.Exporter.Export(inv, bank)
			if err != nil {
				return fmt.Errorf("failed to render invoice %s: %w", inv.Number, err)
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}
