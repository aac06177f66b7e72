package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWorkspacesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "List workspaces or switch the current one",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List workspaces; the current one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			workspaces, err := e.app.Services.Workspaces.ListWorkspaces(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), workspaces)
			}
			current, err := e.app.Services.Workspaces.Current(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(workspaces))
			for _, ws := range workspaces {
				mark := ""
				if ws.ID == current.ID {
					mark = "*"
				}
				rows = append(rows, []string{mark, ws.ID, ws.Name, ws.BusinessDetails.Name})
			}
			return table(cmd.OutOrStdout(), []string{"", "ID", "NAME", "BUSINESS"}, rows)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	use := &cobra.Command{
		Use:   "use <workspace-id>",
		Short: "Make a workspace current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Services.Workspaces.SetCurrent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to workspace %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, use)
	return cmd
}
