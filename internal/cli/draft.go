package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDraftCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard the autosaved draft",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := e.app.Repos.Drafts.Get(cmd.Context())
			if err != nil {
				return err
			}
			if draft == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No draft saved")
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), draft)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Repos.Drafts.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared")
			return nil
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}
