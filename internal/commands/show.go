package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/format"
)

func (a *App) newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show owner/name...",
		Short: "Show the details of one or more repositories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			for i, name := range args {
				repo, err := a.Service.FetchRepository(ctx, name)
				if err != nil {
					return fmt.Errorf("fetching %s: %w", name, err)
				}
				if i > 0 {
					fmt.Fprintln(w)
				}
				if err := format.WriteDetail(w, repo); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
