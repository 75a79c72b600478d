package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newStarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stars owner/name",
		Short: "Show the star count of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStars(cmd, args[0])
		},
	}
}

func (a *App) runStars(cmd *cobra.Command, fullName string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	repo, err := a.Service.FetchRepository(ctx, fullName)
	if err != nil {
		return fmt.Errorf("retrieving star count: %w", err)
	}

	if a.Config.SlackMode {
		fmt.Fprintf(w, "The repository :star2: `%s` has %d stars :star2:.\n", repo.FullName, repo.StargazersCount)
	} else {
		fmt.Fprintf(w, "The repository %s has %d stars\n", repo.FullName, repo.StargazersCount)
	}
	return nil
}
