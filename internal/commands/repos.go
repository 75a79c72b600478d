package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/format"
	"github.com/stahnma/gh-orgstars/internal/repolist"
)

func (a *App) newReposCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos [organization]",
		Short: "List the repositories of an organization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepos(cmd, a.organization(args))
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Print a table of repositories and the star total")
	return cmd
}

func (a *App) runRepos(cmd *cobra.Command, org string) error {
	ctx := cmd.Context()
	verbose, _ := cmd.Flags().GetBool("verbose")
	w := cmd.OutOrStdout()

	o, events, stop := a.startList(ctx, org)
	defer stop()

	state, err := awaitSettled(ctx, events)
	if err != nil {
		return err
	}
	if state.Kind == repolist.StateError {
		return stateError(state)
	}

	snap := o.Snapshot()
	repos := snap.Repositories

	if !verbose {
		fmt.Fprintf(w, "Total repositories found in %s: %d\n", snap.Organization, len(repos))
		return nil
	}

	totalStars := 0
	for _, repo := range repos {
		totalStars += repo.StargazersCount
	}
	fmt.Fprintf(w, "Total repositories found in %s: %d, Total stars: %d\n", snap.Organization, len(repos), totalStars)
	return format.WriteRepositories(w, repos, a.Config.SlackMode)
}
