package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/format"
	ghub "github.com/stahnma/gh-orgstars/internal/github"
)

func (a *App) newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [organization]",
		Short: "Export repositories and star counts in JSON format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ExportJSON(cmd.Context(), cmd.OutOrStdout(), a.organization(args), a.Config.SlackMode)
		},
	}
}

// ExportJSON writes a dated snapshot of org's repositories as JSON to w.
func (a *App) ExportJSON(ctx context.Context, w io.Writer, org string, slackMode bool) error {
	repos, err := a.Service.FetchRepositories(ctx, org)
	if err != nil {
		return fmt.Errorf("fetching repositories for %s: %w", org, err)
	}

	date := time.Now().Format("2006-Jan-02")
	records := make([]ghub.RepoInfo, 0, len(repos))
	for _, repo := range repos {
		records = append(records, ghub.RepoInfo{
			Date:         date,
			Organization: org,
			Repository:   repo.FullName,
			StarCount:    repo.StargazersCount,
		})
	}

	return format.WriteJSON(w, records, slackMode)
}
