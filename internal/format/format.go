package format

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/stahnma/gh-orgstars/internal/github"
)

// WriteJSON writes formatted JSON to w, optionally wrapped in a slack code block.
func WriteJSON(w io.Writer, v any, slackMode bool) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if slackMode {
		fmt.Fprintln(w, "```")
	}
	fmt.Fprintln(w, string(output))
	if slackMode {
		fmt.Fprintln(w, "```")
	}
	return nil
}

// WriteRepositories writes one row per repository as an aligned table,
// optionally wrapped in a slack code block.
func WriteRepositories(w io.Writer, repos []github.RepositorySummary, slackMode bool) error {
	if slackMode {
		fmt.Fprintln(w, "```")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tREPOSITORY\tSTARS\tDESCRIPTION")
	for i, repo := range repos {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, repo.FullName, repo.StargazersCount, truncate(repo.GetDescription(), 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if slackMode {
		fmt.Fprintln(w, "```")
	}
	return nil
}

// WriteDetail writes the fields of a single repository, one per line.
func WriteDetail(w io.Writer, repo *github.RepositoryDetail) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Repository:\t%s\n", repo.FullName)
	if desc := repo.GetDescription(); desc != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", desc)
	}
	fmt.Fprintf(tw, "Stars:\t%d\n", repo.StargazersCount)
	fmt.Fprintf(tw, "Forks:\t%d\n", repo.NetworkCount)
	fmt.Fprintf(tw, "Open issues:\t%d\n", repo.OpenIssuesCount)
	if repo.Language != "" {
		fmt.Fprintf(tw, "Language:\t%s\n", repo.Language)
	}
	if repo.DefaultBranch != "" {
		fmt.Fprintf(tw, "Default branch:\t%s\n", repo.DefaultBranch)
	}
	if repo.HTMLURL != "" {
		fmt.Fprintf(tw, "URL:\t%s\n", repo.HTMLURL)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
