package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/format"
	"github.com/stahnma/gh-orgstars/internal/repolist"
)

const refreshCommand = "/refresh"

type watchOptions struct {
	rows         int
	duration     time.Duration
	refreshEvery time.Duration
}

func (a *App) newWatchCommand() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch [organization]",
		Short: "Follow live star counts of an organization's repositories",
		Long: `Lists the repositories of an organization and prints star count changes
for the first rows as they arrive.

While running, type an organization name and press enter to switch to it,
or type ` + refreshCommand + ` to reload the current one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, a.organization(args), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.rows, "rows", "n", 10, "Number of rows that receive live updates")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().DurationVar(&opts.refreshEvery, "refresh-every", 0, "Reload the list at this interval (0 never)")
	return cmd
}

func (a *App) runWatch(cmd *cobra.Command, org string, opts watchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	o, events, closeList := a.startList(ctx, org)
	defer closeList()

	lines := readLines(ctx, cmd.InOrStdin())

	var refresh <-chan time.Time
	if opts.refreshEvery > 0 {
		ticker := time.NewTicker(opts.refreshEvery)
		defer ticker.Stop()
		refresh = ticker.C
	}

	w := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()

	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-events.states:
			switch s.Kind {
			case repolist.StateLoading:
				fmt.Fprintln(w, "Loading repositories...")
			case repolist.StateRefreshing:
				fmt.Fprintln(w, "Refreshing repositories...")
			case repolist.StateSuccess:
				snap := o.Snapshot()
				if snap.State.Kind != repolist.StateSuccess {
					break
				}
				fmt.Fprintf(w, "%s: %d repositories\n", snap.Organization, len(snap.Repositories))
				if err := format.WriteRepositories(w, snap.Repositories, a.Config.SlackMode); err != nil {
					return err
				}
				for i := 0; i < opts.rows && i < len(snap.Repositories); i++ {
					o.RowVisible(i)
				}
			case repolist.StateError:
				fb, _ := repolist.FeedbackFor(s)
				fmt.Fprintf(errW, "%s\n%s\n", fb.Title, fb.Message)
			}

		case c := <-events.stars:
			fmt.Fprintf(w, "★ %s %d\n", c.repo.FullName, c.repo.StargazersCount)

		case <-events.refreshFailed:
			fmt.Fprintln(errW, repolist.RefreshFailedMessage)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			switch line {
			case "":
			case refreshCommand:
				o.PullToRefresh()
			default:
				o.SearchSubmit(line)
			}

		case <-refresh:
			o.PullToRefresh()
		}
	}
}

// readLines streams trimmed input lines until EOF or until ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
