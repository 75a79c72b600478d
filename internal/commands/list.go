package commands

import (
	"context"
	"fmt"

	ghub "github.com/stahnma/gh-orgstars/internal/github"
	"github.com/stahnma/gh-orgstars/internal/repolist"
)

// listEvents is a repolist.Delegate that hands callbacks to the command
// goroutine without ever blocking the orchestrator. Only the newest state is
// kept. Star changes are dropped when nobody keeps up; the next tick carries
// a newer value.
type listEvents struct {
	states        chan repolist.State
	stars         chan starChange
	refreshFailed chan struct{}
}

type starChange struct {
	repo  ghub.RepositorySummary
	index int
}

func newListEvents() *listEvents {
	return &listEvents{
		states:        make(chan repolist.State, 1),
		stars:         make(chan starChange, 256),
		refreshFailed: make(chan struct{}, 4),
	}
}

// OnStateUpdate replaces any state the command goroutine has not read yet.
// The orchestrator is the only sender, so the loop ends within two rounds.
func (e *listEvents) OnStateUpdate(s repolist.State) {
	for {
		select {
		case e.states <- s:
			return
		default:
		}
		select {
		case <-e.states:
		default:
		}
	}
}

func (e *listEvents) OnStarCountChange(repo ghub.RepositorySummary, index int) {
	select {
	case e.stars <- starChange{repo: repo, index: index}:
	default:
	}
}

func (e *listEvents) OnRefreshFailed() {
	select {
	case e.refreshFailed <- struct{}{}:
	default:
	}
}

// startList runs an orchestrator for org until ctx is done. The caller must
// call the returned stop function.
func (a *App) startList(ctx context.Context, org string) (*repolist.Orchestrator, *listEvents, func()) {
	events := newListEvents()
	o := repolist.New(a.Service,
		repolist.WithDelegate(events),
		repolist.WithDefaultOrganization(org),
		repolist.WithLogger(a.Logger.Named("repolist")),
	)
	go o.Run(ctx)
	o.ViewReady()
	return o, events, o.Close
}

// awaitSettled blocks until the list leaves Loading/Refreshing.
func awaitSettled(ctx context.Context, events *listEvents) (repolist.State, error) {
	for {
		select {
		case <-ctx.Done():
			return repolist.State{}, ctx.Err()
		case s := <-events.states:
			if s.Kind == repolist.StateSuccess || s.Kind == repolist.StateError {
				return s, nil
			}
		}
	}
}

// stateError turns an error state into the message shown to the user.
func stateError(s repolist.State) error {
	fb, ok := repolist.FeedbackFor(s)
	if !ok {
		return nil
	}
	return fmt.Errorf("%s: %s (%w)", fb.Title, fb.Message, &ghub.APIError{Type: s.Err})
}
