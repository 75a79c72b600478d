package repolist

import (
	"fmt"

	"github.com/stahnma/gh-orgstars/internal/github"
)

// StateKind is the screen state of the repository list.
type StateKind int

const (
	StateLoading StateKind = iota + 1
	StateRefreshing
	StateSuccess
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateLoading:
		return "loading"
	case StateRefreshing:
		return "refreshing"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

// State is the current screen state. Err is set only for StateError.
type State struct {
	Kind StateKind
	Err  github.ErrorType
}

var (
	Loading    = State{Kind: StateLoading}
	Refreshing = State{Kind: StateRefreshing}
	Success    = State{Kind: StateSuccess}
)

// Failed returns the error state for kind.
func Failed(kind github.ErrorType) State {
	return State{Kind: StateError, Err: kind}
}

func (s State) String() string {
	if s.Kind == StateError {
		return fmt.Sprintf("error(%s)", s.Err)
	}
	return s.Kind.String()
}

// FetchEvent is what triggered a fetch.
type FetchEvent int

const (
	EventViewReady FetchEvent = iota + 1
	EventPullToRefresh
	EventSearch
)

func (e FetchEvent) String() string {
	switch e {
	case EventViewReady:
		return "view-ready"
	case EventPullToRefresh:
		return "pull-to-refresh"
	case EventSearch:
		return "search"
	}
	return "unknown"
}

// loadingState is the state entered while the fetch is in flight.
func (e FetchEvent) loadingState() State {
	if e == EventPullToRefresh {
		return Refreshing
	}
	return Loading
}

// Feedback is the user-facing text for an error screen.
type Feedback struct {
	Title   string
	Message string
}

// RefreshFailedMessage is shown when a pull-to-refresh fails and the
// previous list stays on screen.
const RefreshFailedMessage = "Couldn't refresh repositories. Please try again."

// FeedbackFor returns the error screen text for s, or false if s is not an
// error state.
func FeedbackFor(s State) (Feedback, bool) {
	if s.Kind != StateError {
		return Feedback{}, false
	}
	switch s.Err {
	case github.ErrorTypeNotFound:
		return Feedback{
			Title:   "No Repositories Found",
			Message: "We couldn't find any repositories matching your search. Try different keywords.",
		}, true
	case github.ErrorTypeUnauthorized:
		return Feedback{
			Title:   "Access Denied",
			Message: "Your API key is invalid or expired. Please update it and try again.",
		}, true
	}
	return Feedback{
		Title:   "Couldn't Load Repositories",
		Message: "Something went wrong on our end. Please try again later.",
	}, true
}
