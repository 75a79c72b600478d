// Package repolist drives the repository list: it fetches an organization's
// repositories, keeps live star-count subscriptions for the visible rows and
// reports a screen state to its delegate.
//
// All state is owned by the goroutine running Run. Public methods post
// events to it and never touch state directly.
package repolist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stahnma/gh-orgstars/internal/github"
	"github.com/stahnma/gh-orgstars/internal/live"
	"go.uber.org/zap"
)

const (
	DefaultOrganization = "swiftlang"

	eventBuffer = 64
)

// Service is what the orchestrator needs from the repository service.
type Service interface {
	FetchRepositories(ctx context.Context, organization string) ([]github.RepositorySummary, error)
	RegisterStarCountSubscriber(repo github.RepositorySummary, fn live.Subscriber) *live.Subscription
}

// Delegate receives everything the screen renders. Its methods run on the
// orchestrator's loop and must not call Snapshot.
type Delegate interface {
	OnStateUpdate(state State)
	OnStarCountChange(repo github.RepositorySummary, index int)
	OnRefreshFailed()
}

type nopDelegate struct{}

func (nopDelegate) OnStateUpdate(State) {}

func (nopDelegate) OnStarCountChange(github.RepositorySummary, int) {}

func (nopDelegate) OnRefreshFailed() {}

// Snapshot is a copy of what the screen currently shows.
type Snapshot struct {
	State        State
	Organization string
	Repositories []github.RepositorySummary
}

// Orchestrator is the repository list state machine.
type Orchestrator struct {
	svc        Service
	delegate   Delegate
	defaultOrg string
	l          *zap.Logger

	events    chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool

	// Owned by the loop.
	ctx           context.Context
	state         State
	settled       State
	repos         []github.RepositorySummary
	currentOrg    string
	lastRequested string
	generation    uint64
	cancelFetch   context.CancelFunc
	subs          map[int64]rowSubscription
	visible       map[int]struct{}
	seq           uint64
}

type rowSubscription struct {
	sub *live.Subscription
	seq uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelegate sets the delegate.
func WithDelegate(d Delegate) Option {
	return func(o *Orchestrator) { o.delegate = d }
}

// WithDefaultOrganization sets the organization loaded by ViewReady.
func WithDefaultOrganization(org string) Option {
	return func(o *Orchestrator) {
		if org = strings.TrimSpace(org); org != "" {
			o.defaultOrg = org
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.l = l }
}

// New creates an orchestrator. Call Run to start processing events.
func New(svc Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:        svc,
		delegate:   nopDelegate{},
		defaultOrg: DefaultOrganization,
		l:          zap.NewNop(),
		events:     make(chan func(), eventBuffer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		subs:       make(map[int64]rowSubscription),
		visible:    make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes events until ctx is done or Close is called. On return the
// in-flight fetch and every subscription have been cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errors.New("repolist: already running")
	}
	defer close(o.done)
	defer o.shutdown()

	// A cancelled ctx also releases callers blocked in post, even while the
	// loop is stuck in a delegate callback.
	go func() {
		select {
		case <-ctx.Done():
			o.closeOnce.Do(func() { close(o.quit) })
		case <-o.done:
		}
	}()

	o.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.quit:
			return ctx.Err()
		case fn := <-o.events:
			fn()
		}
	}
}

// Close stops Run and waits for it to release its resources.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() { close(o.quit) })
	if o.running.Load() {
		<-o.done
	}
}

// ViewReady loads the default organization.
func (o *Orchestrator) ViewReady() {
	o.post(func() { o.fetch(o.defaultOrg, EventViewReady) })
}

// PullToRefresh re-fetches the current organization, keeping the list on
// screen if the fetch fails.
func (o *Orchestrator) PullToRefresh() {
	o.post(func() {
		org := o.currentOrg
		if org == "" {
			org = o.lastRequested
		}
		if org == "" {
			org = o.defaultOrg
		}
		o.fetch(org, EventPullToRefresh)
	})
}

// SearchSubmit loads name unless it is blank or already shown.
func (o *Orchestrator) SearchSubmit(name string) {
	name = strings.TrimSpace(name)
	o.post(func() {
		if name == "" || name == o.currentOrg {
			o.l.Debug("search ignored", zap.String("organization", name))
			return
		}
		o.fetch(name, EventSearch)
	})
}

// RowVisible starts live star counts for the row at index.
func (o *Orchestrator) RowVisible(index int) {
	o.post(func() {
		if _, ok := o.row(index); !ok {
			return
		}
		o.visible[index] = struct{}{}
		o.subscribe(index)
	})
}

// RowHidden stops live star counts for the row at index.
func (o *Orchestrator) RowHidden(index int) {
	o.post(func() {
		delete(o.visible, index)
		if repo, ok := o.row(index); ok {
			o.unsubscribe(repo.ID)
		}
	})
}

// Snapshot returns a copy of the current screen. It returns the zero value
// once the orchestrator is stopping.
func (o *Orchestrator) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !o.post(func() { reply <- o.snapshot() }) {
		return Snapshot{}
	}
	select {
	case s := <-reply:
		return s
	case <-o.quit:
		return Snapshot{}
	case <-o.done:
		return Snapshot{}
	}
}

// post queues fn for the loop, blocking while the queue is full. It gives
// up once the orchestrator is closed or its Run context is done.
func (o *Orchestrator) post(fn func()) bool {
	select {
	case <-o.quit:
		return false
	default:
	}
	select {
	case o.events <- fn:
		return true
	case <-o.quit:
		return false
	case <-o.done:
		return false
	}
}

// tryPost queues fn unless the queue is full.
func (o *Orchestrator) tryPost(fn func()) bool {
	select {
	case o.events <- fn:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	if s.Kind == StateSuccess || s.Kind == StateError {
		o.settled = s
	}
	o.l.Debug("state", zap.Stringer("state", s), zap.String("organization", o.currentOrg))
	o.delegate.OnStateUpdate(s)
}

func (o *Orchestrator) fetch(org string, event FetchEvent) {
	o.cancelAllSubscriptions()
	if o.cancelFetch != nil {
		o.cancelFetch()
	}

	o.generation++
	gen := o.generation
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancelFetch = cancel
	o.lastRequested = org

	o.setState(event.loadingState())
	o.l.Info("fetching repositories",
		zap.String("organization", org),
		zap.Stringer("event", event),
		zap.Uint64("generation", gen))

	go func() {
		repos, err := o.svc.FetchRepositories(ctx, org)
		o.post(func() { o.finish(gen, org, event, repos, err) })
	}()
}

func (o *Orchestrator) finish(gen uint64, org string, event FetchEvent, repos []github.RepositorySummary, err error) {
	if gen != o.generation {
		o.l.Debug("dropping superseded fetch", zap.String("organization", org), zap.Uint64("generation", gen))
		return
	}
	o.cancelFetch()
	o.cancelFetch = nil

	if err == nil {
		o.cancelAllSubscriptions()
		clear(o.visible)
		o.repos = repos
		o.currentOrg = org
		o.setState(Success)
		return
	}

	// A failed refresh goes back to the last settled screen. Before anything
	// settled there is no list to keep, so it fails like a load.
	if event == EventPullToRefresh && o.settled.Kind != 0 {
		o.l.Warn("refresh failed", zap.String("organization", org), zap.Error(err))
		o.state = o.settled
		o.resubscribeVisible()
		o.delegate.OnRefreshFailed()
		return
	}

	o.l.Warn("fetch failed", zap.String("organization", org), zap.Error(err))
	o.cancelAllSubscriptions()
	clear(o.visible)
	o.repos = nil
	o.currentOrg = ""
	o.setState(Failed(github.TypeOf(err)))
}

// row returns the displayed row at index. Nothing is displayed while loading.
func (o *Orchestrator) row(index int) (github.RepositorySummary, bool) {
	if o.state.Kind == StateLoading || index < 0 || index >= len(o.repos) {
		return github.RepositorySummary{}, false
	}
	return o.repos[index], true
}

func (o *Orchestrator) subscribe(index int) {
	repo := o.repos[index]
	o.unsubscribe(repo.ID)

	o.seq++
	seq := o.seq
	id := repo.ID
	sub := o.svc.RegisterStarCountSubscriber(repo, func(stars int) {
		if !o.tryPost(func() { o.applyStarCount(id, seq, stars) }) {
			o.l.Debug("star update dropped", zap.Int64("id", id), zap.Int("stars", stars))
		}
	})
	if sub == nil {
		return
	}
	o.subs[id] = rowSubscription{sub: sub, seq: seq}
}

func (o *Orchestrator) unsubscribe(id int64) {
	if rs, ok := o.subs[id]; ok {
		rs.sub.Cancel()
		delete(o.subs, id)
	}
}

func (o *Orchestrator) cancelAllSubscriptions() {
	for id, rs := range o.subs {
		rs.sub.Cancel()
		delete(o.subs, id)
	}
}

func (o *Orchestrator) resubscribeVisible() {
	for index := range o.visible {
		if _, ok := o.row(index); ok {
			o.subscribe(index)
		} else {
			delete(o.visible, index)
		}
	}
}

// applyStarCount writes a live value into the list if the subscription that
// produced it is still the current one for that repository.
func (o *Orchestrator) applyStarCount(id int64, seq uint64, stars int) {
	if rs, ok := o.subs[id]; !ok || rs.seq != seq {
		return
	}
	for i := range o.repos {
		if o.repos[i].ID == id {
			o.repos[i].StargazersCount = stars
			o.delegate.OnStarCountChange(o.repos[i], i)
			return
		}
	}
}

func (o *Orchestrator) snapshot() Snapshot {
	s := Snapshot{State: o.state, Organization: o.currentOrg}
	if o.state.Kind != StateLoading {
		s.Repositories = append([]github.RepositorySummary(nil), o.repos...)
	}
	return s
}

func (o *Orchestrator) shutdown() {
	if o.cancelFetch != nil {
		o.cancelFetch()
		o.cancelFetch = nil
	}
	o.cancelAllSubscriptions()
}
