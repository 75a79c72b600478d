// Package service composes the GitHub client, the live star feed and the
// secret store into the operations the repository list needs.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/stahnma/gh-orgstars/internal/cache"
	"github.com/stahnma/gh-orgstars/internal/github"
	"github.com/stahnma/gh-orgstars/internal/live"
	"github.com/stahnma/gh-orgstars/internal/secrets"
	"go.uber.org/zap"
)

// API is the subset of *github.Client the service uses.
type API interface {
	SetAuthorizationToken(token string)
	ListRepositories(ctx context.Context, organization string) ([]github.RepositorySummary, error)
	GetRepository(ctx context.Context, fullName string) (*github.RepositoryDetail, error)
}

// Feed is the subset of *live.Engine the service uses.
type Feed interface {
	Subscribe(entityID int64, initial int, fn live.Subscriber) (*live.Subscription, error)
}

// Service fetches repositories and brokers star-count subscriptions.
type Service struct {
	client   API
	feed     Feed
	store    secrets.Store
	details  *cache.Cache
	// fallback is used when the store holds no token.
	fallback string
	l        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.l = l }
}

// WithDetailCache sets the cache used by FetchRepository.
func WithDetailCache(c *cache.Cache) Option {
	return func(s *Service) { s.details = c }
}

// WithFallbackToken sets the token used when the secret store has none,
// usually GITHUB_TOKEN from the environment.
func WithFallbackToken(token string) Option {
	return func(s *Service) { s.fallback = token }
}

// New creates a Service. A nil store means requests are never authenticated.
func New(client API, feed Feed, store secrets.Store, opts ...Option) *Service {
	s := &Service{
		client:  client,
		feed:    feed,
		store:   store,
		details: cache.New(0),
		l:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchRepositories lists the repositories of organization using the
// credential currently in the secret store.
func (s *Service) FetchRepositories(ctx context.Context, organization string) ([]github.RepositorySummary, error) {
	s.refreshToken()
	return s.client.ListRepositories(ctx, organization)
}

// FetchRepository returns the details of one repository, served from the
// detail cache while fresh.
func (s *Service) FetchRepository(ctx context.Context, fullName string) (*github.RepositoryDetail, error) {
	key := "detail:" + strings.ToLower(fullName)
	if val, found := s.details.Get(key); found {
		if detail, ok := val.(github.RepositoryDetail); ok {
			s.l.Debug("detail cache hit", zap.String("repo", fullName))
			return &detail, nil
		}
	}

	s.refreshToken()
	detail, err := s.client.GetRepository(ctx, fullName)
	if err != nil {
		return nil, err
	}
	s.details.Set(key, *detail)
	return detail, nil
}

// RegisterStarCountSubscriber subscribes fn to live star counts for repo,
// seeded with its current count. It returns nil if the feed refuses the
// subscription; browsing carries on without live updates.
func (s *Service) RegisterStarCountSubscriber(repo github.RepositorySummary, fn live.Subscriber) *live.Subscription {
	sub, err := s.feed.Subscribe(repo.ID, repo.StargazersCount, fn)
	if err != nil {
		s.l.Warn("star count subscription failed",
			zap.String("repo", repo.FullName),
			zap.Int64("id", repo.ID),
			zap.Error(err))
		return nil
	}
	return sub
}

// refreshToken installs the stored credential, falling back to the
// configured token, or none if neither is available.
func (s *Service) refreshToken() {
	var token string
	if s.store != nil {
		var err error
		token, err = s.store.Retrieve(secrets.KeyAPIKey)
		switch {
		case errors.Is(err, secrets.ErrNotFound):
			s.l.Debug("no API token stored")
		case err != nil:
			s.l.Debug("reading API token failed", zap.Error(err))
			token = ""
		}
	}
	if token == "" && s.fallback != "" {
		s.l.Debug("using API token from configuration")
		token = s.fallback
	}
	s.client.SetAuthorizationToken(token)
}
