package github

import (
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

const (
	mediaType     = "application/vnd.github.v3+json"
	apiVersion    = "2022-11-28"
	headerVersion = "X-GitHub-Api-Version"
)

// tokenHolder is the single current authorization token. Last writer wins.
type tokenHolder struct {
	mu    sync.RWMutex
	token string
}

func (h *tokenHolder) set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *tokenHolder) get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// transport pins the API media type and version, forces every request past
// any cache, and attaches bearer auth when a token is currently set.
type transport struct {
	base   http.RoundTripper
	tokens *tokenHolder
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", mediaType)
	req.Header.Set(headerVersion, apiVersion)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	token := t.tokens.get()
	if token == "" {
		return t.base.RoundTrip(req)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return (&oauth2.Transport{Source: ts, Base: t.base}).RoundTrip(req)
}
