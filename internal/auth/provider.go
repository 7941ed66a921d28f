// Package auth supplies OAuth credentials to the calendar adapters.
//
// A Provider reads the token cache, refreshes an expired token when it can,
// and otherwise falls back to an interactive authorization flow. Every token
// it hands out or refreshes is written back to the cache.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/logging"
)

// AuthorizeFunc obtains a fresh token from the user, such as LocalServerFlow.Token.
type AuthorizeFunc func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// Provider hands out a valid token source for one OAuth client.
type Provider struct {
	Config    *oauth2.Config
	Store     FileStore
	Authorize AuthorizeFunc
	Logger    *slog.Logger
}

func (p *Provider) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// TokenSource returns a token source backed by a valid token.
// Failures here are authentication failures and should end the run.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base:   p.Config.TokenSource(ctx, tok),
		store:  p.Store,
		last:   tok,
		logger: p.logger(),
	}, nil
}

// Token returns a valid token: the cached one, a refreshed one, or one
// obtained through Authorize.
func (p *Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := p.Store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		return p.authorize(ctx)
	case err != nil:
		p.logger().Warn("ignoring unreadable token cache", logging.Err(err))
		return p.authorize(ctx)
	case tok.Valid():
		return tok, nil
	case tok.RefreshToken != "":
		return p.refresh(ctx, tok)
	default:
		return p.authorize(ctx)
	}
}

// Reauthorize discards any cached token and runs the interactive flow.
func (p *Provider) Reauthorize(ctx context.Context) (*oauth2.Token, error) {
	return p.authorize(ctx)
}

func (p *Provider) refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	// Clearing the access token forces the refresh even if the clock says otherwise.
	stale := *tok
	stale.AccessToken = ""
	fresh, err := p.Config.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("token expired and refresh failed (delete %s to sign in again): %w", p.Store.Path, err)
	}
	if err := p.Store.Save(fresh); err != nil {
		return nil, fmt.Errorf("save refreshed token: %w", err)
	}
	p.logger().Debug("refreshed cached token")
	return fresh, nil
}

func (p *Provider) authorize(ctx context.Context) (*oauth2.Token, error) {
	if p.Authorize == nil {
		return nil, fmt.Errorf("no valid token in %s and no interactive flow configured", p.Store.Path)
	}
	tok, err := p.Authorize(ctx, p.Config)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if err := p.Store.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return tok, nil
}

// persistingSource writes every newly minted token back to the cache.
type persistingSource struct {
	base   oauth2.TokenSource
	store  FileStore
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := s.store.Save(tok); err != nil {
			s.logger.Warn("cannot persist refreshed token", logging.Err(err))
		}
		s.last = tok
	}
	return tok, nil
}
