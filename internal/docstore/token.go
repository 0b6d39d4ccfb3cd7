package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

// Scopes needed to talk to the Realtime Database with a service account.
var firebaseScopes = []string{
	"https://www.googleapis.com/auth/firebase.database",
	"https://www.googleapis.com/auth/userinfo.email",
}

// defaultTokenSkew refreshes a little before the real expiry so in-flight requests never
// carry a token that dies on the wire.
const defaultTokenSkew = 2 * time.Minute

// TokenCache hands out the current access token and refreshes it once it gets close to
// expiry. Concurrent callers during a refresh share a single upstream fetch.
type TokenCache struct {
	src  oauth2.TokenSource
	skew time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	token *oauth2.Token

	group singleflight.Group
}

// NewTokenCache wraps src.
func NewTokenCache(src oauth2.TokenSource) *TokenCache {
	return &TokenCache{src: src, skew: defaultTokenSkew, now: time.Now}
}

// NewServiceAccountTokenCache builds a cache from a Google service-account JSON key.
func NewServiceAccountTokenCache(ctx context.Context, credentialsJSON []byte) (*TokenCache, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, firebaseScopes...)
	if err != nil {
		return nil, fmt.Errorf("load firebase credentials: %w", err)
	}
	return NewTokenCache(creds.TokenSource), nil
}

// Token returns a valid access token, refreshing it when needed.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	tok, err := c.current(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// TokenSource adapts the cache for HTTP clients that authorize every request.
func (c *TokenCache) TokenSource() oauth2.TokenSource {
	return cacheSource{c}
}

type cacheSource struct{ c *TokenCache }

func (s cacheSource) Token() (*oauth2.Token, error) {
	return s.c.current(context.Background())
}

func (c *TokenCache) current(ctx context.Context) (*oauth2.Token, error) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if c.fresh(tok) {
		return tok, nil
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		// another caller may have refreshed while we waited
		c.mu.RLock()
		cur := c.token
		c.mu.RUnlock()
		if c.fresh(cur) {
			return cur, nil
		}

		next, err := c.src.Token()
		if err != nil {
			return nil, err
		}
		if next == nil || next.AccessToken == "" {
			return nil, errors.New("token source returned an empty token")
		}
		c.mu.Lock()
		c.token = next
		c.mu.Unlock()
		return next, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("refresh access token: %w", res.Err)
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops the cached token; the next call refreshes.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

func (c *TokenCache) fresh(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return c.now().Add(c.skew).Before(tok.Expiry)
}
