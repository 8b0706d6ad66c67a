// Package client ties the API, the read cache and the session together:
// reads go through the cache and fetch on miss or staleness, mutations
// write through the API and invalidate the affected keys so the next
// read refetches.
package client

import (
	"context"
	"log/slog"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/api"
	"github.com/eventful-app/eventful-go/cache"
	"github.com/eventful-app/eventful-go/session"
)

// Client is the session-scoped entry point for application reads and
// writes.
type Client struct {
	api     *api.Client
	cache   *cache.Cache
	session *session.Store
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a Client on top of an API client, a cache and a session
// store.
func New(apiClient *api.Client, cch *cache.Cache, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		api:     apiClient,
		cache:   cch,
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// API exposes the underlying API client for calls that bypass the
// cache.
func (c *Client) API() *api.Client {
	return c.api
}

// Session exposes the session store.
func (c *Client) Session() *session.Store {
	return c.session
}

// Cache exposes the read cache, for binding the realtime syncer and for
// snapshots.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// lookup is the typed read-through path.
func lookup[T any](ctx context.Context, c *Client, key cache.Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.cache.Lookup(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// SnapshotDecoders maps every cache kind to its payload decoder, for
// restoring an offline snapshot.
func SnapshotDecoders() map[string]cache.DecodeFunc {
	return map[string]cache.DecodeFunc{
		cache.KindEvents:    cache.JSONDecoder[[]eventful.Event](),
		cache.KindEvent:     cache.JSONDecoder[eventful.Event](),
		cache.KindMessages:  cache.JSONDecoder[[]eventful.Message](),
		cache.KindPings:     cache.JSONDecoder[[]eventful.Ping](),
		cache.KindTags:      cache.JSONDecoder[[]eventful.Tag](),
		cache.KindTag:       cache.JSONDecoder[eventful.Tag](),
		cache.KindAccesses:  cache.JSONDecoder[[]eventful.Access](),
		cache.KindContacts:  cache.JSONDecoder[[]eventful.User](),
		cache.KindLocations: cache.JSONDecoder[[]eventful.Location](),
		cache.KindReminders: cache.JSONDecoder[[]eventful.Reminder](),
		cache.KindSettings:  cache.JSONDecoder[eventful.Settings](),
		cache.KindUser:      cache.JSONDecoder[eventful.User](),
	}
}

// LogIn authenticates, populates the session and clears any state left
// over from a previous user.
func (c *Client) LogIn(ctx context.Context, creds api.Credentials) (eventful.User, error) {
	user, err := c.api.LogIn(ctx, creds)
	if err != nil {
		return eventful.User{}, err
	}

	c.cache.Clear()
	c.session.Set(user)
	c.logger.Info("logged in", "user", user.ID)
	return user, nil
}

// SignUp registers an account and starts its session.
func (c *Client) SignUp(ctx context.Context, creds api.Credentials) (eventful.User, error) {
	user, err := c.api.SignUp(ctx, creds)
	if err != nil {
		return eventful.User{}, err
	}

	c.cache.Clear()
	c.session.Set(user)
	return user, nil
}

// Verify restores the session from an existing cookie. Used on startup
// before falling back to an interactive login.
func (c *Client) Verify(ctx context.Context) (eventful.User, error) {
	user, err := c.api.Verify(ctx)
	if err != nil {
		return eventful.User{}, err
	}

	c.session.Set(user)
	return user, nil
}

// LogOut ends the session and drops all cached state. The server call
// failing does not keep the local session alive.
func (c *Client) LogOut(ctx context.Context) error {
	err := c.api.LogOut(ctx)
	if err != nil {
		c.logger.Warn("server logout failed", "error", err)
	}

	c.session.Clear()
	c.cache.Clear()
	return err
}
