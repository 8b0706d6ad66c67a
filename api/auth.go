package api

import (
	"context"
	"net/url"

	eventful "github.com/eventful-app/eventful-go"
)

// Credentials are a username/password pair for login and signup.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LogIn authenticates and returns the session user. The session cookie
// is retained by the client's jar.
func (c *Client) LogIn(ctx context.Context, creds Credentials) (eventful.User, error) {
	var user eventful.User
	if err := c.post(ctx, "/auth/login", creds, &user); err != nil {
		return eventful.User{}, err
	}
	return user, nil
}

// SignUp registers a new account and returns the created user with an
// active session.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (eventful.User, error) {
	var user eventful.User
	if err := c.post(ctx, "/auth/signup", creds, &user); err != nil {
		return eventful.User{}, err
	}
	return user, nil
}

// Verify returns the user the current session cookie belongs to.
// ErrUnauthorized means the session has expired.
func (c *Client) Verify(ctx context.Context) (eventful.User, error) {
	var user eventful.User
	if err := c.get(ctx, "/auth/verify", &user); err != nil {
		return eventful.User{}, err
	}
	return user, nil
}

// LogOut ends the server-side session.
func (c *Client) LogOut(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}

// User fetches one user by id.
func (c *Client) User(ctx context.Context, id eventful.ID) (eventful.User, error) {
	var user eventful.User
	if err := c.get(ctx, "/users/"+url.PathEscape(id.String()), &user); err != nil {
		return eventful.User{}, err
	}
	return user, nil
}

// SearchUsers finds users whose username matches query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]eventful.User, error) {
	var users []eventful.User
	if err := c.get(ctx, "/users/search?q="+url.QueryEscape(query), &users); err != nil {
		return nil, err
	}
	return users, nil
}
