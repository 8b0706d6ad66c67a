package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	eventful "github.com/eventful-app/eventful-go"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLogInCarriesSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "ada", creds.Username)

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s3cret", Path: "/"})
		writeJSON(t, w, eventful.User{ID: "u1", Username: "ada"})
	})
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, eventful.User{ID: "u1", Username: "ada"})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	// Unauthenticated verify fails.
	_, err := c.Verify(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	user, err := c.LogIn(ctx, Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, eventful.ID("u1"), user.ID)

	// The jar now carries the session cookie.
	user, err = c.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, "ada", user.Username)
	require.NotEmpty(t, c.Cookies())
}

func TestEventAndPlanEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []eventful.Event{{ID: "e1", Name: "Camping"}})
	})
	mux.HandleFunc("GET /events/e1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, eventful.Event{ID: "e1", Name: "Camping", Plans: []eventful.Plan{{ID: "p1", Event: "e1"}}})
	})
	mux.HandleFunc("POST /events/e1/plans", func(w http.ResponseWriter, r *http.Request) {
		var plan eventful.Plan
		require.NoError(t, json.NewDecoder(r.Body).Decode(&plan))
		plan.ID = "p2"
		writeJSON(t, w, plan)
	})
	mux.HandleFunc("PUT /plans/p2", func(w http.ResponseWriter, r *http.Request) {
		var plan eventful.Plan
		require.NoError(t, json.NewDecoder(r.Body).Decode(&plan))
		writeJSON(t, w, plan)
	})
	mux.HandleFunc("DELETE /plans/p2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	events, err := c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event, err := c.Event(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, event.Plans, 1)

	plan, err := c.AddPlan(ctx, eventful.Plan{Event: "e1", What: "hike"})
	require.NoError(t, err)
	require.Equal(t, eventful.ID("p2"), plan.ID)

	plan.What = "long hike"
	plan, err = c.UpdatePlan(ctx, plan)
	require.NoError(t, err)
	require.Equal(t, "long hike", plan.What)

	require.NoError(t, c.DeletePlan(ctx, "p2"))
}

func TestErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /events/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.Event(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Event(ctx, "broken")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadGateway, statusErr.Status)
	require.Equal(t, "backend down", statusErr.Body)
}

func TestSearchUsersEscapesQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/search", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "a b&c", r.URL.Query().Get("q"))
		writeJSON(t, w, []eventful.User{{ID: "u2", Username: "abc"}})
	})

	c := newTestClient(t, mux)

	users, err := c.SearchUsers(context.Background(), "a b&c")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestNotificationSettingRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "events", r.URL.Query().Get("refModel"))
		require.Equal(t, "e1", r.URL.Query().Get("ref"))
		writeJSON(t, w, []eventful.NotificationSetting{{Key: "messages", Ref: "e1", RefModel: eventful.RefEvents}})
	})
	mux.HandleFunc("DELETE /notifications", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "messages", r.URL.Query().Get("key"))
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	settings, err := c.NotificationSettings(ctx, eventful.RefEvents, "e1")
	require.NoError(t, err)
	require.Len(t, settings, 1)

	require.NoError(t, c.DisableNotification(ctx, settings[0]))
}

func TestChannelURL(t *testing.T) {
	c := NewClient(WithBaseURL("https://api.eventful.app/"))
	require.Equal(t, "wss://api.eventful.app/channel", c.ChannelURL())

	c = NewClient(WithBaseURL("http://127.0.0.1:8080"))
	require.Equal(t, "ws://127.0.0.1:8080/channel", c.ChannelURL())
}
