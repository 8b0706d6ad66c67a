package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	eventful "github.com/eventful-app/eventful-go"
)

func TestStoreLifecycle(t *testing.T) {
	s := New()

	require.False(t, s.Active())
	require.Equal(t, eventful.ID(""), s.UserID())
	_, ok := s.User()
	require.False(t, ok)

	s.Set(eventful.User{ID: "u1", Username: "ada"})

	require.True(t, s.Active())
	require.Equal(t, eventful.ID("u1"), s.UserID())

	user, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "ada", user.Username)

	s.Clear()

	require.False(t, s.Active())
	require.Equal(t, eventful.ID(""), s.UserID())
}

func TestStoreCopiesUser(t *testing.T) {
	s := New()

	u := eventful.User{ID: "u1", Username: "ada"}
	s.Set(u)
	u.Username = "changed"

	got, ok := s.User()
	require.True(t, ok)
	require.Equal(t, "ada", got.Username)
}
