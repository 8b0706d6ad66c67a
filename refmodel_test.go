package eventful

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRefModel(t *testing.T) {
	for _, s := range []string{"events", "tags", "users", "plans", "pings"} {
		m, err := ParseRefModel(s)
		require.NoError(t, err)
		require.Equal(t, s, m.String())
	}

	_, err := ParseRefModel("calendars")
	require.Error(t, err)
}

func TestRefModelEntityKind(t *testing.T) {
	kind, ok := RefEvents.EntityKind()
	require.True(t, ok)
	require.Equal(t, "event", kind)

	kind, ok = RefTags.EntityKind()
	require.True(t, ok)
	require.Equal(t, "tag", kind)

	for _, m := range []RefModel{RefUsers, RefPlans, RefPings, RefModel("bogus")} {
		_, ok := m.EntityKind()
		require.False(t, ok)
	}
}
