package client

import (
	"context"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/cache"
)

// Events returns the cached event list, fetching when absent or stale.
func (c *Client) Events(ctx context.Context) ([]eventful.Event, error) {
	return lookup(ctx, c, cache.EventsKey(), c.api.Events)
}

// Event returns one event with its plans.
func (c *Client) Event(ctx context.Context, id eventful.ID) (eventful.Event, error) {
	return lookup(ctx, c, cache.EventKey(id), func(ctx context.Context) (eventful.Event, error) {
		return c.api.Event(ctx, id)
	})
}

// Messages returns an event's message list.
func (c *Client) Messages(ctx context.Context, event eventful.ID) ([]eventful.Message, error) {
	return lookup(ctx, c, cache.MessagesKey(event), func(ctx context.Context) ([]eventful.Message, error) {
		return c.api.Messages(ctx, event)
	})
}

// Pings returns the visible location pings.
func (c *Client) Pings(ctx context.Context) ([]eventful.Ping, error) {
	return lookup(ctx, c, cache.PingsKey(), c.api.Pings)
}

// Tags returns the session user's tags.
func (c *Client) Tags(ctx context.Context) ([]eventful.Tag, error) {
	return lookup(ctx, c, cache.TagsKey(), c.api.Tags)
}

// Tag returns one tag.
func (c *Client) Tag(ctx context.Context, id eventful.ID) (eventful.Tag, error) {
	return lookup(ctx, c, cache.TagKey(id), func(ctx context.Context) (eventful.Tag, error) {
		return c.api.Tag(ctx, id)
	})
}

// Accesses returns the session user's permission grants.
func (c *Client) Accesses(ctx context.Context) ([]eventful.Access, error) {
	return lookup(ctx, c, cache.AccessesKey(), c.api.Accesses)
}

// Contacts returns a user's contacts.
func (c *Client) Contacts(ctx context.Context, user eventful.ID) ([]eventful.User, error) {
	return lookup(ctx, c, cache.ContactsKey(user), func(ctx context.Context) ([]eventful.User, error) {
		return c.api.Contacts(ctx, user)
	})
}

// Locations returns the session user's saved locations.
func (c *Client) Locations(ctx context.Context) ([]eventful.Location, error) {
	return lookup(ctx, c, cache.LocationsKey(), c.api.Locations)
}

// Settings returns the session user's preference document.
func (c *Client) Settings(ctx context.Context) (eventful.Settings, error) {
	return lookup(ctx, c, cache.SettingsKey(), c.api.Settings)
}

// Reminders returns the session user's reminder rules.
func (c *Client) Reminders(ctx context.Context) ([]eventful.Reminder, error) {
	return lookup(ctx, c, cache.RemindersKey(), c.api.Reminders)
}

// Lookup fetches one user, cached by id.
func (c *Client) Lookup(ctx context.Context, id eventful.ID) (eventful.User, error) {
	return lookup(ctx, c, cache.UserKey(id), func(ctx context.Context) (eventful.User, error) {
		return c.api.User(ctx, id)
	})
}

// Search finds users by username. Results are not cached; queries vary
// per keystroke.
func (c *Client) Search(ctx context.Context, query string) ([]eventful.User, error) {
	return c.api.SearchUsers(ctx, query)
}
