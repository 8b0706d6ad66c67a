package client

import (
	"context"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/cache"
)

// Mutations write through the API and invalidate the keys the change
// affects. Invalidation rather than patching keeps the server
// authoritative: the next read refetches.

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, event eventful.Event) (eventful.Event, error) {
	created, err := c.api.CreateEvent(ctx, event)
	if err != nil {
		return eventful.Event{}, err
	}

	c.cache.Invalidate(ctx, cache.EventsKey())
	return created, nil
}

// UpdateEvent updates an event's own fields.
func (c *Client) UpdateEvent(ctx context.Context, event eventful.Event) (eventful.Event, error) {
	updated, err := c.api.UpdateEvent(ctx, event)
	if err != nil {
		return eventful.Event{}, err
	}

	c.cache.Invalidate(ctx, cache.EventKey(event.ID), cache.EventsKey())
	return updated, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id eventful.ID) error {
	if err := c.api.DeleteEvent(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.EventKey(id), cache.EventsKey())
	return nil
}

// AddPlan appends a plan to its event.
func (c *Client) AddPlan(ctx context.Context, plan eventful.Plan) (eventful.Plan, error) {
	created, err := c.api.AddPlan(ctx, plan)
	if err != nil {
		return eventful.Plan{}, err
	}

	c.cache.Invalidate(ctx, cache.EventKey(plan.Event), cache.EventsKey())
	return created, nil
}

// UpdatePlan overwrites a plan.
func (c *Client) UpdatePlan(ctx context.Context, plan eventful.Plan) (eventful.Plan, error) {
	updated, err := c.api.UpdatePlan(ctx, plan)
	if err != nil {
		return eventful.Plan{}, err
	}

	c.cache.Invalidate(ctx,
		cache.EventKey(plan.Event),
		cache.PlanKey(plan.ID),
		cache.EventsKey(),
	)
	return updated, nil
}

// DeletePlan removes a plan from its event.
func (c *Client) DeletePlan(ctx context.Context, id, event eventful.ID) error {
	if err := c.api.DeletePlan(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx,
		cache.EventKey(event),
		cache.PlanKey(id),
		cache.EventsKey(),
	)
	return nil
}

// SendMessage posts a message.
func (c *Client) SendMessage(ctx context.Context, msg eventful.Message) (eventful.Message, error) {
	created, err := c.api.SendMessage(ctx, msg)
	if err != nil {
		return eventful.Message{}, err
	}

	c.cache.Invalidate(ctx, cache.MessagesKey(msg.Event))
	return created, nil
}

// UpdateMessage edits a message.
func (c *Client) UpdateMessage(ctx context.Context, msg eventful.Message) (eventful.Message, error) {
	updated, err := c.api.UpdateMessage(ctx, msg)
	if err != nil {
		return eventful.Message{}, err
	}

	c.cache.Invalidate(ctx, cache.MessagesKey(msg.Event))
	return updated, nil
}

// DeleteMessage removes a message from its event.
func (c *Client) DeleteMessage(ctx context.Context, id, event eventful.ID) error {
	if err := c.api.DeleteMessage(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.MessagesKey(event))
	return nil
}

// AddPing broadcasts a location ping.
func (c *Client) AddPing(ctx context.Context, ping eventful.Ping) (eventful.Ping, error) {
	created, err := c.api.AddPing(ctx, ping)
	if err != nil {
		return eventful.Ping{}, err
	}

	c.cache.Invalidate(ctx, cache.PingsKey())
	return created, nil
}

// DeletePing withdraws a ping.
func (c *Client) DeletePing(ctx context.Context, id eventful.ID) error {
	if err := c.api.DeletePing(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.PingsKey())
	return nil
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, tag eventful.Tag) (eventful.Tag, error) {
	created, err := c.api.CreateTag(ctx, tag)
	if err != nil {
		return eventful.Tag{}, err
	}

	c.cache.Invalidate(ctx, cache.TagsKey())
	return created, nil
}

// UpdateTag renames a tag or changes its membership. Tag membership
// affects which events are visible, so every cached event detail goes
// stale along with the lists.
func (c *Client) UpdateTag(ctx context.Context, tag eventful.Tag) (eventful.Tag, error) {
	updated, err := c.api.UpdateTag(ctx, tag)
	if err != nil {
		return eventful.Tag{}, err
	}

	c.cache.Invalidate(ctx, cache.TagKey(tag.ID), cache.TagsKey(), cache.EventsKey())
	c.cache.InvalidateKind(ctx, cache.KindEvent)
	return updated, nil
}

// DeleteTag removes a tag.
func (c *Client) DeleteTag(ctx context.Context, id eventful.ID) error {
	if err := c.api.DeleteTag(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.TagKey(id), cache.TagsKey(), cache.EventsKey())
	return nil
}

// UpdateAccess grants or revokes a permission. The resolved entity goes
// stale too: a revoked grant can make it disappear from lists.
func (c *Client) UpdateAccess(ctx context.Context, access eventful.Access) (eventful.Access, error) {
	updated, err := c.api.UpdateAccess(ctx, access)
	if err != nil {
		return eventful.Access{}, err
	}

	keys := []cache.Key{cache.AccessesKey()}
	if kind, ok := access.RefModel.EntityKind(); ok {
		keys = append(keys,
			cache.Key{Kind: kind, Ref: access.Ref},
			cache.Key{Kind: string(access.RefModel)},
		)
	}
	c.cache.Invalidate(ctx, keys...)
	return updated, nil
}

// AddContact adds a contact for the session user.
func (c *Client) AddContact(ctx context.Context, contact eventful.ID) error {
	if err := c.api.AddContact(ctx, contact); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.ContactsKey(c.session.UserID()))
	return nil
}

// RemoveContact removes a contact.
func (c *Client) RemoveContact(ctx context.Context, contact eventful.ID) error {
	if err := c.api.RemoveContact(ctx, contact); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.ContactsKey(c.session.UserID()))
	return nil
}

// SaveLocation creates or updates a saved location.
func (c *Client) SaveLocation(ctx context.Context, loc eventful.Location) (eventful.Location, error) {
	saved, err := c.api.SaveLocation(ctx, loc)
	if err != nil {
		return eventful.Location{}, err
	}

	c.cache.Invalidate(ctx, cache.LocationsKey())
	return saved, nil
}

// DeleteLocation removes a saved location.
func (c *Client) DeleteLocation(ctx context.Context, id eventful.ID) error {
	if err := c.api.DeleteLocation(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.LocationsKey())
	return nil
}

// UpdateSettings overwrites the preference document.
func (c *Client) UpdateSettings(ctx context.Context, settings eventful.Settings) (eventful.Settings, error) {
	updated, err := c.api.UpdateSettings(ctx, settings)
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(ctx, cache.SettingsKey())
	return updated, nil
}

// CreateReminder adds a reminder rule.
func (c *Client) CreateReminder(ctx context.Context, r eventful.Reminder) (eventful.Reminder, error) {
	created, err := c.api.CreateReminder(ctx, r)
	if err != nil {
		return eventful.Reminder{}, err
	}

	c.cache.Invalidate(ctx, cache.RemindersKey())
	return created, nil
}

// DeleteReminder removes a reminder rule.
func (c *Client) DeleteReminder(ctx context.Context, id eventful.ID) error {
	if err := c.api.DeleteReminder(ctx, id); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.RemindersKey())
	return nil
}

// EnableNotification turns a push room on.
func (c *Client) EnableNotification(ctx context.Context, setting eventful.NotificationSetting) error {
	if err := c.api.EnableNotification(ctx, setting); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.NotificationsKey())
	return nil
}

// DisableNotification turns a push room off.
func (c *Client) DisableNotification(ctx context.Context, setting eventful.NotificationSetting) error {
	if err := c.api.DisableNotification(ctx, setting); err != nil {
		return err
	}

	c.cache.Invalidate(ctx, cache.NotificationsKey())
	return nil
}
