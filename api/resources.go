package api

import (
	"context"
	"net/url"

	eventful "github.com/eventful-app/eventful-go"
)

// Tags lists the session user's tags.
func (c *Client) Tags(ctx context.Context) ([]eventful.Tag, error) {
	var tags []eventful.Tag
	if err := c.get(ctx, "/tags", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Tag fetches one tag.
func (c *Client) Tag(ctx context.Context, id eventful.ID) (eventful.Tag, error) {
	var tag eventful.Tag
	if err := c.get(ctx, "/tags/"+url.PathEscape(id.String()), &tag); err != nil {
		return eventful.Tag{}, err
	}
	return tag, nil
}

// CreateTag creates a tag.
func (c *Client) CreateTag(ctx context.Context, tag eventful.Tag) (eventful.Tag, error) {
	var created eventful.Tag
	if err := c.post(ctx, "/tags", tag, &created); err != nil {
		return eventful.Tag{}, err
	}
	return created, nil
}

// UpdateTag renames a tag or changes its membership.
func (c *Client) UpdateTag(ctx context.Context, tag eventful.Tag) (eventful.Tag, error) {
	var updated eventful.Tag
	if err := c.put(ctx, "/tags/"+url.PathEscape(tag.ID.String()), tag, &updated); err != nil {
		return eventful.Tag{}, err
	}
	return updated, nil
}

// DeleteTag removes a tag.
func (c *Client) DeleteTag(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/tags/"+url.PathEscape(id.String()))
}

// Accesses lists the session user's permission grants.
func (c *Client) Accesses(ctx context.Context) ([]eventful.Access, error) {
	var accesses []eventful.Access
	if err := c.get(ctx, "/accesses", &accesses); err != nil {
		return nil, err
	}
	return accesses, nil
}

// UpdateAccess grants, changes or revokes (empty role) one access
// record.
func (c *Client) UpdateAccess(ctx context.Context, access eventful.Access) (eventful.Access, error) {
	var updated eventful.Access
	if err := c.put(ctx, "/accesses", access, &updated); err != nil {
		return eventful.Access{}, err
	}
	return updated, nil
}

// Contacts lists a user's contacts.
func (c *Client) Contacts(ctx context.Context, user eventful.ID) ([]eventful.User, error) {
	var contacts []eventful.User
	if err := c.get(ctx, "/users/"+url.PathEscape(user.String())+"/contacts", &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// AddContact adds contact to the session user's contact list.
func (c *Client) AddContact(ctx context.Context, contact eventful.ID) error {
	return c.post(ctx, "/contacts", map[string]eventful.ID{"user": contact}, nil)
}

// RemoveContact removes a contact.
func (c *Client) RemoveContact(ctx context.Context, contact eventful.ID) error {
	return c.delete(ctx, "/contacts/"+url.PathEscape(contact.String()))
}

// Locations lists the session user's saved locations.
func (c *Client) Locations(ctx context.Context) ([]eventful.Location, error) {
	var locations []eventful.Location
	if err := c.get(ctx, "/locations", &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// SaveLocation creates or updates a saved location.
func (c *Client) SaveLocation(ctx context.Context, loc eventful.Location) (eventful.Location, error) {
	var saved eventful.Location
	if loc.ID.IsZero() {
		if err := c.post(ctx, "/locations", loc, &saved); err != nil {
			return eventful.Location{}, err
		}
		return saved, nil
	}
	if err := c.put(ctx, "/locations/"+url.PathEscape(loc.ID.String()), loc, &saved); err != nil {
		return eventful.Location{}, err
	}
	return saved, nil
}

// DeleteLocation removes a saved location.
func (c *Client) DeleteLocation(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/locations/"+url.PathEscape(id.String()))
}

// Reminders lists the session user's reminder rules.
func (c *Client) Reminders(ctx context.Context) ([]eventful.Reminder, error) {
	var reminders []eventful.Reminder
	if err := c.get(ctx, "/reminders", &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// CreateReminder adds a reminder rule.
func (c *Client) CreateReminder(ctx context.Context, r eventful.Reminder) (eventful.Reminder, error) {
	var created eventful.Reminder
	if err := c.post(ctx, "/reminders", r, &created); err != nil {
		return eventful.Reminder{}, err
	}
	return created, nil
}

// DeleteReminder removes a reminder rule.
func (c *Client) DeleteReminder(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/reminders/"+url.PathEscape(id.String()))
}

// NotificationSettings lists the push rooms the session user has
// enabled for one reference.
func (c *Client) NotificationSettings(ctx context.Context, refModel eventful.RefModel, ref eventful.ID) ([]eventful.NotificationSetting, error) {
	path := "/notifications?refModel=" + url.QueryEscape(string(refModel)) + "&ref=" + url.QueryEscape(ref.String())
	var settings []eventful.NotificationSetting
	if err := c.get(ctx, path, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// EnableNotification turns on a push room for the session user.
func (c *Client) EnableNotification(ctx context.Context, setting eventful.NotificationSetting) error {
	return c.post(ctx, "/notifications", setting, nil)
}

// DisableNotification turns a push room off.
func (c *Client) DisableNotification(ctx context.Context, setting eventful.NotificationSetting) error {
	path := "/notifications?refModel=" + url.QueryEscape(string(setting.RefModel)) +
		"&ref=" + url.QueryEscape(setting.Ref.String()) +
		"&key=" + url.QueryEscape(setting.Key)
	return c.delete(ctx, path)
}

// Settings fetches the session user's preference document.
func (c *Client) Settings(ctx context.Context) (eventful.Settings, error) {
	var settings eventful.Settings
	if err := c.get(ctx, "/settings", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings overwrites the preference document.
func (c *Client) UpdateSettings(ctx context.Context, settings eventful.Settings) (eventful.Settings, error) {
	var updated eventful.Settings
	if err := c.put(ctx, "/settings", settings, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// SendFeedback submits free-form feedback text.
func (c *Client) SendFeedback(ctx context.Context, text string) error {
	return c.post(ctx, "/feedback", map[string]string{"text": text}, nil)
}
