package api

import (
	"context"
	"net/url"

	eventful "github.com/eventful-app/eventful-go"
)

// Messages lists an event's messages, newest first.
func (c *Client) Messages(ctx context.Context, event eventful.ID) ([]eventful.Message, error) {
	var msgs []eventful.Message
	if err := c.get(ctx, "/events/"+url.PathEscape(event.String())+"/messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a message to an event.
func (c *Client) SendMessage(ctx context.Context, msg eventful.Message) (eventful.Message, error) {
	var created eventful.Message
	path := "/events/" + url.PathEscape(msg.Event.String()) + "/messages"
	if err := c.post(ctx, path, msg, &created); err != nil {
		return eventful.Message{}, err
	}
	return created, nil
}

// UpdateMessage edits a message's text.
func (c *Client) UpdateMessage(ctx context.Context, msg eventful.Message) (eventful.Message, error) {
	var updated eventful.Message
	if err := c.put(ctx, "/messages/"+url.PathEscape(msg.ID.String()), msg, &updated); err != nil {
		return eventful.Message{}, err
	}
	return updated, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/messages/"+url.PathEscape(id.String()))
}

// Pings lists the session user's visible location pings.
func (c *Client) Pings(ctx context.Context) ([]eventful.Ping, error) {
	var pings []eventful.Ping
	if err := c.get(ctx, "/pings", &pings); err != nil {
		return nil, err
	}
	return pings, nil
}

// AddPing broadcasts a location ping.
func (c *Client) AddPing(ctx context.Context, ping eventful.Ping) (eventful.Ping, error) {
	var created eventful.Ping
	if err := c.post(ctx, "/pings", ping, &created); err != nil {
		return eventful.Ping{}, err
	}
	return created, nil
}

// DeletePing withdraws a ping.
func (c *Client) DeletePing(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/pings/"+url.PathEscape(id.String()))
}
