package api

import (
	"context"
	"net/url"

	eventful "github.com/eventful-app/eventful-go"
)

// Events lists the events visible to the session user. Plans are not
// populated; fetch the event detail for those.
func (c *Client) Events(ctx context.Context) ([]eventful.Event, error) {
	var events []eventful.Event
	if err := c.get(ctx, "/events", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Event fetches one event with its plans embedded.
func (c *Client) Event(ctx context.Context, id eventful.ID) (eventful.Event, error) {
	var event eventful.Event
	if err := c.get(ctx, "/events/"+url.PathEscape(id.String()), &event); err != nil {
		return eventful.Event{}, err
	}
	return event, nil
}

// CreateEvent creates an event and returns it with its server-issued id.
func (c *Client) CreateEvent(ctx context.Context, event eventful.Event) (eventful.Event, error) {
	var created eventful.Event
	if err := c.post(ctx, "/events", event, &created); err != nil {
		return eventful.Event{}, err
	}
	return created, nil
}

// UpdateEvent overwrites an event's own fields. Plans are managed
// through the plan endpoints.
func (c *Client) UpdateEvent(ctx context.Context, event eventful.Event) (eventful.Event, error) {
	var updated eventful.Event
	if err := c.put(ctx, "/events/"+url.PathEscape(event.ID.String()), event, &updated); err != nil {
		return eventful.Event{}, err
	}
	return updated, nil
}

// DeleteEvent removes an event and everything nested under it.
func (c *Client) DeleteEvent(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/events/"+url.PathEscape(id.String()))
}

// AddPlan appends a plan to an event.
func (c *Client) AddPlan(ctx context.Context, plan eventful.Plan) (eventful.Plan, error) {
	var created eventful.Plan
	path := "/events/" + url.PathEscape(plan.Event.String()) + "/plans"
	if err := c.post(ctx, path, plan, &created); err != nil {
		return eventful.Plan{}, err
	}
	return created, nil
}

// UpdatePlan overwrites a plan.
func (c *Client) UpdatePlan(ctx context.Context, plan eventful.Plan) (eventful.Plan, error) {
	var updated eventful.Plan
	if err := c.put(ctx, "/plans/"+url.PathEscape(plan.ID.String()), plan, &updated); err != nil {
		return eventful.Plan{}, err
	}
	return updated, nil
}

// DeletePlan removes a plan.
func (c *Client) DeletePlan(ctx context.Context, id eventful.ID) error {
	return c.delete(ctx, "/plans/"+url.PathEscape(id.String()))
}
