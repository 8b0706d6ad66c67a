package realtime

import (
	"sync"

	eventful "github.com/eventful-app/eventful-go"
)

type eventRoomBody struct {
	Event eventful.ID `json:"event"`
	User  eventful.ID `json:"user"`
}

type userRoomBody struct {
	User eventful.ID `json:"user"`
}

type tagRoomBody struct {
	Tag eventful.ID `json:"tag"`
}

type settingRoomBody struct {
	RefModel eventful.RefModel `json:"refModel"`
	Ref      eventful.ID       `json:"ref"`
	Key      string            `json:"key"`
}

// Room is a joined server-side room. Leave must be called on the same
// teardown path that issued the join, or the membership leaks on the
// server until the connection drops.
type Room struct {
	leave func() error
	once  sync.Once
}

// Leave exits the room. Safe to call more than once; only the first
// call emits the leave event.
func (r *Room) Leave() error {
	var err error
	r.once.Do(func() {
		err = r.leave()
	})
	return err
}

// JoinEvent joins the per-event room that carries plan, message and
// ping events for one event.
func (c *Conn) JoinEvent(event, user eventful.ID) (*Room, error) {
	body := eventRoomBody{Event: event, User: user}
	if err := c.Emit(EventEventJoin, body); err != nil {
		return nil, err
	}
	return &Room{leave: func() error {
		return c.Emit(EventEventLeave, body)
	}}, nil
}

// JoinUser joins the per-user room that carries access changes and
// notifications addressed to the session user.
func (c *Conn) JoinUser(user eventful.ID) (*Room, error) {
	body := userRoomBody{User: user}
	if err := c.Emit(EventUserJoin, body); err != nil {
		return nil, err
	}
	return &Room{leave: func() error {
		return c.Emit(EventUserLeave, body)
	}}, nil
}

// JoinTag joins the per-tag room.
func (c *Conn) JoinTag(tag eventful.ID) (*Room, error) {
	body := tagRoomBody{Tag: tag}
	if err := c.Emit(EventTagJoin, body); err != nil {
		return nil, err
	}
	return &Room{leave: func() error {
		return c.Emit(EventTagLeave, body)
	}}, nil
}

// JoinRoom joins a setting-scoped room addressed by reference model,
// reference id and setting key.
func (c *Conn) JoinRoom(refModel eventful.RefModel, ref eventful.ID, key string) (*Room, error) {
	body := settingRoomBody{RefModel: refModel, Ref: ref, Key: key}
	if err := c.Emit(EventRoomJoin, body); err != nil {
		return nil, err
	}
	return &Room{leave: func() error {
		return c.Emit(EventRoomLeave, body)
	}}, nil
}
