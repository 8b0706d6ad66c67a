// Package syncer applies inbound realtime events to the read cache.
// Events carrying a complete entity patch the cached value directly;
// events carrying only a reference invalidate so the next read
// refetches. Malformed payloads and unknown event names are dropped
// without error.
package syncer

import (
	"context"
	"encoding/json"
	"log/slog"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/cache"
	"github.com/eventful-app/eventful-go/realtime"
	"github.com/eventful-app/eventful-go/session"
	"github.com/eventful-app/eventful-go/telemetry"
)

// NotificationHandler receives server push notifications that survived
// session filtering.
type NotificationHandler func(ctx context.Context, payload eventful.NotificationPayload)

// Syncer holds the synchronization rules.
type Syncer struct {
	cache    *cache.Cache
	session  *session.Store
	logger   *slog.Logger
	onNotify NotificationHandler
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger for dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// WithNotificationHandler forwards notification events that pass the
// session filter.
func WithNotificationHandler(fn NotificationHandler) Option {
	return func(s *Syncer) {
		s.onNotify = fn
	}
}

// New returns a Syncer applying events to c on behalf of the user in
// sess.
func New(c *cache.Cache, sess *session.Store, opts ...Option) *Syncer {
	s := &Syncer{
		cache:   c,
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply runs the synchronization rule for one named event. Unknown
// names and undecodable bodies are dropped silently.
func (s *Syncer) Apply(ctx context.Context, name string, body json.RawMessage) {
	var effect string

	switch name {
	case realtime.EventPlanAdd, realtime.EventPlanEdit:
		effect = s.planUpsert(ctx, body)
	case realtime.EventPlanDelete:
		effect = s.planDelete(ctx, body)
	case realtime.EventMessageAdd:
		effect = s.messageAdd(ctx, body)
	case realtime.EventMessageEdit:
		effect = s.messageEdit(ctx, body)
	case realtime.EventMessageDelete:
		effect = s.messageDelete(ctx, body)
	case realtime.EventPingAdd:
		effect = s.pingAdd(ctx, body)
	case realtime.EventPingDelete:
		effect = s.pingDelete(ctx, body)
	case realtime.EventAccessChange:
		effect = s.accessChange(ctx, body)
	case realtime.EventNotification:
		effect = s.notification(ctx, body)
	default:
		s.logger.Debug("dropping unknown realtime event", "name", name)
		effect = "unknown"
	}

	telemetry.RecordRealtimeEvent(ctx, name, effect)
}

// Bind subscribes the syncer to every event name it handles on conn.
// Closing the returned Binding unsubscribes all of them.
func (s *Syncer) Bind(conn *realtime.Conn) *Binding {
	names := []string{
		realtime.EventPlanAdd,
		realtime.EventPlanEdit,
		realtime.EventPlanDelete,
		realtime.EventMessageAdd,
		realtime.EventMessageEdit,
		realtime.EventMessageDelete,
		realtime.EventPingAdd,
		realtime.EventPingDelete,
		realtime.EventAccessChange,
		realtime.EventNotification,
	}

	b := &Binding{}
	for _, name := range names {
		name := name
		b.subs = append(b.subs, conn.On(name, func(ctx context.Context, body json.RawMessage) {
			s.Apply(ctx, name, body)
		}))
	}
	return b
}

// Binding is a set of live subscriptions created by Bind.
type Binding struct {
	subs []*realtime.Subscription
}

// Close unsubscribes everything the binding registered.
func (b *Binding) Close() {
	for _, sub := range b.subs {
		sub.Close()
	}
}

// planUpsert removes any plan with the payload's id from the owning
// event's plan list, then inserts the new value at the front. The event
// payload is authoritative, so no refetch is needed.
func (s *Syncer) planUpsert(ctx context.Context, body json.RawMessage) string {
	var plan eventful.Plan
	if err := json.Unmarshal(body, &plan); err != nil || plan.ID.IsZero() || plan.Event.IsZero() {
		s.logger.Debug("dropping malformed plan payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.EventKey(plan.Event), func(ev eventful.Event) eventful.Event {
		plans := make([]eventful.Plan, 0, len(ev.Plans)+1)
		plans = append(plans, plan)
		for _, p := range ev.Plans {
			if p.ID != plan.ID {
				plans = append(plans, p)
			}
		}
		ev.Plans = plans
		return ev
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

func (s *Syncer) planDelete(ctx context.Context, body json.RawMessage) string {
	var plan eventful.Plan
	if err := json.Unmarshal(body, &plan); err != nil || plan.ID.IsZero() || plan.Event.IsZero() {
		s.logger.Debug("dropping malformed plan payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.EventKey(plan.Event), func(ev eventful.Event) eventful.Event {
		plans := make([]eventful.Plan, 0, len(ev.Plans))
		for _, p := range ev.Plans {
			if p.ID != plan.ID {
				plans = append(plans, p)
			}
		}
		ev.Plans = plans
		return ev
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

// messageAdd prepends, deduplicating by id: pushes can race the initial
// fetch, so a message already present in the list is left alone.
func (s *Syncer) messageAdd(ctx context.Context, body json.RawMessage) string {
	var msg eventful.Message
	if err := json.Unmarshal(body, &msg); err != nil || msg.ID.IsZero() || msg.Event.IsZero() {
		s.logger.Debug("dropping malformed message payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.MessagesKey(msg.Event), func(msgs []eventful.Message) []eventful.Message {
		for _, m := range msgs {
			if m.ID == msg.ID {
				return msgs
			}
		}
		return append([]eventful.Message{msg}, msgs...)
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

func (s *Syncer) messageEdit(ctx context.Context, body json.RawMessage) string {
	var msg eventful.Message
	if err := json.Unmarshal(body, &msg); err != nil || msg.ID.IsZero() || msg.Event.IsZero() {
		s.logger.Debug("dropping malformed message payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.MessagesKey(msg.Event), func(msgs []eventful.Message) []eventful.Message {
		out := make([]eventful.Message, len(msgs))
		for i, m := range msgs {
			if m.ID == msg.ID {
				out[i] = msg
			} else {
				out[i] = m
			}
		}
		return out
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

func (s *Syncer) messageDelete(ctx context.Context, body json.RawMessage) string {
	var msg eventful.Message
	if err := json.Unmarshal(body, &msg); err != nil || msg.ID.IsZero() || msg.Event.IsZero() {
		s.logger.Debug("dropping malformed message payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.MessagesKey(msg.Event), func(msgs []eventful.Message) []eventful.Message {
		out := make([]eventful.Message, 0, len(msgs))
		for _, m := range msgs {
			if m.ID != msg.ID {
				out = append(out, m)
			}
		}
		return out
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

// pingAdd removes any ping with the payload's id and appends the new
// value, so a re-delivered ping merges instead of duplicating.
func (s *Syncer) pingAdd(ctx context.Context, body json.RawMessage) string {
	var ping eventful.Ping
	if err := json.Unmarshal(body, &ping); err != nil || ping.ID.IsZero() {
		s.logger.Debug("dropping malformed ping payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.PingsKey(), func(pings []eventful.Ping) []eventful.Ping {
		out := make([]eventful.Ping, 0, len(pings)+1)
		for _, p := range pings {
			if p.ID != ping.ID {
				out = append(out, p)
			}
		}
		return append(out, ping)
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

func (s *Syncer) pingDelete(ctx context.Context, body json.RawMessage) string {
	var ping eventful.Ping
	if err := json.Unmarshal(body, &ping); err != nil || ping.ID.IsZero() {
		s.logger.Debug("dropping malformed ping payload", "error", err)
		return "malformed"
	}

	applied := cache.PatchValue(ctx, s.cache, cache.PingsKey(), func(pings []eventful.Ping) []eventful.Ping {
		out := make([]eventful.Ping, 0, len(pings))
		for _, p := range pings {
			if p.ID != ping.ID {
				out = append(out, p)
			}
		}
		return out
	})
	if !applied {
		return "skipped"
	}
	return "patched"
}

// accessChange invalidates rather than patches: the event carries only
// a reference, so the next read must refetch authoritative data. Acts
// only when the record's subject is the session user and its reference
// model resolves to a cached entity kind.
func (s *Syncer) accessChange(ctx context.Context, body json.RawMessage) string {
	var access eventful.Access
	if err := json.Unmarshal(body, &access); err != nil || access.User.IsZero() || access.Ref.IsZero() {
		s.logger.Debug("dropping malformed access payload", "error", err)
		return "malformed"
	}

	userID := s.session.UserID()
	if userID.IsZero() || access.User != userID {
		return "ignored"
	}

	kind, ok := access.RefModel.EntityKind()
	if !ok {
		s.logger.Debug("ignoring access change for unresolved reference model", "refModel", access.RefModel)
		return "ignored"
	}

	s.cache.Invalidate(ctx,
		cache.Key{Kind: kind, Ref: access.Ref},
		cache.Key{Kind: string(access.RefModel)},
		cache.AccessesKey(),
	)
	return "invalidated"
}

// notification forwards a push to the notification handler unless the
// session user caused it themselves.
func (s *Syncer) notification(ctx context.Context, body json.RawMessage) string {
	var payload eventful.NotificationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Debug("dropping malformed notification payload", "error", err)
		return "malformed"
	}

	if by := payload.Data.CreatedBy; !by.IsZero() && by == s.session.UserID() {
		return "ignored"
	}
	if s.onNotify == nil {
		return "ignored"
	}

	s.onNotify(ctx, payload)
	return "delivered"
}
