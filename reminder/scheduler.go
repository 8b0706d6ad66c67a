// Package reminder computes local notification triggers from upcoming
// events and the user's configured reminder offsets, and hands them to
// a delivery collaborator.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/telemetry"
)

// Notifier is the delivery collaborator. CancelAll must be a total
// reset: scheduling after it starts from an empty set.
type Notifier interface {
	CancelAll(ctx context.Context) error
	Schedule(ctx context.Context, n eventful.LocalNotification) error
}

// LinkFunc builds the deep-link URL a trigger opens.
type LinkFunc func(event eventful.ID) string

// Scheduler recomputes the full trigger set on each run.
type Scheduler struct {
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	link     LinkFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithNow sets the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithLink sets the deep-link builder.
func WithLink(link LinkFunc) Option {
	return func(s *Scheduler) {
		s.link = link
	}
}

// New returns a Scheduler delivering through notifier.
func New(notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
		link: func(event eventful.ID) string {
			return "eventful://events/" + event.String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// trigger pairs a computed notification with its identity key.
type trigger struct {
	key string
	n   eventful.LocalNotification
}

// Run recomputes the trigger set from events and reminders and replaces
// whatever was scheduled before: cancel-all, then schedule each new
// trigger. Individual scheduling failures are logged and skipped; the
// remaining triggers still go out.
func (s *Scheduler) Run(ctx context.Context, events []eventful.Event, reminders []eventful.Reminder) (int, error) {
	started := s.now()
	defer func() {
		telemetry.RecordReminderRun(ctx, s.now().Sub(started))
	}()

	triggers := s.compute(events, reminders)

	if err := s.notifier.CancelAll(ctx); err != nil {
		return 0, fmt.Errorf("canceling scheduled notifications: %w", err)
	}

	scheduled := 0
	for _, tr := range triggers {
		if err := s.notifier.Schedule(ctx, tr.n); err != nil {
			s.logger.Warn("scheduling notification failed", "key", tr.key, "error", err)
			telemetry.RecordReminderTrigger(ctx, "failed")
			continue
		}
		telemetry.RecordReminderTrigger(ctx, "scheduled")
		scheduled++
	}

	s.logger.Debug("reminder run complete", "computed", len(triggers), "scheduled", scheduled)
	return scheduled, nil
}

// compute builds the deduplicated, future-only trigger list. The
// identity key is eventID:offsetSeconds, so two start times in one
// event that resolve to the same countdown collapse to one trigger and
// the first occurrence wins.
func (s *Scheduler) compute(events []eventful.Event, reminders []eventful.Reminder) []trigger {
	now := s.now()

	var out []trigger
	seen := make(map[string]bool)

	add := func(event eventful.Event, startPart eventful.TimePart, title, subtitle string) {
		start := startPart.Date
		for _, r := range reminders {
			if !r.Unit.Valid() {
				continue
			}

			fireAt := r.Unit.SubtractFrom(start, r.Amount)
			seconds := int64(fireAt.Sub(now) / time.Second)
			if seconds <= 0 {
				continue
			}

			key := event.ID.String() + ":" + fmt.Sprintf("%d", seconds)
			if seen[key] {
				continue
			}
			seen[key] = true

			out = append(out, trigger{
				key: key,
				n: eventful.LocalNotification{
					Identifier: key,
					Title:      title,
					Subtitle:   subtitle,
					Body:       s.body(startPart, fireAt, now),
					URL:        s.link(event.ID),
					Seconds:    seconds,
				},
			})
		}
	}

	for _, event := range events {
		// Past events produce nothing, even for plans that start later.
		if !event.Time.HasStart() || event.Time.Start.Date.Before(now) {
			continue
		}

		add(event, *event.Time.Start, event.Name, "")

		for _, plan := range event.Plans {
			if !plan.HasStart() {
				continue
			}

			title := eventful.DeriveTitle(plan)
			if title == eventful.UntitledPlan {
				title = event.Name
			}
			add(event, *plan.Time.Start, title, event.Name)
		}
	}

	return out
}

// body phrases the trigger text from the start time and the reminder's
// own offset, e.g. a one-hour reminder reads "Starts Today at 6:00 PM
// (1 hour before)" no matter how far out the event is.
func (s *Scheduler) body(start eventful.TimePart, fireAt, now time.Time) string {
	when := eventful.FormatStart(eventful.Span{Start: &start}, now)
	if when == "" {
		return ""
	}
	return fmt.Sprintf("Starts %s (%s)", when, humanize.RelTime(start.Date, fireAt, "after", "before"))
}
