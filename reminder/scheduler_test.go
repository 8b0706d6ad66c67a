package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	eventful "github.com/eventful-app/eventful-go"
)

type fakeNotifier struct {
	cancels    int
	cancelErr  error
	scheduled  []eventful.LocalNotification
	failTitles map[string]bool
}

func (f *fakeNotifier) CancelAll(ctx context.Context) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels++
	f.scheduled = nil
	return nil
}

func (f *fakeNotifier) Schedule(ctx context.Context, n eventful.LocalNotification) error {
	if f.failTitles[n.Title] {
		return errors.New("delivery unavailable")
	}
	f.scheduled = append(f.scheduled, n)
	return nil
}

var testNow = time.Date(2024, 5, 15, 16, 0, 0, 0, time.UTC)

func newTestScheduler(n *fakeNotifier) *Scheduler {
	return New(n, WithNow(func() time.Time { return testNow }))
}

func startingIn(d time.Duration) eventful.Span {
	return eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(d)}}
}

func hourReminder() []eventful.Reminder {
	return []eventful.Reminder{{ID: "r1", Amount: 1, Unit: eventful.UnitHour}}
}

func TestEventWithoutPlanStartStillTriggers(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	// The event starts in two hours; its only plan has no start time of
	// its own. A one hour reminder still fires off the event start.
	events := []eventful.Event{{
		ID:    "e1",
		Name:  "Camping",
		Time:  startingIn(2 * time.Hour),
		Plans: []eventful.Plan{{ID: "p1", Event: "e1", What: "pack"}},
	}}

	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Equal(t, 1, scheduled)
	require.Len(t, n.scheduled, 1)

	got := n.scheduled[0]
	require.Equal(t, int64(3600), got.Seconds)
	require.Equal(t, "e1:3600", got.Identifier)
	require.Equal(t, "Camping", got.Title)
	require.Equal(t, "eventful://events/e1", got.URL)
	require.Contains(t, got.Body, "1 hour before")
}

func TestBodyPhrasesReminderOffsetNotCountdown(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	// A one hour reminder for an event two hours out fires in one hour,
	// but the text describes the reminder offset, not the wait.
	events := []eventful.Event{{ID: "e1", Name: "Camping", Time: startingIn(2 * time.Hour)}}

	_, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Len(t, n.scheduled, 1)
	require.Equal(t, "Starts Today at 6:00 PM (1 hour before)", n.scheduled[0].Body)

	// A two day reminder keeps its own offset in the text as well.
	events = []eventful.Event{{ID: "e2", Name: "Festival", Time: startingIn(72 * time.Hour)}}
	reminders := []eventful.Reminder{{ID: "r1", Amount: 2, Unit: eventful.UnitDay}}

	_, err = s.Run(context.Background(), events, reminders)
	require.NoError(t, err)
	require.Len(t, n.scheduled, 1)
	require.Contains(t, n.scheduled[0].Body, "2 days before")
	require.NotContains(t, n.scheduled[0].Body, "3 days")
}

func TestRunIsIdempotent(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	events := []eventful.Event{{
		ID:   "e1",
		Name: "Camping",
		Time: startingIn(2 * time.Hour),
		Plans: []eventful.Plan{
			{ID: "p1", Event: "e1", What: "hike", Time: &eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(3 * time.Hour)}}},
		},
	}}

	_, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	first := make([]string, 0, len(n.scheduled))
	for _, tr := range n.scheduled {
		first = append(first, tr.Identifier)
	}

	_, err = s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	second := make([]string, 0, len(n.scheduled))
	for _, tr := range n.scheduled {
		second = append(second, tr.Identifier)
	}

	require.Equal(t, first, second)
	require.Equal(t, 2, n.cancels)
}

func TestPastEventsProduceNothing(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	events := []eventful.Event{
		{ID: "e1", Name: "Done", Time: startingIn(-time.Hour)},
		{ID: "e2", Name: "No start"},
		{
			ID:   "e3",
			Name: "Past event, future plan",
			Time: startingIn(-time.Hour),
			Plans: []eventful.Plan{
				{ID: "p1", Event: "e3", Time: &eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(5 * time.Hour)}}},
			},
		},
	}

	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Zero(t, scheduled)
	require.Empty(t, n.scheduled)
	require.Equal(t, 1, n.cancels)
}

func TestNonPositiveCountdownDropped(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	events := []eventful.Event{{ID: "e1", Name: "Soon", Time: startingIn(30 * time.Minute)}}

	// An hour before a start 30 minutes away is already past.
	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Zero(t, scheduled)
}

func TestSameCountdownCollapsesAcrossPlans(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	planStart := &eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(4 * time.Hour)}}
	events := []eventful.Event{{
		ID:   "e1",
		Name: "Festival",
		Time: startingIn(2 * time.Hour),
		Plans: []eventful.Plan{
			{ID: "p1", Event: "e1", What: "stage one", Time: planStart},
			{ID: "p2", Event: "e1", What: "stage two", Time: planStart},
		},
	}}

	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)

	// One trigger for the event start, one shared by the two plans that
	// resolve to the same countdown. First occurrence wins.
	require.Equal(t, 2, scheduled)
	require.Equal(t, "Festival", n.scheduled[0].Title)
	require.Equal(t, "stage one", n.scheduled[1].Title)
	require.Equal(t, "Festival", n.scheduled[1].Subtitle)
}

func TestPerTriggerFailureIsolation(t *testing.T) {
	n := &fakeNotifier{failTitles: map[string]bool{"Broken": true}}
	s := newTestScheduler(n)

	events := []eventful.Event{
		{ID: "e1", Name: "Broken", Time: startingIn(2 * time.Hour)},
		{ID: "e2", Name: "Fine", Time: startingIn(3 * time.Hour)},
	}

	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Equal(t, 1, scheduled)
	require.Equal(t, "Fine", n.scheduled[0].Title)
}

func TestCancelAllFailureAborts(t *testing.T) {
	n := &fakeNotifier{cancelErr: errors.New("delivery gone")}
	s := newTestScheduler(n)

	events := []eventful.Event{{ID: "e1", Name: "Camping", Time: startingIn(2 * time.Hour)}}

	_, err := s.Run(context.Background(), events, hourReminder())
	require.Error(t, err)
	require.Empty(t, n.scheduled)
}

func TestPlanTitleDerivation(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	carpoolStart := &eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(3 * time.Hour)}}
	untitledStart := &eventful.Span{Start: &eventful.TimePart{Date: testNow.Add(4 * time.Hour)}}
	events := []eventful.Event{{
		ID:   "e1",
		Name: "Camping",
		Time: startingIn(2 * time.Hour),
		Plans: []eventful.Plan{
			{ID: "p1", Event: "e1", Category: eventful.CategoryCarpool, What: "Ada", Time: carpoolStart},
			{ID: "p2", Event: "e1", Time: untitledStart},
		},
	}}

	scheduled, err := s.Run(context.Background(), events, hourReminder())
	require.NoError(t, err)
	require.Equal(t, 3, scheduled)

	titles := make(map[string]bool)
	for _, tr := range n.scheduled {
		titles[tr.Title] = true
	}
	require.True(t, titles["Ada carpool"])
	// A plan with no derivable title falls back to the event name.
	require.Equal(t, "Camping", n.scheduled[2].Title)
}

func TestInvalidUnitSkipped(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(n)

	events := []eventful.Event{{ID: "e1", Name: "Camping", Time: startingIn(2 * time.Hour)}}
	reminders := []eventful.Reminder{
		{ID: "r1", Amount: 1, Unit: "fortnight"},
		{ID: "r2", Amount: 30, Unit: eventful.UnitMinute},
	}

	scheduled, err := s.Run(context.Background(), events, reminders)
	require.NoError(t, err)
	require.Equal(t, 1, scheduled)
	require.Equal(t, int64(5400), n.scheduled[0].Seconds)
}
