// Package eventful defines the entity types shared by the Eventful client SDK:
// events and their plans, messages, pings, tags, users, access records,
// reminders and notification settings. The shapes mirror the documents the
// Eventful API serves; fields the client never reads are omitted.
package eventful

import (
	"time"

	"github.com/google/uuid"
)

// ID identifies an entity. IDs are issued by the server; NewID exists for
// locally generated identifiers such as notification trigger ids.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsZero returns true if the ID is empty.
func (id ID) IsZero() bool {
	return id == ""
}

func (id ID) String() string {
	return string(id)
}

// TimePart is one endpoint of a Span. Allday marks a date without a
// meaningful time of day.
type TimePart struct {
	Date   time.Time `json:"date"`
	Allday bool      `json:"allday,omitempty"`
}

// Span is an optional start/end window on an event or plan. Either endpoint
// may be absent.
type Span struct {
	Start *TimePart `json:"start,omitempty"`
	End   *TimePart `json:"end,omitempty"`
}

// HasStart returns true if the span has a start time.
func (s Span) HasStart() bool {
	return s.Start != nil && !s.Start.Date.IsZero()
}

// User is a registered account.
type User struct {
	ID       ID     `json:"_id"`
	Username string `json:"username"`
}

// Event is the top-level planning unit. Plans are embedded the way the API
// returns them from the event detail endpoint.
type Event struct {
	ID        ID     `json:"_id"`
	Name      string `json:"name"`
	Time      Span   `json:"time"`
	Plans     []Plan `json:"plans"`
	CreatedBy ID     `json:"createdBy,omitempty"`
}

// Location is a named place attached to plans and pings.
type Location struct {
	ID      ID     `json:"_id,omitempty"`
	Label   string `json:"label,omitempty"`
	Address string `json:"address,omitempty"`
}

// Plan is a single agenda item within an event.
type Plan struct {
	ID       ID        `json:"_id"`
	Event    ID        `json:"event"`
	Category Category  `json:"category"`
	What     string    `json:"what,omitempty"`
	Location *Location `json:"location,omitempty"`
	Time     *Span     `json:"time,omitempty"`
	Who      []ID      `json:"who,omitempty"`
}

// HasStart returns true if the plan carries its own start time.
func (p Plan) HasStart() bool {
	return p.Time != nil && p.Time.HasStart()
}

// Message is a chat message within an event.
type Message struct {
	ID        ID        `json:"_id"`
	Event     ID        `json:"event"`
	Text      string    `json:"text"`
	ReplyTo   ID        `json:"replyTo,omitempty"`
	CreatedBy ID        `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ping is a shared location broadcast.
type Ping struct {
	ID        ID        `json:"_id"`
	Label     string    `json:"label,omitempty"`
	Location  *Location `json:"location,omitempty"`
	CreatedBy ID        `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tag groups events under a shared label.
type Tag struct {
	ID        ID     `json:"_id"`
	Name      string `json:"name"`
	CreatedBy ID     `json:"createdBy,omitempty"`
}

// Access is a permission grant: User holds Role on the entity RefModel/Ref
// addresses.
type Access struct {
	User     ID       `json:"user"`
	Ref      ID       `json:"ref"`
	RefModel RefModel `json:"refModel"`
	Role     string   `json:"role,omitempty"`
}

// ReminderUnit is the unit of a reminder offset.
type ReminderUnit string

const (
	UnitMinute ReminderUnit = "m"
	UnitHour   ReminderUnit = "h"
	UnitDay    ReminderUnit = "d"
	UnitWeek   ReminderUnit = "w"
	UnitMonth  ReminderUnit = "M"
)

// Label returns the human-readable unit name.
func (u ReminderUnit) Label() string {
	switch u {
	case UnitMinute:
		return "minute"
	case UnitHour:
		return "hour"
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	default:
		return string(u)
	}
}

// SubtractFrom returns t minus amount units. Day, week and month offsets use
// calendar arithmetic so that e.g. one month before March 31st lands in
// February rather than a fixed number of hours earlier.
func (u ReminderUnit) SubtractFrom(t time.Time, amount int) time.Time {
	switch u {
	case UnitMinute:
		return t.Add(-time.Duration(amount) * time.Minute)
	case UnitHour:
		return t.Add(-time.Duration(amount) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, -amount)
	case UnitWeek:
		return t.AddDate(0, 0, -7*amount)
	case UnitMonth:
		return t.AddDate(0, -amount, 0)
	default:
		return t
	}
}

// Valid reports whether the unit is one of the recognised reminder units.
func (u ReminderUnit) Valid() bool {
	switch u {
	case UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

// Reminder is a user-configured offset before a start time that should
// produce a local notification.
type Reminder struct {
	ID        ID           `json:"_id"`
	Amount    int          `json:"amount"`
	Unit      ReminderUnit `json:"unit"`
	CreatedBy ID           `json:"createdBy,omitempty"`
}

// Settings is the user's preference document. Keys are feature-scoped
// and opaque to this layer.
type Settings map[string]any

// NotificationSetting enables server pushes for one (refModel, ref, key)
// room.
type NotificationSetting struct {
	Key       string   `json:"key"`
	Ref       ID       `json:"ref"`
	RefModel  RefModel `json:"refModel"`
	CreatedBy ID       `json:"createdBy,omitempty"`
}

// NotificationPayload is the body of a server "notification" push event.
type NotificationPayload struct {
	Notification *NotificationContent `json:"notification,omitempty"`
	Data         NotificationData     `json:"data"`
}

// NotificationContent is the displayable part of a push notification.
type NotificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// NotificationData carries routing metadata alongside a push notification.
type NotificationData struct {
	CreatedBy ID     `json:"createdBy,omitempty"`
	URL       string `json:"url,omitempty"`
}

// LocalNotification is a locally scheduled notification trigger. Seconds is
// the countdown from now to the fire time and must be strictly positive for
// the trigger to be schedulable.
type LocalNotification struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Body       string `json:"body,omitempty"`
	URL        string `json:"url,omitempty"`
	Seconds    int64  `json:"seconds"`
}
