package cache

import eventful "github.com/eventful-app/eventful-go"

// Cache kinds. A key is (kind, optional ref); singular kinds address one
// entity by ref, plural kinds address a list.
const (
	KindEvents        = "events"
	KindEvent         = "event"
	KindPlan          = "plan"
	KindMessages      = "messages"
	KindPings         = "ping"
	KindTags          = "tags"
	KindTag           = "tag"
	KindAccesses      = "accesses"
	KindContacts      = "contacts"
	KindSettings      = "settings"
	KindLocations     = "locations"
	KindReminders     = "reminders"
	KindNotifications = "notifications"
	KindUser          = "user"
)

// Key addresses one cached value.
type Key struct {
	Kind string
	Ref  eventful.ID
}

// String returns "kind" or "kind/ref".
func (k Key) String() string {
	if k.Ref.IsZero() {
		return k.Kind
	}
	return k.Kind + "/" + k.Ref.String()
}

// EventsKey addresses the upcoming-events list.
func EventsKey() Key { return Key{Kind: KindEvents} }

// EventKey addresses one event's detail (including its plan list).
func EventKey(id eventful.ID) Key { return Key{Kind: KindEvent, Ref: id} }

// PlanKey addresses one plan's detail.
func PlanKey(id eventful.ID) Key { return Key{Kind: KindPlan, Ref: id} }

// MessagesKey addresses an event's message list.
func MessagesKey(event eventful.ID) Key { return Key{Kind: KindMessages, Ref: event} }

// PingsKey addresses the global ping list.
func PingsKey() Key { return Key{Kind: KindPings} }

// TagsKey addresses the current user's tag list.
func TagsKey() Key { return Key{Kind: KindTags} }

// TagKey addresses one tag's detail.
func TagKey(id eventful.ID) Key { return Key{Kind: KindTag, Ref: id} }

// AccessesKey addresses the current user's access list.
func AccessesKey() Key { return Key{Kind: KindAccesses} }

// ContactsKey addresses a user's contact list.
func ContactsKey(user eventful.ID) Key { return Key{Kind: KindContacts, Ref: user} }

// SettingsKey addresses the current user's settings.
func SettingsKey() Key { return Key{Kind: KindSettings} }

// LocationsKey addresses the saved-locations list.
func LocationsKey() Key { return Key{Kind: KindLocations} }

// RemindersKey addresses the current user's reminder rules.
func RemindersKey() Key { return Key{Kind: KindReminders} }

// NotificationsKey addresses the notification-setting list.
func NotificationsKey() Key { return Key{Kind: KindNotifications} }

// UserKey addresses one user profile.
func UserKey(id eventful.ID) Key { return Key{Kind: KindUser, Ref: id} }
