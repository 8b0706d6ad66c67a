package eventful

import "fmt"

// RefModel tags which entity collection a reference id addresses.
type RefModel string

const (
	RefEvents RefModel = "events"
	RefTags   RefModel = "tags"
	RefUsers  RefModel = "users"
	RefPlans  RefModel = "plans"
	RefPings  RefModel = "pings"
)

// ParseRefModel parses a reference-model tag.
func ParseRefModel(s string) (RefModel, error) {
	switch RefModel(s) {
	case RefEvents, RefTags, RefUsers, RefPlans, RefPings:
		return RefModel(s), nil
	default:
		return "", fmt.Errorf("unknown ref model %q", s)
	}
}

func (m RefModel) String() string {
	return string(m)
}

// EntityKind resolves the singular cache kind an access change against this
// ref model invalidates. Only events and tags resolve; access changes on
// other collections carry no cached detail entry and are ignored by the
// synchronizer.
func (m RefModel) EntityKind() (string, bool) {
	switch m {
	case RefEvents:
		return "event", true
	case RefTags:
		return "tag", true
	default:
		return "", false
	}
}
