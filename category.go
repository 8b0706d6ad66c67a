package eventful

import "strings"

// Category classifies a plan.
type Category int

const (
	CategoryNone Category = iota
	CategoryLodging
	CategoryCarpool
	CategoryMeet
)

// Label returns the display label for the category.
func (c Category) Label() string {
	switch c {
	case CategoryLodging:
		return "Lodging"
	case CategoryCarpool:
		return "Carpool"
	case CategoryMeet:
		return "Location"
	default:
		return "Empty"
	}
}

// UntitledPlan is the title used when no better title can be derived.
const UntitledPlan = "Untitled plan"

// DeriveTitle derives a display title for a plan:
// carpool plans read "{driver} carpool", lodging and meet plans use the
// location label or address, anything else falls back to the plan name and
// finally to UntitledPlan.
func DeriveTitle(p Plan) string {
	switch p.Category {
	case CategoryCarpool:
		return strings.TrimSpace(p.What) + " carpool"
	case CategoryLodging, CategoryMeet:
		if p.Location != nil {
			if p.Location.Label != "" {
				return p.Location.Label
			}
			if p.Location.Address != "" {
				return p.Location.Address
			}
		}
	}
	if what := strings.TrimSpace(p.What); what != "" {
		return what
	}
	return UntitledPlan
}
