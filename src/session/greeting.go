package session

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/atulbakery/ishan-assistant/src/persona"
)

// DefaultTimezone is the shop's local zone, used for the time-of-day welcome.
const DefaultTimezone = "Asia/Kolkata"

// TimeOfDay returns the salutation for the hour at t.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good Morning ☀️"
	case h < 17:
		return "Good Afternoon 🌤️"
	default:
		return "Good Evening 🌙"
	}
}

// Welcome is the first message of a new session.
func Welcome(p persona.Persona, now time.Time) string {
	shop := p.ShopName
	if shop == "" {
		shop = p.Name
	}
	return fmt.Sprintf("%s! 🙏 Welcome to **%s**.\nI am **%s**.\n\nBefore we begin, may I know your Good Name & Mobile Number please?",
		TimeOfDay(now), shop, p.Name)
}

// SwitchedTo is the only message left after changing persona.
func SwitchedTo(p persona.Persona) string {
	return fmt.Sprintf("Assistant switched to %s.", p.Name)
}

// LoadLocation resolves a timezone name, falling back to the shop default and then UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
