package pexels

import (
	"strings"

	"github.com/NomadCrew/tripsync-backend/types"
)

// BuildSearchQuery turns a trip destination such as "Lisbon, Portugal" into a
// photo search. The city is preferred; the full destination is the fallback.
func BuildSearchQuery(trip *types.Trip) string {
	dest := strings.TrimSpace(trip.Destination)
	if dest == "" {
		return ""
	}
	city, _, _ := strings.Cut(dest, ",")
	city = strings.TrimSpace(city)
	if city == "" {
		city = dest
	}
	return city + " skyline travel"
}
