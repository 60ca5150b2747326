package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrConflict indicates a uniqueness clash, such as a reused share code.
	ErrConflict = errors.New("conflict")

	// ErrNoItinerary is returned when an itinerary edit targets a trip that
	// has no complete itinerary.
	ErrNoItinerary = errors.New("trip has no itinerary")
)
