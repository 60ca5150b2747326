package types

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Costs travel as JSON numbers in both the API and the jsonb columns.
	decimal.MarshalJSONWithoutQuotes = true
}

// ItineraryStatus tracks generation progress of a trip's itinerary.
type ItineraryStatus string

const (
	ItineraryStatusPending    ItineraryStatus = "pending"
	ItineraryStatusGenerating ItineraryStatus = "generating"
	ItineraryStatusComplete   ItineraryStatus = "complete"
	ItineraryStatusFailed     ItineraryStatus = "failed"
)

var itineraryTransitions = map[ItineraryStatus][]ItineraryStatus{
	ItineraryStatusPending:    {ItineraryStatusGenerating},
	ItineraryStatusGenerating: {ItineraryStatusComplete, ItineraryStatusFailed},
	ItineraryStatusComplete:   {},
	ItineraryStatusFailed:     {},
}

// IsValidTransition reports whether the generator may move a trip from s to
// next. Returning to pending is not a transition; it only happens through
// ResetForEdit.
func (s ItineraryStatus) IsValidTransition(next ItineraryStatus) bool {
	allowed, ok := itineraryTransitions[s]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether generation has finished, successfully or not.
func (s ItineraryStatus) IsTerminal() bool {
	return s == ItineraryStatusComplete || s == ItineraryStatusFailed
}

func (s ItineraryStatus) String() string {
	return string(s)
}

func (s ItineraryStatus) IsValid() bool {
	switch s {
	case ItineraryStatusPending, ItineraryStatusGenerating, ItineraryStatusComplete, ItineraryStatusFailed:
		return true
	default:
		return false
	}
}

// Traveler is one member of the group as entered when the trip was priced.
type Traveler struct {
	Name        string `json:"name" binding:"required"`
	Origin      string `json:"origin" binding:"required"`
	IsOrganizer bool   `json:"is_organizer"`
}

// TravelerCost is one row of the cost breakdown.
type TravelerCost struct {
	Name               string          `json:"name"`
	Origin             string          `json:"origin"`
	Destination        string          `json:"destination"`
	FlightCost         decimal.Decimal `json:"flight_cost"`
	AccommodationShare decimal.Decimal `json:"accommodation_share"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

// Flight is a priced option for one traveler.
type Flight struct {
	TravelerName  string          `json:"traveler_name"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	Airline       string          `json:"airline"`
	FlightNumber  string          `json:"flight_number,omitempty"`
	DepartureTime string          `json:"departure_time"`
	ArrivalTime   string          `json:"arrival_time"`
	ReturnTime    string          `json:"return_time,omitempty"`
	Stops         int             `json:"stops"`
	Price         decimal.Decimal `json:"price"`
	BookingURL    string          `json:"booking_url,omitempty"`
}

// Accommodation is the single lodging option chosen by pricing.
type Accommodation struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Address       string          `json:"address,omitempty"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Rating        float64         `json:"rating,omitempty"`
	URL           string          `json:"url,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
}

// Trip is the persisted trip record and the full snapshot pushed over the
// change feed.
type Trip struct {
	ID                string          `json:"id"`
	ShareCode         string          `json:"share_code"`
	OrganizerID       *string         `json:"organizer_id"`
	Destination       string          `json:"destination"`
	DepartureDate     time.Time       `json:"departure_date"`
	ReturnDate        time.Time       `json:"return_date"`
	AccommodationType string          `json:"accommodation_type"`
	Travelers         []Traveler      `json:"travelers"`
	Flights           []Flight        `json:"flights"`
	Accommodation     *Accommodation  `json:"accommodation"`
	CostBreakdown     []TravelerCost  `json:"cost_breakdown"`
	TotalPerPerson    decimal.Decimal `json:"total_per_person"`
	TripTotal         decimal.Decimal `json:"trip_total"`
	Itinerary         *Itinerary      `json:"itinerary"`
	ItineraryStatus   ItineraryStatus `json:"itinerary_status"`
	PaidTravelers     []string        `json:"paid_travelers"`
	LinkExpiresAt     *time.Time      `json:"link_expires_at"`
	GroupImageURL     string          `json:"group_image_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TravelerCount is the number of people costs are spread over.
func (t *Trip) TravelerCount() int {
	if len(t.Travelers) > 0 {
		return len(t.Travelers)
	}
	return len(t.CostBreakdown)
}

// IsExpired reports whether the share link has lapsed. An unset expiry never lapses.
func (t *Trip) IsExpired(now time.Time) bool {
	return t.LinkExpiresAt != nil && !now.Before(*t.LinkExpiresAt)
}

// LinkRemaining feeds the client countdown. It is zero once expired.
func (t *Trip) LinkRemaining(now time.Time) time.Duration {
	if t.LinkExpiresAt == nil {
		return 0
	}
	if d := t.LinkExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (t *Trip) IsOrganizer(userID string) bool {
	return userID != "" && t.OrganizerID != nil && *t.OrganizerID == userID
}

func (t *Trip) IsPaid(name string) bool {
	for _, p := range t.PaidTravelers {
		if p == name {
			return true
		}
	}
	return false
}

// HasTraveler reports whether name appears in the cost breakdown or traveler list.
func (t *Trip) HasTraveler(name string) bool {
	for _, c := range t.CostBreakdown {
		if c.Name == name {
			return true
		}
	}
	for _, tr := range t.Travelers {
		if tr.Name == name {
			return true
		}
	}
	return false
}

// AllPaid reports whether every traveler in the cost breakdown has paid.
func (t *Trip) AllPaid() bool {
	if len(t.CostBreakdown) == 0 {
		return false
	}
	for _, c := range t.CostBreakdown {
		if !t.IsPaid(c.Name) {
			return false
		}
	}
	return true
}

// TripDays is the inclusive number of calendar days between departure and return.
func (t *Trip) TripDays() int {
	d := int(t.ReturnDate.Sub(t.DepartureDate).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// Clone returns a deep copy so snapshots handed to subscribers can't be
// mutated through shared slices.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	if t.OrganizerID != nil {
		id := *t.OrganizerID
		c.OrganizerID = &id
	}
	if t.LinkExpiresAt != nil {
		exp := *t.LinkExpiresAt
		c.LinkExpiresAt = &exp
	}
	c.Travelers = append([]Traveler(nil), t.Travelers...)
	c.Flights = append([]Flight(nil), t.Flights...)
	c.CostBreakdown = append([]TravelerCost(nil), t.CostBreakdown...)
	c.PaidTravelers = append([]string(nil), t.PaidTravelers...)
	if t.Accommodation != nil {
		a := *t.Accommodation
		c.Accommodation = &a
	}
	c.Itinerary = t.Itinerary.Clone()
	return &c
}

// Repricing is the full set of fields rewritten by one edit-and-reprice.
// It is applied as a single atomic update.
type Repricing struct {
	Destination       string
	DepartureDate     time.Time
	ReturnDate        time.Time
	AccommodationType string
	Travelers         []Traveler
	Flights           []Flight
	Accommodation     *Accommodation
	CostBreakdown     []TravelerCost
	TotalPerPerson    decimal.Decimal
	TripTotal         decimal.Decimal
	LinkExpiresAt     time.Time
}

// TripEditRequest carries the organizer-editable inputs. Nil fields keep the
// trip's current value.
type TripEditRequest struct {
	Destination       *string    `json:"destination,omitempty"`
	DepartureDate     *time.Time `json:"departure_date,omitempty"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	AccommodationType *string    `json:"accommodation_type,omitempty"`
	Travelers         []Traveler `json:"travelers,omitempty"`
}

// TripCreateRequest starts a new trip from a pricing search.
type TripCreateRequest struct {
	Destination       string     `json:"destination" binding:"required"`
	DepartureDate     time.Time  `json:"departure_date" binding:"required"`
	ReturnDate        time.Time  `json:"return_date" binding:"required"`
	AccommodationType string     `json:"accommodation_type"`
	Travelers         []Traveler `json:"travelers" binding:"required,min=1,dive"`
}
