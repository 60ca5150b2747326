package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/jackc/pgx/v5"
)

const tripColumns = `id, share_code, organizer_id, destination, departure_date, return_date,
	accommodation_type, travelers, flights, accommodation, cost_breakdown,
	total_per_person, trip_total, itinerary, itinerary_status, paid_travelers,
	link_expires_at, group_image_url, created_at, updated_at`

type TripStore struct {
	db DBTX
}

var _ store.TripStore = (*TripStore)(nil)

func NewTripStore(db DBTX) *TripStore {
	return &TripStore{db: db}
}

func (s *TripStore) CreateTrip(ctx context.Context, trip *types.Trip) error {
	log := logger.GetLogger()

	travelers, flights, accommodation, breakdown, err := encodePricing(trip.Travelers, trip.Flights, trip.Accommodation, trip.CostBreakdown)
	if err != nil {
		return err
	}
	paid := trip.PaidTravelers
	if paid == nil {
		paid = []string{}
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO trips (
			share_code, organizer_id, destination, departure_date, return_date,
			accommodation_type, travelers, flights, accommodation, cost_breakdown,
			total_per_person, trip_total, itinerary_status, paid_travelers, link_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		trip.ShareCode,
		trip.OrganizerID,
		trip.Destination,
		trip.DepartureDate,
		trip.ReturnDate,
		trip.AccommodationType,
		travelers,
		flights,
		accommodation,
		breakdown,
		trip.TotalPerPerson,
		trip.TripTotal,
		string(trip.ItineraryStatus),
		paid,
		trip.LinkExpiresAt,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("share code %s: %w", trip.ShareCode, store.ErrConflict)
		}
		log.Errorw("Failed to insert trip", "destination", trip.Destination, "error", err)
		return apperrors.NewDatabaseError(err)
	}

	log.Infow("Created trip", "tripID", trip.ID, "shareCode", trip.ShareCode)
	return nil
}

func (s *TripStore) GetTrip(ctx context.Context, id string) (*types.Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.TripNotFound(id)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return trip, nil
}

func (s *TripStore) GetTripByShareCode(ctx context.Context, code string) (*types.Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE share_code = $1`, code)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.TripNotFound(code)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return trip, nil
}

func (s *TripStore) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trips WHERE share_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewDatabaseError(err)
	}
	return exists, nil
}

func (s *TripStore) ApplyReprice(ctx context.Context, id string, r types.Repricing) (*types.Trip, error) {
	travelers, flights, accommodation, breakdown, err := encodePricing(r.Travelers, r.Flights, r.Accommodation, r.CostBreakdown)
	if err != nil {
		return nil, err
	}

	var trip *types.Trip
	err = WithTx(ctx, s.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE trips SET
				destination = $2,
				departure_date = $3,
				return_date = $4,
				accommodation_type = $5,
				travelers = $6,
				flights = $7,
				accommodation = $8,
				cost_breakdown = $9,
				total_per_person = $10,
				trip_total = $11,
				itinerary = NULL,
				itinerary_status = 'pending',
				generation_id = NULL,
				link_expires_at = $12
			WHERE id = $1
			RETURNING `+tripColumns,
			id,
			r.Destination,
			r.DepartureDate,
			r.ReturnDate,
			r.AccommodationType,
			travelers,
			flights,
			accommodation,
			breakdown,
			r.TotalPerPerson,
			r.TripTotal,
			r.LinkExpiresAt,
		)
		t, err := scanTrip(row)
		if err != nil {
			return err
		}
		trip = t

		// The old activities are gone, so their reactions go with them.
		_, err = tx.Exec(ctx, `DELETE FROM activity_reactions WHERE trip_id = $1`, id)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.TripNotFound(id)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return trip, nil
}

func (s *TripStore) BeginGeneration(ctx context.Context, id, runID string) (bool, error) {
	return s.stepGeneration(ctx, id, runID, types.ItineraryStatusPending, types.ItineraryStatusGenerating,
		`UPDATE trips SET itinerary_status = 'generating', generation_id = $2
		WHERE id = $1 AND itinerary_status = 'pending'`,
		id, runID)
}

func (s *TripStore) CompleteItinerary(ctx context.Context, id, runID string, itin *types.Itinerary) (bool, error) {
	payload, err := json.Marshal(itin)
	if err != nil {
		return false, fmt.Errorf("encode itinerary: %w", err)
	}
	return s.stepGeneration(ctx, id, runID, types.ItineraryStatusGenerating, types.ItineraryStatusComplete,
		`UPDATE trips SET itinerary = $3, itinerary_status = 'complete'
		WHERE id = $1 AND itinerary_status = 'generating' AND generation_id = $2`,
		id, runID, payload)
}

func (s *TripStore) FailGeneration(ctx context.Context, id, runID string) (bool, error) {
	return s.stepGeneration(ctx, id, runID, types.ItineraryStatusGenerating, types.ItineraryStatusFailed,
		`UPDATE trips SET itinerary_status = 'failed'
		WHERE id = $1 AND itinerary_status = 'generating' AND generation_id = $2`,
		id, runID)
}

// stepGeneration runs one conditional status write for the run holding runID.
func (s *TripStore) stepGeneration(ctx context.Context, id, runID string, from, to types.ItineraryStatus, query string, args ...interface{}) (bool, error) {
	if !from.IsValidTransition(to) {
		return false, apperrors.InvalidStatusTransition(from.String(), to.String())
	}
	if runID == "" {
		return false, apperrors.ValidationFailed("generation run", "run id is required")
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewDatabaseError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *TripStore) AppendPaidTraveler(ctx context.Context, id, name string, now time.Time) (*types.Trip, bool, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE trips SET paid_travelers = array_append(paid_travelers, $2::text)
		WHERE id = $1
		  AND NOT ($2::text = ANY(paid_travelers))
		  AND (link_expires_at IS NULL OR link_expires_at > $3)
		RETURNING `+tripColumns,
		id, name, now)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewDatabaseError(err)
	}
	return trip, true, nil
}

func (s *TripStore) ClaimTrip(ctx context.Context, id, organizerID string, expiresAt time.Time) (*types.Trip, bool, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE trips SET organizer_id = $2, link_expires_at = $3
		WHERE id = $1 AND organizer_id IS NULL
		RETURNING `+tripColumns,
		id, organizerID, expiresAt)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewDatabaseError(err)
	}
	return trip, true, nil
}

func (s *TripStore) UpdateItinerary(ctx context.Context, id string, itin *types.Itinerary, shift store.ReactionShift) (*types.Trip, error) {
	payload, err := json.Marshal(itin)
	if err != nil {
		return nil, fmt.Errorf("encode itinerary: %w", err)
	}

	var trip *types.Trip
	err = WithTx(ctx, s.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE trips SET itinerary = $2
			WHERE id = $1 AND itinerary_status = 'complete'
			RETURNING `+tripColumns,
			id, payload)
		t, err := scanTrip(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrNoItinerary
			}
			return err
		}
		trip = t
		return shiftReactions(ctx, tx, id, shift)
	})
	if err != nil {
		if errors.Is(err, store.ErrNoItinerary) {
			return nil, store.ErrNoItinerary
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return trip, nil
}

// shiftReactions moves reaction rows so they keep pointing at the same
// activity after an insert or removal. Indexes pass through negative values so
// the primary key never sees two rows at one position mid-statement.
func shiftReactions(ctx context.Context, tx pgx.Tx, tripID string, shift store.ReactionShift) error {
	if shift.Delta == 0 {
		return nil
	}
	if shift.Delta < 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM activity_reactions WHERE trip_id = $1 AND day_number = $2 AND activity_index = $3`,
			tripID, shift.Day, shift.From); err != nil {
			return fmt.Errorf("delete removed activity reactions: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE activity_reactions SET activity_index = -(activity_index + $4) - 1
		WHERE trip_id = $1 AND day_number = $2 AND activity_index >= $3`,
		tripID, shift.Day, shift.From, shift.Delta); err != nil {
		return fmt.Errorf("stage reaction shift: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE activity_reactions SET activity_index = -activity_index - 1
		WHERE trip_id = $1 AND day_number = $2 AND activity_index < 0`,
		tripID, shift.Day); err != nil {
		return fmt.Errorf("apply reaction shift: %w", err)
	}
	return nil
}

func (s *TripStore) SetGroupImage(ctx context.Context, id, url string) error {
	tag, err := s.db.Exec(ctx, `UPDATE trips SET group_image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.TripNotFound(id)
	}
	return nil
}

func scanTrip(row pgx.Row) (*types.Trip, error) {
	var (
		t                                                  types.Trip
		status                                             string
		travelers, flights, accommodation, breakdown, itin []byte
	)
	err := row.Scan(
		&t.ID,
		&t.ShareCode,
		&t.OrganizerID,
		&t.Destination,
		&t.DepartureDate,
		&t.ReturnDate,
		&t.AccommodationType,
		&travelers,
		&flights,
		&accommodation,
		&breakdown,
		&t.TotalPerPerson,
		&t.TripTotal,
		&itin,
		&status,
		&t.PaidTravelers,
		&t.LinkExpiresAt,
		&t.GroupImageURL,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ItineraryStatus = types.ItineraryStatus(status)

	if err := decodeJSON(travelers, &t.Travelers); err != nil {
		return nil, fmt.Errorf("decode travelers: %w", err)
	}
	if err := decodeJSON(flights, &t.Flights); err != nil {
		return nil, fmt.Errorf("decode flights: %w", err)
	}
	if err := decodeJSON(accommodation, &t.Accommodation); err != nil {
		return nil, fmt.Errorf("decode accommodation: %w", err)
	}
	if err := decodeJSON(breakdown, &t.CostBreakdown); err != nil {
		return nil, fmt.Errorf("decode cost breakdown: %w", err)
	}
	if err := decodeJSON(itin, &t.Itinerary); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}
	if t.PaidTravelers == nil {
		t.PaidTravelers = []string{}
	}
	return &t, nil
}

func decodeJSON(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// encodePricing marshals the jsonb columns. A nil accommodation stays SQL NULL.
func encodePricing(travelers []types.Traveler, flights []types.Flight, acc *types.Accommodation, breakdown []types.TravelerCost) (tr, fl, ac, br []byte, err error) {
	if travelers == nil {
		travelers = []types.Traveler{}
	}
	if flights == nil {
		flights = []types.Flight{}
	}
	if breakdown == nil {
		breakdown = []types.TravelerCost{}
	}
	if tr, err = json.Marshal(travelers); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode travelers: %w", err)
	}
	if fl, err = json.Marshal(flights); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode flights: %w", err)
	}
	if acc != nil {
		if ac, err = json.Marshal(acc); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode accommodation: %w", err)
		}
	}
	if br, err = json.Marshal(breakdown); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode cost breakdown: %w", err)
	}
	return tr, fl, ac, br, nil
}
