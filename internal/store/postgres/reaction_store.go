package postgres

import (
	"context"
	"errors"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/jackc/pgx/v5"
)

const reactionColumns = `trip_id, day_number, activity_index, activity_id, user_id, reaction, created_at`

type ReactionStore struct {
	db DBTX
}

var _ store.ReactionStore = (*ReactionStore)(nil)

func NewReactionStore(db DBTX) *ReactionStore {
	return &ReactionStore{db: db}
}

func (s *ReactionStore) ListReactions(ctx context.Context, tripID string) ([]types.Reaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reactionColumns+`
		FROM activity_reactions
		WHERE trip_id = $1
		ORDER BY day_number, activity_index, created_at`, tripID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	defer rows.Close()

	reactions := []types.Reaction{}
	for rows.Next() {
		r, err := scanReaction(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		reactions = append(reactions, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return reactions, nil
}

func (s *ReactionStore) GetReaction(ctx context.Context, tripID string, key types.ActivityKey, userID string) (*types.Reaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+reactionColumns+`
		FROM activity_reactions
		WHERE trip_id = $1 AND day_number = $2 AND activity_index = $3 AND user_id = $4`,
		tripID, key.Day, key.Index, userID)
	r, err := scanReaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return r, nil
}

// UpsertReaction writes r, replacing any existing reaction by the same user on
// the same activity.
func (s *ReactionStore) UpsertReaction(ctx context.Context, r *types.Reaction) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO activity_reactions (trip_id, day_number, activity_index, activity_id, user_id, reaction)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trip_id, day_number, activity_index, user_id)
		DO UPDATE SET reaction = EXCLUDED.reaction, activity_id = EXCLUDED.activity_id, created_at = NOW()
		RETURNING created_at`,
		r.TripID, r.DayNumber, r.ActivityIndex, r.ActivityID, r.UserID, string(r.Reaction),
	).Scan(&r.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

func (s *ReactionStore) DeleteReaction(ctx context.Context, tripID string, key types.ActivityKey, userID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM activity_reactions
		WHERE trip_id = $1 AND day_number = $2 AND activity_index = $3 AND user_id = $4`,
		tripID, key.Day, key.Index, userID)
	if err != nil {
		return false, apperrors.NewDatabaseError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanReaction(row pgx.Row) (*types.Reaction, error) {
	var (
		r    types.Reaction
		kind string
	)
	if err := row.Scan(&r.TripID, &r.DayNumber, &r.ActivityIndex, &r.ActivityID, &r.UserID, &kind, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Reaction = types.ReactionKind(kind)
	return &r, nil
}
