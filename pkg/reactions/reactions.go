// Package reactions folds raw reaction rows into per-activity aggregates and
// decides what a toggle does to the stored row.
package reactions

import (
	"sort"

	"github.com/NomadCrew/tripsync-backend/types"
)

// Aggregates maps an activity position to its summary.
type Aggregates map[types.ActivityKey]types.ReactionSummary

// Aggregate recomputes the summary map from scratch. viewerID may be empty
// for anonymous viewers, in which case no ViewerReaction is ever set.
func Aggregate(rows []types.Reaction, viewerID string) Aggregates {
	out := make(Aggregates)
	for _, r := range rows {
		k := r.Key()
		s := out[k]
		switch r.Reaction {
		case types.ReactionUp:
			s.Up++
		case types.ReactionDown:
			s.Down++
		default:
			continue
		}
		if viewerID != "" && r.UserID == viewerID {
			kind := r.Reaction
			s.ViewerReaction = &kind
		}
		out[k] = s
	}
	return out
}

// Current keeps the rows that still point at a live activity of itin. A row
// is dropped when its position is past the end of its day, or when it
// recorded an activity id and a different activity now sits there.
func Current(rows []types.Reaction, itin *types.Itinerary) []types.Reaction {
	if itin == nil {
		return nil
	}
	out := rows[:0:0]
	for _, r := range rows {
		act, ok := itin.Activity(r.Key())
		if !ok {
			continue
		}
		if r.ActivityID != nil && *r.ActivityID != "" && act.ID != "" && *r.ActivityID != act.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Get returns the summary for k, zero if nobody reacted.
func (a Aggregates) Get(k types.ActivityKey) types.ReactionSummary {
	return a[k]
}

// Entries flattens the map in day/index order for JSON responses.
func (a Aggregates) Entries() []types.ReactionEntry {
	out := make([]types.ReactionEntry, 0, len(a))
	for k, s := range a {
		out = append(out, types.ReactionEntry{ActivityKey: k, ReactionSummary: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Action is what a react call does to the stored row.
type Action int

const (
	ActionUpsert Action = iota
	ActionDelete
)

func (a Action) String() string {
	if a == ActionDelete {
		return "delete"
	}
	return "upsert"
}

// Decide implements toggle semantics: reacting with the kind already stored
// removes it, anything else stores requested (replacing an opposite kind).
func Decide(current *types.ReactionKind, requested types.ReactionKind) Action {
	if current != nil && *current == requested {
		return ActionDelete
	}
	return ActionUpsert
}
