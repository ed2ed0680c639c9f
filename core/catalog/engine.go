package catalog

import (
	"context"
	"fmt"

	"fmusic/logger"
	"fmusic/model"
	"fmusic/repository"
)

// DefaultLimit bounds a query whose caller did not mention a limit.
const DefaultLimit int64 = 10

// Store is the slice of the catalog store the engine reads from.
// Evaluation is read-only; a negative limit means unbounded.
type Store interface {
	GetAll(ctx context.Context, limit int64) ([]*model.Song, error)
	GetRange(ctx context.Context, field repository.Field, low, high, limit int64) ([]*model.Song, error)
	GetByExact(ctx context.Context, field repository.Field, value string, limit int64) ([]*model.Song, error)
	Search(ctx context.Context, q string, limit int64) ([]*model.Song, error)
}

// Query is a fully parsed catalog query: a set of per-field restraints,
// a combinator mode and a result limit. A nil Limit means unbounded; a
// zero limit yields an empty result.
type Query struct {
	Restraints []Restraint
	Mode       Mode
	Limit      *int64
}

// Engine evaluates queries against the catalog store.
type Engine struct {
	store Store
}

// NewEngine creates a query engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Evaluate answers which songs satisfy the query. Each restraint is
// evaluated independently against the catalog, the sub-results are
// combined per the mode, deduplicated by fingerprint and truncated to
// the limit.
//
// With no restraints, AND returns the whole catalog (bounded by the
// limit) and OR returns the empty set: there is nothing to union.
func (e *Engine) Evaluate(ctx context.Context, q Query) ([]*model.Song, error) {
	if q.Mode != ModeAnd && q.Mode != ModeOr {
		return nil, ErrInvalidMode
	}
	if q.Limit != nil && *q.Limit < 0 {
		return nil, fmt.Errorf("limit %d: %w", *q.Limit, ErrInvalidLimit)
	}
	if q.Limit != nil && *q.Limit == 0 {
		return []*model.Song{}, nil
	}

	if len(q.Restraints) == 0 {
		if q.Mode == ModeOr {
			return []*model.Song{}, nil
		}
		limit := int64(-1)
		if q.Limit != nil {
			limit = *q.Limit
		}
		return e.store.GetAll(ctx, limit)
	}

	var combined *resultSet
	for _, restraint := range q.Restraints {
		sub, err := e.evaluateRestraint(ctx, restraint)
		if err != nil {
			return nil, err
		}

		switch q.Mode {
		case ModeAnd:
			if combined == nil {
				combined = newResultSet(sub)
			} else {
				combined.intersect(sub)
			}
		case ModeOr:
			if combined == nil {
				combined = newResultSet(nil)
			}
			combined.union(sub)
		}

		logger.Debug("Restraint evaluated",
			logger.String("field", string(restraint.Field)),
			logger.Int("matched", len(sub)),
			logger.Int("running", combined.len()))

		// An empty intersection cannot grow again.
		if q.Mode == ModeAnd && combined.len() == 0 {
			break
		}
	}

	songs := combined.songs
	if q.Limit != nil && int64(len(songs)) > *q.Limit {
		songs = songs[:*q.Limit]
	}
	return songs, nil
}

// Search is the full-text entry point, independent of the structured
// evaluation above: a substring match across every field with no
// per-field targeting and no combinator.
func (e *Engine) Search(ctx context.Context, q string, limit int64) ([]*model.Song, error) {
	return e.store.Search(ctx, q, limit)
}

func (e *Engine) evaluateRestraint(ctx context.Context, r Restraint) ([]*model.Song, error) {
	switch r.Kind {
	case KindRange:
		return e.store.GetRange(ctx, r.Field, r.Low, r.High, -1)
	case KindExact:
		return e.store.GetByExact(ctx, r.Field, r.Value, -1)
	case KindSet:
		// Union over the acceptable values; dedup happens in the caller.
		var out []*model.Song
		for _, value := range r.Values {
			songs, err := e.store.GetByExact(ctx, r.Field, value, -1)
			if err != nil {
				return nil, err
			}
			out = append(out, songs...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("restraint on %q has no kind: %w", r.Field, ErrInvalidRestraint)
}

// resultSet is an ordered set of songs keyed by fingerprint, so the same
// physical track never appears twice even when it matched several
// restraints.
type resultSet struct {
	songs []*model.Song
	index map[model.Fingerprint]struct{}
}

func newResultSet(songs []*model.Song) *resultSet {
	s := &resultSet{index: make(map[model.Fingerprint]struct{})}
	s.union(songs)
	return s
}

func (s *resultSet) len() int { return len(s.songs) }

func (s *resultSet) union(songs []*model.Song) {
	for _, song := range songs {
		fp := song.Fingerprint()
		if _, ok := s.index[fp]; ok {
			continue
		}
		s.index[fp] = struct{}{}
		s.songs = append(s.songs, song)
	}
}

func (s *resultSet) intersect(songs []*model.Song) {
	keep := make(map[model.Fingerprint]struct{}, len(songs))
	for _, song := range songs {
		keep[song.Fingerprint()] = struct{}{}
	}

	filtered := s.songs[:0]
	for _, song := range s.songs {
		fp := song.Fingerprint()
		if _, ok := keep[fp]; ok {
			filtered = append(filtered, song)
		} else {
			delete(s.index, fp)
		}
	}
	s.songs = filtered
}
