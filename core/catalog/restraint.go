package catalog

import (
	"errors"
	"strings"

	"fmusic/repository"
)

var (
	// ErrInvalidMode is returned for a combinator mode other than AND/OR.
	ErrInvalidMode = errors.New("invalid combinator mode")
	// ErrInvalidRestraint is returned for a malformed restraint value.
	ErrInvalidRestraint = errors.New("invalid restraint")
	// ErrInvalidLimit is returned for a negative result limit.
	ErrInvalidLimit = errors.New("invalid limit")
)

// Mode is the combinator policy for merging per-field results.
type Mode int

const (
	// ModeAnd intersects the per-field sub-results.
	ModeAnd Mode = iota + 1
	// ModeOr unions the per-field sub-results.
	ModeOr
)

// ParseMode parses a caller-supplied mode, case-insensitively. Anything
// other than AND or OR is ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "AND":
		return ModeAnd, nil
	case "OR":
		return ModeOr, nil
	}
	return 0, ErrInvalidMode
}

func (m Mode) String() string {
	switch m {
	case ModeAnd:
		return "AND"
	case ModeOr:
		return "OR"
	}
	return "invalid"
}

// RestraintKind discriminates the restraint union.
type RestraintKind int

const (
	// KindRange matches a numeric field within inclusive bounds. An exact
	// numeric match is a range with Low == High.
	KindRange RestraintKind = iota + 1
	// KindExact matches a textual field against one value.
	KindExact
	// KindSet matches a textual field against any of several values.
	KindSet
)

// Restraint is one per-field filter condition. The kind is decided once
// at the boundary and never re-interpreted downstream.
type Restraint struct {
	Field  repository.Field
	Kind   RestraintKind
	Low    int64    // KindRange
	High   int64    // KindRange
	Value  string   // KindExact
	Values []string // KindSet
}

// Exact builds an exact-match restraint for a textual field.
func Exact(field repository.Field, value string) Restraint {
	return Restraint{Field: field, Kind: KindExact, Value: value}
}

// Range builds an inclusive-bounds restraint for a numeric field.
func Range(field repository.Field, low, high int64) Restraint {
	return Restraint{Field: field, Kind: KindRange, Low: low, High: high}
}

// Number builds an exact-match restraint for a numeric field.
func Number(field repository.Field, value int64) Restraint {
	return Range(field, value, value)
}

// Set builds a set-membership restraint for a textual field.
func Set(field repository.Field, values ...string) Restraint {
	return Restraint{Field: field, Kind: KindSet, Values: values}
}
