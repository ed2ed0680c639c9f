package catalog

import (
	"encoding/json"
	"fmt"

	"fmusic/repository"
)

// RawQuery is the loose wire form of a query request. Restraint values
// arrive untyped; ParseQuery decides their kind once, and nothing
// downstream re-interprets them.
type RawQuery struct {
	Mode       string                     `json:"mode"`
	Limit      json.RawMessage            `json:"limit"`
	Restraints map[string]json.RawMessage `json:"restraints"`
}

// ParseQuery validates a raw request into a typed Query.
//
// Unknown restraint keys are ignored: callers forward their parameters
// permissively and extraneous keys are not an error. A missing mode
// defaults to AND. A missing limit defaults to DefaultLimit, while an
// explicit null limit means unbounded.
func ParseQuery(raw RawQuery) (Query, error) {
	mode := raw.Mode
	if mode == "" {
		mode = "AND"
	}
	parsedMode, err := ParseMode(mode)
	if err != nil {
		return Query{}, fmt.Errorf("mode %q: %w", raw.Mode, err)
	}

	limit, err := parseLimit(raw.Limit)
	if err != nil {
		return Query{}, err
	}

	restraints := make([]Restraint, 0, len(raw.Restraints))
	for key, value := range raw.Restraints {
		field, ok := repository.ParseField(key)
		if !ok {
			continue
		}
		restraint, err := parseRestraint(field, value)
		if err != nil {
			return Query{}, err
		}
		restraints = append(restraints, restraint)
	}

	return Query{Restraints: restraints, Mode: parsedMode, Limit: limit}, nil
}

func parseLimit(raw json.RawMessage) (*int64, error) {
	if len(raw) == 0 {
		limit := DefaultLimit
		return &limit, nil
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var limit int64
	if err := json.Unmarshal(raw, &limit); err != nil {
		return nil, fmt.Errorf("limit %s: %w", raw, ErrInvalidLimit)
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrInvalidLimit)
	}
	return &limit, nil
}

func parseRestraint(field repository.Field, raw json.RawMessage) (Restraint, error) {
	if field.Numeric() {
		var scalar int64
		if err := json.Unmarshal(raw, &scalar); err == nil {
			return Number(field, scalar), nil
		}
		var bounds []int64
		if err := json.Unmarshal(raw, &bounds); err == nil && len(bounds) == 2 {
			return Range(field, bounds[0], bounds[1]), nil
		}
		return Restraint{}, fmt.Errorf("field %q wants a number or [low, high]: %w", field, ErrInvalidRestraint)
	}

	var scalar string
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return Exact(field, scalar), nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err == nil && len(values) > 0 {
		return Set(field, values...), nil
	}
	return Restraint{}, fmt.Errorf("field %q wants a string or a list of strings: %w", field, ErrInvalidRestraint)
}
