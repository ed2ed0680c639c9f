package catalog

import (
	"encoding/json"
	"testing"

	"fmusic/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRestraints(pairs map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(pairs))
	for k, v := range pairs {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestParseQueryDefaults(t *testing.T) {
	q, err := ParseQuery(RawQuery{})
	require.NoError(t, err)

	assert.Equal(t, ModeAnd, q.Mode)
	require.NotNil(t, q.Limit)
	assert.Equal(t, DefaultLimit, *q.Limit)
	assert.Empty(t, q.Restraints)
}

func TestParseQueryModes(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "AND", want: ModeAnd},
		{in: "or", want: ModeOr},
		{in: "Or", want: ModeOr},
		{in: "XOR", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			q, err := ParseQuery(RawQuery{Mode: tc.in})
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, q.Mode)
		})
	}
}

func TestParseQueryLimit(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		q, err := ParseQuery(RawQuery{Limit: json.RawMessage(`25`)})
		require.NoError(t, err)
		require.NotNil(t, q.Limit)
		assert.Equal(t, int64(25), *q.Limit)
	})

	t.Run("null means unbounded", func(t *testing.T) {
		q, err := ParseQuery(RawQuery{Limit: json.RawMessage(`null`)})
		require.NoError(t, err)
		assert.Nil(t, q.Limit)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := ParseQuery(RawQuery{Limit: json.RawMessage(`-3`)})
		require.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("non-numeric rejected", func(t *testing.T) {
		_, err := ParseQuery(RawQuery{Limit: json.RawMessage(`"ten"`)})
		require.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestParseQueryRestraintKinds(t *testing.T) {
	q, err := ParseQuery(RawQuery{Restraints: rawRestraints(map[string]string{
		"bpm":    `120`,
		"length": `[180, 260]`,
		"genre":  `"Rock"`,
		"artist": `["Quartet", "Circuit"]`,
	})})
	require.NoError(t, err)
	require.Len(t, q.Restraints, 4)

	byField := make(map[repository.Field]Restraint, len(q.Restraints))
	for _, r := range q.Restraints {
		byField[r.Field] = r
	}

	bpm := byField[repository.FieldBPM]
	assert.Equal(t, KindRange, bpm.Kind)
	assert.Equal(t, int64(120), bpm.Low)
	assert.Equal(t, int64(120), bpm.High)

	length := byField[repository.FieldLength]
	assert.Equal(t, KindRange, length.Kind)
	assert.Equal(t, int64(180), length.Low)
	assert.Equal(t, int64(260), length.High)

	genre := byField[repository.FieldGenre]
	assert.Equal(t, KindExact, genre.Kind)
	assert.Equal(t, "Rock", genre.Value)

	artist := byField[repository.FieldArtist]
	assert.Equal(t, KindSet, artist.Kind)
	assert.Equal(t, []string{"Quartet", "Circuit"}, artist.Values)
}

func TestParseQueryIgnoresUnknownFields(t *testing.T) {
	q, err := ParseQuery(RawQuery{Restraints: rawRestraints(map[string]string{
		"mood":  `"happy"`,
		"genre": `"Rock"`,
	})})
	require.NoError(t, err)
	require.Len(t, q.Restraints, 1)
	assert.Equal(t, repository.FieldGenre, q.Restraints[0].Field)
}

func TestParseQueryMalformedRestraints(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "numeric field with string", key: "bpm", value: `"fast"`},
		{name: "numeric field with short list", key: "bpm", value: `[120]`},
		{name: "textual field with number", key: "genre", value: `3`},
		{name: "textual field with empty list", key: "genre", value: `[]`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuery(RawQuery{Restraints: rawRestraints(map[string]string{tc.key: tc.value})})
			require.ErrorIs(t, err, ErrInvalidRestraint)
		})
	}
}
