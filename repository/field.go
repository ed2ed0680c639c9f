package repository

// Field names one queryable song attribute. The set is closed: every
// lookup resolves a Field to a column constant below, so caller-supplied
// strings never reach SQL text.
type Field string

const (
	FieldID     Field = "id"
	FieldBPM    Field = "bpm"
	FieldLength Field = "length"
	FieldKbps   Field = "kbps"
	FieldGenre  Field = "genre"
	FieldArtist Field = "artist"
	FieldAlbum  Field = "album"
	FieldName   Field = "name"
)

var fieldColumns = map[Field]string{
	FieldID:     "id",
	FieldBPM:    "bpm",
	FieldLength: "length",
	FieldKbps:   "kbps",
	FieldGenre:  "genre",
	FieldArtist: "artist",
	FieldAlbum:  "album",
	FieldName:   "name",
}

// ParseField resolves a caller-supplied key to a Field. The second return
// is false for unknown keys, which callers are expected to ignore rather
// than reject.
func ParseField(key string) (Field, bool) {
	f := Field(key)
	_, ok := fieldColumns[f]
	return f, ok
}

// Numeric reports whether the field holds an ordered numeric value and
// therefore supports range lookups.
func (f Field) Numeric() bool {
	switch f {
	case FieldID, FieldBPM, FieldLength, FieldKbps:
		return true
	}
	return false
}

// column returns the SQL column for the field. Only whitelisted fields
// have columns.
func (f Field) column() (string, bool) {
	col, ok := fieldColumns[f]
	return col, ok
}
