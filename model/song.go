package model

import "fmt"

// Song is a catalog entry for one indexed audio file.
//
// Name and AbsPath are each unique across the catalog; the UNIQUE indexes
// declared here are enforced by the storage layer so a duplicate insert
// fails without mutating state. AlbumArt is excluded from the JSON form
// and from identity so equality stays cheap and stable.
type Song struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"size:255;uniqueIndex;not null"`
	AbsPath  string `json:"abs_path" gorm:"column:abs_path;size:700;uniqueIndex;not null"`
	BPM      int    `json:"bpm" gorm:"column:bpm"` // beats per minute, 0 = unknown
	Length   int    `json:"length"`                // duration in whole seconds
	Kbps     int    `json:"kbps"`
	Genre    string `json:"genre" gorm:"size:255"`
	Artist   string `json:"artist" gorm:"size:255"`
	Album    string `json:"album" gorm:"size:255"`
	AlbumArt []byte `json:"-" gorm:"column:album_art;type:mediumblob"`
}

// TableName maps Song to the songs table.
func (Song) TableName() string { return "songs" }

// UnknownField is the sentinel stored for absent textual metadata.
const UnknownField = "Unknown"

// Fingerprint is the identity of a song for set and dedup operations:
// every attribute except the art blob. It is comparable, so it can be
// used directly as a map key.
type Fingerprint struct {
	ID      int64
	Name    string
	AbsPath string
	BPM     int
	Length  int
	Kbps    int
	Genre   string
	Artist  string
	Album   string
}

// Fingerprint returns the identity tuple of the song.
func (s *Song) Fingerprint() Fingerprint {
	return Fingerprint{
		ID:      s.ID,
		Name:    s.Name,
		AbsPath: s.AbsPath,
		BPM:     s.BPM,
		Length:  s.Length,
		Kbps:    s.Kbps,
		Genre:   s.Genre,
		Artist:  s.Artist,
		Album:   s.Album,
	}
}

func (s *Song) String() string {
	return fmt.Sprintf("%s by %s from %s (%s)", s.Name, s.Artist, s.Album, s.Genre)
}
