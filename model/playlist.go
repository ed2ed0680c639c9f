package model

import "fmt"

// FavoritesPlaylistID is the reserved id of the synthetic Favorites
// playlist. It is never stored as a playlists row; enumerating the
// favorites set materializes it on demand.
const FavoritesPlaylistID int64 = 0

// FavoritesPlaylistName is the display name of the synthetic playlist.
const FavoritesPlaylistName = "Favorites"

// Playlist is a named ordered sequence of song references.
//
// The stored form keeps only the ordered id list (SongsRaw, JSON text in
// the songs column); Songs and Missing are populated on resolution.
// Missing lists referenced ids that no longer exist in the catalog, so a
// dangling entry surfaces as data instead of a failure.
type Playlist struct {
	ID       int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string  `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Art      []byte  `json:"-" gorm:"column:playlist_art;type:mediumblob"`
	SongsRaw string  `json:"-" gorm:"column:songs;type:text"`
	SongIDs  []int64 `json:"song_ids" gorm:"-"`
	Songs    []*Song `json:"songs,omitempty" gorm:"-"`
	Missing  []int64 `json:"missing,omitempty" gorm:"-"`
}

// TableName maps Playlist to the playlists table.
func (Playlist) TableName() string { return "playlists" }

func (p *Playlist) String() string {
	return fmt.Sprintf("%s (%d songs)", p.Name, len(p.SongIDs))
}

// Favorite is one row of the favorites membership set.
type Favorite struct {
	ID     int64 `gorm:"primaryKey;autoIncrement"`
	SongID int64 `gorm:"column:song_id;uniqueIndex;not null"`
}

// TableName maps Favorite to the favorites table.
func (Favorite) TableName() string { return "favorites" }
