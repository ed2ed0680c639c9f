package playlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fmusic/logger"
	"fmusic/model"
	"fmusic/repository"
)

// ErrReserved is returned when generic playlist CRUD touches the
// synthetic Favorites playlist (id 0).
var ErrReserved = errors.New("playlist id is reserved")

// Manager wraps the playlist store with the domain rules: Favorites is
// playlist 0 and lives outside generic CRUD, playlist membership edits
// are read-modify-write and therefore serialized, and stored song-id
// lists resolve lazily with dangling references surfaced per entry.
type Manager struct {
	playlists repository.PlaylistRepository
	songs     repository.SongRepository

	// Serializes playlist and favorites write paths on top of the store.
	mu sync.Mutex
}

// NewManager creates a playlist manager over the given repositories.
func NewManager(playlists repository.PlaylistRepository, songs repository.SongRepository) *Manager {
	return &Manager{playlists: playlists, songs: songs}
}

// Get returns a resolved playlist. Id 0 materializes the Favorites set.
func (m *Manager) Get(ctx context.Context, id int64) (*model.Playlist, error) {
	if id == model.FavoritesPlaylistID {
		return m.Favorites(ctx)
	}
	playlist, err := m.playlists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.resolve(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// List returns every stored playlist, unresolved (id lists only).
func (m *Manager) List(ctx context.Context) ([]*model.Playlist, error) {
	return m.playlists.GetAll(ctx)
}

// Create stores a new playlist, empty or with an initial song list.
// The Favorites name is reserved for the synthetic playlist.
func (m *Manager) Create(ctx context.Context, name string, art []byte, songIDs []int64) (*model.Playlist, error) {
	if name == model.FavoritesPlaylistName {
		return nil, fmt.Errorf("playlist %q: %w", name, ErrReserved)
	}
	playlist := &model.Playlist{Name: name, Art: art, SongIDs: songIDs}
	id, err := m.playlists.Create(ctx, playlist)
	if err != nil {
		return nil, err
	}
	playlist.ID = id
	return playlist, nil
}

// Update replaces a playlist's name, art and song-id list.
func (m *Manager) Update(ctx context.Context, playlist *model.Playlist) error {
	if playlist.ID == model.FavoritesPlaylistID {
		return fmt.Errorf("playlist %d: %w", playlist.ID, ErrReserved)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playlists.Update(ctx, playlist)
}

// Delete removes a playlist by id.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if id == model.FavoritesPlaylistID {
		return fmt.Errorf("playlist %d: %w", id, ErrReserved)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playlists.Delete(ctx, id)
}

// Add appends a song to a playlist's ordered list. Adding a song that is
// already present is a no-op, so Add is idempotent.
func (m *Manager) Add(ctx context.Context, playlistID, songID int64) error {
	if playlistID == model.FavoritesPlaylistID {
		return fmt.Errorf("playlist %d: %w", playlistID, ErrReserved)
	}
	if _, err := m.songs.GetByID(ctx, songID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	playlist, err := m.playlists.Get(ctx, playlistID)
	if err != nil {
		return err
	}
	for _, id := range playlist.SongIDs {
		if id == songID {
			return nil
		}
	}
	playlist.SongIDs = append(playlist.SongIDs, songID)
	return m.playlists.Update(ctx, playlist)
}

// Remove deletes a song from a playlist's ordered list. Removing a song
// that is not in the list returns ErrNotFound.
func (m *Manager) Remove(ctx context.Context, playlistID, songID int64) error {
	if playlistID == model.FavoritesPlaylistID {
		return fmt.Errorf("playlist %d: %w", playlistID, ErrReserved)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	playlist, err := m.playlists.Get(ctx, playlistID)
	if err != nil {
		return err
	}
	kept := playlist.SongIDs[:0]
	found := false
	for _, id := range playlist.SongIDs {
		if id == songID && !found {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return fmt.Errorf("song %d in playlist %d: %w", songID, playlistID, repository.ErrNotFound)
	}
	playlist.SongIDs = kept
	return m.playlists.Update(ctx, playlist)
}

// Favorites materializes the favorites set as the synthetic playlist 0.
func (m *Manager) Favorites(ctx context.Context) (*model.Playlist, error) {
	ids, err := m.playlists.ListFavoriteIDs(ctx)
	if err != nil {
		return nil, err
	}
	playlist := &model.Playlist{
		ID:      model.FavoritesPlaylistID,
		Name:    model.FavoritesPlaylistName,
		SongIDs: ids,
	}
	if err := m.resolve(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// AddFavorite adds a song to the favorites set. Adding a song that is
// already a favorite is non-fatal.
func (m *Manager) AddFavorite(ctx context.Context, songID int64) error {
	if _, err := m.songs.GetByID(ctx, songID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.playlists.AddFavorite(ctx, songID); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	return nil
}

// RemoveFavorite removes a song from the favorites set. Removing a song
// that is not a favorite is non-fatal.
func (m *Manager) RemoveFavorite(ctx context.Context, songID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.playlists.RemoveFavorite(ctx, songID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// IsFavorite reports favorites membership.
func (m *Manager) IsFavorite(ctx context.Context, songID int64) (bool, error) {
	return m.playlists.IsFavorite(ctx, songID)
}

// Toggle flips favorites membership and returns the new state. Toggling
// twice restores the original membership.
func (m *Manager) Toggle(ctx context.Context, songID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	isFav, err := m.playlists.IsFavorite(ctx, songID)
	if err != nil {
		return false, err
	}
	if isFav {
		if err := m.playlists.RemoveFavorite(ctx, songID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		return false, nil
	}
	if _, err := m.songs.GetByID(ctx, songID); err != nil {
		return false, err
	}
	if err := m.playlists.AddFavorite(ctx, songID); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return false, err
	}
	return true, nil
}

// resolve fills Songs from the stored id list, preserving order. A
// referenced id that no longer exists is recorded in Missing instead of
// failing the whole resolution.
func (m *Manager) resolve(ctx context.Context, playlist *model.Playlist) error {
	playlist.Songs = make([]*model.Song, 0, len(playlist.SongIDs))
	playlist.Missing = nil
	for _, id := range playlist.SongIDs {
		song, err := m.songs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				playlist.Missing = append(playlist.Missing, id)
				logger.Warn("Playlist references a deleted song",
					logger.Int64("playlist", playlist.ID),
					logger.Int64("song", id))
				continue
			}
			return err
		}
		playlist.Songs = append(playlist.Songs, song)
	}
	return nil
}
