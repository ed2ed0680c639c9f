package playlist

import (
	"context"
	"fmt"
	"testing"

	"fmusic/model"
	"fmusic/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSongs backs the manager tests with a fixed catalog; only lookups by
// id are exercised.
type memSongs struct {
	byID map[int64]*model.Song
}

func newMemSongs(ids ...int64) *memSongs {
	s := &memSongs{byID: make(map[int64]*model.Song)}
	for _, id := range ids {
		s.byID[id] = &model.Song{ID: id, Name: fmt.Sprintf("Song %d", id)}
	}
	return s
}

func (s *memSongs) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	song, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("song %d: %w", id, repository.ErrNotFound)
	}
	return song, nil
}

func (s *memSongs) Create(ctx context.Context, song *model.Song) (int64, error) { return 0, nil }
func (s *memSongs) GetByName(ctx context.Context, name string) (*model.Song, error) {
	return nil, repository.ErrNotFound
}
func (s *memSongs) GetByPath(ctx context.Context, path string) (*model.Song, error) {
	return nil, repository.ErrNotFound
}
func (s *memSongs) GetAll(ctx context.Context, limit int64) ([]*model.Song, error) { return nil, nil }
func (s *memSongs) GetRange(ctx context.Context, field repository.Field, low, high, limit int64) ([]*model.Song, error) {
	return nil, nil
}
func (s *memSongs) GetByExact(ctx context.Context, field repository.Field, value string, limit int64) ([]*model.Song, error) {
	return nil, nil
}
func (s *memSongs) Search(ctx context.Context, q string, limit int64) ([]*model.Song, error) {
	return nil, nil
}
func (s *memSongs) Delete(ctx context.Context, id int64) error { return nil }

func (s *memSongs) Count(ctx context.Context) (int64, error) { return int64(len(s.byID)), nil }

// memPlaylists is an in-memory playlist and favorites store with the
// same error contract as the SQL implementation.
type memPlaylists struct {
	nextID    int64
	playlists map[int64]*model.Playlist
	favorites []int64
}

func newMemPlaylists() *memPlaylists {
	return &memPlaylists{nextID: 1, playlists: make(map[int64]*model.Playlist)}
}

func (p *memPlaylists) Create(ctx context.Context, playlist *model.Playlist) (int64, error) {
	for _, existing := range p.playlists {
		if existing.Name == playlist.Name {
			return 0, fmt.Errorf("playlist %q: %w", playlist.Name, repository.ErrDuplicate)
		}
	}
	id := p.nextID
	p.nextID++
	stored := *playlist
	stored.ID = id
	stored.SongIDs = append([]int64(nil), playlist.SongIDs...)
	p.playlists[id] = &stored
	return id, nil
}

func (p *memPlaylists) Get(ctx context.Context, id int64) (*model.Playlist, error) {
	stored, ok := p.playlists[id]
	if !ok {
		return nil, fmt.Errorf("playlist %d: %w", id, repository.ErrNotFound)
	}
	out := *stored
	out.SongIDs = append([]int64(nil), stored.SongIDs...)
	return &out, nil
}

func (p *memPlaylists) GetAll(ctx context.Context) ([]*model.Playlist, error) {
	out := make([]*model.Playlist, 0, len(p.playlists))
	for id := int64(1); id < p.nextID; id++ {
		if stored, ok := p.playlists[id]; ok {
			out = append(out, stored)
		}
	}
	return out, nil
}

func (p *memPlaylists) Update(ctx context.Context, playlist *model.Playlist) error {
	if _, ok := p.playlists[playlist.ID]; !ok {
		return fmt.Errorf("playlist %d: %w", playlist.ID, repository.ErrNotFound)
	}
	stored := *playlist
	stored.SongIDs = append([]int64(nil), playlist.SongIDs...)
	p.playlists[playlist.ID] = &stored
	return nil
}

func (p *memPlaylists) Delete(ctx context.Context, id int64) error {
	delete(p.playlists, id)
	return nil
}

func (p *memPlaylists) AddFavorite(ctx context.Context, songID int64) error {
	for _, id := range p.favorites {
		if id == songID {
			return fmt.Errorf("favorite %d: %w", songID, repository.ErrDuplicate)
		}
	}
	p.favorites = append(p.favorites, songID)
	return nil
}

func (p *memPlaylists) RemoveFavorite(ctx context.Context, songID int64) error {
	for i, id := range p.favorites {
		if id == songID {
			p.favorites = append(p.favorites[:i], p.favorites[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("favorite %d: %w", songID, repository.ErrNotFound)
}

func (p *memPlaylists) IsFavorite(ctx context.Context, songID int64) (bool, error) {
	for _, id := range p.favorites {
		if id == songID {
			return true, nil
		}
	}
	return false, nil
}

func (p *memPlaylists) ListFavoriteIDs(ctx context.Context) ([]int64, error) {
	return append([]int64(nil), p.favorites...), nil
}

func newTestManager(songIDs ...int64) (*Manager, *memPlaylists) {
	store := newMemPlaylists()
	return NewManager(store, newMemSongs(songIDs...)), store
}

func TestCreateReservedName(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Create(context.Background(), model.FavoritesPlaylistName, nil, nil)
	require.ErrorIs(t, err, ErrReserved)
}

func TestReservedIDOperations(t *testing.T) {
	m, _ := newTestManager(1)
	ctx := context.Background()

	require.ErrorIs(t, m.Update(ctx, &model.Playlist{ID: model.FavoritesPlaylistID}), ErrReserved)
	require.ErrorIs(t, m.Delete(ctx, model.FavoritesPlaylistID), ErrReserved)
	require.ErrorIs(t, m.Add(ctx, model.FavoritesPlaylistID, 1), ErrReserved)
	require.ErrorIs(t, m.Remove(ctx, model.FavoritesPlaylistID, 1), ErrReserved)
}

func TestAddIsIdempotent(t *testing.T) {
	m, _ := newTestManager(1, 2)
	ctx := context.Background()

	created, err := m.Create(ctx, "Morning", nil, nil)
	require.NoError(t, err)

	require.NoError(t, m.Add(ctx, created.ID, 1))
	require.NoError(t, m.Add(ctx, created.ID, 2))
	require.NoError(t, m.Add(ctx, created.ID, 1))

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got.SongIDs)
}

func TestAddUnknownSong(t *testing.T) {
	m, _ := newTestManager(1)
	ctx := context.Background()

	created, err := m.Create(ctx, "Morning", nil, nil)
	require.NoError(t, err)

	require.ErrorIs(t, m.Add(ctx, created.ID, 99), repository.ErrNotFound)
}

func TestRemoveFirstOccurrence(t *testing.T) {
	m, _ := newTestManager(1, 2, 3)
	ctx := context.Background()

	created, err := m.Create(ctx, "Morning", nil, []int64{1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, m.Remove(ctx, created.ID, 2))

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, got.SongIDs)

	require.ErrorIs(t, m.Remove(ctx, created.ID, 2), repository.ErrNotFound)
}

func TestGetResolvesSongsInOrder(t *testing.T) {
	m, _ := newTestManager(1, 2, 3)
	ctx := context.Background()

	created, err := m.Create(ctx, "Morning", nil, []int64{3, 1, 2})
	require.NoError(t, err)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Songs, 3)
	assert.Equal(t, int64(3), got.Songs[0].ID)
	assert.Equal(t, int64(1), got.Songs[1].ID)
	assert.Equal(t, int64(2), got.Songs[2].ID)
	assert.Empty(t, got.Missing)
}

func TestGetSurfacesDanglingReferences(t *testing.T) {
	m, _ := newTestManager(1, 3)
	ctx := context.Background()

	created, err := m.Create(ctx, "Morning", nil, []int64{1, 2, 3})
	require.NoError(t, err)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Songs, 2)
	assert.Equal(t, int64(1), got.Songs[0].ID)
	assert.Equal(t, int64(3), got.Songs[1].ID)
	assert.Equal(t, []int64{2}, got.Missing)
}

func TestFavoritesAsSyntheticPlaylist(t *testing.T) {
	m, _ := newTestManager(1, 2)
	ctx := context.Background()

	require.NoError(t, m.AddFavorite(ctx, 2))
	require.NoError(t, m.AddFavorite(ctx, 1))

	got, err := m.Get(ctx, model.FavoritesPlaylistID)
	require.NoError(t, err)
	assert.Equal(t, model.FavoritesPlaylistName, got.Name)
	assert.Equal(t, []int64{2, 1}, got.SongIDs)
	require.Len(t, got.Songs, 2)
}

func TestFavoriteEdgeCasesAreNonFatal(t *testing.T) {
	m, _ := newTestManager(1)
	ctx := context.Background()

	require.NoError(t, m.AddFavorite(ctx, 1))
	require.NoError(t, m.AddFavorite(ctx, 1))

	require.NoError(t, m.RemoveFavorite(ctx, 1))
	require.NoError(t, m.RemoveFavorite(ctx, 1))
}

func TestAddFavoriteUnknownSong(t *testing.T) {
	m, _ := newTestManager(1)

	require.ErrorIs(t, m.AddFavorite(context.Background(), 99), repository.ErrNotFound)
}

func TestToggle(t *testing.T) {
	m, _ := newTestManager(1)
	ctx := context.Background()

	on, err := m.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.True(t, on)

	fav, err := m.IsFavorite(ctx, 1)
	require.NoError(t, err)
	assert.True(t, fav)

	off, err := m.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.False(t, off)

	fav, err = m.IsFavorite(ctx, 1)
	require.NoError(t, err)
	assert.False(t, fav)
}
