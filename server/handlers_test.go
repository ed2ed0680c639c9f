package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fmusic/core/catalog"
	"fmusic/core/playlist"
	"fmusic/model"
	"fmusic/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSongs serves a fixed catalog to the HTTP layer.
type stubSongs struct {
	songs []*model.Song
}

func (s *stubSongs) Create(ctx context.Context, song *model.Song) (int64, error) { return 0, nil }

func (s *stubSongs) GetByID(ctx context.Context, id int64) (*model.Song, error) {
	for _, song := range s.songs {
		if song.ID == id {
			return song, nil
		}
	}
	return nil, fmt.Errorf("song %d: %w", id, repository.ErrNotFound)
}

func (s *stubSongs) GetByName(ctx context.Context, name string) (*model.Song, error) {
	for _, song := range s.songs {
		if song.Name == name {
			return song, nil
		}
	}
	return nil, fmt.Errorf("song %q: %w", name, repository.ErrNotFound)
}

func (s *stubSongs) GetByPath(ctx context.Context, path string) (*model.Song, error) {
	for _, song := range s.songs {
		if song.AbsPath == path {
			return song, nil
		}
	}
	return nil, fmt.Errorf("song %q: %w", path, repository.ErrNotFound)
}

func (s *stubSongs) GetAll(ctx context.Context, limit int64) ([]*model.Song, error) {
	return stubBound(s.songs, limit), nil
}

func (s *stubSongs) GetRange(ctx context.Context, field repository.Field, low, high, limit int64) ([]*model.Song, error) {
	var out []*model.Song
	for _, song := range s.songs {
		var v int64
		switch field {
		case repository.FieldID:
			v = song.ID
		case repository.FieldBPM:
			v = int64(song.BPM)
		case repository.FieldLength:
			v = int64(song.Length)
		case repository.FieldKbps:
			v = int64(song.Kbps)
		}
		if v >= low && v <= high {
			out = append(out, song)
		}
	}
	return stubBound(out, limit), nil
}

func (s *stubSongs) GetByExact(ctx context.Context, field repository.Field, value string, limit int64) ([]*model.Song, error) {
	var out []*model.Song
	for _, song := range s.songs {
		var v string
		switch field {
		case repository.FieldName:
			v = song.Name
		case repository.FieldGenre:
			v = song.Genre
		case repository.FieldArtist:
			v = song.Artist
		case repository.FieldAlbum:
			v = song.Album
		}
		if v == value {
			out = append(out, song)
		}
	}
	return stubBound(out, limit), nil
}

func (s *stubSongs) Search(ctx context.Context, q string, limit int64) ([]*model.Song, error) {
	var out []*model.Song
	for _, song := range s.songs {
		if strings.Contains(song.Name, q) || strings.Contains(song.Artist, q) {
			out = append(out, song)
		}
	}
	return stubBound(out, limit), nil
}

func (s *stubSongs) Delete(ctx context.Context, id int64) error { return nil }

func (s *stubSongs) Count(ctx context.Context) (int64, error) { return int64(len(s.songs)), nil }

func stubBound(songs []*model.Song, limit int64) []*model.Song {
	if limit >= 0 && int64(len(songs)) > limit {
		return songs[:limit]
	}
	return songs
}

func testRouter() http.Handler {
	songs := &stubSongs{songs: []*model.Song{
		{ID: 1, Name: "Alpha", AbsPath: "/m/alpha.mp3", BPM: 120, Genre: "Rock", Artist: "The Waves"},
		{ID: 2, Name: "Beta", AbsPath: "/m/beta.mp3", BPM: 90, Genre: "Jazz", Artist: "Quartet"},
	}}
	h := NewAPIHandler(songs, catalog.NewEngine(songs), playlist.NewManager(nil, songs), nil, nil, nil, "/m")
	return newRouter(h)
}

func doRequest(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	return rec
}

func TestGetSongs(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/songs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []*model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	assert.Len(t, songs, 2)
}

func TestGetSongNotFound(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/songs/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuerySongs(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/songs/query",
		`{"mode": "AND", "restraints": {"bpm": 120, "genre": "Rock"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []*model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 1)
	assert.Equal(t, "Alpha", songs[0].Name)
}

func TestQuerySongsInvalidMode(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/songs/query", `{"mode": "XOR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuerySongsMalformedBody(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/songs/query", `{"mode": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/search?q=Waves", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []*model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 1)
	assert.Equal(t, int64(1), songs[0].ID)
}

func TestSearchMissingQ(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/songs", nil)

	corsMiddleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: repository.ErrNotFound, want: http.StatusNotFound},
		{err: repository.ErrDuplicate, want: http.StatusConflict},
		{err: repository.ErrInvalidField, want: http.StatusBadRequest},
		{err: catalog.ErrInvalidMode, want: http.StatusBadRequest},
		{err: catalog.ErrInvalidRestraint, want: http.StatusBadRequest},
		{err: catalog.ErrInvalidLimit, want: http.StatusBadRequest},
		{err: playlist.ErrReserved, want: http.StatusBadRequest},
		{err: repository.ErrUnavailable, want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
		assert.Equal(t, tc.want, statusFor(fmt.Errorf("wrapped: %w", tc.err)), "wrapped %v", tc.err)
	}
}
