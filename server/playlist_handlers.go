package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fmusic/core/catalog"
	"fmusic/model"

	"github.com/gorilla/mux"
)

type playlistRequest struct {
	Name    string  `json:"name"`
	Art     []byte  `json:"art,omitempty"`
	SongIDs []int64 `json:"song_ids"`
}

// GetPlaylistsHandler lists every stored playlist (id lists only).
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// CreatePlaylistHandler stores a new playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("malformed playlist body: %w", catalog.ErrInvalidRestraint))
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("playlist name is required: %w", catalog.ErrInvalidRestraint))
		return
	}
	playlist, err := h.playlists.Create(r.Context(), req.Name, req.Art, req.SongIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

// GetPlaylistHandler returns a resolved playlist; id 0 is Favorites.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	playlist, err := h.playlists.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// UpdatePlaylistHandler replaces a playlist's name, art and song list.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("malformed playlist body: %w", catalog.ErrInvalidRestraint))
		return
	}
	playlist := &model.Playlist{ID: id, Name: req.Name, Art: req.Art, SongIDs: req.SongIDs}
	if err := h.playlists.Update(r.Context(), playlist); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// DeletePlaylistHandler removes a playlist.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlists.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPlaylistSongHandler appends a song to a playlist.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	songID, err := pathID(r, "songId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlists.Add(r.Context(), id, songID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePlaylistSongHandler removes a song from a playlist.
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	songID, err := pathID(r, "songId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlists.Remove(r.Context(), id, songID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFavoritesHandler returns the synthetic Favorites playlist.
func (h *APIHandler) GetFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.playlists.Favorites(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// AddFavoriteHandler adds a song to the favorites set.
func (h *APIHandler) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlists.AddFavorite(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavoriteHandler removes a song from the favorites set.
func (h *APIHandler) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlists.RemoveFavorite(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IsFavoriteHandler reports favorites membership.
func (h *APIHandler) IsFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	isFav, err := h.playlists.IsFavorite(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": isFav})
}

// ToggleFavoriteHandler flips favorites membership and returns the new
// state.
func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	isFav, err := h.playlists.Toggle(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": isFav})
}

type ephemeralRequest struct {
	Name  string            `json:"name"`
	Query *catalog.RawQuery `json:"query,omitempty"`
	Q     string            `json:"q,omitempty"`
}

// CreateEphemeralHandler materializes a query or search result as a
// non-persisted playlist and returns its token.
func (h *APIHandler) CreateEphemeralHandler(w http.ResponseWriter, r *http.Request) {
	var req ephemeralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("malformed ephemeral body: %w", catalog.ErrInvalidRestraint))
		return
	}
	if req.Name == "" {
		writeError(w, fmt.Errorf("playlist name is required: %w", catalog.ErrInvalidRestraint))
		return
	}

	var songs []*model.Song
	switch {
	case req.Query != nil:
		query, err := catalog.ParseQuery(*req.Query)
		if err != nil {
			writeError(w, err)
			return
		}
		songs, err = h.engine.Evaluate(r.Context(), query)
		if err != nil {
			writeError(w, err)
			return
		}
	case req.Q != "":
		var err error
		songs, err = h.engine.Search(r.Context(), req.Q, -1)
		if err != nil {
			writeError(w, err)
			return
		}
	default:
		writeError(w, fmt.Errorf("either query or q is required: %w", catalog.ErrInvalidRestraint))
		return
	}

	token, err := h.ephemeral.Materialize(r.Context(), req.Name, songs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"count": len(songs),
	})
}

// GetEphemeralHandler fetches a non-persisted playlist by token.
func (h *APIHandler) GetEphemeralHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	playlist, err := h.ephemeral.Get(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}
