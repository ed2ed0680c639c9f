package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fmusic/core/catalog"
	"fmusic/logger"

	"github.com/gorilla/mux"
)

// GetSongsHandler returns the catalog in storage order, optionally
// bounded by a limit query parameter.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, -1)
	if err != nil {
		writeError(w, err)
		return
	}
	songs, err := h.songs.GetAll(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns one song by id.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	song, err := h.songs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// GetSongByNameHandler returns one song by its unique display name.
func (h *APIHandler) GetSongByNameHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, fmt.Errorf("missing name parameter: %w", catalog.ErrInvalidRestraint))
		return
	}
	song, err := h.songs.GetByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// GetSongByPathHandler returns one song by its absolute source path.
func (h *APIHandler) GetSongByPathHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, fmt.Errorf("missing path parameter: %w", catalog.ErrInvalidRestraint))
		return
	}
	song, err := h.songs.GetByPath(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// DeleteSongHandler deletes a song by id.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.songs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuerySongsHandler evaluates a structured multi-field query.
func (h *APIHandler) QuerySongsHandler(w http.ResponseWriter, r *http.Request) {
	var raw catalog.RawQuery
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, fmt.Errorf("malformed query body: %w", catalog.ErrInvalidRestraint))
		return
	}
	query, err := catalog.ParseQuery(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	songs, err := h.engine.Evaluate(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// SearchHandler runs the full-text substring search.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, fmt.Errorf("missing q parameter: %w", catalog.ErrInvalidRestraint))
		return
	}
	limit, err := limitParam(r, -1)
	if err != nil {
		writeError(w, err)
		return
	}
	songs, err := h.engine.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetAlbumArtHandler serves the embedded cover art as a binary payload.
func (h *APIHandler) GetAlbumArtHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	song, err := h.songs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(song.AlbumArt) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(song.AlbumArt))
	w.Write(song.AlbumArt)
}

// GetAudioHandler serves the raw audio file for a song.
func (h *APIHandler) GetAudioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	song, err := h.songs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, song.AbsPath)
}

// GetSpectrogramHandler serves the spectrogram artifact, computing it on
// first request.
func (h *APIHandler) GetSpectrogramHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := h.specs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// IndexHandler triggers a scan of the music library.
func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scanner.ScanDir(r.Context(), h.musicDir)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Info("Index run completed via API",
		logger.Int("indexed", stats.Indexed),
		logger.Int("skipped", stats.Skipped),
		logger.Int("failed", stats.Failed))
	writeJSON(w, http.StatusOK, stats)
}

// pathID parses the numeric path variable.
func pathID(r *http.Request, key string) (int64, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, catalog.ErrInvalidRestraint)
	}
	return id, nil
}

// limitParam parses an optional limit query parameter.
func limitParam(r *http.Request, fallback int64) (int64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q: %w", raw, catalog.ErrInvalidLimit)
	}
	return limit, nil
}
