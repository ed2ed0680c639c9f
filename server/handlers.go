package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"fmusic/core/catalog"
	"fmusic/core/playlist"
	"fmusic/core/scanner"
	"fmusic/core/spectrogram"
	"fmusic/logger"
	"fmusic/repository"
)

// APIHandler bundles the handlers' collaborators.
type APIHandler struct {
	songs     repository.SongRepository
	engine    *catalog.Engine
	playlists *playlist.Manager
	ephemeral *playlist.EphemeralStore
	specs     *spectrogram.Cache
	scanner   *scanner.Scanner
	musicDir  string
}

// NewAPIHandler creates the API handler set.
func NewAPIHandler(
	songs repository.SongRepository,
	engine *catalog.Engine,
	playlists *playlist.Manager,
	ephemeral *playlist.EphemeralStore,
	specs *spectrogram.Cache,
	libraryScanner *scanner.Scanner,
	musicDir string,
) *APIHandler {
	return &APIHandler{
		songs:     songs,
		engine:    engine,
		playlists: playlists,
		ephemeral: ephemeral,
		specs:     specs,
		scanner:   libraryScanner,
		musicDir:  musicDir,
	}
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError maps a domain error to an HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", logger.ErrorField(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidMode),
		errors.Is(err, catalog.ErrInvalidRestraint),
		errors.Is(err, catalog.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidField),
		errors.Is(err, playlist.ErrReserved):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
