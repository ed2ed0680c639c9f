package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fmusic/config"
	"fmusic/core/audio"
	"fmusic/core/catalog"
	"fmusic/core/metadata"
	"fmusic/core/playlist"
	"fmusic/core/scanner"
	"fmusic/core/spectrogram"
	"fmusic/db"
	"fmusic/logger"
	"fmusic/model"
	"fmusic/repository"

	"github.com/gorilla/mux"
)

// Start initializes the collaborators and runs the HTTP server until
// SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer conn.Close()

	if err := db.MigrateSchema(cfg, &model.Song{}, &model.Playlist{}, &model.Favorite{}); err != nil {
		logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()
	logger.Info("Successfully connected to Redis")

	songRepo := repository.NewMySQLSongRepository(conn)
	playlistRepo := repository.NewMySQLPlaylistRepository(conn)

	decoder := audio.NewFFmpegDecoder(cfg.FFmpegPath)
	extractor := metadata.NewExtractor(decoder)
	libraryScanner := scanner.New(extractor, songRepo)

	engine := catalog.NewEngine(songRepo)
	manager := playlist.NewManager(playlistRepo, songRepo)
	ephemeral := playlist.NewEphemeralStore(redisClient, time.Duration(cfg.EphemeralTTLMinutes)*time.Minute)

	specCache, err := spectrogram.NewCache(cfg.SpectrogramDir, songRepo, decoder)
	if err != nil {
		logger.Fatal("Failed to create spectrogram cache", logger.ErrorField(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WatchLibrary {
		go func() {
			if err := libraryScanner.Watch(ctx, cfg.MusicDir); err != nil && ctx.Err() == nil {
				logger.Error("Library watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	apiHandler := NewAPIHandler(songRepo, engine, manager, ephemeral, specCache, libraryScanner, cfg.MusicDir)
	router := newRouter(apiHandler)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      corsMiddleware(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // spectrogram computation is bounded by audio length
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", logger.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", logger.ErrorField(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", logger.ErrorField(err))
	}
}

func newRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	// Songs.
	router.HandleFunc("/api/songs", h.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/by-name", h.GetSongByNameHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/by-path", h.GetSongByPathHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/query", h.QuerySongsHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id:[0-9]+}", h.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id:[0-9]+}", h.DeleteSongHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id:[0-9]+}/art", h.GetAlbumArtHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id:[0-9]+}/audio", h.GetAudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id:[0-9]+}/spectrogram", h.GetSpectrogramHandler).Methods(http.MethodGet)

	// Search and indexing.
	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/index", h.IndexHandler).Methods(http.MethodPost)

	// Playlists; id 0 is the synthetic Favorites playlist.
	router.HandleFunc("/api/playlists", h.GetPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", h.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", h.UpdatePlaylistHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id:[0-9]+}", h.DeletePlaylistHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/songs/{songId:[0-9]+}", h.AddPlaylistSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id:[0-9]+}/songs/{songId:[0-9]+}", h.RemovePlaylistSongHandler).Methods(http.MethodDelete)

	// Favorites.
	router.HandleFunc("/api/favorites", h.GetFavoritesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/{id:[0-9]+}", h.IsFavoriteHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/{id:[0-9]+}", h.AddFavoriteHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/favorites/{id:[0-9]+}", h.RemoveFavoriteHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/favorites/{id:[0-9]+}/toggle", h.ToggleFavoriteHandler).Methods(http.MethodPost)

	// Ephemeral playlists materialized from query/search results.
	router.HandleFunc("/api/ephemeral", h.CreateEphemeralHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/ephemeral/{token}", h.GetEphemeralHandler).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
