package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fmusic/core/metadata"
	"fmusic/logger"
	"fmusic/repository"

	"github.com/fsnotify/fsnotify"
)

// musicExtensions are the file types the indexer accepts.
var musicExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// IsMusic reports whether the path looks like an indexable audio file.
func IsMusic(path string) bool {
	return musicExtensions[strings.ToLower(filepath.Ext(path))]
}

// Stats summarizes one indexing pass.
type Stats struct {
	Indexed int
	Skipped int
	Failed  int
}

// Scanner walks the music library and inserts new files into the
// catalog. Files the catalog already knows (same path or same name) are
// skipped; the store's uniqueness constraints are the arbiter.
type Scanner struct {
	extractor metadata.Extractor
	songs     repository.SongRepository
}

// New creates a library scanner.
func New(extractor metadata.Extractor, songs repository.SongRepository) *Scanner {
	return &Scanner{extractor: extractor, songs: songs}
}

// ScanDir indexes every music file under dir.
func (s *Scanner) ScanDir(ctx context.Context, dir string) (Stats, error) {
	stats := Stats{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !IsMusic(path) {
			return nil
		}

		switch err := s.Index(ctx, path); {
		case err == nil:
			stats.Indexed++
		case errors.Is(err, repository.ErrDuplicate):
			stats.Skipped++
		default:
			stats.Failed++
			logger.Warn("Failed to index file",
				logger.String("path", path),
				logger.ErrorField(err))
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	logger.Info("Library scan finished",
		logger.String("dir", dir),
		logger.Int("indexed", stats.Indexed),
		logger.Int("skipped", stats.Skipped),
		logger.Int("failed", stats.Failed))
	return stats, nil
}

// Index extracts metadata from one file and inserts it into the catalog.
// A file whose name or path the catalog already holds returns
// repository.ErrDuplicate.
func (s *Scanner) Index(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	song, err := s.extractor.Extract(ctx, abs)
	if err != nil {
		return err
	}

	id, err := s.songs.Create(ctx, song)
	if err != nil {
		return err
	}
	song.ID = id
	logger.Info("Indexed song",
		logger.Int64("id", id),
		logger.String("name", song.Name))
	return nil
}

// Watch indexes music files created under dir while the context lives.
// New subdirectories are added to the watch as they appear.
func (s *Scanner) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the existing directory tree.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Watching music library", logger.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("Failed to watch new directory",
						logger.String("path", event.Name),
						logger.ErrorField(err))
				}
				continue
			}
			if event.Op&fsnotify.Create == 0 || !IsMusic(event.Name) {
				continue
			}
			// Give the writer a moment to finish the file.
			time.Sleep(500 * time.Millisecond)
			if err := s.Index(ctx, event.Name); err != nil && !errors.Is(err, repository.ErrDuplicate) {
				logger.Warn("Failed to index new file",
					logger.String("path", event.Name),
					logger.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", logger.ErrorField(err))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
