package spectrogram

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fmusic/core/audio"
	"fmusic/logger"
	"fmusic/model"
)

// ErrComputeFailed is returned when the artifact could not be generated,
// typically because the source audio is missing or undecodable.
var ErrComputeFailed = errors.New("spectrogram computation failed")

// SongResolver resolves a track id to its catalog record; the cache only
// needs it for the audio location.
type SongResolver interface {
	GetByID(ctx context.Context, id int64) (*model.Song, error)
}

// Cache produces one spectrogram image per track and memoizes it on
// disk. Once an artifact exists for an id it is served as-is for the
// lifetime of the process; the source file at a given id is assumed
// immutable.
type Cache struct {
	dir     string
	songs   SongResolver
	decoder audio.Decoder

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewCache creates a spectrogram cache writing artifacts under dir.
func NewCache(dir string, songs SongResolver, decoder audio.Decoder) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spectrogram directory %s: %w", dir, err)
	}
	return &Cache{
		dir:     dir,
		songs:   songs,
		decoder: decoder,
		locks:   make(map[int64]*sync.Mutex),
	}, nil
}

// ArtifactPath returns the deterministic location of a track's artifact,
// whether or not it exists yet.
func (c *Cache) ArtifactPath(id int64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d.png", id))
}

// Get returns the path of the spectrogram image for the track, computing
// it on first request. Concurrent first requests for the same id
// serialize on a per-id lock, so the expensive pipeline runs exactly
// once and later callers observe the first caller's artifact.
func (c *Cache) Get(ctx context.Context, id int64) (string, error) {
	lock := c.keyLock(id)
	lock.Lock()
	defer lock.Unlock()

	path := c.ArtifactPath(id)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	song, err := c.songs.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	start := time.Now()
	if err := c.compute(ctx, song, path); err != nil {
		return "", err
	}
	logger.Info("Spectrogram computed",
		logger.Int64("song", id),
		logger.Duration("took", time.Since(start)))
	return path, nil
}

// compute runs the miss pipeline: decode, mel spectrogram, render,
// persist. The image is written to a temp file and renamed into place so
// a partial artifact is never observable at the target path.
func (c *Cache) compute(ctx context.Context, song *model.Song, path string) error {
	samples, sampleRate, err := c.decoder.Decode(ctx, song.AbsPath)
	if err != nil {
		return fmt.Errorf("decoding %s: %v: %w", song.AbsPath, err, ErrComputeFailed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db := powerToDB(melSpectrogram(samples, sampleRate))
	if err := ctx.Err(); err != nil {
		return err
	}
	img := render(db)

	tmp, err := os.CreateTemp(c.dir, fmt.Sprintf(".%d-*.png", song.ID))
	if err != nil {
		return fmt.Errorf("creating temp artifact: %v: %w", err, ErrComputeFailed)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding artifact: %v: %w", err, ErrComputeFailed)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp artifact: %v: %w", err, ErrComputeFailed)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("placing artifact: %v: %w", err, ErrComputeFailed)
	}
	return nil
}

func (c *Cache) keyLock(id int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}
