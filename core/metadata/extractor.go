package metadata

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fmusic/core/audio"
	"fmusic/logger"
	"fmusic/model"

	"github.com/dhowden/tag"
)

// Extractor reads catalog metadata from a source file. It is invoked
// only during indexing.
type Extractor interface {
	Extract(ctx context.Context, absPath string) (*model.Song, error)
}

// tagExtractor reads embedded tags with dhowden/tag and stream-level
// duration/bitrate through the prober.
type tagExtractor struct {
	prober audio.Prober
}

// NewExtractor creates a metadata extractor.
func NewExtractor(prober audio.Prober) Extractor {
	return &tagExtractor{prober: prober}
}

// Extract builds an unsaved Song from the file at absPath. A file whose
// stream cannot be probed is unreadable and fails; missing individual
// tags fall back to the filename and the Unknown sentinel.
func (e *tagExtractor) Extract(ctx context.Context, absPath string) (*model.Song, error) {
	info, err := e.prober.Probe(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("unreadable audio file %s: %w", absPath, err)
	}

	song := &model.Song{
		AbsPath: absPath,
		Name:    nameFromPath(absPath),
		Genre:   model.UnknownField,
		Artist:  model.UnknownField,
		Album:   model.UnknownField,
		Length:  int(info.Duration),
		Kbps:    info.BitRate / 1000,
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absPath, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// No usable tags; the probe already proved the audio is readable.
		logger.Debug("No tags found, using fallbacks", logger.String("path", absPath))
		return song, nil
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		song.Name = title
	}
	if artist := strings.TrimSpace(m.Artist()); artist != "" {
		song.Artist = artist
	}
	if album := strings.TrimSpace(m.Album()); album != "" {
		song.Album = album
	}
	if genre := strings.TrimSpace(m.Genre()); genre != "" {
		song.Genre = genre
	}
	if pic := m.Picture(); pic != nil {
		song.AlbumArt = pic.Data
	}
	song.BPM = bpmFromRaw(m.Raw())

	return song, nil
}

// nameFromPath is the display-name fallback: the file name without its
// extension.
func nameFromPath(absPath string) string {
	base := filepath.Base(absPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// bpmFromRaw digs the tempo frame out of the raw tag map. ID3 uses TBPM,
// MP4 uses tmpo; both arrive as unspecified scalar types.
func bpmFromRaw(raw map[string]interface{}) int {
	for _, key := range []string{"TBPM", "tbpm", "tmpo", "bpm", "BPM"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if bpm, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return int(math.Round(bpm))
			}
		case int:
			return v
		case int64:
			return int(v)
		case uint16:
			return int(v)
		case float64:
			return int(math.Round(v))
		}
	}
	return 0
}
