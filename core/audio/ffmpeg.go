package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"fmusic/logger"
)

// decodeSampleRate is the rate all waveforms are resampled to before
// spectrogram computation.
const decodeSampleRate = 22050

// FFmpegDecoder implements Decoder and Prober by shelling out to
// ffmpeg/ffprobe.
type FFmpegDecoder struct {
	ffmpegPath string
}

// NewFFmpegDecoder creates a decoder using the given ffmpeg binary.
func NewFFmpegDecoder(ffmpegPath string) *FFmpegDecoder {
	return &FFmpegDecoder{ffmpegPath: ffmpegPath}
}

func (d *FFmpegDecoder) ffprobePath() string {
	return strings.Replace(d.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

// Decode resamples the file to mono float32 PCM on stdout and converts
// it to a float64 waveform.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) ([]float64, int, error) {
	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(decodeSampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("ffmpeg decode failed for %s: %w\nFFmpeg Error: %s", path, err, stderr.String())
	}

	raw := out.Bytes()
	if len(raw) < 4 {
		return nil, 0, fmt.Errorf("ffmpeg produced no audio for %s", path)
	}

	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}

	logger.Debug("Decoded audio",
		logger.String("path", path),
		logger.Int("samples", len(samples)))
	return samples, decodeSampleRate, nil
}

// Probe reports the container duration and bitrate via ffprobe.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration,bit_rate",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, d.ffprobePath(), args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", path, err, stderr.String())
	}

	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return ProbeInfo{}, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	info := ProbeInfo{}
	if probeData.Format.Duration != "" {
		duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
		if err != nil {
			return ProbeInfo{}, fmt.Errorf("failed to parse duration %q: %w", probeData.Format.Duration, err)
		}
		info.Duration = duration
	}
	if probeData.Format.BitRate != "" {
		bitRate, err := strconv.Atoi(probeData.Format.BitRate)
		if err != nil {
			return ProbeInfo{}, fmt.Errorf("failed to parse bit rate %q: %w", probeData.Format.BitRate, err)
		}
		info.BitRate = bitRate
	}
	return info, nil
}
