package audio

import "context"

// Decoder turns a source file into a sampled waveform. It is consumed
// solely by the spectrogram pipeline.
type Decoder interface {
	// Decode returns the mono waveform and its sample rate.
	Decode(ctx context.Context, path string) ([]float64, int, error)
}

// ProbeInfo is the stream-level information reported by a Prober.
type ProbeInfo struct {
	Duration float64 // seconds
	BitRate  int     // bits per second
}

// Prober reports duration and bitrate for a source file. It is consumed
// by the metadata extractor during indexing.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}
