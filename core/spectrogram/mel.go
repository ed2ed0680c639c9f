package spectrogram

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analysis parameters, chosen to match the usual mel pipeline defaults:
// 2048-point FFT, 512-sample hop, 128 mel bands.
const (
	fftSize   = 2048
	hopLength = 512
	numMels   = 128

	// dB floor below the spectrogram peak.
	topDB = 80.0

	// Power values below this are clamped before the log.
	aMin = 1e-10
)

// melSpectrogram computes a mel-scaled power spectrogram. The result is
// indexed [mel band][frame], band 0 being the lowest frequency.
func melSpectrogram(samples []float64, sampleRate int) [][]float64 {
	power := stftPower(samples)
	filters := melFilterBank(sampleRate, fftSize, numMels)

	frames := len(power)
	mel := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		mel[m] = make([]float64, frames)
		for t := 0; t < frames; t++ {
			var sum float64
			for _, w := range filters[m] {
				sum += w.weight * power[t][w.bin]
			}
			mel[m][t] = sum
		}
	}
	return mel
}

// powerToDB converts a power spectrogram to decibels relative to its
// peak, clamped topDB below it.
func powerToDB(mel [][]float64) [][]float64 {
	ref := aMin
	for _, band := range mel {
		for _, v := range band {
			if v > ref {
				ref = v
			}
		}
	}

	out := make([][]float64, len(mel))
	for i, band := range mel {
		out[i] = make([]float64, len(band))
		for j, v := range band {
			if v < aMin {
				v = aMin
			}
			db := 10 * math.Log10(v/ref)
			if db < -topDB {
				db = -topDB
			}
			out[i][j] = db
		}
	}
	return out
}

// stftPower computes the power of each short-time FFT frame. The signal
// is chopped into Hann-windowed frames hopLength apart; a track shorter
// than one frame is zero-padded to a single frame.
func stftPower(samples []float64) [][]float64 {
	if len(samples) < fftSize {
		padded := make([]float64, fftSize)
		copy(padded, samples)
		samples = padded
	}

	window := hannWindow(fftSize)
	fft := fourier.NewFFT(fftSize)
	bins := fftSize/2 + 1

	frames := 1 + (len(samples)-fftSize)/hopLength
	power := make([][]float64, frames)
	frame := make([]float64, fftSize)
	for t := 0; t < frames; t++ {
		offset := t * hopLength
		for i := 0; i < fftSize; i++ {
			frame[i] = samples[offset+i] * window[i]
		}
		coeffs := fft.Coefficients(nil, frame)

		power[t] = make([]float64, bins)
		for i, c := range coeffs {
			re, im := real(c), imag(c)
			power[t][i] = re*re + im*im
		}
	}
	return power
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}
	return window
}

// binWeight is one FFT bin's contribution to a mel filter.
type binWeight struct {
	bin    int
	weight float64
}

// melFilterBank builds triangular filters spaced evenly on the mel scale
// between 0 Hz and the Nyquist frequency. Only non-zero weights are kept.
func melFilterBank(sampleRate, fftSize, nMels int) [][]binWeight {
	bins := fftSize/2 + 1
	nyquist := float64(sampleRate) / 2

	melMax := hzToMel(nyquist)
	points := make([]float64, nMels+2)
	for i := range points {
		points[i] = melToHz(melMax * float64(i) / float64(nMels+1))
	}

	binFreq := func(bin int) float64 {
		return float64(bin) * float64(sampleRate) / float64(fftSize)
	}

	filters := make([][]binWeight, nMels)
	for m := 0; m < nMels; m++ {
		lower, center, upper := points[m], points[m+1], points[m+2]
		for bin := 0; bin < bins; bin++ {
			f := binFreq(bin)
			var weight float64
			switch {
			case f > lower && f < center:
				weight = (f - lower) / (center - lower)
			case f >= center && f < upper:
				weight = (upper - f) / (upper - center)
			}
			if weight > 0 {
				filters[m] = append(filters[m], binWeight{bin: bin, weight: weight})
			}
		}
	}
	return filters
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
