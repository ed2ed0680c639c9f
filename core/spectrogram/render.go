package spectrogram

import (
	"image"
	"image/color"
	"math"
)

// Rendered image dimensions. The 8:1 aspect matches the wide strip the
// catalog UI shows under each track.
const (
	imageWidth  = 1024
	imageHeight = 128
)

// magmaStops are evenly spaced anchors of the magma colormap; rendering
// interpolates linearly between them.
var magmaStops = [][3]uint8{
	{0x00, 0x00, 0x04},
	{0x14, 0x0e, 0x36},
	{0x3b, 0x0f, 0x70},
	{0x64, 0x1a, 0x80},
	{0x8c, 0x29, 0x81},
	{0xb7, 0x37, 0x79},
	{0xde, 0x49, 0x68},
	{0xf7, 0x70, 0x5c},
	{0xfe, 0x9f, 0x6d},
	{0xfe, 0xcf, 0x92},
	{0xfc, 0xfd, 0xbf},
}

// magma maps a value in [0, 1] to the magma colormap.
func magma(v float64) color.NRGBA {
	if v <= 0 {
		s := magmaStops[0]
		return color.NRGBA{R: s[0], G: s[1], B: s[2], A: 0xff}
	}
	if v >= 1 {
		s := magmaStops[len(magmaStops)-1]
		return color.NRGBA{R: s[0], G: s[1], B: s[2], A: 0xff}
	}

	pos := v * float64(len(magmaStops)-1)
	i := int(pos)
	frac := pos - float64(i)
	lo, hi := magmaStops[i], magmaStops[i+1]
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + frac*(float64(b)-float64(a))))
	}
	return color.NRGBA{R: lerp(lo[0], hi[0]), G: lerp(lo[1], hi[1]), B: lerp(lo[2], hi[2]), A: 0xff}
}

// render draws a dB-scaled spectrogram into a fixed-size image. The
// matrix is arranged [band][frame] with band 0 at the bottom of the
// image; pixels sample the matrix nearest-neighbor.
func render(db [][]float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	bands := len(db)
	if bands == 0 {
		return img
	}
	frames := len(db[0])
	if frames == 0 {
		return img
	}

	for y := 0; y < imageHeight; y++ {
		// Low frequencies at the bottom.
		band := (imageHeight - 1 - y) * bands / imageHeight
		for x := 0; x < imageWidth; x++ {
			frame := x * frames / imageWidth
			// Normalize [-topDB, 0] to [0, 1].
			v := (db[band][frame] + topDB) / topDB
			img.SetNRGBA(x, y, magma(v))
		}
	}

	keyOutBackground(img)
	return img
}

// keyOutBackground forces every exactly-white pixel fully transparent.
// This is a chroma-key on the background color, not a colorimetric
// threshold: only an exact RGB match of pure white is keyed.
func keyOutBackground(img *image.NRGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.R == 0xff && c.G == 0xff && c.B == 0xff {
				c.A = 0
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
