// Package preview turns decoded rasters into displayable 8-bit RGBA images.
package preview

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/myasserayoub/tif2gif/raster"
)

// Options controls one normalization pass.
type Options struct {
	// NoData is an optional sentinel. Pixels whose reference band (band 0)
	// equals it become fully transparent and are excluded from the display
	// range.
	NoData *float64

	// StretchLow and StretchHigh are contrast-stretch percentiles in
	// [0,100]. Samples outside the stretched range are clamped. The zero
	// value of StretchHigh is treated as 100, so the default is a pure
	// min/max rescale.
	StretchLow  float64
	StretchHigh float64
}

// midGray is the output for rasters with no variance in the unmasked region.
const midGray = 127

// Normalize linearly rescales the raster's samples to [0,255] and composes
// them into an RGBA image of the same dimensions. A single band is replicated
// across R, G and B; with more than three bands the first three are used.
// Alpha is 255 except where the no-data sentinel matches.
func Normalize(r *raster.Raster, opts Options) *image.NRGBA {
	lo, hi, ok := displayRange(r, opts)

	rBand, gBand, bBand := 0, 0, 0
	if r.Bands >= 3 {
		gBand, bBand = 1, 2
	}

	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			var a uint8 = 255
			if opts.NoData != nil && r.At(x, y, 0) == *opts.NoData {
				a = 0
			}

			img.SetNRGBA(x, y, color.NRGBA{
				R: rescale(r.At(x, y, rBand), lo, hi, ok),
				G: rescale(r.At(x, y, gBand), lo, hi, ok),
				B: rescale(r.At(x, y, bBand), lo, hi, ok),
				A: a,
			})
		}
	}

	return img
}

func rescale(s, lo, hi float64, ok bool) uint8 {
	if !ok {
		return midGray
	}
	if s < lo {
		s = lo
	}
	if s > hi {
		s = hi
	}

	return uint8(math.Round((s - lo) / (hi - lo) * 255))
}

// displayRange computes the rescaling bounds over every band, skipping
// pixels masked by the no-data sentinel. ok is false when the range is
// degenerate and the caller should fall back to mid-gray.
func displayRange(r *raster.Raster, opts Options) (lo, hi float64, ok bool) {
	samples := make([]float64, 0, len(r.Samples))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if opts.NoData != nil && r.At(x, y, 0) == *opts.NoData {
				continue
			}
			for band := 0; band < r.Bands; band++ {
				samples = append(samples, r.At(x, y, band))
			}
		}
	}

	if len(samples) == 0 {
		return 0, 0, false
	}

	high := opts.StretchHigh
	if high <= 0 {
		high = 100
	}

	if opts.StretchLow <= 0 && high >= 100 {
		lo, hi = floats.Min(samples), floats.Max(samples)
	} else {
		sort.Float64s(samples)
		lo = stat.Quantile(opts.StretchLow/100, stat.Empirical, samples, nil)
		hi = stat.Quantile(high/100, stat.Empirical, samples, nil)
	}

	return lo, hi, hi > lo
}
