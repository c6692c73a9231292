// Package raster reads TIFF rasters into a band-interleaved numeric grid
// suitable for normalization. Sample values keep the file's native range
// (8-bit stays 0..255, 16-bit stays 0..65535) so that no-data sentinels can
// be compared against the original values.
package raster

import (
	"fmt"
	"image"
	"io"

	_ "golang.org/x/image/tiff"
)

// DecodeError indicates that a source raster file was unreadable or
// malformed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Raster holds the decoded samples in band-interleaved order:
// Samples[(y*Width+x)*Bands+band].
type Raster struct {
	Width  int
	Height int
	Bands  int

	Samples []float64
}

// At returns the sample for one pixel and band.
func (r *Raster) At(x, y, band int) float64 {
	return r.Samples[(y*r.Width+x)*r.Bands+band]
}

// Decode reads one TIFF raster. The name is only used in error messages.
func Decode(rd io.Reader, name string) (*Raster, error) {
	img, _, err := image.Decode(rd)
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}

	return fromImage(img, name)
}

func fromImage(img image.Image, name string) (*Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("empty raster (%dx%d)", w, h)}
	}

	out := &Raster{Width: w, Height: h}

	switch im := img.(type) {
	case *image.Gray:
		out.Bands = 1
		out.Samples = make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Samples[y*w+x] = float64(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		out.Bands = 1
		out.Samples = make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Samples[y*w+x] = float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		// 16-bit color: keep the full 0..65535 range.
		out.Bands = 3
		out.Samples = make([]float64, w*h*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 3
				out.Samples[i] = float64(cr)
				out.Samples[i+1] = float64(cg)
				out.Samples[i+2] = float64(cb)
			}
		}
	default:
		// 8-bit color paths (RGBA, NRGBA, paletted, ...).
		out.Bands = 3
		out.Samples = make([]float64, w*h*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 3
				out.Samples[i] = float64(cr >> 8)
				out.Samples[i+1] = float64(cg >> 8)
				out.Samples[i+2] = float64(cb >> 8)
			}
		}
	}

	return out, nil
}
