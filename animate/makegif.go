// Package animate assembles preview images into an animated gif with a
// progress indicator burned into each frame.
package animate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	_ "image/png"

	"cloud.google.com/go/storage"
	"github.com/carbocation/go-quantize/quantize"
	"github.com/carbocation/pfx"

	tif2gif "github.com/myasserayoub/tif2gif"
)

// ErrNoFrames is returned when an empty frame sequence is submitted.
var ErrNoFrames = errors.New("no frames to assemble")

// DimensionMismatchError indicates that a frame does not share the bounds of
// the first frame in the sequence. Assembly aborts and nothing is written.
type DimensionMismatchError struct {
	Index  int
	Path   string
	Bounds image.Rectangle
	Want   image.Rectangle
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("frame %d (%s) is %dx%d, expected %dx%d to match frame 0",
		e.Index, e.Path, e.Bounds.Dx(), e.Bounds.Dy(), e.Want.Dx(), e.Want.Dy())
}

type orderedPaletted struct {
	key   int
	image *image.Paletted
}

// MakeGIFFromPaths reads each preview image exactly once, in the given
// order, overlays the progress indicator, and assembles the frames into a
// gif. The delay between frames is in hundredths of a second. The storage
// client may be nil when every path is local.
func MakeGIFFromPaths(paths []string, delay int, opts OverlayOptions, client *storage.Client) (*gif.GIF, error) {
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}

	frames := make([]image.Image, 0, len(paths))
	var want image.Rectangle
	for k, p := range paths {
		img, err := readFrame(p, client)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("reading frame %s: %s", p, err))
		}

		if k == 0 {
			want = img.Bounds()
		} else if b := img.Bounds(); b.Dx() != want.Dx() || b.Dy() != want.Dy() {
			return nil, &DimensionMismatchError{Index: k, Path: p, Bounds: b, Want: want}
		}

		base := path.Base(p)
		label := strings.TrimSuffix(base, path.Ext(base))
		frames = append(frames, progressOverlay(img, label, k, len(paths), opts))
	}

	return MakeGIF(frames, delay)
}

// readFrame decodes one preview image from a local or gs:// path. The image
// decoder swallows i/o errors, so the file is read fully into memory first.
func readFrame(p string, client *storage.Client) (image.Image, error) {
	f, _, err := tif2gif.MaybeOpenFromGoogleStorage(p, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	imgBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))

	return img, err
}

// MakeGIF creates an animated gif from an ordered slice of images. The delay
// between frames is in hundredths of a second. The color quantizer is built
// from *all* input images, and the quantized palette is shared across all of
// the output frames.
func MakeGIF(frames []image.Image, delay int) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	outGif := &gif.GIF{}

	quantizer := quantize.MedianCutQuantizer{
		Aggregation:    quantize.Mean,
		Weighting:      nil,
		AddTransparent: false,
	}

	pal := quantizer.QuantizeMultiple(make([]color.Color, 0, 256), frames)

	// Convert each image to a frame in our animated gif
	palettedImages := make(chan orderedPaletted)
	semaphore := make(chan struct{}, runtime.NumCPU())

	// This is surprisingly slow and so is worth parallelizing.
	go func() {
		for k, img := range frames {
			semaphore <- struct{}{}

			go func(k int, img image.Image) {
				defer func() { <-semaphore }()

				palettedImage := image.NewPaletted(img.Bounds(), pal)
				draw.Draw(palettedImage, img.Bounds(), img, image.Point{}, draw.Over)

				palettedImages <- orderedPaletted{
					key:   k,
					image: palettedImage,
				}
			}(k, img)
		}
	}()

	// Save the outputs - in order
	sortedPalettedImages := make([]*image.Paletted, len(frames))
	for range frames {
		palettedImage := <-palettedImages
		sortedPalettedImages[palettedImage.key] = palettedImage.image
	}

	// Assemble into a gif
	for _, palettedImage := range sortedPalettedImages {
		outGif.Image = append(outGif.Image, palettedImage)
		outGif.Delay = append(outGif.Delay, delay)
	}

	return outGif, nil
}

// WriteGIF persists the assembled gif.
func WriteGIF(outGif *gif.GIF, outName string) error {
	f, err := os.OpenFile(outName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return gif.EncodeAll(f, outGif)
}
