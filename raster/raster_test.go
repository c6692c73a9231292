package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/tiff"
)

func encodeTIFF(t *testing.T, img image.Image) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	return bytes.NewReader(buf.Bytes())
}

func TestDecodeGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Pix[i] = uint8(i)
	}

	r, err := Decode(encodeTIFF(t, img), "a.tif")
	if err != nil {
		t.Fatal(err)
	}

	if r.Width != 4 || r.Height != 4 || r.Bands != 1 {
		t.Fatalf("got %dx%d with %d bands, expected 4x4 with 1 band", r.Width, r.Height, r.Bands)
	}
	if v := r.At(1, 1, 0); v != 5 {
		t.Fatalf("sample (1,1) = %v, expected 5", v)
	}
	if v := r.At(3, 3, 0); v != 15 {
		t.Fatalf("sample (3,3) = %v, expected 15", v)
	}
}

func TestDecodeGray16KeepsNativeRange(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 512})
	img.SetGray16(1, 1, color.Gray16{Y: 40000})

	r, err := Decode(encodeTIFF(t, img), "deep.tif")
	if err != nil {
		t.Fatal(err)
	}

	if r.Bands != 1 {
		t.Fatalf("got %d bands, expected 1", r.Bands)
	}
	if v := r.At(0, 0, 0); v != 512 {
		t.Fatalf("sample (0,0) = %v, expected the native 512", v)
	}
	if v := r.At(1, 1, 0); v != 40000 {
		t.Fatalf("sample (1,1) = %v, expected the native 40000", v)
	}
}

func TestDecodeRGB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	r, err := Decode(encodeTIFF(t, img), "rgb.tif")
	if err != nil {
		t.Fatal(err)
	}

	if r.Bands != 3 {
		t.Fatalf("got %d bands, expected 3", r.Bands)
	}
	for _, v := range []struct {
		x, band  int
		expected float64
	}{
		{0, 0, 10}, {0, 1, 20}, {0, 2, 30},
		{1, 0, 200}, {1, 1, 100}, {1, 2, 50},
	} {
		if got := r.At(v.x, 0, v.band); got != v.expected {
			t.Fatalf("sample (%d,0) band %d = %v, expected %v", v.x, v.band, got, v.expected)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("this is not a tiff")), "bad.tif")
	if err == nil {
		t.Fatal("expected an error for malformed input")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError, got %T: %v", err, err)
	}
	if decodeErr.Path != "bad.tif" {
		t.Fatalf("DecodeError path = %q, expected bad.tif", decodeErr.Path)
	}
}
