package preview

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	_ "image/png"

	"golang.org/x/image/tiff"
)

func writeGrayTIFF(t *testing.T, path string, w, h int, start uint8) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = start + uint8(i)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestConvertFile(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	src := filepath.Join(inDir, "a.tif")
	writeGrayTIFF(t, src, 4, 4, 0)

	nodata := 0.0
	outPath, err := ConvertFile(src, outDir, Options{NoData: &nodata}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if expected := filepath.Join(outDir, "a.png"); outPath != expected {
		t.Fatalf("output path = %s, expected %s", outPath, expected)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("preview is %dx%d, expected 4x4", b.Dx(), b.Dy())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("sentinel pixel alpha = %d, expected 0", a)
	}
	if _, _, _, a := img.At(1, 0).RGBA(); a != 0xffff {
		t.Fatalf("unmasked pixel alpha = %d, expected opaque", a)
	}
}

func TestConvertFileIdempotent(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	src := filepath.Join(inDir, "a.tif")
	writeGrayTIFF(t, src, 4, 4, 0)

	outPath, err := ConvertFile(src, outDir, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ConvertFile(src, outDir, Options{}, nil); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("re-running the conversion changed the output bytes")
	}
}

func TestConvertFileUnreadable(t *testing.T) {
	outDir := t.TempDir()

	if _, err := ConvertFile(filepath.Join(outDir, "missing.tif"), outDir, Options{}, nil); err == nil {
		t.Fatal("expected an error for a missing source file")
	}
}

func TestOutputName(t *testing.T) {
	for _, v := range []struct {
		in       string
		expected string
	}{
		{"a.tif", "a.png"},
		{"/data/in/b.tiff", "b.png"},
		{"gs://bucket/folder/2023-09-30.tif", "2023-09-30.png"},
	} {
		if got := OutputName(v.in); got != v.expected {
			t.Fatalf("OutputName(%s) = %s, expected %s", v.in, got, v.expected)
		}
	}
}
