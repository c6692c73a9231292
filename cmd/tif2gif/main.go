// Command tif2gif converts a directory of TIFF rasters into normalized PNG
// previews and assembles them, in filename order, into an animated gif with
// a progress bar burned into each frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"

	tif2gif "github.com/myasserayoub/tif2gif"
	"github.com/myasserayoub/tif2gif/animate"
	"github.com/myasserayoub/tif2gif/preview"
)

type config struct {
	inputDir    string
	outputDir   string
	gifPath     string
	nodata      string
	delayMS     int
	stretchLow  float64
	stretchHigh float64
	fontPath    string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.inputDir, "input", "", "Directory containing .tif rasters. May be a local path or a gs:// URL.")
	flag.StringVar(&cfg.outputDir, "output", "", "Local directory that will receive one .png preview per raster. Created if absent.")
	flag.StringVar(&cfg.gifPath, "gif", "", "Path for the output animated gif.")
	flag.StringVar(&cfg.nodata, "nodata", "", "Optional no-data sentinel value. Matching pixels become transparent.")
	flag.IntVar(&cfg.delayMS, "delay", 200, "Milliseconds between each frame of the gif.")
	flag.Float64Var(&cfg.stretchLow, "stretch-low", 0, "Lower contrast-stretch percentile.")
	flag.Float64Var(&cfg.stretchHigh, "stretch-high", 100, "Upper contrast-stretch percentile.")
	flag.StringVar(&cfg.fontPath, "font", "", "Optional TTF font file for the frame overlay.")
	flag.Parse()

	if cfg.inputDir == "" || cfg.outputDir == "" || cfg.gifPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatalln(err)
	}

	log.Println("Quitting")
}

func run(cfg config) error {
	opts := preview.Options{
		StretchLow:  cfg.stretchLow,
		StretchHigh: cfg.stretchHigh,
	}
	if cfg.nodata != "" {
		v, err := strconv.ParseFloat(cfg.nodata, 64)
		if err != nil {
			return pfx.Err(fmt.Errorf("-nodata must be numeric, got %q", cfg.nodata))
		}
		opts.NoData = &v
	}
	if cfg.delayMS <= 0 {
		return pfx.Err(fmt.Errorf("-delay must be positive, got %d", cfg.delayMS))
	}

	var client *storage.Client
	if strings.HasPrefix(cfg.inputDir, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			return pfx.Err(err)
		}
	}

	tifs, err := listRasters(cfg.inputDir, client)
	if err != nil {
		return err
	}
	if len(tifs) == 0 {
		return fmt.Errorf("no .tif files found in %s", cfg.inputDir)
	}
	log.Println("Found", len(tifs), "raster files in", cfg.inputDir)

	if err := os.MkdirAll(cfg.outputDir, 0755); err != nil {
		return pfx.Err(err)
	}

	// Per-file failures are logged and skipped so that one bad raster does
	// not sink the whole batch.
	pngs := make([]string, 0, len(tifs))
	for _, tif := range tifs {
		out, err := preview.ConvertFile(tif, cfg.outputDir, opts, client)
		if err != nil {
			log.Println("Skipping:", err)
			continue
		}
		log.Println("Converted", tif, "to", out)
		pngs = append(pngs, out)
	}
	if len(pngs) == 0 {
		return fmt.Errorf("none of the %d rasters in %s could be converted", len(tifs), cfg.inputDir)
	}

	delay := cfg.delayMS / 10
	if delay < 1 {
		delay = 1
	}

	outGif, err := animate.MakeGIFFromPaths(pngs, delay, animate.OverlayOptions{FontPath: cfg.fontPath}, client)
	if err != nil {
		return err
	}
	if err := animate.WriteGIF(outGif, cfg.gifPath); err != nil {
		return err
	}

	log.Println("Wrote", len(pngs), "previews and", cfg.gifPath)

	return nil
}

// listRasters returns the .tif/.tiff files in dir, sorted lexicographically.
func listRasters(dir string, client *storage.Client) ([]string, error) {
	var names []string

	if strings.HasPrefix(dir, "gs://") {
		all, err := tif2gif.ListFromGoogleStorage(dir, client)
		if err != nil {
			return nil, err
		}
		names = all
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, pfx.Err(err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, filepath.Join(dir, entry.Name()))
		}
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".tif", ".tiff":
			out = append(out, name)
		}
	}
	sort.Strings(out)

	return out, nil
}
