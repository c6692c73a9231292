package preview

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"

	tif2gif "github.com/myasserayoub/tif2gif"
	"github.com/myasserayoub/tif2gif/raster"
)

// ConvertFile decodes one raster (local or gs://), normalizes it and writes
// its preview PNG into outDir, named after the source basename. It returns
// the path of the file it wrote. The storage client may be nil for local
// sources.
func ConvertFile(srcPath, outDir string, opts Options, client *storage.Client) (string, error) {
	f, _, err := tif2gif.MaybeOpenFromGoogleStorage(srcPath, client)
	if err != nil {
		return "", pfx.Err(err)
	}
	defer f.Close()

	r, err := raster.Decode(f, srcPath)
	if err != nil {
		return "", err
	}

	img := Normalize(r, opts)

	outPath := filepath.Join(outDir, OutputName(srcPath))
	if err := imaging.Save(img, outPath); err != nil {
		return "", pfx.Err(fmt.Errorf("writing %s: %s", outPath, err))
	}

	return outPath, nil
}

// OutputName derives the preview filename from a source path by substituting
// the .png extension on its basename.
func OutputName(srcPath string) string {
	base := path.Base(srcPath)
	return strings.TrimSuffix(base, path.Ext(base)) + ".png"
}
