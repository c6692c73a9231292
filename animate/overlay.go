package animate

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// OverlayOptions configures the per-frame overlay.
type OverlayOptions struct {
	// FontPath points to an optional TTF file. When empty (or unloadable) a
	// built-in bitmap face is used, so the tool does not depend on system
	// fonts being installed.
	FontPath string
}

const (
	barMargin  = 10
	barHeight  = 8
	fontPoints = 14
)

// progressOverlay burns the frame label and a progress bar into a copy of
// img. The bar fill is proportional to (index+1)/total and everything drawn
// is opaque. The frame dimensions are unchanged.
func progressOverlay(img image.Image, label string, index, total int, opts OverlayOptions) image.Image {
	ctx := gg.NewContextForImage(img)
	w, h := ctx.Width(), ctx.Height()

	ctx.SetRGB(1, 1, 1)
	setFontFace(ctx, opts)

	if label != "" {
		ctx.DrawString(label, barMargin, 16)
	}

	if barWidth := w - 2*barMargin; barWidth > 0 {
		progress := float64(index+1) / float64(total)
		barY := float64(h - barHeight - 6)

		ctx.DrawRectangle(barMargin, barY, progress*float64(barWidth), barHeight)
		ctx.Fill()
		ctx.DrawString(fmt.Sprintf("%d/%d", index+1, total), barMargin, barY-4)
	}

	return ctx.Image()
}

func setFontFace(ctx *gg.Context, opts OverlayOptions) {
	if opts.FontPath != "" {
		if err := ctx.LoadFontFace(opts.FontPath, fontPoints); err == nil {
			return
		}
	}

	ctx.SetFontFace(basicfont.Face7x13)
}
