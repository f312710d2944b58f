package app

import (
	"image"

	"github.com/nfnt/resize"
)

const previewSize = 400

// thumbnail fits img inside the preview box keeping its aspect ratio.
// Images already smaller than the box are returned unchanged.
func thumbnail(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	return resize.Thumbnail(previewSize, previewSize, img, resize.Lanczos3)
}
