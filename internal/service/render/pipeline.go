package render

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// fitWidth downsizes img to maxWidth when it is wider, keeping the aspect
// ratio. Narrower pages are returned untouched.
func fitWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := int(float64(b.Dy()) * (float64(maxWidth) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}
	return imaging.Resize(img, maxWidth, height, imaging.Lanczos)
}

// encodePage writes one page as a JPEG at the given quality.
func encodePage(w io.Writer, img image.Image, maxWidth, quality int) error {
	return imaging.Encode(w, fitWidth(img, maxWidth), imaging.JPEG, imaging.JPEGQuality(quality))
}
