package snapshot

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to w x h with a Catmull-Rom filter. Renders are
// fully opaque, so no alpha premultiplication is needed.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
