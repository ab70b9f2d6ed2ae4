package vision

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Downscale returns a copy of img whose longest side is at most
// maxSize, plus the ratio needed to map coordinates on the copy back to
// the original. Images already small enough are returned as-is with
// ratio 1.
func Downscale(img image.Image, maxSize int) (image.Image, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > w {
		longest = h
	}
	if maxSize <= 0 || longest <= maxSize {
		return img, 1
	}

	ratio := float64(longest) / float64(maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)/ratio), int(float64(h)/ratio)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst, ratio
}

// ScaleBBox maps a [x1, y1, x2, y2] box from downscaled coordinates
// back to the original resolution.
func ScaleBBox(bbox []float64, ratio float64) []float64 {
	if len(bbox) != 4 || ratio == 1 {
		return bbox
	}
	return []float64{
		bbox[0] * ratio,
		bbox[1] * ratio,
		bbox[2] * ratio,
		bbox[3] * ratio,
	}
}

// BBoxToRect converts a [x1, y1, x2, y2] box to an image.Rectangle
// clamped to the given bounds.
func BBoxToRect(bbox []float64, bounds image.Rectangle) image.Rectangle {
	if len(bbox) != 4 {
		return image.Rectangle{}
	}
	r := image.Rect(int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3]))
	return r.Intersect(bounds)
}
