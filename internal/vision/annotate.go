package vision

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// boxColor is the classic attendance-camera green.
var boxColor = color.RGBA{G: 255, A: 255}

const boxThickness = 2

// Annotation is one labelled bounding box at original-frame resolution.
type Annotation struct {
	Box   image.Rectangle
	Label string
}

// Annotate draws the given boxes and labels onto a copy of the frame.
// The input image is never modified.
func Annotate(img image.Image, annotations []Annotation) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	for _, a := range annotations {
		drawRect(dst, a.Box)
		drawLabel(dst, a.Box, a.Label)
	}
	return dst
}

// drawRect draws a rectangle outline.
func drawRect(dst *image.RGBA, r image.Rectangle) {
	for t := 0; t < boxThickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Set(x, r.Min.Y+t, boxColor)
			dst.Set(x, r.Max.Y-1-t, boxColor)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			dst.Set(r.Min.X+t, y, boxColor)
			dst.Set(r.Max.X-1-t, y, boxColor)
		}
	}
}

// drawLabel draws the label just above the box, or just inside it when
// the box touches the top edge.
func drawLabel(dst *image.RGBA, r image.Rectangle, label string) {
	if label == "" {
		return
	}
	y := r.Min.Y - 5
	if r.Min.Y-15 <= 15 {
		y = r.Min.Y + 15
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(boxColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X, y),
	}
	d.DrawString(label)
}
