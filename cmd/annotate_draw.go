package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/user20357/screensage-cloud/internal/model"
)

// LabelMode controls what text is drawn on each annotated element.
type LabelMode int

const (
	// LabelCoords draws "(x,y)" center coordinates.
	LabelCoords LabelMode = iota
	// LabelText draws the element's recognized text.
	LabelText
)

// Box size used for elements that report only a center point.
const centerBoxSize = 24

// AnnotateImage draws bounding boxes and labels on every detected element and
// a crosshair marker on every suggested action target.
func AnnotateImage(img image.Image, elements []model.Element, actions []model.Action, mode LabelMode) image.Image {
	rgba := imageToRGBA(img)

	boxColor := color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}
	markerColor := color.RGBA{R: 0, G: 200, B: 0, A: 255}

	for _, el := range elements {
		drawElementBox(rgba, el, boxColor, textColor, outlineColor, mode)
	}
	for _, a := range actions {
		if a.Coordinates != nil {
			drawMarker(rgba, a.Coordinates.X, a.Coordinates.Y, markerColor)
		}
	}
	return rgba
}

func imageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func drawElementBox(img *image.RGBA, el model.Element, boxColor, textColor, outlineColor color.Color, mode LabelMode) {
	x, y, w, h := el.Bounds[0], el.Bounds[1], el.Bounds[2], el.Bounds[3]
	if w <= 0 || h <= 0 {
		// No bounding box reported, draw a fixed box around the center.
		x = el.Center.X - centerBoxSize/2
		y = el.Center.Y - centerBoxSize/2
		w, h = centerBoxSize, centerBoxSize
	}

	drawRectangle(img, x, y, x+w, y+h, boxColor)

	var label string
	switch mode {
	case LabelText:
		label = el.Text
		if len(label) > 20 {
			label = label[:20]
		}
	default:
		label = fmt.Sprintf("(%d,%d)", el.Center.X, el.Center.Y)
	}
	if label != "" {
		drawTextWithOutline(img, label, x+w/2, y+h/2, textColor, outlineColor)
	}
}

// drawMarker draws a small crosshair at (x, y).
func drawMarker(img *image.RGBA, x, y int, c color.Color) {
	const arm = 8
	bounds := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if isWithinBounds(bounds, x+d, y) {
			img.Set(x+d, y, c)
		}
		if isWithinBounds(bounds, x, y+d) {
			img.Set(x, y+d, c)
		}
	}
}

func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline clamped to the image bounds.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline draws text centered at (x, y) with a one-pixel outline
// for visibility on arbitrary backgrounds.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13: ~7px per character, 13px tall.
	textWidth := len(text) * 7
	offsetX := x - textWidth/2
	offsetY := y - 13/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(text)
}
