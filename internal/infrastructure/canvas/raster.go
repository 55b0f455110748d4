// Package canvas растровый холст на image.RGBA, работает без OpenCV.
package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

var (
	BoxColor      = color.RGBA{B: 255, A: 255}
	LandmarkColor = color.RGBA{R: 255, B: 255, A: 255}
	TextColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	TextBackColor = color.RGBA{A: 128}
)

const (
	lineWidth    = 2
	landmarkSize = 2
	textPadding  = 2
)

// Raster холст в памяти
type Raster struct {
	img  *image.RGBA
	face font.Face
}

// New создаёт прозрачный холст
func New(size entity.Size) *Raster {
	return &Raster{
		img:  image.NewRGBA(image.Rect(0, 0, size.Width, size.Height)),
		face: basicfont.Face7x13,
	}
}

// Size размер холста
func (r *Raster) Size() entity.Size {
	b := r.img.Bounds()
	return entity.Size{Width: b.Dx(), Height: b.Dy()}
}

// Clear заливает холст прозрачным
func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// DrawFrame вписывает кадр во весь холст
func (r *Raster) DrawFrame(frame image.Image) {
	fb := frame.Bounds()
	if fb.Dx() == r.img.Bounds().Dx() && fb.Dy() == r.img.Bounds().Dy() {
		draw.Draw(r.img, r.img.Bounds(), frame, fb.Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(r.img, r.img.Bounds(), frame, fb, draw.Src, nil)
}

// DrawBox рисует рамку и подпись над ней
func (r *Raster) DrawBox(box entity.Box, label string) {
	rect := box.Rect()
	fill := image.NewUniform(BoxColor)

	top := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+lineWidth)
	bottom := image.Rect(rect.Min.X, rect.Max.Y-lineWidth, rect.Max.X, rect.Max.Y)
	left := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+lineWidth, rect.Max.Y)
	right := image.Rect(rect.Max.X-lineWidth, rect.Min.Y, rect.Max.X, rect.Max.Y)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(r.img, edge.Intersect(r.img.Bounds()), fill, image.Point{}, draw.Src)
	}

	if label == "" {
		return
	}
	// подпись над рамкой, у верхнего края кадра внутри неё
	y := float64(rect.Min.Y - r.lineHeight() - 2*textPadding)
	if y < 0 {
		y = float64(rect.Min.Y)
	}
	r.DrawText(entity.Point{X: float64(rect.Min.X), Y: y}, []string{label})
}

// DrawLandmarks рисует точки квадратами landmarkSize
func (r *Raster) DrawLandmarks(points []entity.Point) {
	fill := image.NewUniform(LandmarkColor)
	for _, p := range points {
		x, y := int(p.X), int(p.Y)
		dot := image.Rect(x-landmarkSize/2, y-landmarkSize/2, x+landmarkSize/2+1, y+landmarkSize/2+1)
		draw.Draw(r.img, dot.Intersect(r.img.Bounds()), fill, image.Point{}, draw.Src)
	}
}

// DrawText рисует строки на полупрозрачной подложке
func (r *Raster) DrawText(at entity.Point, lines []string) {
	if len(lines) == 0 {
		return
	}

	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(TextColor), Face: r.face}

	width := 0
	for _, line := range lines {
		if w := d.MeasureString(line).Ceil(); w > width {
			width = w
		}
	}
	x, y := int(at.X), int(at.Y)
	lh := r.lineHeight()
	back := image.Rect(x, y, x+width+2*textPadding, y+lh*len(lines)+2*textPadding)
	draw.Draw(r.img, back.Intersect(r.img.Bounds()), image.NewUniform(TextBackColor), image.Point{}, draw.Over)

	ascent := r.face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		d.Dot = fixed.P(x+textPadding, y+textPadding+ascent+i*lh)
		d.DrawString(line)
	}
}

// Image содержимое холста
func (r *Raster) Image() image.Image {
	return r.img
}

func (r *Raster) lineHeight() int {
	return r.face.Metrics().Height.Ceil()
}

// Factory создаёт растровые холсты
type Factory struct{}

// NewCanvas реализует port.CanvasFactory
func (Factory) NewCanvas(size entity.Size) port.Canvas {
	return New(size)
}

var (
	_ port.Canvas        = (*Raster)(nil)
	_ port.CanvasFactory = Factory{}
)
