//go:build gocv
// +build gocv

package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

var (
	boxColor      = color.RGBA{B: 255, A: 255}
	landmarkColor = color.RGBA{R: 255, B: 255, A: 255}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textBackColor = color.RGBA{A: 160}
)

const (
	fontFace      = gocv.FontHersheySimplex
	fontScale     = 0.5
	fontThickness = 1
	textPadding   = 3
)

// MatCanvas холст на gocv.Mat с альфа-каналом
type MatCanvas struct {
	mat gocv.Mat
}

// NewMatCanvas создаёт прозрачный холст
func NewMatCanvas(size entity.Size) *MatCanvas {
	mat := gocv.NewMatWithSize(size.Height, size.Width, gocv.MatTypeCV8UC4)
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
	return &MatCanvas{mat: mat}
}

func (c *MatCanvas) Size() entity.Size {
	return entity.Size{Width: c.mat.Cols(), Height: c.mat.Rows()}
}

func (c *MatCanvas) Clear() {
	c.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// DrawFrame приводит кадр к размеру холста
func (c *MatCanvas) DrawFrame(frame image.Image) {
	src, err := gocv.ImageToMatRGBA(frame)
	if err != nil {
		return
	}
	defer src.Close()

	if src.Cols() == c.mat.Cols() && src.Rows() == c.mat.Rows() {
		src.CopyTo(&c.mat)
		return
	}
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(c.mat.Cols(), c.mat.Rows()), 0, 0, gocv.InterpolationLinear)
	resized.CopyTo(&c.mat)
}

func (c *MatCanvas) DrawBox(box entity.Box, label string) {
	rect := box.Rect()
	gocv.Rectangle(&c.mat, rect, boxColor, 2)
	if label == "" {
		return
	}
	size := gocv.GetTextSize(label, fontFace, fontScale, fontThickness)
	y := float64(rect.Min.Y - size.Y - 2*textPadding)
	if y < 0 {
		y = float64(rect.Min.Y)
	}
	c.DrawText(entity.Point{X: float64(rect.Min.X), Y: y}, []string{label})
}

func (c *MatCanvas) DrawLandmarks(points []entity.Point) {
	for _, p := range points {
		gocv.Circle(&c.mat, image.Pt(int(p.X), int(p.Y)), 1, landmarkColor, -1)
	}
}

func (c *MatCanvas) DrawText(at entity.Point, lines []string) {
	if len(lines) == 0 {
		return
	}

	width, lineHeight := 0, 0
	for _, line := range lines {
		size := gocv.GetTextSize(line, fontFace, fontScale, fontThickness)
		if size.X > width {
			width = size.X
		}
		if size.Y > lineHeight {
			lineHeight = size.Y
		}
	}
	lineHeight += textPadding

	x, y := int(at.X), int(at.Y)
	back := image.Rect(x, y, x+width+2*textPadding, y+lineHeight*len(lines)+textPadding)
	gocv.Rectangle(&c.mat, back, textBackColor, -1)

	for i, line := range lines {
		org := image.Pt(x+textPadding, y+(i+1)*lineHeight)
		gocv.PutText(&c.mat, line, org, fontFace, fontScale, textColor, fontThickness)
	}
}

// Image копия холста в памяти Go
func (c *MatCanvas) Image() image.Image {
	img, err := c.mat.ToImage()
	if err != nil {
		return image.NewRGBA(image.Rect(0, 0, c.mat.Cols(), c.mat.Rows()))
	}
	return img
}

// Close освобождает Mat
func (c *MatCanvas) Close() error {
	return c.mat.Close()
}

// MatCanvasFactory создаёт холсты OpenCV
type MatCanvasFactory struct{}

func (MatCanvasFactory) NewCanvas(size entity.Size) port.Canvas {
	return NewMatCanvas(size)
}

// NewCanvasFactory фабрика холстов для текущей сборки
func NewCanvasFactory() port.CanvasFactory {
	return MatCanvasFactory{}
}
