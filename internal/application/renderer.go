package app

import (
	"errors"
	"image"
	"image/draw"
	"log"
	"sync"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

var (
	ErrNotBound         = errors.New("overlay is not bound to a video source")
	ErrGeometryMismatch = errors.New("overlay canvas does not match display geometry")
)

// RendererState состояние оверлея
type RendererState string

const (
	RendererUninitialized RendererState = "uninitialized" // Источник ещё не запускался
	RendererBound         RendererState = "bound"         // Холст создан, рисовать нечего
	RendererDrawing       RendererState = "drawing"       // Был хотя бы один цикл отрисовки
)

// Renderer владеет единственным холстом поверх видео
type Renderer struct {
	factory port.CanvasFactory

	mu       sync.Mutex
	state    RendererState
	src      port.VideoSource
	geometry entity.Size
	canvas   port.Canvas
}

// NewRenderer создаёт оверлей в состоянии Uninitialized
func NewRenderer(factory port.CanvasFactory) *Renderer {
	return &Renderer{factory: factory, state: RendererUninitialized}
}

// Bind привязывает оверлей к источнику при старте воспроизведения.
// Для того же экземпляра источника повторный вызов ничего не делает,
// для нового экземпляра холст пересоздаётся. Возвращает true, если холст создан.
func (r *Renderer) Bind(src port.VideoSource) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.canvas != nil && r.src == src {
		return false
	}

	r.src = src
	r.geometry = src.DisplaySize()
	r.canvas = r.factory.NewCanvas(r.geometry)
	r.state = RendererBound
	log.Printf("Overlay bound: display %s, intrinsic %s", r.geometry, src.IntrinsicSize())
	return true
}

// Draw очищает холст и рисует набор в геометрии отображения.
// Пустой набор только очищает холст.
func (r *Renderer) Draw(set entity.ResultSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.canvas == nil {
		return ErrNotBound
	}
	if r.canvas.Size() != r.geometry {
		return ErrGeometryMismatch
	}

	r.canvas.Clear()
	r.state = RendererDrawing
	if set.Empty() {
		return nil
	}
	drawOverlays(r.canvas, set.Rescale(r.geometry))
	return nil
}

// State текущее состояние
func (r *Renderer) State() RendererState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Geometry размер холста наложения
func (r *Renderer) Geometry() entity.Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geometry
}

// Snapshot копия пикселей наложения
func (r *Renderer) Snapshot() (*image.RGBA, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.canvas == nil {
		return nil, false
	}
	src := r.canvas.Image()
	out := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, true
}
