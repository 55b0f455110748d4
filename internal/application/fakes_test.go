package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

type fakeSource struct {
	intrinsic entity.Size
	display   entity.Size
	frame     image.Image
	frameErr  error

	mu     sync.Mutex
	frames int
	closed bool
}

func newFakeSource(intrinsic, display entity.Size) *fakeSource {
	frame := image.NewRGBA(image.Rect(0, 0, intrinsic.Width, intrinsic.Height))
	for y := 0; y < intrinsic.Height; y++ {
		for x := 0; x < intrinsic.Width; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 90, G: 120, B: 30, A: 255})
		}
	}
	return &fakeSource{intrinsic: intrinsic, display: display, frame: frame}
}

func (s *fakeSource) IntrinsicSize() entity.Size { return s.intrinsic }
func (s *fakeSource) DisplaySize() entity.Size   { return s.display }

func (s *fakeSource) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	if s.closed {
		return nil, errors.New("closed")
	}
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.frame, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

type detectorFunc func(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error)

func (f detectorFunc) Detect(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error) {
	return f(ctx, frame, opts)
}

type loaderFunc func(ctx context.Context) error

func (f loaderFunc) LoadModels(ctx context.Context) error { return f(ctx) }

type fakeCamera struct {
	src port.VideoSource
	err error
}

func (c *fakeCamera) Open(ctx context.Context) (port.VideoSource, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.src, nil
}

// recordingCanvas запоминает порядок операций рисования
type recordingCanvas struct {
	size entity.Size

	mu    sync.Mutex
	ops   []string
	boxes []entity.Box
}

func (c *recordingCanvas) Size() entity.Size { return c.size }

func (c *recordingCanvas) record(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, op)
}

func (c *recordingCanvas) Clear()                                   { c.record("clear") }
func (c *recordingCanvas) DrawFrame(frame image.Image)              { c.record("frame") }
func (c *recordingCanvas) DrawLandmarks(points []entity.Point)      { c.record("landmarks") }
func (c *recordingCanvas) DrawText(at entity.Point, lines []string) { c.record("text") }

func (c *recordingCanvas) DrawBox(box entity.Box, label string) {
	c.mu.Lock()
	c.boxes = append(c.boxes, box)
	c.mu.Unlock()
	c.record("box")
}

func (c *recordingCanvas) Image() image.Image {
	return image.NewRGBA(image.Rect(0, 0, c.size.Width, c.size.Height))
}

func (c *recordingCanvas) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

func (c *recordingCanvas) Boxes() []entity.Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Box(nil), c.boxes...)
}

type recordingFactory struct {
	mu       sync.Mutex
	canvases []*recordingCanvas
}

func (f *recordingFactory) NewCanvas(size entity.Size) port.Canvas {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &recordingCanvas{size: size}
	f.canvases = append(f.canvases, c)
	return c
}

func (f *recordingFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.canvases)
}

func (f *recordingFactory) Last() *recordingCanvas {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.canvases) == 0 {
		return nil
	}
	return f.canvases[len(f.canvases)-1]
}

type fakeUploader struct {
	outcome entity.UploadOutcome

	mu       sync.Mutex
	payloads []entity.UploadPayload
}

func (u *fakeUploader) Upload(ctx context.Context, payload entity.UploadPayload) entity.UploadOutcome {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.payloads = append(u.payloads, payload)
	return u.outcome
}

func (u *fakeUploader) Payloads() []entity.UploadPayload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]entity.UploadPayload(nil), u.payloads...)
}

type fakeDownloader struct {
	err error

	mu    sync.Mutex
	names []string
}

func (d *fakeDownloader) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.names = append(d.names, fileName)
	return "/downloads/" + fileName, nil
}

func (d *fakeDownloader) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.names...)
}

func oneFace(source entity.Size, expr entity.Expression) entity.ResultSet {
	return entity.ResultSet{
		Source: source,
		Detections: []entity.Detection{{
			Box:         entity.Box{X: 100, Y: 100, Width: 200, Height: 200},
			Score:       0.93,
			Landmarks:   []entity.Point{{X: 150, Y: 150}, {X: 250, Y: 150}},
			Expressions: entity.NewExpressions(map[entity.Expression]float64{expr: 0.9}),
		}},
	}
}
