//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

var ErrStreamEnded = errors.New("camera stream ended")

// Camera открывает устройство через OpenCV
type Camera struct {
	Device  string
	Display entity.Size
}

// NewCamera создаёт камеру. device: номер устройства, адрес потока или file:<путь>.
func NewCamera(device string, display entity.Size) *Camera {
	return &Camera{Device: device, Display: display}
}

// Open запускает захват и ждёт первый кадр
func (c *Camera) Open(ctx context.Context) (port.VideoSource, error) {
	if path, ok := stillPath(c.Device); ok {
		return OpenStillSource(path, c.Display)
	}

	var device interface{} = c.Device
	if id, err := strconv.Atoi(c.Device); err == nil {
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open video capture %q: %w", c.Device, err)
	}

	src := &captureSource{
		vc:      vc,
		display: c.Display,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go src.grab()

	select {
	case <-src.ready:
	case <-ctx.Done():
		src.Close()
		return nil, ctx.Err()
	}

	src.mu.RLock()
	err = src.err
	src.mu.RUnlock()
	if err != nil {
		src.Close()
		return nil, err
	}
	return src, nil
}

// captureSource хранит последний прочитанный кадр, старый кадр просто заменяется
type captureSource struct {
	vc      *gocv.VideoCapture
	display entity.Size

	mu    sync.RWMutex
	frame image.Image
	size  entity.Size
	err   error

	readyOnce sync.Once
	ready     chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

func (s *captureSource) grab() {
	defer close(s.stopped)

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if ok := s.vc.Read(&mat); !ok || mat.Empty() {
			s.mu.Lock()
			s.err = ErrStreamEnded
			s.mu.Unlock()
			s.readyOnce.Do(func() { close(s.ready) })
			return
		}

		img, err := mat.ToImage()
		if err != nil {
			continue
		}

		s.mu.Lock()
		s.frame = img
		s.size = entity.Size{Width: mat.Cols(), Height: mat.Rows()}
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// IntrinsicSize разрешение последнего кадра
func (s *captureSource) IntrinsicSize() entity.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// DisplaySize размер показа, по умолчанию равен разрешению
func (s *captureSource) DisplaySize() entity.Size {
	if s.display.Empty() {
		return s.IntrinsicSize()
	}
	return s.display
}

// Frame последний кадр
func (s *captureSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		if s.err != nil {
			return nil, s.err
		}
		return nil, ErrSourceClosed
	}
	return s.frame, nil
}

// Close останавливает захват и освобождает устройство
func (s *captureSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.vc.Close()
	})
	return err
}
