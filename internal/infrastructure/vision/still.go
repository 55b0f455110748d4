package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

// FilePrefix префикс устройства, указывающий на файл с кадром
const FilePrefix = "file:"

var ErrSourceClosed = errors.New("video source is closed")

// StillSource источник, который бесконечно отдаёт один кадр.
// Нужен для запуска без камеры и для демонстрации.
type StillSource struct {
	frame   image.Image
	display entity.Size

	mu     sync.RWMutex
	closed bool
}

// NewStillSource создаёт источник из готового кадра
func NewStillSource(frame image.Image, display entity.Size) *StillSource {
	b := frame.Bounds()
	if display.Empty() {
		display = entity.Size{Width: b.Dx(), Height: b.Dy()}
	}
	return &StillSource{frame: frame, display: display}
}

// OpenStillSource читает кадр из файла
func OpenStillSource(path string, display entity.Size) (*StillSource, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open still frame: %w", err)
	}
	return NewStillSource(img, display), nil
}

// IntrinsicSize размер файла
func (s *StillSource) IntrinsicSize() entity.Size {
	b := s.frame.Bounds()
	return entity.Size{Width: b.Dx(), Height: b.Dy()}
}

// DisplaySize размер показа
func (s *StillSource) DisplaySize() entity.Size {
	return s.display
}

// Frame возвращает тот же кадр
func (s *StillSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSourceClosed
	}
	return s.frame, nil
}

// Close останавливает источник
func (s *StillSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func stillPath(device string) (string, bool) {
	if !strings.HasPrefix(device, FilePrefix) {
		return "", false
	}
	return strings.TrimPrefix(device, FilePrefix), true
}

var _ port.VideoSource = (*StillSource)(nil)
