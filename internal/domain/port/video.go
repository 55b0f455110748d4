package port

import (
	"context"
	"image"

	"facecam/internal/domain/entity"
)

// VideoSource живой источник кадров.
// Реализации должны быть указателями: оверлей привязывается к экземпляру источника.
type VideoSource interface {
	// IntrinsicSize собственное разрешение кадров
	IntrinsicSize() entity.Size

	// DisplaySize размер, в котором видео показывается пользователю
	DisplaySize() entity.Size

	// Frame возвращает текущий кадр
	Frame(ctx context.Context) (image.Image, error)

	// Close останавливает поток
	Close() error
}

// Camera запрашивает живой поток у устройства
type Camera interface {
	Open(ctx context.Context) (VideoSource, error)
}
