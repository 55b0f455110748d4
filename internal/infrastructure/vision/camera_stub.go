//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

// Camera без OpenCV умеет открывать только file:<путь>
type Camera struct {
	Device  string
	Display entity.Size
}

// NewCamera создаёт камеру-заглушку
func NewCamera(device string, display entity.Size) *Camera {
	return &Camera{Device: device, Display: display}
}

// Open возвращает ошибку для устройств, если сборка без тега gocv
func (c *Camera) Open(ctx context.Context) (port.VideoSource, error) {
	if path, ok := stillPath(c.Device); ok {
		return OpenStillSource(path, c.Display)
	}
	return nil, errNoGoCV
}
