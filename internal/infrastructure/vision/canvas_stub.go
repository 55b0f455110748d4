//go:build !gocv
// +build !gocv

package vision

import (
	"facecam/internal/domain/port"
	"facecam/internal/infrastructure/canvas"
)

// NewCanvasFactory без OpenCV рисует на растровом холсте
func NewCanvasFactory() port.CanvasFactory {
	return canvas.Factory{}
}
