package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
	"facecam/internal/metrics"
)

// ErrNoFrame источник ещё не отдал ни одного кадра
var ErrNoFrame = errors.New("video source has no frame")

// Detect берёт текущий кадр источника и запускает на нём детектор.
// Source результата равен размерам кадра, в которых детектор вернул координаты.
func Detect(ctx context.Context, src port.VideoSource, detector port.FaceDetector, opts entity.DetectorOptions) (entity.ResultSet, error) {
	frame, err := src.Frame(ctx)
	if err != nil {
		return entity.ResultSet{}, fmt.Errorf("grab frame: %w", err)
	}
	if frame == nil {
		return entity.ResultSet{}, ErrNoFrame
	}

	started := time.Now()
	detections, err := detector.Detect(ctx, frame, opts)
	metrics.DetectionDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return entity.ResultSet{}, fmt.Errorf("detect faces: %w", err)
	}

	b := frame.Bounds()
	return entity.ResultSet{
		Source:     entity.Size{Width: b.Dx(), Height: b.Dy()},
		Detections: detections,
	}, nil
}
