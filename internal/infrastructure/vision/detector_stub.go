//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"facecam/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// DNNDetector заглушка без OpenCV
type DNNDetector struct {
	ModelsDir string
	Artifacts []entity.ModelArtifact
}

// NewDNNDetector создаёт детектор-заглушку (без OpenCV).
func NewDNNDetector(modelsDir string) *DNNDetector {
	return &DNNDetector{
		ModelsDir: modelsDir,
		Artifacts: entity.DefaultModelArtifacts(),
	}
}

// LoadModels возвращает ошибку, если сборка без тега gocv.
func (d *DNNDetector) LoadModels(ctx context.Context) error {
	_ = ctx
	return errNoGoCV
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error) {
	_ = ctx
	_ = frame
	_ = opts
	return nil, errNoGoCV
}

// Close ничего не делает
func (d *DNNDetector) Close() error {
	return nil
}
