//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"facecam/internal/domain/entity"
)

func TestDNNDetector_CancelledContextSkipsInference(t *testing.T) {
	d := NewDNNDetector(t.TempDir())
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 32, 32)), entity.DefaultDetectorOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestDNNDetector_MissingModels(t *testing.T) {
	d := NewDNNDetector(filepath.Join(t.TempDir(), "models"))
	defer d.Close()

	err := d.LoadModels(context.Background())
	require.ErrorContains(t, err, entity.ModelFaceDetector)

	_, err = d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 32, 32)), entity.DefaultDetectorOptions())
	require.ErrorContains(t, err, "not loaded")
}
