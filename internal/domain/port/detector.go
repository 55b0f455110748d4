package port

import (
	"context"
	"image"

	"facecam/internal/domain/entity"
)

// FaceDetector интерфейс движка распознавания лиц
type FaceDetector interface {
	// Detect ищет лица на кадре, вместе с ними точки и эмоции, если их запросили в opts
	Detect(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error)
}

// ModelLoader загружает модели до начала работы
type ModelLoader interface {
	// LoadModels загружает все модели, ошибка любой из них фатальна для сессии
	LoadModels(ctx context.Context) error
}
