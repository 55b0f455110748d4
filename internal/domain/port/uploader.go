package port

import (
	"context"

	"facecam/internal/domain/entity"
)

// Uploader отправляет снимок на сервер хранения
type Uploader interface {
	// Upload делает одну попытку, без повторов
	Upload(ctx context.Context, payload entity.UploadPayload) entity.UploadOutcome
}

// Downloader сохраняет снимок локально
type Downloader interface {
	// Save записывает файл и возвращает путь к нему
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}
