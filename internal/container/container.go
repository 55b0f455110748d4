package container

import (
	"errors"
	"fmt"

	"facecam/config"
	app "facecam/internal/application"
	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
	"facecam/internal/infrastructure/storage"
	"facecam/internal/infrastructure/upload"
	"facecam/internal/infrastructure/vision"
)

// Container собранная сессия клиента со всеми адаптерами
type Container struct {
	Session  *app.Session
	Gallery  port.Gallery
	Store    *storage.FileStore
	Detector *vision.DNNDetector
}

// New собирает сессию по конфигурации
func New(cfg *config.Config) (*Container, error) {
	store, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("init download dir: %w", err)
	}

	detector := vision.NewDNNDetector(cfg.ModelsDir)
	display := entity.Size{Width: cfg.DisplayWidth, Height: cfg.DisplayHeight}
	gallery := storage.NewMemoryGallery()

	session := app.NewSession(app.SessionDeps{
		Loader:      detector,
		Camera:      vision.NewCamera(cfg.CameraDevice, display),
		Detector:    detector,
		Canvases:    vision.NewCanvasFactory(),
		Gallery:     gallery,
		Downloader:  store,
		Uploader:    upload.NewClient(cfg.UploadEndpoint, cfg.UploadTimeout),
		Encode:      app.JPEGEncoder(cfg.JPEGQuality),
		Options:     entity.DefaultDetectorOptions(),
		Interval:    cfg.DetectInterval,
		MaxInFlight: cfg.MaxInFlight,
	})

	return &Container{
		Session:  session,
		Gallery:  gallery,
		Store:    store,
		Detector: detector,
	}, nil
}

// Close останавливает сессию и освобождает модели
func (c *Container) Close() error {
	return errors.Join(c.Session.Close(), c.Detector.Close())
}
