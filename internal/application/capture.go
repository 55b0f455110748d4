package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
	"facecam/internal/metrics"
)

const (
	// DefaultJPEGQuality качество кодирования снимков
	DefaultJPEGQuality = 92

	captureMIMEType   = "image/jpeg"
	uploadFileName    = "capture.jpg"
	captureFilePrefix = "face_capture_"
)

// ErrEmptyCapture снимок не из чего собрать
var ErrEmptyCapture = errors.New("capture produced no image data")

// EncodeFunc кодирует холст в сжатый формат
type EncodeFunc func(img image.Image) ([]byte, error)

// JPEGEncoder кодирует в JPEG с заданным качеством
func JPEGEncoder(quality int) EncodeFunc {
	return func(img image.Image) ([]byte, error) {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// CapturePipeline собирает снимок из кадра и последнего набора детекций,
// сохраняет его в галерею и локально и отправляет на сервер в фоне.
type CapturePipeline struct {
	results    *Results
	factory    port.CanvasFactory
	gallery    port.Gallery
	downloader port.Downloader
	uploader   port.Uploader
	encode     EncodeFunc
	now        func() time.Time

	mu        sync.Mutex
	lastStamp int64
	uploads   sync.WaitGroup

	// OnUpload вызывается после каждой загрузки, если задан
	OnUpload func(img *entity.CapturedImage, outcome entity.UploadOutcome)
}

// NewCapturePipeline создаёт конвейер. downloader и uploader могут быть nil.
func NewCapturePipeline(results *Results, factory port.CanvasFactory, gallery port.Gallery, downloader port.Downloader, uploader port.Uploader, encode EncodeFunc) *CapturePipeline {
	if encode == nil {
		encode = JPEGEncoder(DefaultJPEGQuality)
	}
	return &CapturePipeline{
		results:    results,
		factory:    factory,
		gallery:    gallery,
		downloader: downloader,
		uploader:   uploader,
		encode:     encode,
		now:        time.Now,
	}
}

// Capture делает снимок src в полном разрешении.
// Ошибка до кодирования включительно прерывает снимок без побочных эффектов.
// Ошибки сохранения и загрузки только логируются и снимок не отменяют.
func (p *CapturePipeline) Capture(ctx context.Context, src port.VideoSource) (*entity.CapturedImage, error) {
	img, err := p.compose(ctx, src)
	if err != nil {
		metrics.Captures.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	p.gallery.Append(img)
	metrics.Captures.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.GallerySize.Set(float64(p.gallery.Len()))

	if p.downloader != nil {
		path, err := p.downloader.Save(ctx, img.FileName, img.Data)
		if err != nil {
			log.Printf("Error saving capture %s: %v", img.FileName, err)
		} else {
			log.Printf("Capture saved: %s", path)
		}
	}

	if p.uploader != nil {
		p.startUpload(ctx, img)
	}

	return img, nil
}

// Wait ждёт завершения фоновых загрузок
func (p *CapturePipeline) Wait() {
	p.uploads.Wait()
}

func (p *CapturePipeline) compose(ctx context.Context, src port.VideoSource) (*entity.CapturedImage, error) {
	size := src.IntrinsicSize()
	if size.Empty() {
		return nil, fmt.Errorf("video source size %s: %w", size, ErrEmptyCapture)
	}

	frame, err := src.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}
	if frame == nil {
		return nil, ErrNoFrame
	}

	// Холст в собственном разрешении видео, а не в размере показа.
	canvas := p.factory.NewCanvas(size)
	if closer, ok := canvas.(io.Closer); ok {
		defer closer.Close()
	}
	canvas.DrawFrame(frame)

	// Берётся последний доступный набор, даже если он старше кадра.
	if set := p.results.Latest(); !set.Empty() {
		drawOverlays(canvas, set.Rescale(size))
	}

	data, err := p.encode(canvas.Image())
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyCapture
	}

	stamp := p.nextStamp()
	return &entity.CapturedImage{
		ID:        uuid.NewString(),
		CreatedAt: time.UnixMilli(stamp),
		Width:     size.Width,
		Height:    size.Height,
		MIMEType:  captureMIMEType,
		Data:      data,
		FileName:  fmt.Sprintf("%s%d.jpg", captureFilePrefix, stamp),
	}, nil
}

// nextStamp миллисекундная метка, строго возрастающая в пределах процесса
func (p *CapturePipeline) nextStamp() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	stamp := p.now().UnixMilli()
	if stamp <= p.lastStamp {
		stamp = p.lastStamp + 1
	}
	p.lastStamp = stamp
	return stamp
}

func (p *CapturePipeline) startUpload(ctx context.Context, img *entity.CapturedImage) {
	payload := entity.UploadPayload{
		FileName: uploadFileName,
		MIMEType: img.MIMEType,
		Data:     bytes.Clone(img.Data),
	}

	// Загрузка переживает отмену запроса, который сделал снимок.
	uploadCtx := context.WithoutCancel(ctx)

	p.uploads.Add(1)
	go func() {
		defer p.uploads.Done()

		outcome := p.uploader.Upload(uploadCtx, payload)
		if outcome.OK() {
			metrics.Uploads.WithLabelValues(metrics.OutcomeOK).Inc()
			log.Printf("Image saved: %s -> %s", img.FileName, outcome.FilePath)
		} else {
			metrics.Uploads.WithLabelValues(metrics.OutcomeError).Inc()
			log.Printf("Upload error for %s: %v", img.FileName, outcome.Err)
		}

		if p.OnUpload != nil {
			p.OnUpload(img, outcome)
		}
	}()
}
