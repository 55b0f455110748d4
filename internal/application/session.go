package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
	"facecam/internal/metrics"
)

// ErrModelsNotReady опрос нельзя запустить до загрузки моделей
var ErrModelsNotReady = errors.New("face models are not loaded")

// Update событие для подписчиков после применения набора
type Update struct {
	Seq        uint64            `json:"seq"`
	Expression entity.Expression `json:"expression"`
	Faces      int               `json:"faces"`
}

// InitStatus состояние инициализации для интерфейса
type InitStatus struct {
	State entity.InitState `json:"state"`
	Error string           `json:"error,omitempty"`
}

// Status снимок состояния сессии
type Status struct {
	Models     InitStatus        `json:"models"`
	Camera     InitStatus        `json:"camera"`
	Overlay    RendererState     `json:"overlay"`
	Display    entity.Size       `json:"display"`
	Polling    bool              `json:"polling"`
	InFlight   int               `json:"inFlight"`
	Expression entity.Expression `json:"expression"`
	Faces      int               `json:"faces"`
	Seq        uint64            `json:"seq"`
	Captures   int               `json:"captures"`
}

// SessionDeps зависимости сессии
type SessionDeps struct {
	Loader      port.ModelLoader // может быть nil, тогда модели считаются готовыми
	Camera      port.Camera
	Detector    port.FaceDetector
	Canvases    port.CanvasFactory
	Gallery     port.Gallery
	Downloader  port.Downloader
	Uploader    port.Uploader
	Encode      EncodeFunc
	Options     entity.DetectorOptions
	Interval    time.Duration
	MaxInFlight int // 0 означает DefaultMaxInFlight
}

// Session связывает камеру, опрос детектора, оверлей и снимки
type Session struct {
	loader   port.ModelLoader
	camera   port.Camera
	detector port.FaceDetector
	opts     entity.DetectorOptions
	gallery  port.Gallery

	models    *Lifecycle
	cam       *Lifecycle
	results   *Results
	renderer  *Renderer
	scheduler *Scheduler
	capture   *CapturePipeline

	mu         sync.RWMutex
	src        port.VideoSource
	expression entity.Expression
	faces      int

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// NewSession собирает сессию из зависимостей
func NewSession(deps SessionDeps) *Session {
	s := &Session{
		loader:   deps.Loader,
		camera:   deps.Camera,
		detector: deps.Detector,
		opts:     deps.Options,
		gallery:  deps.Gallery,
		models:   NewLifecycle("models"),
		cam:      NewLifecycle("camera"),
		results:  NewResults(),
		renderer: NewRenderer(deps.Canvases),
		subs:     make(map[int]chan Update),
	}
	s.scheduler = NewScheduler(deps.Interval, deps.MaxInFlight, s.tick)
	s.capture = NewCapturePipeline(s.results, deps.Canvases, deps.Gallery, deps.Downloader, deps.Uploader, deps.Encode)
	return s
}

// Start загружает модели, открывает камеру и запускает воспроизведение.
// Ошибки фиксируются в состояниях models и camera и видны через Status.
func (s *Session) Start(ctx context.Context) error {
	err := s.models.Run(ctx, func(ctx context.Context) error {
		if s.loader == nil {
			return nil
		}
		return s.loader.LoadModels(ctx)
	})
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}

	var src port.VideoSource
	err = s.cam.Run(ctx, func(ctx context.Context) error {
		v, err := s.camera.Open(ctx)
		if err != nil {
			return err
		}
		src = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	if src == nil {
		return nil
	}
	return s.OnPlay(ctx, src)
}

// OnPlay событие начала воспроизведения: привязка оверлея и запуск опроса.
// Повторное событие для того же источника не создаёт второй холст и второй цикл.
func (s *Session) OnPlay(ctx context.Context, src port.VideoSource) error {
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()

	s.renderer.Bind(src)
	if !s.models.Ready() {
		return ErrModelsNotReady
	}
	s.scheduler.Start(ctx)
	log.Printf("Detection polling started")
	return nil
}

// OnStop останавливает опрос, детектор больше не вызывается
func (s *Session) OnStop() {
	s.scheduler.Stop()
	log.Printf("Detection polling stopped")
}

// Close останавливает опрос, закрывает источник и дожидается загрузок
func (s *Session) Close() error {
	s.OnStop()

	s.mu.Lock()
	src := s.src
	s.src = nil
	s.mu.Unlock()

	s.capture.Wait()

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}

// Capture делает снимок текущего кадра с наложением
func (s *Session) Capture(ctx context.Context) (*entity.CapturedImage, error) {
	src := s.source()
	if src == nil {
		return nil, ErrNotBound
	}
	return s.capture.Capture(ctx, src)
}

// Expression текущая эмоция первого лица
func (s *Session) Expression() entity.Expression {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expression
}

// Gallery галерея снимков сессии
func (s *Session) Gallery() port.Gallery {
	return s.gallery
}

// Overlay копия текущего наложения
func (s *Session) Overlay() (image.Image, bool) {
	img, ok := s.renderer.Snapshot()
	if !ok {
		return nil, false
	}
	return img, true
}

// Pipeline конвейер снимков
func (s *Session) Pipeline() *CapturePipeline {
	return s.capture
}

// Status состояние для интерфейса
func (s *Session) Status() Status {
	s.mu.RLock()
	expr, faces := s.expression, s.faces
	s.mu.RUnlock()

	return Status{
		Models:     initStatus(s.models),
		Camera:     initStatus(s.cam),
		Overlay:    s.renderer.State(),
		Display:    s.renderer.Geometry(),
		Polling:    s.scheduler.Running(),
		InFlight:   s.scheduler.InFlight(),
		Expression: expr,
		Faces:      faces,
		Seq:        s.results.AppliedSeq(),
		Captures:   s.gallery.Len(),
	}
}

// Subscribe подписка на применённые наборы.
// Медленный подписчик пропускает события, цикл детекции его не ждёт.
func (s *Session) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (s *Session) source() port.VideoSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src
}

// tick один вызов детектора. Ошибка пропускает перерисовку, цикл продолжается.
func (s *Session) tick(ctx context.Context, seq uint64) {
	src := s.source()
	if src == nil || ctx.Err() != nil {
		return
	}
	if !s.models.Ready() {
		metrics.DetectionTicks.WithLabelValues(metrics.TickError).Inc()
		return
	}

	set, err := Detect(ctx, src, s.detector, s.opts)
	if err != nil {
		if ctx.Err() == nil {
			metrics.DetectionTicks.WithLabelValues(metrics.TickError).Inc()
			log.Printf("Detection tick %d failed: %v", seq, err)
		}
		return
	}
	set.Seq = seq
	s.apply(set)
}

func (s *Session) apply(set entity.ResultSet) bool {
	applied := s.results.Apply(set, func(set entity.ResultSet) {
		if err := s.renderer.Draw(set); err != nil {
			log.Printf("Error drawing overlay: %v", err)
		}

		update := Update{Seq: set.Seq, Expression: set.Dominant(), Faces: set.Len()}
		s.mu.Lock()
		s.expression = update.Expression
		s.faces = update.Faces
		s.mu.Unlock()

		metrics.FacesDetected.Set(float64(update.Faces))
		s.publish(update)
	})

	if applied {
		metrics.DetectionTicks.WithLabelValues(metrics.TickApplied).Inc()
	} else {
		metrics.DetectionTicks.WithLabelValues(metrics.TickStale).Inc()
	}
	return applied
}

func (s *Session) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func initStatus(l *Lifecycle) InitStatus {
	state, err := l.State()
	st := InitStatus{State: state}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}
