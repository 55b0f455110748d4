package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"facecam/internal/metrics"
)

const (
	// DefaultPollInterval период тиков детекции
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultMaxInFlight сколько вызовов детектора может выполняться одновременно
	DefaultMaxInFlight = 2
)

// TickFunc один тик детекции. seq растёт монотонно в порядке запуска.
type TickFunc func(ctx context.Context, seq uint64)

// Scheduler периодически запускает тики, не дожидаясь завершения предыдущих.
// Одновременно выполняется не больше maxInFlight тиков, лишние пропускаются, а не ставятся в очередь.
type Scheduler struct {
	interval    time.Duration
	maxInFlight int32
	tick        TickFunc
	seq         atomic.Uint64
	active      atomic.Int32
	skipped     atomic.Uint64

	mu       sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// NewScheduler создаёт планировщик. interval <= 0 заменяется на DefaultPollInterval,
// maxInFlight <= 0 на DefaultMaxInFlight.
func NewScheduler(interval time.Duration, maxInFlight int, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Scheduler{interval: interval, maxInFlight: int32(maxInFlight), tick: tick}
}

// Start запускает цикл. Уже запущенный цикл сначала останавливается,
// так что повторное воспроизведение не плодит таймеры.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel = cancel
	s.loopDone = done

	go s.loop(ctx, done)
}

// Stop отменяет цикл и все незавершённые тики и ждёт их выхода.
// После возврата новых тиков не будет.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.loopDone
	s.inflight.Wait()
	s.cancel, s.loopDone = nil, nil
}

// Running сообщает, что цикл запущен и не завершился из-за отмены родительского контекста
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loopDone == nil {
		return false
	}
	select {
	case <-s.loopDone:
		return false
	default:
		return true
	}
}

// Issued количество запущенных тиков
func (s *Scheduler) Issued() uint64 {
	return s.seq.Load()
}

// Skipped количество тиков, пропущенных из-за лимита одновременных вызовов
func (s *Scheduler) Skipped() uint64 {
	return s.skipped.Load()
}

// InFlight количество выполняющихся тиков
func (s *Scheduler) InFlight() int {
	return int(s.active.Load())
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			// Увеличивает active только этот цикл, поэтому проверка и инкремент не гоняются.
			if s.active.Load() >= s.maxInFlight {
				s.skipped.Add(1)
				metrics.DetectionTicks.WithLabelValues(metrics.TickSkipped).Inc()
				continue
			}
			seq := s.seq.Add(1)
			s.active.Add(1)
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				defer s.active.Add(-1)
				s.tick(ctx, seq)
			}()
		}
	}
}
