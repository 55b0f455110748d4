package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"facecam/internal/domain/entity"
)

// ErrAlreadyLoading повторный запуск во время загрузки
var ErrAlreadyLoading = errors.New("initialization is already in progress")

// Lifecycle явное состояние инициализации ресурса процесса.
// Переходы: NotStarted -> Loading -> Ready | Failed, из Failed можно запустить снова.
type Lifecycle struct {
	name  string
	mu    sync.RWMutex
	state entity.InitState
	err   error
}

// NewLifecycle создаёт состояние в NotStarted
func NewLifecycle(name string) *Lifecycle {
	return &Lifecycle{name: name, state: entity.InitNotStarted}
}

// Run выполняет инициализацию и фиксирует результат.
// Готовый ресурс повторно не инициализируется.
func (l *Lifecycle) Run(ctx context.Context, init func(ctx context.Context) error) error {
	l.mu.Lock()
	switch l.state {
	case entity.InitReady:
		l.mu.Unlock()
		return nil
	case entity.InitLoading:
		l.mu.Unlock()
		return fmt.Errorf("%s: %w", l.name, ErrAlreadyLoading)
	}
	l.state = entity.InitLoading
	l.err = nil
	l.mu.Unlock()

	log.Printf("%s: loading...", l.name)
	err := init(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = entity.InitFailed
		l.err = err
		log.Printf("%s: failed: %v", l.name, err)
		return err
	}
	l.state = entity.InitReady
	log.Printf("%s: ready", l.name)
	return nil
}

// State текущее состояние и ошибка для Failed
func (l *Lifecycle) State() (entity.InitState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, l.err
}

// Ready сообщает о завершённой инициализации
func (l *Lifecycle) Ready() bool {
	state, _ := l.State()
	return state == entity.InitReady
}
