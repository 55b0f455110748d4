package app

import (
	"sync"

	"facecam/internal/domain/entity"
)

// Results хранит последний применённый набор детекций.
// Набор с номером не больше уже применённого отбрасывается: поздний ответ старого вызова
// не перетирает более свежий.
type Results struct {
	mu      sync.RWMutex
	latest  entity.ResultSet
	applied uint64
}

// NewResults создаёт пустое хранилище
func NewResults() *Results {
	return &Results{}
}

// Apply применяет набор и под той же блокировкой вызывает onApply,
// поэтому отрисовка всегда видит именно этот набор.
func (r *Results) Apply(set entity.ResultSet, onApply func(entity.ResultSet)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set.Seq <= r.applied {
		return false
	}
	r.applied = set.Seq
	r.latest = set
	if onApply != nil {
		onApply(set)
	}
	return true
}

// Latest последний применённый набор
func (r *Results) Latest() entity.ResultSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// AppliedSeq номер последнего применённого вызова
func (r *Results) AppliedSeq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied
}
