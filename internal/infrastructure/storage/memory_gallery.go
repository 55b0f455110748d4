package storage

import (
	"sync"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

// MemoryGallery in-memory галерея снимков сессии.
// Снимки только добавляются и живут до конца процесса.
type MemoryGallery struct {
	mu     sync.RWMutex
	images []*entity.CapturedImage
}

// NewMemoryGallery создаёт пустую галерею
func NewMemoryGallery() *MemoryGallery {
	return &MemoryGallery{}
}

// Append добавляет снимок в конец и возвращает его индекс.
// Индекс записывается в img до того, как снимок станет виден читателям.
func (g *MemoryGallery) Append(img *entity.CapturedImage) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	img.Index = len(g.images)
	g.images = append(g.images, img)
	return img.Index
}

// List возвращает копию списка в порядке съёмки
func (g *MemoryGallery) List() []*entity.CapturedImage {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*entity.CapturedImage, len(g.images))
	copy(out, g.images)
	return out
}

// Get возвращает снимок по индексу
func (g *MemoryGallery) Get(index int) (*entity.CapturedImage, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if index < 0 || index >= len(g.images) {
		return nil, false
	}
	return g.images[index], true
}

// Len количество снимков
func (g *MemoryGallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.images)
}

// Проверка реализации интерфейса
var _ port.Gallery = (*MemoryGallery)(nil)
