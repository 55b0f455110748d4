package port

import "facecam/internal/domain/entity"

// Gallery интерфейс галереи снимков сессии, только добавление
type Gallery interface {
	// Append добавляет снимок в конец, записывает индекс в img.Index и возвращает его
	Append(img *entity.CapturedImage) int

	// List возвращает снимки в порядке съёмки
	List() []*entity.CapturedImage

	// Get возвращает снимок по индексу
	Get(index int) (*entity.CapturedImage, bool)

	Len() int
}
