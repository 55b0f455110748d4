package port

import (
	"image"

	"facecam/internal/domain/entity"
)

// Canvas растровый холст для наложения и снимков
type Canvas interface {
	Size() entity.Size

	// Clear делает холст полностью прозрачным
	Clear()

	// DrawFrame рисует кадр на весь холст
	DrawFrame(frame image.Image)

	// DrawBox рисует рамку лица с подписью уверенности
	DrawBox(box entity.Box, label string)

	// DrawLandmarks рисует ключевые точки
	DrawLandmarks(points []entity.Point)

	// DrawText рисует строки сверху вниз начиная с точки at
	DrawText(at entity.Point, lines []string)

	// Image текущее содержимое холста
	Image() image.Image
}

// CanvasFactory создаёт холсты нужного размера
type CanvasFactory interface {
	NewCanvas(size entity.Size) Canvas
}
