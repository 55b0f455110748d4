package entity

import (
	"image"
	"math"
)

// Point точка в координатах кадра
type Point struct {
	X float64
	Y float64
}

// Box ограничивающий прямоугольник лица
type Box struct {
	X      float64 // координата X левого верхнего угла
	Y      float64 // координата Y левого верхнего угла
	Width  float64 // ширина области в пикселях
	Height float64 // высота области в пикселях
}

// Center возвращает координаты центра прямоугольника
func (b Box) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Rect округляет прямоугольник до целых пикселей
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X)),
		int(math.Round(b.Y)),
		int(math.Round(b.X+b.Width)),
		int(math.Round(b.Y+b.Height)),
	)
}

// BottomLeft левый нижний угол, от него рисуются подписи эмоций
func (b Box) BottomLeft() Point {
	return Point{X: b.X, Y: b.Y + b.Height}
}

// Detection одно найденное лицо
type Detection struct {
	Box         Box
	Score       float64     // уверенность детектора
	Landmarks   []Point     // ключевые точки лица по порядку модели
	Expressions Expressions // оценки эмоций
}

// ResultSet результат одного тика детекции.
// Порядок лиц совпадает с порядком детектора, идентичность между кадрами не отслеживается.
type ResultSet struct {
	Seq        uint64 // номер вызова детектора
	Source     Size   // собственные размеры кадра, на котором считались координаты
	Detections []Detection
}

// Empty сообщает, что лиц не найдено
func (s ResultSet) Empty() bool {
	return len(s.Detections) == 0
}

// Len количество лиц
func (s ResultSet) Len() int {
	return len(s.Detections)
}

// Dominant возвращает эмоцию первого лица. Остальные лица на метку не влияют.
func (s ResultSet) Dominant() Expression {
	if s.Empty() {
		return ExpressionUnset
	}
	return s.Detections[0].Expressions.Dominant()
}

// Rescale пересчитывает прямоугольники и точки в пространство target.
// Исходный набор не меняется.
func (s ResultSet) Rescale(target Size) ResultSet {
	out := ResultSet{Seq: s.Seq, Source: target}
	if s.Empty() {
		return out
	}

	sx, sy := 1.0, 1.0
	if !s.Source.Empty() && !target.Empty() {
		sx = float64(target.Width) / float64(s.Source.Width)
		sy = float64(target.Height) / float64(s.Source.Height)
	}

	out.Detections = make([]Detection, len(s.Detections))
	for i, d := range s.Detections {
		scaled := Detection{
			Box: Box{
				X:      d.Box.X * sx,
				Y:      d.Box.Y * sy,
				Width:  d.Box.Width * sx,
				Height: d.Box.Height * sy,
			},
			Score:       d.Score,
			Expressions: d.Expressions,
		}
		if len(d.Landmarks) > 0 {
			scaled.Landmarks = make([]Point, len(d.Landmarks))
			for j, p := range d.Landmarks {
				scaled.Landmarks[j] = Point{X: p.X * sx, Y: p.Y * sy}
			}
		}
		out.Detections[i] = scaled
	}
	return out
}
