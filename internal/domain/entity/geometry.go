package entity

import "fmt"

// Size размеры кадра или холста в пикселях
type Size struct {
	Width  int
	Height int
}

// Empty сообщает, что у размера нет площади
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
