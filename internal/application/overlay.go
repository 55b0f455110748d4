package app

import (
	"fmt"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

// minExpressionScore эмоции ниже порога не подписываются
const minExpressionScore = 0.1

// drawOverlays рисует уже отмасштабированный набор слоями:
// сначала все рамки, потом все точки, потом подписи эмоций.
func drawOverlays(c port.Canvas, set entity.ResultSet) {
	for _, d := range set.Detections {
		c.DrawBox(d.Box, fmt.Sprintf("%.2f", d.Score))
	}
	for _, d := range set.Detections {
		if len(d.Landmarks) > 0 {
			c.DrawLandmarks(d.Landmarks)
		}
	}
	for _, d := range set.Detections {
		if lines := expressionLines(d.Expressions); len(lines) > 0 {
			c.DrawText(d.Box.BottomLeft(), lines)
		}
	}
}

func expressionLines(e entity.Expressions) []string {
	sorted := e.Sorted(minExpressionScore)
	lines := make([]string, 0, len(sorted))
	for _, s := range sorted {
		lines = append(lines, fmt.Sprintf("%s (%.2f)", s.Expression, s.Score))
	}
	return lines
}
