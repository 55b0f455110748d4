package entity

import "sort"

// Expression метка эмоции
type Expression string

const (
	ExpressionUnset Expression = ""

	Neutral   Expression = "neutral"
	Happy     Expression = "happy"
	Sad       Expression = "sad"
	Angry     Expression = "angry"
	Fearful   Expression = "fearful"
	Disgusted Expression = "disgusted"
	Surprised Expression = "surprised"
)

// ExpressionCount количество поддерживаемых эмоций
const ExpressionCount = 7

// ExpressionOrder фиксированный порядок перечисления эмоций.
// При равных оценках побеждает метка, стоящая раньше.
var ExpressionOrder = [ExpressionCount]Expression{
	Neutral, Happy, Sad, Angry, Fearful, Disgusted, Surprised,
}

// ExpressionScore пара метка-оценка
type ExpressionScore struct {
	Expression Expression
	Score      float64
}

// Expressions оценки эмоций в порядке ExpressionOrder, каждая в [0,1]
type Expressions [ExpressionCount]float64

// NewExpressions собирает оценки из словаря. Неизвестные метки игнорируются.
func NewExpressions(scores map[Expression]float64) Expressions {
	var e Expressions
	for i, label := range ExpressionOrder {
		e[i] = clamp01(scores[label])
	}
	return e
}

// Score возвращает оценку метки, для неизвестной метки 0
func (e Expressions) Score(label Expression) float64 {
	for i, l := range ExpressionOrder {
		if l == label {
			return e[i]
		}
	}
	return 0
}

// Dominant метка со строго максимальной оценкой
func (e Expressions) Dominant() Expression {
	best := 0
	for i := 1; i < ExpressionCount; i++ {
		if e[i] > e[best] {
			best = i
		}
	}
	return ExpressionOrder[best]
}

// Sorted возвращает метки с оценкой выше threshold по убыванию оценки
func (e Expressions) Sorted(threshold float64) []ExpressionScore {
	out := make([]ExpressionScore, 0, ExpressionCount)
	for i, label := range ExpressionOrder {
		if e[i] > threshold {
			out = append(out, ExpressionScore{Expression: label, Score: e[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
