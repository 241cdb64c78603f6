package volumedelta

import "math"

// DefaultZScoreWindow окно z-score дельты по умолчанию
const DefaultZScoreWindow = 20

// ZScore скользящий z-score дельты бара.
// Пока баров не больше окна, сумма и сумма квадратов пересчитываются
// целиком; дальше окно сдвигается за O(1).
type ZScore struct {
	window int
	ring   []float64
	count  int

	Sum   float64
	SumSq float64
	Value float64
}

// NewZScore создает z-score с окном window (по умолчанию 20)
func NewZScore(window int) *ZScore {
	if window < 2 {
		window = DefaultZScoreWindow
	}
	return &ZScore{
		window: window,
		ring:   make([]float64, window),
	}
}

// Push добавляет дельту закрытого бара и возвращает новый z-score
func (z *ZScore) Push(delta float64) float64 {
	slot := z.count % z.window
	leaving := z.ring[slot]
	z.ring[slot] = delta
	z.count++

	switch {
	case z.count <= 1:
		z.Sum = delta
		z.SumSq = delta * delta
		z.Value = delta
		return z.Value
	case z.count <= z.window:
		z.Sum, z.SumSq = 0, 0
		for _, d := range z.ring[:z.count] {
			z.Sum += d
			z.SumSq += d * d
		}
	default:
		z.Sum += delta - leaving
		z.SumSq += delta*delta - leaving*leaving
	}

	n := float64(min(z.count, z.window))
	mean := z.Sum / n
	std := math.Sqrt(math.Max(z.SumSq/n-mean*mean, 0))
	if std == 0 {
		z.Value = 0
	} else {
		z.Value = (delta - mean) / std
	}
	return z.Value
}

// Recompute считает z-score последнего значения по полному окну
// без накопленного состояния
func Recompute(deltas []float64, window int) float64 {
	if len(deltas) == 0 {
		return 0
	}
	if len(deltas) == 1 {
		return deltas[0]
	}
	start := max(0, len(deltas)-window)
	tail := deltas[start:]
	var sum, sumSq float64
	for _, d := range tail {
		sum += d
		sumSq += d * d
	}
	n := float64(len(tail))
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
	if std == 0 {
		return 0
	}
	return (deltas[len(deltas)-1] - mean) / std
}
