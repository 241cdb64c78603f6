package volumedelta

import "math"

// Reversal произведение z-score дельты на отклонение цены от VWAP
// и его сглаженное по 20 барам абсолютное значение
type Reversal struct {
	Value float64
	Avg   float64
}

// Update пересчитывает показатель на закрытии бара
func (r *Reversal) Update(zscore, close, vwap float64) float64 {
	r.Value = zscore * (close - vwap)
	abs := math.Abs(r.Value)
	if r.Avg == 0 {
		r.Avg = abs
	} else {
		r.Avg = (r.Avg*19 + abs) / 20
	}
	return r.Value
}

// Swing последние локальные экстремумы по трем барам
type Swing struct {
	High float64
	Low  float64

	highs [3]float64
	lows  [3]float64
	count int
}

// Push добавляет закрытый бар и проверяет средний из трех последних на экстремум
func (s *Swing) Push(high, low float64) {
	s.highs[0], s.highs[1], s.highs[2] = s.highs[1], s.highs[2], high
	s.lows[0], s.lows[1], s.lows[2] = s.lows[1], s.lows[2], low
	s.count++
	if s.count < 3 {
		return
	}
	if s.highs[1] > s.highs[0] && s.highs[1] > s.highs[2] {
		s.High = s.highs[1]
	}
	if s.lows[1] < s.lows[0] && s.lows[1] < s.lows[2] {
		s.Low = s.lows[1]
	}
}
