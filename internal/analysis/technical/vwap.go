package technical

import (
	"fmt"
	"math"
)

// TypicalPrice способ расчета цены бара для VWAP
type TypicalPrice string

const (
	// TypicalHLC3 среднее high, low, close
	TypicalHLC3 TypicalPrice = "hlc3"
	// TypicalClose цена закрытия
	TypicalClose TypicalPrice = "close"
)

// ParseTypicalPrice проверяет название стратегии
func ParseTypicalPrice(s string) (TypicalPrice, error) {
	switch TypicalPrice(s) {
	case "", TypicalHLC3:
		return TypicalHLC3, nil
	case TypicalClose:
		return TypicalClose, nil
	}
	return "", fmt.Errorf("неизвестный typical price: %q", s)
}

// Of возвращает цену бара по выбранной стратегии
func (tp TypicalPrice) Of(high, low, close float64) float64 {
	if tp == TypicalClose {
		return close
	}
	return (high + low + close) / 3
}

// VWAP накопительный VWAP с полосами стандартного отклонения
type VWAP struct {
	CumPV     float64
	CumPV2    float64
	CumVolume int64

	Value  float64
	StdDev float64
	Upper1 float64
	Lower1 float64
	Upper2 float64
	Lower2 float64
}

// Seed выставляет все уровни в цену открытия периода
func (v *VWAP) Seed(price float64) {
	*v = VWAP{
		Value:  price,
		Upper1: price,
		Lower1: price,
		Upper2: price,
		Lower2: price,
	}
}

// Update добавляет закрытый бар. Бары без объема пропускаются.
func (v *VWAP) Update(price float64, volume int64) bool {
	if volume <= 0 {
		return false
	}
	vol := float64(volume)
	v.CumPV += price * vol
	v.CumPV2 += price * price * vol
	v.CumVolume += volume

	total := float64(v.CumVolume)
	v.Value = v.CumPV / total
	variance := v.CumPV2/total - v.Value*v.Value
	if variance < 0 {
		variance = 0
	}
	v.StdDev = math.Sqrt(variance)
	v.Upper1 = v.Value + v.StdDev
	v.Lower1 = v.Value - v.StdDev
	v.Upper2 = v.Value + 2*v.StdDev
	v.Lower2 = v.Value - 2*v.StdDev
	return true
}
