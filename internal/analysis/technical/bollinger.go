package technical

import (
	"math"

	"github.com/markcheno/go-talib"
)

const (
	// BBPeriod период сглаживания Уайлдера
	BBPeriod = 21
	// BBMultiplier ширина полос в стандартных отклонениях
	BBMultiplier = 2.4
)

// Bollinger полосы Боллинджера со сглаживанием Уайлдера.
// До BBPeriod баров средняя и дисперсия считаются по всем барам дня,
// дальше обновляются экспоненциально с alpha = 1/BBPeriod.
type Bollinger struct {
	Middle   float64
	Upper    float64
	Lower    float64
	Width    float64
	Variance float64

	count  int
	closes []float64 // только на разгоне
}

// Seed сжимает полосы в цену открытия дня
func (b *Bollinger) Seed(price float64) {
	*b = Bollinger{Middle: price, Upper: price, Lower: price}
}

// Push учитывает закрытие очередного бара
func (b *Bollinger) Push(price float64) {
	b.count++
	if b.count <= BBPeriod {
		b.closes = append(b.closes, price)
	}
	n := b.count
	if n < 2 {
		return
	}

	if n <= BBPeriod {
		upper, middle, _ := talib.BBands(b.closes, n, BBMultiplier, BBMultiplier, talib.SMA)
		b.Middle = middle[n-1]
		sd := (upper[n-1] - middle[n-1]) / BBMultiplier
		b.Variance = sd * sd
		if n == BBPeriod {
			b.closes = nil
		}
	} else {
		const alpha = 1.0 / BBPeriod
		b.Middle += alpha * (price - b.Middle)
		b.Variance = (1-alpha)*b.Variance + alpha*(price-b.Middle)*(price-b.Middle)
	}

	sd := math.Sqrt(math.Max(b.Variance, 0))
	b.Upper = b.Middle + BBMultiplier*sd
	b.Lower = b.Middle - BBMultiplier*sd
	b.Width = b.Upper - b.Lower
}
