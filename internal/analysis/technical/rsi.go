package technical

import "math"

// RSIPeriod номинальный период RSI
const RSIPeriod = 14

// RSI индекс относительной силы Уайлдера.
// AvgGain и AvgLoss равны NaN, пока состояние не инициализировано.
type RSI struct {
	AvgGain float64
	AvgLoss float64
	Value   float64

	count  int
	last   float64
	closes []float64 // первые RSIPeriod закрытий
}

// NewRSI возвращает неинициализированный RSI
func NewRSI() RSI {
	return RSI{AvgGain: math.NaN(), AvgLoss: math.NaN(), Value: math.NaN()}
}

// Seeded true после первой инициализации
func (r *RSI) Seeded() bool {
	return !math.IsNaN(r.AvgGain) && !math.IsNaN(r.AvgLoss)
}

// Push учитывает закрытие бара. Пока закрытий меньше RSIPeriod+1
// состояние строится заново по накопленной истории, дальше
// обновляется только по последнему изменению цены.
func (r *RSI) Push(close float64) float64 {
	prev := r.last
	r.last = close
	r.count++
	if r.count <= RSIPeriod {
		r.closes = append(r.closes, close)
	}
	if r.count < 2 {
		return r.Value
	}

	if !r.Seeded() || r.count < RSIPeriod+1 {
		r.AvgGain, r.AvgLoss = InitRSI(r.closes, RSIPeriod)
	} else {
		r.closes = nil
		gain, loss := change(prev, close)
		r.AvgGain = (r.AvgGain*(RSIPeriod-1) + gain) / RSIPeriod
		r.AvgLoss = (r.AvgLoss*(RSIPeriod-1) + loss) / RSIPeriod
	}

	r.Value = rsiFromAverages(r.AvgGain, r.AvgLoss)
	return r.Value
}

// InitRSI возвращает средние прирост и потерю по всей истории closes.
// Первое среднее берется простым по min(period, len-1) изменениям,
// остальные изменения сглаживаются по номинальному периоду.
func InitRSI(closes []float64, period int) (avgGain, avgLoss float64) {
	n := len(closes)
	if n < 2 || period < 1 {
		return math.NaN(), math.NaN()
	}
	effective := min(period, n-1)

	for i := 1; i <= effective; i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(effective)
	avgLoss /= float64(effective)

	p := float64(period)
	for i := effective + 1; i < n; i++ {
		gain, loss := change(closes[i-1], closes[i])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}
	return avgGain, avgLoss
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
