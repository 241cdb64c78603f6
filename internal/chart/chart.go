package chart

import (
	"math"
	"time"

	"github.com/skalibog/footprint/internal/analysis/features"
	"github.com/skalibog/footprint/internal/analysis/footprint"
	"github.com/skalibog/footprint/internal/analysis/profile"
	"github.com/skalibog/footprint/internal/analysis/signal"
	"github.com/skalibog/footprint/internal/analysis/technical"
	"github.com/skalibog/footprint/internal/analysis/volumedelta"
	"github.com/skalibog/footprint/pkg/models"
)

// Bar range-бар с футпринтом
type Bar struct {
	StartTime time.Time
	EndTime   time.Time
	Closed    bool

	Open  float64
	High  float64
	Low   float64
	Close float64

	TotalVolume        int64
	Delta              int64
	DeltaChange        int64
	HighDelta          int64
	LowDelta           int64
	POCPrice           float64
	POCVolume          int64
	BuyImbalanceCount  int
	SellImbalanceCount int
	CumDeltaAtBar      int64

	Signal   signal.Slot
	Features features.Set

	Footprint *footprint.Ladder
}

// NewBar открывает бар с open=high=low=close=price
func NewBar(instrument models.Instrument, price float64, ts time.Time) *Bar {
	return &Bar{
		StartTime: ts,
		EndTime:   ts,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Footprint: footprint.NewLadder(instrument),
	}
}

// Day торговый день
type Day struct {
	Date time.Time
	Bars []*Bar

	VWAP       technical.VWAP
	BB         technical.Bollinger
	RSI        technical.RSI
	ZScore     *volumedelta.ZScore
	Divergence volumedelta.Divergence
	Reversal   volumedelta.Reversal
	Swing      volumedelta.Swing
	Closes     *volumedelta.Tail
	CVD        *volumedelta.Tail

	Profile *profile.Accumulator
	TPO     profile.Result

	High  float64
	Low   float64
	Close float64

	IBHigh float64
	IBLow  float64
	IBEnd  time.Time

	TotalVolume     int64
	CumulativeDelta int64

	DeltaZScore       float64
	CumDelta5barSlope float64
	Divergence5bar    float64
	Divergence10bar   float64
}

// NewDay открывает день, все уровни которого равны первой цене
func NewDay(instrument models.Instrument, date time.Time, price float64, zWindow int, ibDuration time.Duration, firstTick time.Time) *Day {
	d := &Day{
		Date:    date,
		RSI:     technical.NewRSI(),
		ZScore:  volumedelta.NewZScore(zWindow),
		Swing:   volumedelta.Swing{High: price, Low: price},
		Closes:  volumedelta.NewTail(volumedelta.LongWindow),
		CVD:     volumedelta.NewTail(volumedelta.LongWindow),
		Profile: profile.NewAccumulator(instrument),
		TPO:     profile.Result{POC: price, VAH: price, VAL: price, HVN: price},
		High:    price,
		Low:     price,
		Close:   price,
		IBHigh:  price,
		IBLow:   price,
		IBEnd:   firstTick.Add(ibDuration),
	}
	d.VWAP.Seed(price)
	d.BB.Seed(price)
	return d
}

// RSIValue RSI дня или nil, пока он не рассчитан
func (d *Day) RSIValue() *float64 {
	if math.IsNaN(d.RSI.Value) {
		return nil
	}
	v := d.RSI.Value
	return &v
}

// Levels опорные уровни дня для расчета признаков
func (d *Day) Levels() features.Levels {
	return features.Levels{
		VWAP:       d.VWAP.Value,
		VWAPUpper1: d.VWAP.Upper1,
		VWAPLower1: d.VWAP.Lower1,
		VWAPUpper2: d.VWAP.Upper2,
		VWAPLower2: d.VWAP.Lower2,
		POC:        d.TPO.POC,
		VAH:        d.TPO.VAH,
		VAL:        d.TPO.VAL,
		High:       d.High,
		Low:        d.Low,
		Close:      d.Close,
	}
}

// Week торговая неделя
type Week struct {
	Start time.Time
	Days  []*Day

	VWAP    technical.VWAP
	Profile *profile.Accumulator
	TPO     profile.Result

	High float64
	Low  float64
}

// NewWeek открывает неделю с уровнями, равными первой цене
func NewWeek(instrument models.Instrument, start time.Time, price float64) *Week {
	w := &Week{
		Start:   start,
		Profile: profile.NewAccumulator(instrument),
		TPO:     profile.Result{POC: price, VAH: price, VAL: price, HVN: price},
		High:    price,
		Low:     price,
	}
	w.VWAP.Seed(price)
	return w
}

// Levels опорные уровни недели
func (w *Week) Levels() features.Levels {
	l := features.Levels{
		VWAP:       w.VWAP.Value,
		VWAPUpper1: w.VWAP.Upper1,
		VWAPLower1: w.VWAP.Lower1,
		VWAPUpper2: w.VWAP.Upper2,
		VWAPLower2: w.VWAP.Lower2,
		POC:        w.TPO.POC,
		VAH:        w.TPO.VAH,
		VAL:        w.TPO.VAL,
		High:       w.High,
		Low:        w.Low,
	}
	if n := len(w.Days); n > 0 {
		l.Close = w.Days[n-1].Close
	}
	return l
}

// Contract корень дерева
type Contract struct {
	Name  string
	Weeks []*Week
}

// NewContract создает пустой контракт
func NewContract(name string) *Contract {
	return &Contract{Name: name}
}

// Counts количество недель, дней и баров
func (c *Contract) Counts() (weeks, days, bars int) {
	weeks = len(c.Weeks)
	for _, w := range c.Weeks {
		days += len(w.Days)
		for _, d := range w.Days {
			bars += len(d.Bars)
		}
	}
	return weeks, days, bars
}
