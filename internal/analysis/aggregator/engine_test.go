package aggregator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/skalibog/footprint/internal/analysis/signal"
	"github.com/skalibog/footprint/internal/analysis/technical"
	"github.com/skalibog/footprint/internal/analysis/volumedelta"
	"github.com/skalibog/footprint/internal/calendar"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/internal/storage"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

var inst = models.NewInstrument(0.25)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

func testConfig() Config {
	return Config{
		BarRange:           1,
		ImbalanceThreshold: 3,
		ZScoreWindow:       20,
		TypicalPrice:       technical.TypicalHLC3,
		InitialBalance:     time.Hour,
		ValueArea:          0.7,
	}
}

func date(s string) time.Time {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// session тики дня с шагом в секунду начиная с 09:30
func session(day string, firstID int64, prices []float64, ask, bid int64) []models.Tick {
	open := date(day).Add(9*time.Hour + 30*time.Minute)
	ticks := make([]models.Tick, len(prices))
	for i, p := range prices {
		ticks[i] = models.Tick{
			ID:        firstID + int64(i),
			Timestamp: open.Add(time.Duration(i) * time.Second),
			Price:     p,
			AskVolume: ask,
			BidVolume: bid,
		}
	}
	return ticks
}

// randomWalk случайное блуждание по сетке 0.25
func randomWalk(rng *rand.Rand, day string, firstID int64, start float64, n int) []models.Tick {
	open := date(day).Add(8 * time.Hour)
	ticks := make([]models.Tick, n)
	price := start
	for i := range ticks {
		price += float64(rng.Intn(5)-2) * 0.25
		ticks[i] = models.Tick{
			ID:        firstID + int64(i),
			Timestamp: open.Add(time.Duration(i) * 3 * time.Second),
			Price:     price,
			AskVolume: int64(rng.Intn(6)),
			BidVolume: int64(rng.Intn(6) + 1),
		}
	}
	return ticks
}

func run(t *testing.T, cfg Config, from, to string, ticks ...[]models.Tick) (*Engine, *chart.Contract) {
	t.Helper()
	var all []models.Tick
	for _, ts := range ticks {
		all = append(all, ts...)
	}
	weeks, err := calendar.Weeks(date(from), date(to))
	if err != nil {
		t.Fatalf("weeks: %v", err)
	}
	engine := NewEngine("ESZ5", inst, cfg)
	contract, err := NewRunner(engine, storage.NewMemorySource(all)).Run(context.Background(), weeks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return engine, contract
}

func TestRangeRollover(t *testing.T) {
	ticks := session("2025-03-03", 1, []float64{100, 100.5, 101, 101.25, 100.75}, 1, 1)
	_, contract := run(t, testConfig(), "2025-03-03", "2025-03-03", ticks)

	bars := contract.Weeks[0].Days[0].Bars
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	b1, b2 := bars[0], bars[1]
	if b1.Open != 100 || b1.High != 101 || b1.Low != 100 || b1.Close != 101 {
		t.Errorf("bar1 OHLC %v %v %v %v", b1.Open, b1.High, b1.Low, b1.Close)
	}
	if b2.Open != 101.25 || b2.High != 101.25 || b2.Low != 100.75 || b2.Close != 100.75 {
		t.Errorf("bar2 OHLC %v %v %v %v", b2.Open, b2.High, b2.Low, b2.Close)
	}
	if b1.TotalVolume != 6 || b2.TotalVolume != 4 {
		t.Errorf("volumes %d %d", b1.TotalVolume, b2.TotalVolume)
	}
	if !b1.Closed || !b2.Closed {
		t.Error("all bars must be closed after the day closes")
	}
	if !b1.EndTime.Equal(ticks[3].Timestamp) || !b2.EndTime.Equal(ticks[4].Timestamp) {
		t.Errorf("end times %s %s", b1.EndTime, b2.EndTime)
	}
}

func TestBarInvariantsOnRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	thu := randomWalk(rng, "2025-03-06", 1, 5000, 400)
	fri := randomWalk(rng, "2025-03-07", 1000, 5005, 400)
	mon := randomWalk(rng, "2025-03-10", 2000, 4995, 400)

	cfg := testConfig()
	cfg.BarRange = 2.5
	engine, contract := run(t, cfg, "2025-03-06", "2025-03-10", thu, fri, mon)

	if len(contract.Weeks) != 2 {
		t.Fatalf("got %d weeks, want 2", len(contract.Weeks))
	}
	stats := engine.Stats()
	if stats.Days != 3 || stats.SkippedDays != 2 || stats.Ticks != 1200 {
		t.Fatalf("stats %+v", stats)
	}

	sources := [][]models.Tick{thu, fri, mon}
	i := 0
	for _, week := range contract.Weeks {
		for _, day := range week.Days {
			var volume, delta int64
			for _, tick := range sources[i] {
				volume += tick.Volume()
				delta += tick.Delta()
			}
			i++

			if day.TotalVolume != volume || day.CumulativeDelta != delta {
				t.Fatalf("%s totals %d/%d, want %d/%d", day.Date, day.TotalVolume, day.CumulativeDelta, volume, delta)
			}

			var barVolume, barDelta int64
			for n, bar := range day.Bars {
				if bar.Low > bar.Open || bar.Low > bar.Close || bar.High < bar.Open || bar.High < bar.Close {
					t.Fatalf("bar %d OHLC out of order: %+v", n, bar)
				}
				if bar.High-bar.Low > cfg.BarRange+priceEpsilon {
					t.Fatalf("bar %d range %v exceeds %v", n, bar.High-bar.Low, cfg.BarRange)
				}
				if lo, hi := bar.Footprint.Min(), bar.Footprint.Max(); lo == nil || lo.Price < bar.Low || hi.Price > bar.High {
					t.Fatalf("bar %d footprint outside %v..%v", n, bar.Low, bar.High)
				}
				if bar.Footprint.TotalVolume() != bar.TotalVolume {
					t.Fatalf("bar %d footprint volume %d != %d", n, bar.Footprint.TotalVolume(), bar.TotalVolume)
				}
				buy, sell := bar.Footprint.ImbalanceCounts()
				if buy != bar.BuyImbalanceCount || sell != bar.SellImbalanceCount {
					t.Fatalf("bar %d imbalance counters %d/%d, ladder %d/%d", n, bar.BuyImbalanceCount, bar.SellImbalanceCount, buy, sell)
				}
				barVolume += bar.TotalVolume
				barDelta += bar.Delta
				if bar.CumDeltaAtBar != barDelta {
					t.Fatalf("bar %d cumulative delta %d != %d", n, bar.CumDeltaAtBar, barDelta)
				}
				if n > 0 && bar.DeltaChange != bar.Delta-day.Bars[n-1].Delta {
					t.Fatalf("bar %d delta change %d", n, bar.DeltaChange)
				}
			}
			if rsi := day.RSI.Value; math.IsNaN(rsi) || rsi < 0 || rsi > 100 {
				t.Fatalf("%s rsi %v outside 0..100", day.Date, rsi)
			}
			if barVolume != day.TotalVolume {
				t.Fatalf("bar volume %d != day volume %d", barVolume, day.TotalVolume)
			}
			if day.High > week.High || day.Low < week.Low {
				t.Fatalf("day range %v..%v outside week %v..%v", day.Low, day.High, week.Low, week.High)
			}
			if day.TPO.VAL > day.TPO.POC || day.TPO.POC > day.TPO.VAH {
				t.Fatalf("value area %v..%v does not contain POC %v", day.TPO.VAL, day.TPO.VAH, day.TPO.POC)
			}
		}
	}

	prev := engine.Cursor().PrevDay()
	if prev == nil || !prev.Date.Equal(date("2025-03-07")) {
		t.Fatalf("previous day of Monday should be Friday, got %+v", prev)
	}
}

func TestVWAPMatchesClosedBars(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ticks := randomWalk(rng, "2025-03-04", 1, 100, 300)
	_, contract := run(t, testConfig(), "2025-03-04", "2025-03-04", ticks)

	day := contract.Weeks[0].Days[0]
	var pv, vol float64
	for _, bar := range day.Bars {
		tp := technical.TypicalHLC3.Of(bar.High, bar.Low, bar.Close)
		pv += tp * float64(bar.TotalVolume)
		vol += float64(bar.TotalVolume)
	}
	if math.Abs(day.VWAP.Value-pv/vol) > 1e-9 {
		t.Fatalf("vwap %v, want %v", day.VWAP.Value, pv/vol)
	}
	week := contract.Weeks[0]
	if math.Abs(week.VWAP.Value-day.VWAP.Value) > 1e-9 {
		t.Fatalf("single-day week vwap %v != day %v", week.VWAP.Value, day.VWAP.Value)
	}
	if day.VWAP.Lower2 > day.VWAP.Lower1 || day.VWAP.Upper1 > day.VWAP.Upper2 {
		t.Fatalf("bands out of order: %+v", day.VWAP)
	}
}

func TestEmptyDaysAreSkipped(t *testing.T) {
	mon := session("2025-03-03", 1, []float64{100, 100.25}, 1, 0)
	wed := session("2025-03-05", 10, []float64{101, 100.75}, 0, 1)
	engine, contract := run(t, testConfig(), "2025-03-03", "2025-03-05", mon, wed)

	if got := len(contract.Weeks[0].Days); got != 2 {
		t.Fatalf("got %d days, want 2", got)
	}
	if s := engine.Stats(); s.SkippedDays != 1 || s.Days != 2 {
		t.Fatalf("stats %+v", s)
	}
}

func TestWeekWithoutDataIsNotCreated(t *testing.T) {
	mon := session("2025-03-03", 1, []float64{100}, 1, 0)
	_, contract := run(t, testConfig(), "2025-03-03", "2025-03-16", mon)
	if len(contract.Weeks) != 1 {
		t.Fatalf("got %d weeks, want 1", len(contract.Weeks))
	}
}

func TestNoStartData(t *testing.T) {
	weeks, _ := calendar.Weeks(date("2025-03-03"), date("2025-03-04"))
	engine := NewEngine("ESZ5", inst, testConfig())
	_, err := NewRunner(engine, storage.NewMemorySource(nil)).Run(context.Background(), weeks)
	if !errors.Is(err, ErrNoStartData) {
		t.Fatalf("got %v, want ErrNoStartData", err)
	}
}

func TestSignalIsSetOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Signal = signal.Rule{Enabled: true, MinDelta: 5}
	ticks := session("2025-03-03", 100, []float64{100, 100, 100, 100}, 3, 0)
	engine, contract := run(t, cfg, "2025-03-03", "2025-03-03", ticks)

	bar := contract.Weeks[0].Days[0].Bars[0]
	if bar.Signal.Kind() != signal.Buy || bar.Signal.TickIndex() != 101 {
		t.Fatalf("signal %s at %d, want buy at 101", bar.Signal.Kind(), bar.Signal.TickIndex())
	}
	if engine.Stats().Signals != 1 {
		t.Fatalf("signals %d, want 1", engine.Stats().Signals)
	}
}

func TestInitialBalanceWindow(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = 2 * time.Second
	cfg.BarRange = 10
	ticks := session("2025-03-03", 1, []float64{100, 101, 99, 104, 95}, 1, 1)
	_, contract := run(t, cfg, "2025-03-03", "2025-03-03", ticks)

	day := contract.Weeks[0].Days[0]
	if day.IBHigh != 101 || day.IBLow != 100 {
		t.Fatalf("initial balance %v..%v, want 100..101", day.IBLow, day.IBHigh)
	}
	if day.High != 104 || day.Low != 95 {
		t.Fatalf("day range %v..%v", day.Low, day.High)
	}
}

func TestEngineOrderErrors(t *testing.T) {
	engine := NewEngine("ESZ5", inst, testConfig())
	tick := models.Tick{ID: 1, Timestamp: date("2025-03-03"), Price: 100, AskVolume: 1}

	if err := engine.OpenDay(date("2025-03-03"), tick); !errors.Is(err, ErrNotSeeded) {
		t.Fatalf("open day before seed: %v", err)
	}
	if err := engine.Process(tick); !errors.Is(err, ErrNoOpenDay) {
		t.Fatalf("process without day: %v", err)
	}
	engine.Seed(tick)
	if err := engine.OpenDay(date("2025-03-03"), tick); !errors.Is(err, chart.ErrNoOpenWeek) {
		t.Fatalf("open day without week: %v", err)
	}
}

func TestDayIndicatorsMatchFullHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ticks := randomWalk(rng, "2025-03-04", 1, 5000, 600)
	cfg := testConfig()
	cfg.BarRange = 2
	_, contract := run(t, cfg, "2025-03-04", "2025-03-04", ticks)

	day := contract.Weeks[0].Days[0]
	if len(day.Bars) <= volumedelta.LongWindow+technical.RSIPeriod {
		t.Fatalf("only %d bars, need a longer day", len(day.Bars))
	}
	var closes, cvd []float64
	swing := volumedelta.Swing{High: day.Bars[0].Open, Low: day.Bars[0].Open}
	for n, bar := range day.Bars {
		closes = append(closes, bar.Close)
		cvd = append(cvd, float64(bar.CumDeltaAtBar))
		if n >= 2 {
			prev, mid := day.Bars[n-2], day.Bars[n-1]
			if mid.High > prev.High && mid.High > bar.High {
				swing.High = mid.High
			}
			if mid.Low < prev.Low && mid.Low < bar.Low {
				swing.Low = mid.Low
			}
		}
	}

	if day.Closes.Len() != volumedelta.LongWindow || day.CVD.Len() != volumedelta.LongWindow {
		t.Fatalf("tails hold %d/%d values", day.Closes.Len(), day.CVD.Len())
	}
	if got, want := day.CumDelta5barSlope, volumedelta.TailSlope(cvd, volumedelta.ShortWindow); math.Abs(got-want) > 1e-9 {
		t.Fatalf("cvd slope %v, full history %v", got, want)
	}
	if got, want := day.Divergence10bar, day.Divergence.Score(closes, cvd, volumedelta.LongWindow, cfg.BarRange); math.Abs(got-want) > 1e-9 {
		t.Fatalf("divergence %v, full history %v", got, want)
	}
	gain, loss := technical.InitRSI(closes, technical.RSIPeriod)
	if math.Abs(day.RSI.AvgGain-gain) > 1e-9 || math.Abs(day.RSI.AvgLoss-loss) > 1e-9 {
		t.Fatalf("rsi averages %v/%v, full history %v/%v", day.RSI.AvgGain, day.RSI.AvgLoss, gain, loss)
	}
	if day.Swing.High != swing.High || day.Swing.Low != swing.Low {
		t.Fatalf("swing %v/%v, full history %v/%v", day.Swing.High, day.Swing.Low, swing.High, swing.Low)
	}
}
