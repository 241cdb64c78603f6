package aggregator

import (
	"errors"
	"fmt"
	"time"

	"github.com/skalibog/footprint/internal/analysis/features"
	"github.com/skalibog/footprint/internal/analysis/signal"
	"github.com/skalibog/footprint/internal/analysis/technical"
	"github.com/skalibog/footprint/internal/analysis/volumedelta"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrNoStartData нет первого тика диапазона, начальной цены нет
	ErrNoStartData = errors.New("нет данных на начало диапазона")
	// ErrNoOpenDay тик пришел вне открытого дня
	ErrNoOpenDay = errors.New("тик вне открытого дня")
	// ErrNotSeeded движок не получил стартовую цену
	ErrNotSeeded = errors.New("движок не инициализирован стартовой ценой")
)

// priceEpsilon допуск при сравнении цен с диапазоном бара
const priceEpsilon = 1e-9

// Config параметры движка range-баров
type Config struct {
	BarRange           float64
	ImbalanceThreshold float64
	ZScoreWindow       int
	TypicalPrice       technical.TypicalPrice
	InitialBalance     time.Duration
	ValueArea          float64
	Signal             signal.Rule
}

// Stats счетчики прогона
type Stats struct {
	Ticks       int64
	Bars        int
	Days        int
	SkippedDays int
	Signals     int
}

// Engine однопоточный движок построения дерева Contract -> Week -> Day -> Bar.
// Тики должны приходить в порядке неубывания времени.
type Engine struct {
	cfg        Config
	instrument models.Instrument
	cursor     *chart.Cursor
	recorder   Recorder

	seedDay  *chart.Day
	seedWeek *chart.Week

	dayOpen   bool
	lastPrice float64
	lastTime  time.Time
	stats     Stats
}

// NewEngine создает движок для контракта name
func NewEngine(name string, instrument models.Instrument, cfg Config) *Engine {
	if cfg.ZScoreWindow < 2 {
		cfg.ZScoreWindow = volumedelta.DefaultZScoreWindow
	}
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = time.Hour
	}
	if cfg.TypicalPrice == "" {
		cfg.TypicalPrice = technical.TypicalHLC3
	}
	return &Engine{
		cfg:        cfg,
		instrument: instrument,
		cursor:     chart.NewCursor(chart.NewContract(name)),
		recorder:   nopRecorder{},
	}
}

// WithRecorder подключает сбор метрик
func (e *Engine) WithRecorder(r Recorder) *Engine {
	if r != nil {
		e.recorder = r
	}
	return e
}

// Contract дерево, которое строит движок
func (e *Engine) Contract() *chart.Contract {
	return e.cursor.Contract()
}

// Cursor текущая позиция движка
func (e *Engine) Cursor() *chart.Cursor {
	return e.cursor
}

// Stats счетчики прогона
func (e *Engine) Stats() Stats {
	return e.stats
}

// Seed задает опорные уровни "предыдущего" дня и недели для первых
// периодов контракта по первой цене диапазона
func (e *Engine) Seed(first models.Tick) {
	price := e.instrument.Snap(first.Price)
	e.seedDay = chart.NewDay(e.instrument, first.Timestamp, price, e.cfg.ZScoreWindow, e.cfg.InitialBalance, first.Timestamp)
	e.seedWeek = chart.NewWeek(e.instrument, first.Timestamp, price)
	e.lastPrice = price
}

// OpenWeek открывает новую неделю
func (e *Engine) OpenWeek(start time.Time, price float64) error {
	if e.seedDay == nil {
		return ErrNotSeeded
	}
	if e.dayOpen {
		if err := e.CloseDay(); err != nil {
			return err
		}
	}
	week := chart.NewWeek(e.instrument, start, e.instrument.Snap(price))
	week.Profile.WithValueArea(e.cfg.ValueArea)
	e.cursor.OpenWeek(week)
	return nil
}

// CloseWeek закрывает текущий день и фиксирует профиль недели
func (e *Engine) CloseWeek() error {
	if e.dayOpen {
		if err := e.CloseDay(); err != nil {
			return err
		}
	}
	week := e.cursor.Week()
	if week == nil {
		return chart.ErrNoOpenWeek
	}
	if week.Profile.Len() > 0 {
		week.TPO = week.Profile.Solve()
	}
	logger.Debug("Неделя закрыта",
		zap.Time("start", week.Start),
		zap.Int("days", len(week.Days)),
		zap.Int64("volume", week.Profile.Total()),
		zap.Float64("poc", week.TPO.POC),
		zap.Float64("vwap", week.VWAP.Value))
	return nil
}

// OpenDay открывает день с первой ценой first
func (e *Engine) OpenDay(date time.Time, first models.Tick) error {
	if e.seedDay == nil {
		return ErrNotSeeded
	}
	if e.dayOpen {
		if err := e.CloseDay(); err != nil {
			return err
		}
	}
	price := e.instrument.Snap(first.Price)
	day := chart.NewDay(e.instrument, date, price, e.cfg.ZScoreWindow, e.cfg.InitialBalance, first.Timestamp)
	day.Profile.WithValueArea(e.cfg.ValueArea)
	if err := e.cursor.OpenDay(day); err != nil {
		return err
	}
	e.dayOpen = true
	e.lastTime = first.Timestamp
	logger.Info("Начат новый день", zap.String("date", date.Format(time.DateOnly)), zap.Float64("price", price))
	return nil
}

// CloseDay закрывает последний бар дня и пересчитывает профили
func (e *Engine) CloseDay() error {
	if !e.dayOpen {
		return ErrNoOpenDay
	}
	day := e.cursor.Day()
	if bar := e.cursor.Bar(); bar != nil && !bar.Closed {
		if err := e.closeBar(e.lastTime); err != nil {
			return err
		}
	}
	week := e.cursor.Week()
	if week.Profile.Len() > 0 {
		week.TPO = week.Profile.Solve()
	}
	if bar := e.cursor.Bar(); bar != nil {
		bar.Features = e.compile(bar.Close)
	}
	e.dayOpen = false
	e.stats.Days++
	e.recorder.DayProcessed()
	logger.Debug("День закрыт",
		zap.String("date", day.Date.Format(time.DateOnly)),
		zap.Int("bars", len(day.Bars)),
		zap.Int64("volume", day.TotalVolume),
		zap.Int64("cumulative_delta", day.CumulativeDelta))
	return nil
}

// SkipDay отмечает день без данных
func (e *Engine) SkipDay(date time.Time) {
	e.stats.SkippedDays++
	e.recorder.DaySkipped()
	logger.Warn("Нет тиков за день, день пропущен", zap.String("date", date.Format(time.DateOnly)))
}

// Process обрабатывает один тик
func (e *Engine) Process(tick models.Tick) error {
	if !e.dayOpen {
		return ErrNoOpenDay
	}
	day := e.cursor.Day()
	week := e.cursor.Week()
	price := e.instrument.Snap(tick.Price)

	bar := e.cursor.Bar()
	priceChanged := price != e.lastPrice
	switch {
	case bar == nil:
		if err := e.openBar(price, tick.Timestamp); err != nil {
			return err
		}
		priceChanged = true
	case bar.High-price <= e.cfg.BarRange+priceEpsilon && price-bar.Low <= e.cfg.BarRange+priceEpsilon:
		if priceChanged {
			bar.Close = price
			bar.High = max(bar.High, price)
			bar.Low = min(bar.Low, price)
			bar.EndTime = tick.Timestamp
		}
	default:
		if err := e.closeBar(tick.Timestamp); err != nil {
			return err
		}
		if err := e.openBar(price, tick.Timestamp); err != nil {
			return err
		}
		priceChanged = true
	}
	bar = e.cursor.Bar()

	e.updateTickSensitive(day, week, bar, price, tick)

	if priceChanged {
		bar.Features = e.compile(price)
	}

	e.lastPrice = price
	e.lastTime = tick.Timestamp
	e.stats.Ticks++
	e.recorder.TickProcessed()
	return nil
}

// Finalize закрывает открытые периоды и убирает пустой хвост
func (e *Engine) Finalize() (*chart.Contract, error) {
	if e.dayOpen {
		if err := e.CloseWeek(); err != nil {
			return nil, err
		}
	}
	e.cursor.Finalize()
	return e.cursor.Contract(), nil
}

func (e *Engine) openBar(price float64, ts time.Time) error {
	return e.cursor.OpenBar(chart.NewBar(e.instrument, price, ts))
}

func (e *Engine) updateTickSensitive(day *chart.Day, week *chart.Week, bar *chart.Bar, price float64, tick models.Tick) {
	buyDelta, sellDelta := bar.Footprint.Update(price, tick.BidVolume, tick.AskVolume, e.cfg.ImbalanceThreshold)
	bar.BuyImbalanceCount += buyDelta
	bar.SellImbalanceCount += sellDelta

	bar.TotalVolume += tick.Volume()
	bar.Delta += tick.Delta()
	bar.HighDelta = bar.Footprint.HighDelta()
	bar.LowDelta = bar.Footprint.LowDelta()
	if lv, ok := bar.Footprint.At(price); ok {
		if lv.VolumeAtPrice > bar.POCVolume || (lv.VolumeAtPrice == bar.POCVolume && lv.Price < bar.POCPrice) {
			bar.POCPrice = lv.Price
			bar.POCVolume = lv.VolumeAtPrice
		}
	}
	if n := len(day.Bars); n > 1 {
		bar.DeltaChange = bar.Delta - day.Bars[n-2].Delta
	}

	day.TotalVolume += tick.Volume()
	day.CumulativeDelta += tick.Delta()
	bar.CumDeltaAtBar = day.CumulativeDelta

	day.High = max(day.High, price)
	day.Low = min(day.Low, price)
	day.Close = price
	if tick.Timestamp.Before(day.IBEnd) {
		day.IBHigh = max(day.IBHigh, price)
		day.IBLow = min(day.IBLow, price)
	}
	week.High = max(week.High, price)
	week.Low = min(week.Low, price)

	snap := signal.Snapshot{
		Volume:         bar.TotalVolume,
		Delta:          bar.Delta,
		BuyImbalances:  bar.BuyImbalanceCount,
		SellImbalances: bar.SellImbalanceCount,
	}
	if e.cfg.Signal.Apply(&bar.Signal, snap, tick.ID) {
		e.stats.Signals++
		e.recorder.SignalSet(bar.Signal.Kind().String())
		logger.Debug("Сигнал бара",
			zap.String("kind", bar.Signal.Kind().String()),
			zap.Int64("tick", tick.ID),
			zap.Float64("price", price))
	}
}

// closeBar фиксирует текущий бар и пересчитывает индикаторы дня и недели
func (e *Engine) closeBar(ts time.Time) error {
	bar, err := e.cursor.CloseBar()
	if err != nil {
		return fmt.Errorf("закрытие бара: %w", err)
	}
	bar.EndTime = ts
	day := e.cursor.Day()
	week := e.cursor.Week()

	typical := e.cfg.TypicalPrice.Of(bar.High, bar.Low, bar.Close)
	day.VWAP.Update(typical, bar.TotalVolume)
	week.VWAP.Update(typical, bar.TotalVolume)

	day.Closes.Push(bar.Close)
	day.CVD.Push(float64(bar.CumDeltaAtBar))
	closes, cvd := day.Closes.Values(), day.CVD.Values()

	day.BB.Push(bar.Close)
	day.RSI.Push(bar.Close)
	day.DeltaZScore = day.ZScore.Push(float64(bar.Delta))
	day.CumDelta5barSlope = volumedelta.TailSlope(cvd, volumedelta.ShortWindow)
	day.Divergence.Observe(float64(bar.Delta))
	day.Divergence5bar = day.Divergence.Score(closes, cvd, volumedelta.ShortWindow, e.cfg.BarRange)
	day.Divergence10bar = day.Divergence.Score(closes, cvd, volumedelta.LongWindow, e.cfg.BarRange)
	day.Reversal.Update(day.DeltaZScore, bar.Close, day.VWAP.Value)
	day.Swing.Push(bar.High, bar.Low)

	day.Profile.Merge(bar.Footprint)
	week.Profile.Merge(bar.Footprint)
	day.TPO = day.Profile.Solve()

	bar.Features = e.compile(bar.Close)

	e.stats.Bars++
	e.recorder.BarClosed()
	return nil
}

// compile считает признаки текущего бара по уже рассчитанному состоянию
func (e *Engine) compile(price float64) features.Set {
	day := e.cursor.Day()
	week := e.cursor.Week()

	prevDay := e.cursor.PrevDay()
	if prevDay == nil {
		prevDay = e.seedDay
	}
	prevWeek := e.cursor.PrevWeek()
	if prevWeek == nil {
		prevWeek = e.seedWeek
	}

	return features.Compile(features.Inputs{
		Price:     price,
		Day:       day.Levels(),
		PrevDay:   prevDay.Levels(),
		Week:      week.Levels(),
		PrevWeek:  prevWeek.Levels(),
		BBUpper:   day.BB.Upper,
		BBMiddle:  day.BB.Middle,
		BBLower:   day.BB.Lower,
		IBHigh:    day.IBHigh,
		IBLow:     day.IBLow,
		SwingHigh: day.Swing.High,
		SwingLow:  day.Swing.Low,
		HVN:       day.TPO.HVN,
	})
}
