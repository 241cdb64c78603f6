package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTickSize шаг цены по умолчанию (ES, NQ)
const DefaultTickSize = 0.25

// Tick представляет одну сделку из источника данных
type Tick struct {
	ID        int64
	Timestamp time.Time
	Price     float64
	AskVolume int64
	BidVolume int64
}

// Volume суммарный объем сделки
func (t Tick) Volume() int64 {
	return t.AskVolume + t.BidVolume
}

// Delta агрессивные покупки минус агрессивные продажи
func (t Tick) Delta() int64 {
	return t.AskVolume - t.BidVolume
}

// Instrument описывает сетку цен контракта.
// Все ключи футпринта хранятся как целое число шагов, перевод
// цена <-> шаг выполняется только здесь.
type Instrument struct {
	TickSize decimal.Decimal
}

// NewInstrument создает инструмент с заданным шагом цены
func NewInstrument(tickSize float64) Instrument {
	if tickSize <= 0 {
		tickSize = DefaultTickSize
	}
	return Instrument{TickSize: decimal.NewFromFloat(tickSize)}
}

func (i Instrument) size() decimal.Decimal {
	if i.TickSize.IsZero() {
		return decimal.NewFromFloat(DefaultTickSize)
	}
	return i.TickSize
}

// Increment шаг цены в виде float64
func (i Instrument) Increment() float64 {
	f, _ := i.size().Float64()
	return f
}

// ToTicks переводит цену в номер шага, округляя до ближайшего
func (i Instrument) ToTicks(price float64) int64 {
	return decimal.NewFromFloat(price).Div(i.size()).Round(0).IntPart()
}

// ToPrice переводит номер шага обратно в цену
func (i Instrument) ToPrice(ticks int64) float64 {
	f, _ := decimal.NewFromInt(ticks).Mul(i.size()).Float64()
	return f
}

// Snap выравнивает цену по сетке инструмента
func (i Instrument) Snap(price float64) float64 {
	return i.ToPrice(i.ToTicks(price))
}

// ParsePrice разбирает строковую цену биржи и выравнивает ее по сетке
func (i Instrument) ParsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ошибка парсинга цены %q: %w", s, err)
	}
	ticks := d.Div(i.size()).Round(0).IntPart()
	return i.ToPrice(ticks), nil
}

// ScaleQuantity переводит дробный объем в целые единицы
func ScaleQuantity(s string, scale int64) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ошибка парсинга объема %q: %w", s, err)
	}
	if scale <= 0 {
		scale = 1
	}
	return d.Mul(decimal.NewFromInt(scale)).Round(0).IntPart(), nil
}
