package chart

import (
	"encoding/json"
	"time"

	"github.com/skalibog/footprint/internal/analysis/features"
	"github.com/skalibog/footprint/internal/analysis/footprint"
)

type barJSON struct {
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Open               float64   `json:"open"`
	High               float64   `json:"high"`
	Low                float64   `json:"low"`
	Close              float64   `json:"close"`
	BarTotalVolume     int64     `json:"barTotalVolume"`
	Delta              int64     `json:"delta"`
	BarDeltaChange     int64     `json:"barDeltaChange"`
	BarHighDelta       int64     `json:"barHighDelta"`
	BarLowDelta        int64     `json:"barLowDelta"`
	BarPOCPrice        float64   `json:"barPOCPrice"`
	BarPOCVolume       int64     `json:"barPOCVol"`
	BuyImbalanceCount  int       `json:"buyImbalanceCount"`
	SellImbalanceCount int       `json:"sellImbalanceCount"`
	CumDeltaAtBar      int64     `json:"cumDeltaAtBar"`
	Signal             int       `json:"signal"`
	SignalID           int64     `json:"signalID"`
	SignalStatus       bool      `json:"signalStatus"`
	features.Set
	Footprint *footprint.Ladder `json:"footprint"`
}

// MarshalJSON плоское представление бара
func (b *Bar) MarshalJSON() ([]byte, error) {
	kind, id, status := b.Signal.Fields()
	return json.Marshal(barJSON{
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Open:               b.Open,
		High:               b.High,
		Low:                b.Low,
		Close:              b.Close,
		BarTotalVolume:     b.TotalVolume,
		Delta:              b.Delta,
		BarDeltaChange:     b.DeltaChange,
		BarHighDelta:       b.HighDelta,
		BarLowDelta:        b.LowDelta,
		BarPOCPrice:        b.POCPrice,
		BarPOCVolume:       b.POCVolume,
		BuyImbalanceCount:  b.BuyImbalanceCount,
		SellImbalanceCount: b.SellImbalanceCount,
		CumDeltaAtBar:      b.CumDeltaAtBar,
		Signal:             kind,
		SignalID:           id,
		SignalStatus:       status,
		Set:                b.Features,
		Footprint:          b.Footprint,
	})
}

type dayJSON struct {
	Date                         string   `json:"date"`
	DayOfTheWeek                 string   `json:"dayOfTheWeek"`
	VWAP                         float64  `json:"vwap"`
	VWAPUpperStdDev1             float64  `json:"vwapUpperStdDev1"`
	VWAPLowerStdDev1             float64  `json:"vwapLowerStdDev1"`
	VWAPUpperStdDev2             float64  `json:"vwapUpperStdDev2"`
	VWAPLowerStdDev2             float64  `json:"vwapLowerStdDev2"`
	BBUpper                      float64  `json:"bbUpper"`
	BBMiddle                     float64  `json:"bbMiddle"`
	BBLower                      float64  `json:"bbLower"`
	BBandWidth                   float64  `json:"BBandWidth"`
	RSI                          *float64 `json:"rsi"`
	POC                          float64  `json:"poc"`
	VAH                          float64  `json:"vah"`
	VAL                          float64  `json:"val"`
	LastHighVolumeNode           float64  `json:"lastHighVolumeNode"`
	IBHigh                       float64  `json:"ibHigh"`
	IBLow                        float64  `json:"ibLow"`
	DayHigh                      float64  `json:"dayHigh"`
	DayLow                       float64  `json:"dayLow"`
	DayClose                     float64  `json:"dayClose"`
	TotalVolume                  int64    `json:"totalVolume"`
	CumulativeDelta              int64    `json:"cumulativeDelta"`
	DeltaZscore                  float64  `json:"deltaZscore"`
	CumDelta5barSlope            float64  `json:"cumDelta5barSlope"`
	PriceCumDeltaDivergence5bar  float64  `json:"priceCumDeltaDivergence5bar"`
	PriceCumDeltaDivergence10bar float64  `json:"priceCumDeltaDivergence10bar"`
	InteractionReversal          float64  `json:"interactionReversal"`
	InteractionReversalAvg       float64  `json:"interactionReversal20barAvg"`
	LastSwingHigh                float64  `json:"lastSwingHigh"`
	LastSwingLow                 float64  `json:"lastSwingLow"`
	Bars                         []*Bar   `json:"bars"`
}

// MarshalJSON плоское представление дня
func (d *Day) MarshalJSON() ([]byte, error) {
	bars := d.Bars
	if bars == nil {
		bars = []*Bar{}
	}
	return json.Marshal(dayJSON{
		Date:                         d.Date.Format(time.DateOnly),
		DayOfTheWeek:                 d.Date.Weekday().String(),
		VWAP:                         d.VWAP.Value,
		VWAPUpperStdDev1:             d.VWAP.Upper1,
		VWAPLowerStdDev1:             d.VWAP.Lower1,
		VWAPUpperStdDev2:             d.VWAP.Upper2,
		VWAPLowerStdDev2:             d.VWAP.Lower2,
		BBUpper:                      d.BB.Upper,
		BBMiddle:                     d.BB.Middle,
		BBLower:                      d.BB.Lower,
		BBandWidth:                   d.BB.Width,
		RSI:                          d.RSIValue(),
		POC:                          d.TPO.POC,
		VAH:                          d.TPO.VAH,
		VAL:                          d.TPO.VAL,
		LastHighVolumeNode:           d.TPO.HVN,
		IBHigh:                       d.IBHigh,
		IBLow:                        d.IBLow,
		DayHigh:                      d.High,
		DayLow:                       d.Low,
		DayClose:                     d.Close,
		TotalVolume:                  d.TotalVolume,
		CumulativeDelta:              d.CumulativeDelta,
		DeltaZscore:                  d.DeltaZScore,
		CumDelta5barSlope:            d.CumDelta5barSlope,
		PriceCumDeltaDivergence5bar:  d.Divergence5bar,
		PriceCumDeltaDivergence10bar: d.Divergence10bar,
		InteractionReversal:          d.Reversal.Value,
		InteractionReversalAvg:       d.Reversal.Avg,
		LastSwingHigh:                d.Swing.High,
		LastSwingLow:                 d.Swing.Low,
		Bars:                         bars,
	})
}

type weekJSON struct {
	WeekOfTheContract string  `json:"weekOfTheContract"`
	VWAP              float64 `json:"vwap"`
	VWAPUpperStdDev1  float64 `json:"vwapUpperStdDev1"`
	VWAPLowerStdDev1  float64 `json:"vwapLowerStdDev1"`
	POC               float64 `json:"poc"`
	VAH               float64 `json:"vah"`
	VAL               float64 `json:"val"`
	WeekHigh          float64 `json:"weekHigh"`
	WeekLow           float64 `json:"weekLow"`
	TotalVolume       int64   `json:"totalVolume"`
	Days              []*Day  `json:"days"`
}

// MarshalJSON плоское представление недели
func (w *Week) MarshalJSON() ([]byte, error) {
	days := w.Days
	if days == nil {
		days = []*Day{}
	}
	return json.Marshal(weekJSON{
		WeekOfTheContract: w.Start.Format(time.DateOnly),
		VWAP:              w.VWAP.Value,
		VWAPUpperStdDev1:  w.VWAP.Upper1,
		VWAPLowerStdDev1:  w.VWAP.Lower1,
		POC:               w.TPO.POC,
		VAH:               w.TPO.VAH,
		VAL:               w.TPO.VAL,
		WeekHigh:          w.High,
		WeekLow:           w.Low,
		TotalVolume:       w.TPO.Total,
		Days:              days,
	})
}

type contractJSON struct {
	ContractName string  `json:"contractName"`
	Weeks        []*Week `json:"weeks"`
}

// MarshalJSON корень дерева
func (c *Contract) MarshalJSON() ([]byte, error) {
	weeks := c.Weeks
	if weeks == nil {
		weeks = []*Week{}
	}
	return json.Marshal(contractJSON{ContractName: c.Name, Weeks: weeks})
}
