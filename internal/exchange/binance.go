package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/skalibog/footprint/internal/config"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

// pageWindow максимальное окно запроса aggTrades
const pageWindow = time.Hour

// firstTickHorizon сколько дней искать первый тик
const firstTickHorizon = 7 * 24 * time.Hour

type fetchFunc func(ctx context.Context, start, end time.Time, limit int) ([]*futures.AggTrade, error)

// BinanceClient источник тиков из агрегированных сделок Binance Futures
type BinanceClient struct {
	futures    *futures.Client
	fetch      fetchFunc
	symbol     string
	instrument models.Instrument
	scale      int64
	limit      int
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig, instrument models.Instrument) *BinanceClient {
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	c := &BinanceClient{
		futures:    futures.NewClient(cfg.APIKey, cfg.APISecret),
		symbol:     cfg.Symbol,
		instrument: instrument,
		scale:      cfg.VolumeScale,
		limit:      cfg.PageLimit,
	}
	c.fetch = c.aggTrades
	return c
}

func (c *BinanceClient) aggTrades(ctx context.Context, start, end time.Time, limit int) ([]*futures.AggTrade, error) {
	trades, err := c.futures.NewAggTradesService().
		Symbol(c.symbol).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli() - 1).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сделок: %w", err)
	}
	return trades, nil
}

// Close ничего не держит открытым
func (c *BinanceClient) Close() {}

// FetchDay тики дня, загружаемые окнами по часу
func (c *BinanceClient) FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return c.fetchRange(ctx, start, start.Add(24*time.Hour), 0)
}

// FetchFirstTick первая сделка начиная с from
func (c *BinanceClient) FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error) {
	end := from.Add(firstTickHorizon)
	if now := time.Now(); end.After(now) {
		end = now
	}
	for ws := from; ws.Before(end); ws = ws.Add(pageWindow) {
		ticks, err := c.fetchRange(ctx, ws, minTime(ws.Add(pageWindow), end), 1)
		if err != nil {
			return nil, err
		}
		if len(ticks) > 0 {
			return &ticks[0], nil
		}
	}
	return nil, nil
}

// fetchRange загружает [start, end) постранично, maxTicks > 0 ограничивает число тиков
func (c *BinanceClient) fetchRange(ctx context.Context, start, end time.Time, maxTicks int) ([]models.Tick, error) {
	var (
		ticks  []models.Tick
		lastID int64 = -1
	)
	for ws := start; ws.Before(end); ws = ws.Add(pageWindow) {
		we := minTime(ws.Add(pageWindow), end)
		cursor := ws
		for {
			trades, err := c.fetch(ctx, cursor, we, c.limit)
			if err != nil {
				return nil, err
			}
			for _, tr := range trades {
				if tr.AggTradeID <= lastID {
					continue
				}
				tick, err := aggTradeTick(tr, c.instrument, c.scale)
				if err != nil {
					logger.Warn("Пропущена некорректная сделка", zap.Int64("id", tr.AggTradeID), zap.Error(err))
					continue
				}
				lastID = tr.AggTradeID
				ticks = append(ticks, tick)
				if maxTicks > 0 && len(ticks) >= maxTicks {
					return ticks, nil
				}
			}
			if len(trades) < c.limit {
				break
			}
			next := time.UnixMilli(trades[len(trades)-1].Timestamp).UTC()
			if !next.After(cursor) {
				// вся страница в одной миллисекунде, сдвигаемся дальше
				next = cursor.Add(time.Millisecond)
			}
			cursor = next
		}
	}
	logger.Debug("Загружены сделки Binance",
		zap.String("symbol", c.symbol),
		zap.Time("start", start),
		zap.Int("ticks", len(ticks)))
	return ticks, nil
}

// aggTradeTick переводит агрегированную сделку в тик.
// Покупатель-мейкер означает агрессивную продажу.
func aggTradeTick(tr *futures.AggTrade, instrument models.Instrument, scale int64) (models.Tick, error) {
	price, err := instrument.ParsePrice(tr.Price)
	if err != nil {
		return models.Tick{}, err
	}
	qty, err := models.ScaleQuantity(tr.Quantity, scale)
	if err != nil {
		return models.Tick{}, err
	}
	tick := models.Tick{
		ID:        tr.AggTradeID,
		Timestamp: time.UnixMilli(tr.Timestamp).UTC(),
		Price:     price,
	}
	if tr.IsBuyerMaker {
		tick.BidVolume = qty
	} else {
		tick.AskVolume = qty
	}
	return tick, nil
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
