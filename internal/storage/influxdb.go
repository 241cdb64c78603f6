package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/internal/config"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

// InfluxDBStorage читает тики и записывает готовые бары в InfluxDB
type InfluxDBStorage struct {
	client      influxdb2.Client
	queryAPI    api.QueryAPI
	writeAPI    api.WriteAPIBlocking
	bucket      string
	measurement string
	symbol      string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:      client,
		queryAPI:    client.QueryAPI(cfg.Organization),
		writeAPI:    client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
		symbol:      cfg.Symbol,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// tickQuery Flux-запрос тиков в [start, stop), limit <= 0 без ограничения
func tickQuery(bucket, measurement, symbol string, start, stop time.Time, limit int) string {
	q := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: %s, stop: %s)
			|> filter(fn: (r) => r._measurement == "%s")`,
		bucket, start.UTC().Format(time.RFC3339Nano), stop.UTC().Format(time.RFC3339Nano), measurement)
	if symbol != "" {
		q += fmt.Sprintf(`
			|> filter(fn: (r) => r.symbol == "%s")`, symbol)
	}
	q += `
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> group()
			|> sort(columns: ["_time"])`
	if limit > 0 {
		q += fmt.Sprintf(`
			|> limit(n: %d)`, limit)
	}
	return q
}

// FetchFirstTick первый тик от from до конца текущих суток
func (s *InfluxDBStorage) FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error) {
	ticks, err := s.query(ctx, tickQuery(s.bucket, s.measurement, s.symbol, from, time.Now().Add(24*time.Hour), 1))
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, nil
	}
	return &ticks[0], nil
}

// FetchDay тики календарного дня
func (s *InfluxDBStorage) FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error) {
	start, stop := dayBounds(day)
	ticks, err := s.query(ctx, tickQuery(s.bucket, s.measurement, s.symbol, start, stop, 0))
	if err != nil {
		return nil, err
	}
	sortTicks(ticks)
	return ticks, nil
}

func (s *InfluxDBStorage) query(ctx context.Context, q string) ([]models.Tick, error) {
	result, err := s.queryAPI.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса тиков: %w", err)
	}
	defer result.Close()

	var ticks []models.Tick
	for result.Next() {
		record := result.Record()
		ticks = append(ticks, recordTick(record.Time(), record.Values()))
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}
	return ticks, nil
}

// recordTick собирает тик из строки после pivot
func recordTick(ts time.Time, values map[string]interface{}) models.Tick {
	return models.Tick{
		ID:        asInt64(values["id"]),
		Timestamp: ts,
		Price:     asFloat64(values["price"]),
		AskVolume: asInt64(values["ask_volume"]),
		BidVolume: asInt64(values["bid_volume"]),
	}
}

func asFloat64(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	}
	return 0
}

func asInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	}
	return 0
}

// barPoint точка InfluxDB для закрытого бара
func barPoint(measurement, contract, runID string, bar *chart.Bar) *write.Point {
	kind, _, _ := bar.Signal.Fields()
	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"contract": contract,
			"run_id":   runID,
		},
		map[string]interface{}{
			"open":            bar.Open,
			"high":            bar.High,
			"low":             bar.Low,
			"close":           bar.Close,
			"volume":          bar.TotalVolume,
			"delta":           bar.Delta,
			"poc":             bar.POCPrice,
			"buy_imbalances":  int64(bar.BuyImbalanceCount),
			"sell_imbalances": int64(bar.SellImbalanceCount),
			"cum_delta":       bar.CumDeltaAtBar,
			"signal":          int64(kind),
		},
		bar.EndTime,
	)
}

// WriteBars сохраняет все бары контракта
func (s *InfluxDBStorage) WriteBars(ctx context.Context, contract *chart.Contract, measurement, runID string) error {
	var points []*write.Point
	for _, week := range contract.Weeks {
		for _, day := range week.Days {
			for _, bar := range day.Bars {
				points = append(points, barPoint(measurement, contract.Name, runID, bar))
			}
		}
	}
	if len(points) == 0 {
		return nil
	}
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("ошибка записи баров в InfluxDB: %w", err)
	}
	logger.Info("Бары записаны в InfluxDB", zap.Int("points", len(points)), zap.String("measurement", measurement))
	return nil
}
