package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/skalibog/footprint/internal/config"
	"github.com/skalibog/footprint/pkg/models"
)

// ClickHouseStorage читает тики из таблицы ClickHouse
type ClickHouseStorage struct {
	db     *sql.DB
	table  string
	symbol string
}

// NewClickHouseStorage открывает пул соединений по DSN
func NewClickHouseStorage(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouseStorage, error) {
	opts, err := clickhouse.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора DSN ClickHouse: %w", err)
	}
	db := clickhouse.OpenDB(opts)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка соединения с ClickHouse: %w", err)
	}
	return &ClickHouseStorage{db: db, table: cfg.Table, symbol: cfg.Symbol}, nil
}

// Close закрывает пул
func (s *ClickHouseStorage) Close() {
	_ = s.db.Close()
}

// clickhouseQuery запрос тиков с позиционными параметрами ts и symbol
func clickhouseQuery(table string, withSymbol bool, bounded bool, limit int) string {
	q := fmt.Sprintf("SELECT id, ts, price, ask_volume, bid_volume FROM %s WHERE ts >= ?", table)
	if bounded {
		q += " AND ts < ?"
	}
	if withSymbol {
		q += " AND symbol = ?"
	}
	q += " ORDER BY ts, id"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

// FetchFirstTick первый тик не раньше from
func (s *ClickHouseStorage) FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error) {
	args := []any{from}
	if s.symbol != "" {
		args = append(args, s.symbol)
	}
	ticks, err := s.query(ctx, clickhouseQuery(s.table, s.symbol != "", false, 1), args...)
	if err != nil || len(ticks) == 0 {
		return nil, err
	}
	return &ticks[0], nil
}

// FetchDay тики календарного дня
func (s *ClickHouseStorage) FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error) {
	start, end := dayBounds(day)
	args := []any{start, end}
	if s.symbol != "" {
		args = append(args, s.symbol)
	}
	return s.query(ctx, clickhouseQuery(s.table, s.symbol != "", true, 0), args...)
}

func (s *ClickHouseStorage) query(ctx context.Context, q string, args ...any) ([]models.Tick, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса тиков ClickHouse: %w", err)
	}
	defer rows.Close()

	var ticks []models.Tick
	for rows.Next() {
		var t models.Tick
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Price, &t.AskVolume, &t.BidVolume); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки ClickHouse: %w", err)
		}
		t.Timestamp = t.Timestamp.UTC()
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}
	return ticks, nil
}
