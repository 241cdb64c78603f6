package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skalibog/footprint/internal/config"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

// timestampLayouts форматы текстовой колонки ts
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// PostgresStorage читает тики из таблицы PostgreSQL с текстовой меткой времени
type PostgresStorage struct {
	pool   *pgxpool.Pool
	table  string
	symbol string
}

// NewPostgresStorage создает пул соединений
func NewPostgresStorage(ctx context.Context, cfg config.PostgresConfig) (*PostgresStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации PostgreSQL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения с PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL не отвечает: %w", err)
	}
	return &PostgresStorage{pool: pool, table: cfg.Table, symbol: cfg.Symbol}, nil
}

// Close закрывает пул
func (s *PostgresStorage) Close() {
	s.pool.Close()
}

// postgresQuery запрос тиков. Метки ISO-8601 сравниваются как строки.
func postgresQuery(table string, withSymbol, bounded bool, limit int) string {
	q := fmt.Sprintf("SELECT id, ts, price, ask_volume, bid_volume FROM %s WHERE ts >= $1", pgx.Identifier(strings.Split(table, ".")).Sanitize())
	n := 2
	if bounded {
		q += fmt.Sprintf(" AND ts < $%d", n)
		n++
	}
	if withSymbol {
		q += fmt.Sprintf(" AND symbol = $%d", n)
	}
	q += " ORDER BY ts, id"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.999999999")
}

// FetchFirstTick первый корректный тик не раньше from
func (s *PostgresStorage) FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error) {
	args := []any{isoTime(from)}
	if s.symbol != "" {
		args = append(args, s.symbol)
	}
	// битые метки отбрасываются, поэтому берем с запасом
	ticks, err := s.query(ctx, postgresQuery(s.table, s.symbol != "", false, 100), args...)
	if err != nil || len(ticks) == 0 {
		return nil, err
	}
	return &ticks[0], nil
}

// FetchDay тики календарного дня
func (s *PostgresStorage) FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error) {
	start, end := dayBounds(day)
	args := []any{isoTime(start), isoTime(end)}
	if s.symbol != "" {
		args = append(args, s.symbol)
	}
	ticks, err := s.query(ctx, postgresQuery(s.table, s.symbol != "", true, 0), args...)
	if err != nil {
		return nil, err
	}
	sortTicks(ticks)
	return ticks, nil
}

func (s *PostgresStorage) query(ctx context.Context, q string, args ...any) ([]models.Tick, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса тиков PostgreSQL: %w", err)
	}
	defer rows.Close()

	var (
		ticks   []models.Tick
		dropped int
	)
	for rows.Next() {
		var (
			t  models.Tick
			ts string
		)
		if err := rows.Scan(&t.ID, &ts, &t.Price, &t.AskVolume, &t.BidVolume); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки PostgreSQL: %w", err)
		}
		parsed, err := parseTimestamp(ts)
		if err != nil {
			dropped++
			logger.Debug("Некорректная метка времени, тик отброшен", zap.Int64("id", t.ID), zap.String("ts", ts))
			continue
		}
		t.Timestamp = parsed
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}
	if dropped > 0 {
		logger.Warn("Отброшены тики с битой меткой времени", zap.Int("dropped", dropped))
	}
	return ticks, nil
}
