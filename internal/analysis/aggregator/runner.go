package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skalibog/footprint/internal/calendar"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/internal/storage"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultPrefetch сколько дней загружается впрок
const defaultPrefetch = 2

// Runner загружает тики по дням и прогоняет их через движок.
// Загрузка следующего дня идет параллельно с обработкой текущего,
// сам движок работает в одной горутине.
type Runner struct {
	engine   *Engine
	source   storage.TickSource
	prefetch int
}

type dayBatch struct {
	week  int
	date  time.Time
	ticks []models.Tick
}

// NewRunner создает прогон для движка и источника тиков
func NewRunner(engine *Engine, source storage.TickSource) *Runner {
	return &Runner{engine: engine, source: source, prefetch: defaultPrefetch}
}

// Run строит контракт по неделям календаря
func (r *Runner) Run(ctx context.Context, weeks []calendar.Week) (*chart.Contract, error) {
	if len(weeks) == 0 || len(weeks[0].Days) == 0 {
		return nil, errors.New("пустой диапазон дат")
	}
	start := weeks[0].Days[0]

	first, err := r.source.FetchFirstTick(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения первого тика: %w", err)
	}
	if first == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoStartData, start.Format(time.DateOnly))
	}
	r.engine.Seed(*first)
	logger.Info("Стартовая цена получена",
		zap.Time("time", first.Timestamp),
		zap.Float64("price", first.Price))

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan dayBatch, r.prefetch)

	g.Go(func() error {
		defer close(batches)
		for wi, w := range weeks {
			for _, d := range w.Days {
				ticks, err := r.source.FetchDay(gctx, d)
				if err != nil {
					return fmt.Errorf("ошибка загрузки тиков за %s: %w", d.Format(time.DateOnly), err)
				}
				select {
				case batches <- dayBatch{week: wi, date: d, ticks: ticks}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		return r.consume(gctx, weeks, batches)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.engine.Finalize()
}

func (r *Runner) consume(ctx context.Context, weeks []calendar.Week, batches <-chan dayBatch) error {
	openWeek := -1
	for b := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(b.ticks) == 0 {
			r.engine.SkipDay(b.date)
			continue
		}

		if b.week != openWeek {
			if openWeek >= 0 {
				if err := r.engine.CloseWeek(); err != nil {
					return err
				}
			}
			if err := r.engine.OpenWeek(weeks[b.week].Start, b.ticks[0].Price); err != nil {
				return err
			}
			openWeek = b.week
		}

		if err := r.engine.OpenDay(b.date, b.ticks[0]); err != nil {
			return err
		}
		for _, tick := range b.ticks {
			if err := r.engine.Process(tick); err != nil {
				return fmt.Errorf("тик %d: %w", tick.ID, err)
			}
		}
		if err := r.engine.CloseDay(); err != nil {
			return err
		}
	}
	if openWeek >= 0 {
		return r.engine.CloseWeek()
	}
	return nil
}
