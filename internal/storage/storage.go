package storage

import (
	"context"
	"sort"
	"time"

	"github.com/skalibog/footprint/pkg/models"
)

// TickSource источник исторических тиков.
// Тики дня возвращаются в порядке неубывания времени, при равном времени по ID.
type TickSource interface {
	// FetchFirstTick первый тик начиная с from, nil если данных нет
	FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error)
	// FetchDay тики календарного дня [day, day+24h)
	FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error)
	Close()
}

// dayBounds границы календарного дня в UTC
func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func sortTicks(ticks []models.Tick) {
	sort.SliceStable(ticks, func(i, j int) bool {
		if ticks[i].Timestamp.Equal(ticks[j].Timestamp) {
			return ticks[i].ID < ticks[j].ID
		}
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
}

// MemorySource тики в памяти, для тестов и повторных прогонов
type MemorySource struct {
	ticks []models.Tick
}

// NewMemorySource копирует и упорядочивает тики
func NewMemorySource(ticks []models.Tick) *MemorySource {
	cp := make([]models.Tick, len(ticks))
	copy(cp, ticks)
	sortTicks(cp)
	return &MemorySource{ticks: cp}
}

// FetchFirstTick первый тик не раньше from
func (s *MemorySource) FetchFirstTick(ctx context.Context, from time.Time) (*models.Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := sort.Search(len(s.ticks), func(i int) bool { return !s.ticks[i].Timestamp.Before(from) })
	if i == len(s.ticks) {
		return nil, nil
	}
	t := s.ticks[i]
	return &t, nil
}

// FetchDay тики дня
func (s *MemorySource) FetchDay(ctx context.Context, day time.Time) ([]models.Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := dayBounds(day)
	lo := sort.Search(len(s.ticks), func(i int) bool { return !s.ticks[i].Timestamp.Before(start) })
	hi := sort.Search(len(s.ticks), func(i int) bool { return !s.ticks[i].Timestamp.Before(end) })
	if lo == hi {
		return nil, nil
	}
	out := make([]models.Tick, hi-lo)
	copy(out, s.ticks[lo:hi])
	return out, nil
}

// Close ничего не делает
func (s *MemorySource) Close() {}
