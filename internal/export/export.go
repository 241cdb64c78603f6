package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Payload готовый контракт и его сериализация
type Payload struct {
	RunID    string
	Contract *chart.Contract
	JSON     []byte
}

// Sink получатель результата прогона
type Sink interface {
	Name() string
	Write(ctx context.Context, p Payload) error
}

// NewRunID идентификатор прогона
func NewRunID() string {
	return uuid.NewString()
}

// Encode сериализует контракт в JSON
func Encode(contract *chart.Contract, indent bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(contract, "", "  ")
	} else {
		data, err = json.Marshal(contract)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации контракта: %w", err)
	}
	return data, nil
}

// Export отдает контракт всем получателям параллельно.
// Первая ошибка отменяет остальные выгрузки.
func Export(ctx context.Context, p Payload, sinks ...Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sinks {
		g.Go(func() error {
			if err := s.Write(gctx, p); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			logger.Info("Контракт выгружен", zap.String("sink", s.Name()), zap.String("run_id", p.RunID))
			return nil
		})
	}
	return g.Wait()
}
