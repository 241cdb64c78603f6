package export

import (
	"context"

	"github.com/skalibog/footprint/internal/chart"
)

// BarWriter хранилище, принимающее бары контракта
type BarWriter interface {
	WriteBars(ctx context.Context, contract *chart.Contract, measurement, runID string) error
}

// BarSink пишет бары контракта во временной ряд
type BarSink struct {
	Writer      BarWriter
	Measurement string
}

// Name имя получателя
func (s BarSink) Name() string { return "influxdb" }

// Write передает бары хранилищу
func (s BarSink) Write(ctx context.Context, p Payload) error {
	return s.Writer.WriteBars(ctx, p.Contract, s.Measurement, p.RunID)
}
