package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skalibog/footprint/internal/analysis/aggregator"
	barsignal "github.com/skalibog/footprint/internal/analysis/signal"
	"github.com/skalibog/footprint/internal/analysis/technical"
	"github.com/skalibog/footprint/internal/calendar"
	"github.com/skalibog/footprint/internal/config"
	"github.com/skalibog/footprint/internal/exchange"
	"github.com/skalibog/footprint/internal/export"
	"github.com/skalibog/footprint/internal/metrics"
	"github.com/skalibog/footprint/internal/storage"
	"github.com/skalibog/footprint/internal/ui"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	from := flag.String("from", "", "начало диапазона YYYY-MM-DD, переопределяет contract.start")
	to := flag.String("to", "", "конец диапазона YYYY-MM-DD, переопределяет contract.end")
	flag.Parse()

	// до загрузки конфигурации пишем только в консоль
	if err := logger.Init(logger.Options{Level: "info", Console: true}); err != nil {
		fmt.Fprintf(os.Stderr, "ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Fatal("Файл конфигурации не найден", zap.String("path", *configPath))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}
	if *from != "" {
		cfg.Contract.Start = *from
	}
	if *to != "" {
		cfg.Contract.End = *to
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Некорректный диапазон", zap.Error(err))
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		JSONFile: cfg.Log.JSONFile,
		Console:  cfg.Log.Console && !cfg.UI.Interactive,
		Truncate: true,
	}); err != nil {
		logger.Fatal("Ошибка настройки логгера", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Получен сигнал завершения, останавливаем прогон")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Прогон завершился с ошибкой", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	instrument := models.NewInstrument(cfg.Instrument.TickSize)

	start, err := calendar.ParseDate(cfg.Contract.Start)
	if err != nil {
		return err
	}
	end, err := calendar.ParseDate(cfg.Contract.End)
	if err != nil {
		return err
	}
	weeks, err := calendar.Weeks(start, end)
	if err != nil {
		return err
	}

	typical, err := technical.ParseTypicalPrice(cfg.Engine.TypicalPrice)
	if err != nil {
		return err
	}

	source, influx, err := openSource(ctx, cfg, instrument)
	if err != nil {
		return err
	}
	defer source.Close()

	recorder := metrics.New()
	engine := aggregator.NewEngine(cfg.Contract.Name, instrument, aggregator.Config{
		BarRange:           cfg.Engine.BarRange,
		ImbalanceThreshold: cfg.Engine.ImbalanceThreshold,
		ZScoreWindow:       cfg.Engine.ZScoreWindow,
		TypicalPrice:       typical,
		InitialBalance:     cfg.Engine.InitialBalance,
		ValueArea:          cfg.Engine.ValueArea,
		Signal: barsignal.Rule{
			Enabled:       cfg.Signal.Enabled,
			MinVolume:     cfg.Signal.MinVolume,
			MinImbalances: cfg.Signal.MinImbalances,
			MinDelta:      cfg.Signal.MinDelta,
		},
	}).WithRecorder(recorder)

	logger.Info("Запуск прогона",
		zap.String("contract", cfg.Contract.Name),
		zap.String("source", cfg.Source.Type),
		zap.String("start", cfg.Contract.Start),
		zap.String("end", cfg.Contract.End),
		zap.Int("weeks", len(weeks)),
		zap.Float64("tick_size", instrument.Increment()),
		zap.Int("zscore_window", cfg.Engine.ZScoreWindow))

	began := time.Now()
	contract, err := aggregator.NewRunner(engine, source).Run(ctx, weeks)
	if err != nil {
		return err
	}
	elapsed := time.Since(began)
	recorder.ObserveRun(elapsed)

	runID := export.NewRunID()
	nWeeks, nDays, nBars := contract.Counts()
	logger.Info("Контракт построен",
		zap.String("run_id", runID),
		zap.Int("weeks", nWeeks),
		zap.Int("days", nDays),
		zap.Int("bars", nBars),
		zap.Duration("elapsed", elapsed))

	data, err := export.Encode(contract, cfg.Output.Indent)
	if err != nil {
		return err
	}
	sinks := []export.Sink{export.FileSink{Dir: cfg.Output.Dir, File: cfg.Output.File}}
	if cfg.Output.S3.Enabled {
		s3sink, err := export.NewS3Sink(ctx, cfg.Output.S3)
		if err != nil {
			return err
		}
		sinks = append(sinks, s3sink)
	}
	if cfg.Output.Influx.Enabled {
		if influx == nil {
			if influx, err = storage.NewInfluxDBStorage(ctx, cfg.Source.InfluxDB); err != nil {
				return err
			}
			defer influx.Close()
		}
		sinks = append(sinks, export.BarSink{Writer: influx, Measurement: cfg.Output.Influx.Measurement})
	}
	if err := export.Export(ctx, export.Payload{RunID: runID, Contract: contract, JSON: data}, sinks...); err != nil {
		return err
	}

	if cfg.Metrics.PushgatewayURL != "" {
		if err := recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, contract.Name, runID); err != nil {
			logger.Warn("Метрики не отправлены", zap.Error(err))
		}
	}

	summary := ui.Summary{RunID: runID, Contract: contract, Stats: engine.Stats(), Elapsed: elapsed}
	switch {
	case cfg.UI.Interactive:
		return ui.NewBrowser(summary, cfg.Log.JSONFile).Start()
	case cfg.UI.Report:
		fmt.Println(ui.RenderReport(summary))
	}
	return nil
}

// openSource открывает источник тиков; для InfluxDB возвращает и хранилище,
// чтобы переиспользовать соединение при выгрузке баров
func openSource(ctx context.Context, cfg *config.Config, instrument models.Instrument) (storage.TickSource, *storage.InfluxDBStorage, error) {
	switch cfg.Source.Type {
	case "influxdb":
		s, err := storage.NewInfluxDBStorage(ctx, cfg.Source.InfluxDB)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "clickhouse":
		s, err := storage.NewClickHouseStorage(ctx, cfg.Source.ClickHouse)
		return s, nil, err
	case "postgres":
		s, err := storage.NewPostgresStorage(ctx, cfg.Source.Postgres)
		return s, nil, err
	case "binance":
		return exchange.NewBinanceClient(cfg.Source.Binance, instrument), nil, nil
	}
	return nil, nil, fmt.Errorf("неизвестный источник %q", cfg.Source.Type)
}
