package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/skalibog/footprint/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию прогона
type Config struct {
	Contract   ContractConfig   `yaml:"contract"`
	Instrument InstrumentConfig `yaml:"instrument"`
	Engine     EngineConfig     `yaml:"engine"`
	Signal     SignalConfig     `yaml:"signal"`
	Source     SourceConfig     `yaml:"source"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
	UI         UIConfig         `yaml:"ui"`
}

// ContractConfig контракт и диапазон дат
type ContractConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

// InstrumentConfig сетка цен
type InstrumentConfig struct {
	TickSize float64 `yaml:"tick_size" default:"0.25" validate:"gt=0"`
}

// EngineConfig параметры range-баров и индикаторов
type EngineConfig struct {
	BarRange           float64       `yaml:"bar_range" default:"2.5" validate:"gt=0"`
	ImbalanceThreshold float64       `yaml:"imbalance_threshold" default:"3" validate:"gt=0"`
	ZScoreWindow       int           `yaml:"zscore_window" default:"20" validate:"gte=2"`
	TypicalPrice       string        `yaml:"typical_price" default:"hlc3" validate:"oneof=hlc3 close"`
	InitialBalance     time.Duration `yaml:"initial_balance" default:"1h" validate:"gt=0"`
	ValueArea          float64       `yaml:"value_area" default:"0.7" validate:"gt=0,lte=1"`
}

// SignalConfig пороги сигнала бара
type SignalConfig struct {
	Enabled       bool  `yaml:"enabled"`
	MinVolume     int64 `yaml:"min_volume" validate:"gte=0"`
	MinImbalances int   `yaml:"min_imbalances" default:"2" validate:"gte=0"`
	MinDelta      int64 `yaml:"min_delta" validate:"gte=0"`
}

// SourceConfig источник тиков
type SourceConfig struct {
	Type       string           `yaml:"type" default:"influxdb" validate:"oneof=influxdb clickhouse postgres binance"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Binance    BinanceConfig    `yaml:"binance"`
}

// InfluxDBConfig настройки InfluxDB
type InfluxDBConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
	Measurement  string `yaml:"measurement" default:"ticks"`
	Symbol       string `yaml:"symbol"`
}

// ClickHouseConfig настройки ClickHouse
type ClickHouseConfig struct {
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table" default:"ticks"`
	Symbol string `yaml:"symbol"`
}

// PostgresConfig настройки PostgreSQL
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table" default:"ticks"`
	Symbol   string `yaml:"symbol"`
	MaxConns int32  `yaml:"max_conns" default:"4" validate:"gt=0"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey      string `yaml:"api_key"`
	APISecret   string `yaml:"api_secret"`
	Testnet     bool   `yaml:"testnet"`
	Symbol      string `yaml:"symbol" default:"BTCUSDT"`
	VolumeScale int64  `yaml:"volume_scale" default:"1000" validate:"gt=0"`
	PageLimit   int    `yaml:"page_limit" default:"1000" validate:"gt=0,lte=1000"`
}

// OutputConfig куда выгружается готовый контракт
type OutputConfig struct {
	Dir    string             `yaml:"dir" default:"output"`
	File   string             `yaml:"file" default:"contract.json"`
	Indent bool               `yaml:"indent"`
	S3     S3Config           `yaml:"s3"`
	Influx InfluxExportConfig `yaml:"influxdb"`
}

// S3Config выгрузка в S3
type S3Config struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix" default:"footprint"`
	Region       string `yaml:"region" default:"us-east-1"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// InfluxExportConfig запись баров в InfluxDB
type InfluxExportConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Measurement string `yaml:"measurement" default:"range_bars"`
}

// MetricsConfig отправка метрик в Pushgateway
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job" default:"footprint"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File     string `yaml:"file" default:"app.log"`
	JSONFile string `yaml:"json_file" default:"app.json.log"`
	Console  bool   `yaml:"console"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	Report      bool `yaml:"report"`
	Interactive bool `yaml:"interactive"`
}

var validate = validator.New()

// Load загружает конфигурацию из файла, применяет значения по умолчанию,
// переменные окружения FOOTPRINT_* и проверяет результат
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Загружена конфигурация", zap.String("path", path), zap.String("contract", cfg.Contract.Name))
	return cfg, nil
}

// Parse разбирает YAML и проверяет конфигурацию
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	// .env не обязателен
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка установки значений по умолчанию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет поля и обязательные параметры выбранного источника
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if c.Contract.End < c.Contract.Start {
		return fmt.Errorf("contract.end %s раньше contract.start %s", c.Contract.End, c.Contract.Start)
	}

	switch c.Source.Type {
	case "influxdb":
		s := c.Source.InfluxDB
		if s.URL == "" || s.Bucket == "" || s.Organization == "" {
			return fmt.Errorf("source.influxdb: требуются url, organization и bucket")
		}
	case "clickhouse":
		if c.Source.ClickHouse.DSN == "" {
			return fmt.Errorf("source.clickhouse: требуется dsn")
		}
	case "postgres":
		if c.Source.Postgres.DSN == "" {
			return fmt.Errorf("source.postgres: требуется dsn")
		}
	}

	if c.Output.S3.Enabled && c.Output.S3.Bucket == "" {
		return fmt.Errorf("output.s3: требуется bucket")
	}
	if c.Output.Influx.Enabled && (c.Source.InfluxDB.URL == "" || c.Source.InfluxDB.Bucket == "") {
		return fmt.Errorf("output.influxdb: требуется source.influxdb url и bucket")
	}
	return nil
}

// applyEnvOverrides подставляет секреты из окружения
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Source.InfluxDB.URL, "FOOTPRINT_INFLUX_URL")
	setStr(&cfg.Source.InfluxDB.Token, "FOOTPRINT_INFLUX_TOKEN")
	setStr(&cfg.Source.ClickHouse.DSN, "FOOTPRINT_CLICKHOUSE_DSN")
	setStr(&cfg.Source.Postgres.DSN, "FOOTPRINT_POSTGRES_DSN")
	setStr(&cfg.Source.Binance.APIKey, "FOOTPRINT_BINANCE_API_KEY")
	setStr(&cfg.Source.Binance.APISecret, "FOOTPRINT_BINANCE_API_SECRET")
	setBool(&cfg.Source.Binance.Testnet, "FOOTPRINT_BINANCE_TESTNET")
	setStr(&cfg.Output.S3.AccessKey, "FOOTPRINT_S3_ACCESS_KEY")
	setStr(&cfg.Output.S3.SecretKey, "FOOTPRINT_S3_SECRET_KEY")
	setStr(&cfg.Output.S3.Endpoint, "FOOTPRINT_S3_ENDPOINT")
	setStr(&cfg.Metrics.PushgatewayURL, "FOOTPRINT_PUSHGATEWAY_URL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
