package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate when one or more settings are unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	outputModes     = []string{"in-memory-channel", "csv-files", "columnar-files"}
	channelBackends = []string{"memory", "postgres", "kafka", "nats"}
	runStores       = []string{"memory", "redis"}
)

// Config holds the full application configuration loaded from environment
// variables, an optional .env file or the file named by CONFIG_FILE.
//
// Example ENV:
//
//	TRADE_COUNT=1000000
//	PRODUCT_COUNT=100
//	VECTOR_LENGTH=260
//	OUTPUT_MODE=columnar-files
//	OUTPUT_DIR=./data
type Config struct {
	Generator GeneratorConfig
	Output    OutputConfig
	Channel   ChannelConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	Nats      NatsConfig
	Redis     RedisConfig
	Server    ServerConfig
}

// GeneratorConfig sizes a generation run.
type GeneratorConfig struct {
	TradeCount        int64
	ProductCount      int
	CounterpartyCount int
	VectorLength      int
	BatchSize         int64
	Parallelism       int
	FailFast          bool
}

// OutputConfig selects where records go and how they are buffered.
type OutputConfig struct {
	Mode string
	Dir  string

	ProductBuffer int
	TradeBuffer   int
	RiskBuffer    int
	// NumberOfFiles, when positive, sizes trade and risk buffers so the run
	// produces that many files per entity.
	NumberOfFiles int

	FlushWorkers    int
	FlushQueueDepth int
	FlushTimeout    time.Duration

	CSVSeparator       string
	CSVVectorSeparator string
}

// ChannelConfig selects the ingestion backend for in-memory-channel mode.
type ChannelConfig struct {
	Backend string
}

// PostgresConfig defines connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

type NatsConfig struct {
	URL           string
	SubjectPrefix string
}

// RedisConfig configures the Redis run registry.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	RunTTL   time.Duration
}

// ServerConfig holds API mode settings.
type ServerConfig struct {
	Port     string
	RunStore string
}

// AppConfig is the globally accessible configuration instance, populated by LoadConfig.
var AppConfig Config

// LoadConfig populates AppConfig and validates it.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from CONFIG_FILE, or from .env if present.
//  3. Environment variables.
func LoadConfig() error {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		// Optionally read from .env if present (common in local dev)
		v.SetConfigFile(".env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	AppConfig = Config{
		Generator: GeneratorConfig{
			TradeCount:        v.GetInt64("TRADE_COUNT"),
			ProductCount:      v.GetInt("PRODUCT_COUNT"),
			CounterpartyCount: v.GetInt("COUNTERPARTY_COUNT"),
			VectorLength:      v.GetInt("VECTOR_LENGTH"),
			BatchSize:         v.GetInt64("BATCH_SIZE"),
			Parallelism:       v.GetInt("PARALLELISM"),
			FailFast:          v.GetBool("FAIL_FAST"),
		},
		Output: OutputConfig{
			Mode:               strings.ToLower(v.GetString("OUTPUT_MODE")),
			Dir:                v.GetString("OUTPUT_DIR"),
			ProductBuffer:      v.GetInt("PRODUCT_BUFFER"),
			TradeBuffer:        v.GetInt("TRADE_BUFFER"),
			RiskBuffer:         v.GetInt("RISK_BUFFER"),
			NumberOfFiles:      v.GetInt("NUMBER_OF_OUTPUT_FILES"),
			FlushWorkers:       v.GetInt("FLUSH_WORKERS"),
			FlushQueueDepth:    v.GetInt("FLUSH_QUEUE_DEPTH"),
			FlushTimeout:       v.GetDuration("FLUSH_TIMEOUT"),
			CSVSeparator:       v.GetString("CSV_SEPARATOR"),
			CSVVectorSeparator: v.GetString("CSV_VECTOR_SEPARATOR"),
		},
		Channel: ChannelConfig{
			Backend: strings.ToLower(v.GetString("CHANNEL_BACKEND")),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			DBName:   v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		},
		Nats: NatsConfig{
			URL:           v.GetString("NATS_URL"),
			SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			RunTTL:   v.GetDuration("REDIS_RUN_TTL"),
		},
		Server: ServerConfig{
			Port:     v.GetString("SERVER_PORT"),
			RunStore: strings.ToLower(v.GetString("RUN_STORE")),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	return AppConfig.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TRADE_COUNT", 1000)
	v.SetDefault("PRODUCT_COUNT", 100)
	v.SetDefault("COUNTERPARTY_COUNT", 50)
	v.SetDefault("VECTOR_LENGTH", 260)
	v.SetDefault("BATCH_SIZE", 1000)
	v.SetDefault("PARALLELISM", runtime.NumCPU())
	v.SetDefault("FAIL_FAST", false)

	v.SetDefault("OUTPUT_MODE", "columnar-files")
	v.SetDefault("OUTPUT_DIR", "./data")
	v.SetDefault("PRODUCT_BUFFER", 1024)
	v.SetDefault("TRADE_BUFFER", 15*1024)
	v.SetDefault("RISK_BUFFER", 15*1024)
	v.SetDefault("NUMBER_OF_OUTPUT_FILES", 0)
	v.SetDefault("FLUSH_WORKERS", 8)
	v.SetDefault("FLUSH_QUEUE_DEPTH", 16)
	v.SetDefault("FLUSH_TIMEOUT", time.Hour)
	v.SetDefault("CSV_SEPARATOR", "|")
	v.SetDefault("CSV_VECTOR_SEPARATOR", ";")

	v.SetDefault("CHANNEL_BACKEND", "memory")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "varpulse")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "varpulse.")
	v.SetDefault("NATS_URL", "nats://127.0.0.1:4222")
	v.SetDefault("NATS_SUBJECT_PREFIX", "varpulse.")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_RUN_TTL", 24*time.Hour)

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("RUN_STORE", "memory")
}

// DSN builds the database/sql connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// TradeCapacity is the trade buffer size for a run of tradeCount trades.
func (o OutputConfig) TradeCapacity(tradeCount int64) int {
	return o.perFile(tradeCount, o.TradeBuffer)
}

// RiskCapacity is the risk buffer size for a run of tradeCount trades.
func (o OutputConfig) RiskCapacity(tradeCount int64) int {
	return o.perFile(tradeCount, o.RiskBuffer)
}

func (o OutputConfig) perFile(tradeCount int64, fallback int) int {
	if o.NumberOfFiles <= 0 || tradeCount <= 0 {
		return fallback
	}
	n := int64(o.NumberOfFiles)
	return int((tradeCount + n - 1) / n)
}

// Separator returns the CSV field separator rune.
func (o OutputConfig) Separator() rune {
	r, _ := utf8.DecodeRuneInString(o.CSVSeparator)
	return r
}

// VectorSeparator returns the CSV vector separator rune.
func (o OutputConfig) VectorSeparator() rune {
	r, _ := utf8.DecodeRuneInString(o.CSVVectorSeparator)
	return r
}

// Validate reports every unusable setting at once.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	g := c.Generator
	if g.TradeCount < 0 {
		add("TRADE_COUNT must not be negative, got %d", g.TradeCount)
	}
	if g.ProductCount <= 0 {
		add("PRODUCT_COUNT must be positive, got %d", g.ProductCount)
	}
	if g.CounterpartyCount <= 0 {
		add("COUNTERPARTY_COUNT must be positive, got %d", g.CounterpartyCount)
	}
	if g.VectorLength < 0 {
		add("VECTOR_LENGTH must not be negative, got %d", g.VectorLength)
	}
	if g.BatchSize <= 0 {
		add("BATCH_SIZE must be positive, got %d", g.BatchSize)
	}
	if g.Parallelism <= 0 {
		add("PARALLELISM must be positive, got %d", g.Parallelism)
	}

	o := c.Output
	if !slices.Contains(outputModes, o.Mode) {
		add("OUTPUT_MODE must be one of %v, got %q", outputModes, o.Mode)
	}
	if o.Mode != "in-memory-channel" && o.Dir == "" {
		add("OUTPUT_DIR is required for file output")
	}
	if o.ProductBuffer <= 0 {
		add("PRODUCT_BUFFER must be positive, got %d", o.ProductBuffer)
	}
	if o.TradeBuffer <= 0 {
		add("TRADE_BUFFER must be positive, got %d", o.TradeBuffer)
	}
	if o.RiskBuffer <= 0 {
		add("RISK_BUFFER must be positive, got %d", o.RiskBuffer)
	}
	if o.NumberOfFiles < 0 {
		add("NUMBER_OF_OUTPUT_FILES must not be negative, got %d", o.NumberOfFiles)
	}
	if o.FlushWorkers <= 0 {
		add("FLUSH_WORKERS must be positive, got %d", o.FlushWorkers)
	}
	if o.FlushQueueDepth < 0 {
		add("FLUSH_QUEUE_DEPTH must not be negative, got %d", o.FlushQueueDepth)
	}
	if o.FlushTimeout <= 0 {
		add("FLUSH_TIMEOUT must be positive, got %s", o.FlushTimeout)
	}
	if !validSeparator(o.CSVSeparator) {
		add("CSV_SEPARATOR must be a single character other than quote or newline, got %q", o.CSVSeparator)
	}
	if !validSeparator(o.CSVVectorSeparator) {
		add("CSV_VECTOR_SEPARATOR must be a single character other than quote or newline, got %q", o.CSVVectorSeparator)
	}
	if o.CSVSeparator != "" && o.CSVSeparator == o.CSVVectorSeparator {
		add("CSV_SEPARATOR and CSV_VECTOR_SEPARATOR must differ")
	}

	if !slices.Contains(channelBackends, c.Channel.Backend) {
		add("CHANNEL_BACKEND must be one of %v, got %q", channelBackends, c.Channel.Backend)
	}
	if o.Mode == "in-memory-channel" {
		switch c.Channel.Backend {
		case "postgres":
			if c.Postgres.Host == "" || c.Postgres.Port == 0 || c.Postgres.User == "" || c.Postgres.DBName == "" {
				add("POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER and POSTGRES_DB are required for the postgres backend")
			}
		case "kafka":
			if len(c.Kafka.Brokers) == 0 {
				add("KAFKA_BROKERS is required for the kafka backend")
			}
		case "nats":
			if c.Nats.URL == "" {
				add("NATS_URL is required for the nats backend")
			}
		}
	}

	if c.Server.Port == "" {
		add("SERVER_PORT is required")
	}
	if !slices.Contains(runStores, c.Server.RunStore) {
		add("RUN_STORE must be one of %v, got %q", runStores, c.Server.RunStore)
	}
	if c.Server.RunStore == "redis" && c.Redis.Addr == "" {
		add("REDIS_ADDR is required for the redis run store")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func validSeparator(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
