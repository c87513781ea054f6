package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Polling     PollingConfig     `mapstructure:"polling"`
	Buckets     BucketsConfig     `mapstructure:"buckets"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера BFF.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// Addr возвращает адрес для http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricsConfig — отдельный листенер для Prometheus.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // пусто — метрики не экспортируются
}

// BackendConfig — единственный источник origin для всех запросов к скоринговому бэкенду.
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxResponseMB int64         `mapstructure:"max_response_mb"` // больше — ответ отбрасывается как сетевой сбой
}

// PollingConfig — фиксированная задержка без экспоненты: пакетная обработка длится секунды.
type PollingConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts uint          `mapstructure:"max_attempts"`
}

// BucketsConfig задаёт границы диапазонов гистограмм. Пустой список — равномерная сетка.
type BucketsConfig struct {
	BalanceEdges []float64 `mapstructure:"balance_edges"`
	AmountEdges  []float64 `mapstructure:"amount_edges"`
	BalanceWidth float64   `mapstructure:"balance_width"`
	AmountWidth  float64   `mapstructure:"amount_width"`
	Count        int       `mapstructure:"count"`
}

// ReliabilityConfig — предохранитель и лимитер исходящих запросов.
type ReliabilityConfig struct {
	RateLimit     float64       `mapstructure:"rate_limit"` // запросов в секунду
	RateBurst     int           `mapstructure:"rate_burst"`
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBMaxFailures uint32        `mapstructure:"cb_max_failures"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub сигналы между инстансами консоли).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // пусто — сигналы отключены
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig описывает подключение к PostgreSQL для журнала действий операторов.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"` // пусто — журнал пишется только в лог
	MaxConns int    `mapstructure:"max_conns"`
}

// AuthConfig содержит пути к RSA ключам и список операторов.
type AuthConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	PublicKeyPath  string            `mapstructure:"public_key_path"`
	PrivateKeyPath string            `mapstructure:"private_key_path"`
	TokenTTL       time.Duration     `mapstructure:"token_ttl"`
	Operators      []domain.Operator `mapstructure:"operators"`
	PublicKey      []byte
	PrivateKey     []byte
}

// JournalConfig — буфер и период сброса асинхронного журнала.
type JournalConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig объединяет значения из файла и ENV. path может быть пустым — тогда ищем config.yaml.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigFrom(viper.New(), path)
}

// LoadConfigFrom читает конфиг в переданный экземпляр viper (к нему уже могут быть привязаны флаги cobra).
func LoadConfigFrom(v *viper.Viper, path string) (*Config, error) {
	// 1. Настройка поиска файла
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// 2. ENV перекрывает файл: BACKEND_BASE_URL перекроет backend.base_url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 6. Ключи из ENV (Docker/K8s) или из файла
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

// Validate проверяет инварианты, без которых ядро не имеет смысла.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.MaxResponseMB < 0 {
		return fmt.Errorf("backend.max_response_mb must not be negative")
	}
	if c.Polling.MaxAttempts == 0 {
		return fmt.Errorf("polling.max_attempts must be positive")
	}
	if c.Polling.Interval < 0 {
		return fmt.Errorf("polling.interval must not be negative")
	}
	if err := ascending(c.Buckets.BalanceEdges); err != nil {
		return fmt.Errorf("buckets.balance_edges: %w", err)
	}
	if err := ascending(c.Buckets.AmountEdges); err != nil {
		return fmt.Errorf("buckets.amount_edges: %w", err)
	}
	return nil
}

func ascending(edges []float64) error {
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return fmt.Errorf("edges must be strictly ascending, got %v after %v", edges[i], edges[i-1])
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second) // загрузка ждёт поллинг
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.max_response_mb", 32)
	v.SetDefault("polling.interval", 2*time.Second)
	v.SetDefault("polling.max_attempts", 10)
	v.SetDefault("buckets.balance_width", 100000)
	v.SetDefault("buckets.amount_width", 100)
	v.SetDefault("buckets.count", 10)
	v.SetDefault("reliability.rate_limit", 50)
	v.SetDefault("reliability.rate_burst", 10)
	v.SetDefault("reliability.cb_max_requests", 3)
	v.SetDefault("reliability.cb_interval", 5*time.Second)
	v.SetDefault("reliability.cb_timeout", 30*time.Second)
	v.SetDefault("reliability.cb_max_failures", 5)
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("journal.buffer_size", 1000)
	v.SetDefault("journal.batch_size", 100)
	v.SetDefault("journal.flush_interval", 1*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource — PEM прямо в ENV имеет приоритет над файлом
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
