package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"lendledger/internal/domain/valuation"
)

const (
	envPrefix  = "LENDLEDGER"
	envConfigs = "LENDLEDGER_CONFIG"
)

type AppConfig struct {
	Port        string `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	ServiceName string `mapstructure:"service_name"`
	LogLevel    string `mapstructure:"log_level"`
}

type DBConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	Name        string `mapstructure:"name"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"sslmode"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type ValuationHTTPPaths struct {
	Success        string `mapstructure:"success"`
	EstimatedValue string `mapstructure:"estimated_value"`
	LoanAmount     string `mapstructure:"loan_amount"`
	Confidence     string `mapstructure:"confidence"`
	Item           string `mapstructure:"item"`
}

type ValuationHTTPConfig struct {
	URL     string             `mapstructure:"url"`
	Timeout time.Duration      `mapstructure:"timeout"`
	Paths   ValuationHTTPPaths `mapstructure:"paths"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ValuationConfig struct {
	Provider string              `mapstructure:"provider"`
	HTTP     ValuationHTTPConfig `mapstructure:"http"`
	Gemini   GeminiConfig        `mapstructure:"gemini"`
}

type PolicyConfig struct {
	MinEstimatedValue    float64 `mapstructure:"min_estimated_value"`
	LoanToValue          float64 `mapstructure:"loan_to_value"`
	InterestRate         float64 `mapstructure:"interest_rate"`
	TermDays             int     `mapstructure:"term_days"`
	FallbackLoanLimit    float64 `mapstructure:"fallback_loan_limit"`
	FallbackInterestRate float64 `mapstructure:"fallback_interest_rate"`
	FallbackTermDays     int     `mapstructure:"fallback_term_days"`
}

type LedgerConfig struct {
	Currency        string `mapstructure:"currency"`
	RecordFailures  bool   `mapstructure:"record_failures"`
	TreasuryEnabled bool   `mapstructure:"treasury_enabled"`
}

type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Batch    int           `mapstructure:"batch"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type StorageConfig struct {
	ImageDir     string `mapstructure:"image_dir"`
	MaxImageSize int64  `mapstructure:"max_image_size"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	DB          DBConfig          `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Valuation   ValuationConfig   `mapstructure:"valuation"`
	Policy      PolicyConfig      `mapstructure:"policy"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Sweep       SweepConfig       `mapstructure:"sweep"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// Load reads defaults, then the optional file named by LENDLEDGER_CONFIG, then
// LENDLEDGER_* environment variables (dots become underscores).
func Load() (*Config, error) {
	return LoadFile(os.Getenv(envConfigs))
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitCSV(strings.Join(cfg.Kafka.Brokers, ","))
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.service_name", "lendledger")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "mysql")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.name", "lendledger")
	v.SetDefault("db.user", "lendledger")
	v.SetDefault("db.password", "lendledger")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.sqlite_path", "lendledger.db")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl", "24h")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "lendledger")

	v.SetDefault("valuation.provider", "mock")
	v.SetDefault("valuation.http.url", "")
	v.SetDefault("valuation.http.timeout", "30s")
	v.SetDefault("valuation.http.paths.success", "$.success")
	v.SetDefault("valuation.http.paths.estimated_value", "$.estimatedValue")
	v.SetDefault("valuation.http.paths.loan_amount", "$.loanAmount")
	v.SetDefault("valuation.http.paths.confidence", "$.confidence")
	v.SetDefault("valuation.http.paths.item", "$.item")
	v.SetDefault("valuation.gemini.api_key", "")
	v.SetDefault("valuation.gemini.model", "gemini-2.5-flash")

	p := valuation.DefaultPolicy()
	v.SetDefault("policy.min_estimated_value", p.MinEstimatedValue.InexactFloat64())
	v.SetDefault("policy.loan_to_value", p.LoanToValue.InexactFloat64())
	v.SetDefault("policy.interest_rate", p.InterestRate.InexactFloat64())
	v.SetDefault("policy.term_days", p.TermDays)
	v.SetDefault("policy.fallback_loan_limit", p.FallbackLoanLimit.InexactFloat64())
	v.SetDefault("policy.fallback_interest_rate", p.FallbackInterestRate.InexactFloat64())
	v.SetDefault("policy.fallback_term_days", p.FallbackTermDays)

	v.SetDefault("ledger.currency", "USD")
	v.SetDefault("ledger.record_failures", true)
	v.SetDefault("ledger.treasury_enabled", true)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", "24h")
	v.SetDefault("sweep.batch", 500)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "ledger.events")
	v.SetDefault("storage.image_dir", "data/images")
	v.SetDefault("storage.max_image_size", 10<<20)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("missing app.port")
	}
	if _, err := strconv.Atoi(c.App.Port); err != nil {
		return fmt.Errorf("invalid app.port %q: %w", c.App.Port, err)
	}
	switch c.DB.Driver {
	case "mysql", "postgres":
		if c.DB.Host == "" || c.DB.Port == "" || c.DB.Name == "" || c.DB.User == "" {
			return errors.New("missing database config (db.host/port/name/user)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.DB.Port); err != nil {
			return fmt.Errorf("invalid db.port %q: %w", c.DB.Port, err)
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("missing db.sqlite_path")
		}
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	switch c.Valuation.Provider {
	case "mock":
	case "http":
		if c.Valuation.HTTP.URL == "" {
			return errors.New("valuation.provider=http requires valuation.http.url")
		}
	case "gemini":
		if c.Valuation.Gemini.APIKey == "" {
			return errors.New("valuation.provider=gemini requires valuation.gemini.api_key")
		}
	default:
		return fmt.Errorf("unsupported valuation.provider %q", c.Valuation.Provider)
	}
	if c.Policy.LoanToValue < 0 || c.Policy.LoanToValue > 1 {
		return fmt.Errorf("policy.loan_to_value must be within [0,1], got %v", c.Policy.LoanToValue)
	}
	if c.Policy.TermDays <= 0 || c.Policy.FallbackTermDays <= 0 {
		return errors.New("policy term days must be positive")
	}
	if c.Storage.ImageDir == "" {
		return errors.New("missing storage.image_dir")
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return errors.New("sweep.interval must be positive")
	}
	return nil
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DB.Host, c.DB.Port) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.DB.User, c.DB.Password, c.dbAddr(), c.DB.Name)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DB.Driver {
	case "postgres":
		return c.PostgresDSN()
	case "sqlite":
		return c.DB.SQLitePath
	default:
		return c.MySQLDSN()
	}
}

// LoanPolicy converts the configured thresholds into the valuation policy.
func (c *Config) LoanPolicy() valuation.Policy {
	p := c.Policy
	return valuation.Policy{
		MinEstimatedValue:    decimal.NewFromFloat(p.MinEstimatedValue),
		LoanToValue:          decimal.NewFromFloat(p.LoanToValue),
		InterestRate:         decimal.NewFromFloat(p.InterestRate),
		TermDays:             p.TermDays,
		FallbackLoanLimit:    decimal.NewFromFloat(p.FallbackLoanLimit),
		FallbackInterestRate: decimal.NewFromFloat(p.FallbackInterestRate),
		FallbackTermDays:     p.FallbackTermDays,
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
