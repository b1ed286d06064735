package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string  `env:"TELEGRAM_TOKEN,required"`
	AdminChatIDs  []int64 `env:"ADMIN_CHAT_IDS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PricingScheme    string  `env:"PRICING_SCHEME" envDefault:"diseno"`
	ConstructionRate float64 `env:"CONSTRUCTION_RATE" envDefault:"2200000"`

	// Completed quotations allowed per chat within RateWindow; 0 disables.
	RateLimit  int           `env:"QUOTE_RATE_LIMIT" envDefault:"5"`
	RateWindow time.Duration `env:"QUOTE_RATE_WINDOW" envDefault:"24h"`

	Redis RedisConfig `envPrefix:"REDIS_"`
	DB    DBConfig    `envPrefix:"DB_"`
	CRM   CRMConfig   `envPrefix:"CRM_"`
	HTTP  HTTPConfig  `envPrefix:"HTTP_"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
}

type DBConfig struct {
	Host            string        `env:"HOST,required"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER,required"`
	Password        string        `env:"PASSWORD,required"`
	Name            string        `env:"NAME,required"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

// CRMConfig points at the webhook that receives finished quotations. An
// empty URL turns the submission off. WebhookToken guards the inbound
// events route; empty disables it.
type CRMConfig struct {
	URL          string        `env:"URL"`
	Token        string        `env:"TOKEN"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
	WebhookToken string        `env:"WEBHOOK_TOKEN"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (*Config, error) {
	if err := loadDotenv(files); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ConstructionRate < 0 {
		return fmt.Errorf("CONSTRUCTION_RATE must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("QUOTE_RATE_LIMIT must not be negative")
	}
	if c.Redis.TTL <= 0 {
		return fmt.Errorf("REDIS_TTL must be positive")
	}
	return nil
}

// LoadDB reads only the DB_ section, for tools that need nothing else.
func LoadDB(files ...string) (*DBConfig, error) {
	if err := loadDotenv(files); err != nil {
		return nil, err
	}

	var cfg DBConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DB_"}); err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	return &cfg, nil
}

// DSN is the lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
