package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Server      ServerConfig      `yaml:"server"`
	Stripe      StripeConfig      `yaml:"stripe"`
	Store       StoreConfig       `yaml:"store"`
	Eligibility EligibilityConfig `yaml:"eligibility"`
	Payment     PaymentConfig     `yaml:"payment"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Log         LogConfig         `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StripeConfig struct {
	SecretKey      string   `yaml:"secret_key"`
	WebhookSecret  string   `yaml:"webhook_secret"`
	Currency       string   `yaml:"currency"`
	PaymentMethods []string `yaml:"payment_methods"`
}

// StoreConfig holds settings shared by every branch. All branches run in one timezone.
type StoreConfig struct {
	Timezone string        `yaml:"timezone"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type EligibilityConfig struct {
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

type PaymentConfig struct {
	PollAttempts int           `yaml:"poll_attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "orderdesk",
			Database: "orderdesk",
			SSLMode:  "disable",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Server: ServerConfig{
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Stripe: StripeConfig{
			Currency:       "eur",
			PaymentMethods: []string{"card"},
		},
		Store: StoreConfig{
			Timezone: "Europe/Berlin",
			CacheTTL: 5 * time.Minute,
		},
		Eligibility: EligibilityConfig{
			LookupTimeout: 3 * time.Second,
		},
		Payment: PaymentConfig{
			PollAttempts: 10,
			PollInterval: 2 * time.Second,
		},
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: 25,
			From: "orders@localhost",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the yaml file at path on top of Default and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Store.Timezone); err != nil {
		return fmt.Errorf("invalid store timezone %q: %w", c.Store.Timezone, err)
	}
	if c.Store.CacheTTL <= 0 {
		return fmt.Errorf("store.cache_ttl must be positive")
	}
	if c.Payment.PollAttempts < 1 {
		return fmt.Errorf("payment.poll_attempts must be at least 1")
	}
	if c.Eligibility.LookupTimeout <= 0 {
		return fmt.Errorf("eligibility.lookup_timeout must be positive")
	}
	if len(c.Stripe.PaymentMethods) == 0 {
		return fmt.Errorf("stripe.payment_methods must not be empty")
	}
	return nil
}

// Location returns the store timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Store.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DB_HOST":               &cfg.Database.Host,
		"DB_USER":               &cfg.Database.User,
		"DB_PASSWORD":           &cfg.Database.Password,
		"DB_NAME":               &cfg.Database.Database,
		"DB_SSLMODE":            &cfg.Database.SSLMode,
		"RABBITMQ_HOST":         &cfg.RabbitMQ.Host,
		"RABBITMQ_USER":         &cfg.RabbitMQ.User,
		"RABBITMQ_PASSWORD":     &cfg.RabbitMQ.Password,
		"STRIPE_SECRET_KEY":     &cfg.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET": &cfg.Stripe.WebhookSecret,
		"STORE_TIMEZONE":        &cfg.Store.Timezone,
		"SMTP_HOST":             &cfg.SMTP.Host,
		"SMTP_USERNAME":         &cfg.SMTP.Username,
		"SMTP_PASSWORD":         &cfg.SMTP.Password,
		"LOG_LEVEL":             &cfg.Log.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":       &cfg.Database.Port,
		"RABBITMQ_PORT": &cfg.RabbitMQ.Port,
		"PORT":          &cfg.Server.Port,
		"SMTP_PORT":     &cfg.SMTP.Port,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("STRIPE_PAYMENT_METHODS"); ok && v != "" {
		cfg.Stripe.PaymentMethods = strings.Split(v, ",")
	}
	return nil
}
