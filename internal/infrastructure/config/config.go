package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	ERP         ERPConfig
	Marketplace MarketplaceConfig
	Oracle      OracleConfig
	Matching    MatchingConfig
	Images      ImagesConfig
	HTTP        HTTPConfig
	Scheduler   SchedulerConfig
	Log         LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Store string // store identifier used as the listing partition key
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ERPConfig holds the 1C-style SOAP endpoint settings
type ERPConfig struct {
	WSDLURL     string
	Username    string
	Password    string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	StoreFilter string // warehouse name passed to the stock report
	MinPrice    int64  // stock lines priced below this are dropped
}

// MarketplaceConfig holds the marketplace REST API settings
type MarketplaceConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	PageSize     int
}

// OracleConfig holds the LLM color disambiguation settings
type OracleConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string // empty means the provider default
	Model   string
	Timeout time.Duration
}

// MatchingConfig holds reconciliation tuning knobs
type MatchingConfig struct {
	MinColorConfidence int // oracle verdicts at or below this are rejected
}

// ImagesConfig holds the S3 image bucket settings
type ImagesConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for S3-compatible storage
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // URL prefix published to the marketplace
}

// HTTPConfig holds the ops API server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SchedulerConfig holds the background sync intervals.
// A zero interval disables the corresponding flow.
type SchedulerConfig struct {
	Enabled            bool
	CardsInterval      time.Duration
	PricesInterval     time.Duration
	QuantitiesInterval time.Duration
	BackfillInterval   time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MSYNC_ prefix (e.g., MSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:  v.GetString("app.name"),
			Env:   v.GetString("app.env"),
			Port:  v.GetString("app.port"),
			Store: v.GetString("app.store"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		ERP: ERPConfig{
			WSDLURL:     v.GetString("erp.wsdl_url"),
			Username:    v.GetString("erp.username"),
			Password:    v.GetString("erp.password"),
			Timeout:     v.GetDuration("erp.timeout"),
			MaxRetries:  v.GetInt("erp.max_retries"),
			RetryDelay:  v.GetDuration("erp.retry_delay"),
			StoreFilter: v.GetString("erp.store_filter"),
			MinPrice:    v.GetInt64("erp.min_price"),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:      v.GetString("marketplace.base_url"),
			ClientID:     v.GetString("marketplace.client_id"),
			ClientSecret: v.GetString("marketplace.client_secret"),
			Timeout:      v.GetDuration("marketplace.timeout"),
			PageSize:     v.GetInt("marketplace.page_size"),
		},
		Oracle: OracleConfig{
			Enabled: v.GetBool("oracle.enabled"),
			APIKey:  v.GetString("oracle.api_key"),
			BaseURL: v.GetString("oracle.base_url"),
			Model:   v.GetString("oracle.model"),
			Timeout: v.GetDuration("oracle.timeout"),
		},
		Matching: MatchingConfig{
			MinColorConfidence: v.GetInt("matching.min_color_confidence"),
		},
		Images: ImagesConfig{
			Enabled:         v.GetBool("images.enabled"),
			Bucket:          v.GetString("images.bucket"),
			Region:          v.GetString("images.region"),
			Endpoint:        v.GetString("images.endpoint"),
			AccessKeyID:     v.GetString("images.access_key_id"),
			SecretAccessKey: v.GetString("images.secret_access_key"),
			PublicBaseURL:   v.GetString("images.public_base_url"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			CardsInterval:      v.GetDuration("scheduler.cards_interval"),
			PricesInterval:     v.GetDuration("scheduler.prices_interval"),
			QuantitiesInterval: v.GetDuration("scheduler.quantities_interval"),
			BackfillInterval:   v.GetDuration("scheduler.backfill_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Store == "" {
		cfg.App.Store = "default"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.ERP.Timeout == 0 {
		cfg.ERP.Timeout = 30 * time.Second
	}
	if cfg.ERP.MaxRetries == 0 {
		cfg.ERP.MaxRetries = 3
	}
	if cfg.ERP.RetryDelay == 0 {
		cfg.ERP.RetryDelay = 2 * time.Second
	}
	if cfg.ERP.MinPrice == 0 {
		cfg.ERP.MinPrice = 4000
	}
	if cfg.Marketplace.Timeout == 0 {
		cfg.Marketplace.Timeout = 30 * time.Second
	}
	if cfg.Marketplace.PageSize == 0 {
		cfg.Marketplace.PageSize = 100
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o-mini"
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 20 * time.Second
	}
	if cfg.Matching.MinColorConfidence == 0 {
		cfg.Matching.MinColorConfidence = 5
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Scheduler.CardsInterval == 0 {
		cfg.Scheduler.CardsInterval = 24 * time.Hour
	}
	if cfg.Scheduler.PricesInterval == 0 {
		cfg.Scheduler.PricesInterval = time.Hour
	}
	if cfg.Scheduler.QuantitiesInterval == 0 {
		cfg.Scheduler.QuantitiesInterval = 30 * time.Minute
	}
	if cfg.Scheduler.BackfillInterval == 0 {
		cfg.Scheduler.BackfillInterval = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Matching.MinColorConfidence < 0 || c.Matching.MinColorConfidence > 10 {
		return fmt.Errorf("matching.min_color_confidence must be between 0 and 10, got %d",
			c.Matching.MinColorConfidence)
	}

	if c.Oracle.Enabled && c.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required when the oracle is enabled")
	}
	if c.Images.Enabled && c.Images.Bucket == "" {
		return fmt.Errorf("images.bucket is required when image lookup is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Marketplace.ClientID == "" || c.Marketplace.ClientSecret == "" {
			return fmt.Errorf("marketplace credentials are required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
