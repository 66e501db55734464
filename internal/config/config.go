package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Log      LogConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Delivery DeliveryConfig
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name string
	Env  string // development | production
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains the public API listener settings.
type HTTPConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GRPCConfig contains the ops gRPC listener settings.
type GRPCConfig struct {
	Enabled        bool
	Address        string        // e.g. ":50051"
	HealthInterval time.Duration // how often the gRPC health check pings the database
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	AdminEmail    string // optional bootstrap admin
	AdminPassword string
	AdminName     string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RedisConfig configures the report cache. Disabled means reports are computed on every call.
type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

// KafkaConfig configures the order event publisher.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// DeliveryConfig tunes the staff counters.
type DeliveryConfig struct {
	OnTimeWindow time.Duration // assignment-to-delivery time that still counts as on time
	Timezone     string        // day boundary for "completed today"
}

const devJWTSecret = "dev-secret-change-me"

// Load reads configuration with this priority (highest first):
//  1. environment variables with the RAILBITE_ prefix (e.g. RAILBITE_AUTH_JWT_SECRET)
//  2. config.toml in the working directory
//  3. built-in defaults
//
// A JWT secret is required.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("RAILBITE_AUTH_JWT_SECRET is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for the JWT secret in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load(devJWTSecret)
}

func load(defaultSecret string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RAILBITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaultSecret)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		HTTP: HTTPConfig{
			Address:         v.GetString("http.address"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		GRPC: GRPCConfig{
			Enabled:        v.GetBool("grpc.enabled"),
			Address:        v.GetString("grpc.address"),
			HealthInterval: v.GetDuration("grpc.health_interval"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			BcryptCost:    v.GetInt("auth.bcrypt_cost"),
			AdminEmail:    v.GetString("auth.admin_email"),
			AdminPassword: v.GetString("auth.admin_password"),
			AdminName:     v.GetString("auth.admin_name"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			ReportTTL: v.GetDuration("redis.report_ttl"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: splitList(v.GetString("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
		Delivery: DeliveryConfig{
			OnTimeWindow: v.GetDuration("delivery.on_time_window"),
			Timezone:     v.GetString("delivery.timezone"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, secret string) {
	v.SetDefault("app.name", "railbite")
	v.SetDefault("app.env", "development")
	v.SetDefault("database.path", "railbite.db")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.address", ":50051")
	v.SetDefault("grpc.health_interval", 10*time.Second)
	v.SetDefault("auth.jwt_secret", secret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.admin_name", "RailBite Admin")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.report_ttl", 5*time.Minute)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "railbite.order-events")
	v.SetDefault("delivery.on_time_window", 45*time.Minute)
	v.SetDefault("delivery.timezone", "Asia/Dhaka")
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return errors.New("auth.admin_email and auth.admin_password must be set together")
	}
	if c.Delivery.OnTimeWindow <= 0 {
		return errors.New("delivery.on_time_window must be positive")
	}
	if _, err := time.LoadLocation(c.Delivery.Timezone); err != nil {
		return fmt.Errorf("delivery.timezone: %w", err)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("auth.jwt_secret must be changed in production")
	}
	return nil
}

// Location returns the configured delivery timezone. validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Delivery.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, DB: %s, HTTP: %s, gRPC: %s (enabled=%t), Redis: %s (enabled=%t), Kafka: %v (enabled=%t), Auth: *** (masked) ***}",
		c.App.Env, c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.GRPC.Enabled,
		c.Redis.Addr, c.Redis.Enabled, c.Kafka.Brokers, c.Kafka.Enabled)
}
