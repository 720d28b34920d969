package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Waze      WazeConfig      `mapstructure:"waze"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

// WazeConfig describes the upstream live-map endpoints and the retry policy
// wrapped around them.
type WazeConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	PlannerExt        string        `mapstructure:"planner_ext"`
	GeocodeExt        string        `mapstructure:"geocode_ext"`
	VenuesExt         string        `mapstructure:"venues_ext"`
	ReviewsExt        string        `mapstructure:"reviews_ext"`
	Locale            string        `mapstructure:"locale"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BackoffFactor     time.Duration `mapstructure:"backoff_factor"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PollerConfig drives scheduled travel-time sampling.
type PollerConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	RoutesFile string        `mapstructure:"routes_file"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WAZE_WAZE_BASE_URL → waze.base_url
	v.SetEnvPrefix("WAZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("waze.base_url", "https://www.waze.com")
	v.SetDefault("waze.planner_ext", "/live-map/api/user-drive?geo_env=row")
	v.SetDefault("waze.geocode_ext", "/live-map/api/autocomplete")
	v.SetDefault("waze.venues_ext", "/live-map/api/venue")
	v.SetDefault("waze.reviews_ext", "/live-map/api/google-place-reviews")
	v.SetDefault("waze.locale", "")
	v.SetDefault("waze.max_retries", 3)
	v.SetDefault("waze.backoff_factor", 300*time.Millisecond)
	v.SetDefault("waze.request_timeout", 15*time.Second)
	v.SetDefault("waze.requests_per_second", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "waze")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "waze_traffic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("poller.interval", 5*time.Minute)
	v.SetDefault("poller.routes_file", "routes.json")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "travel-samples")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Waze.problems()...)
	errs = append(errs, c.Server.problems()...)
	errs = append(errs, c.Database.problems()...)
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Poller.Interval < time.Second {
		errs = append(errs, "poller.interval must be at least 1s")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (w WazeConfig) problems() []string {
	var out []string
	if u, err := url.Parse(w.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		out = append(out, fmt.Sprintf("waze.base_url must be an absolute URL, got %q", w.BaseURL))
	}
	exts := []struct{ key, val string }{
		{"waze.planner_ext", w.PlannerExt},
		{"waze.geocode_ext", w.GeocodeExt},
		{"waze.venues_ext", w.VenuesExt},
		{"waze.reviews_ext", w.ReviewsExt},
	}
	for _, e := range exts {
		if !strings.HasPrefix(e.val, "/") {
			out = append(out, fmt.Sprintf("%s must start with '/', got %q", e.key, e.val))
		}
	}
	if w.MaxRetries < 0 {
		out = append(out, fmt.Sprintf("waze.max_retries must be >= 0, got %d", w.MaxRetries))
	}
	if w.BackoffFactor < 0 {
		out = append(out, "waze.backoff_factor must not be negative")
	}
	if w.RequestTimeout <= 0 {
		out = append(out, "waze.request_timeout must be positive")
	}
	if w.RequestsPerSecond < 0 {
		out = append(out, "waze.requests_per_second must not be negative")
	}
	return out
}

func (s ServerConfig) problems() []string {
	var out []string
	if !validPort(s.Port) {
		out = append(out, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		out = append(out, "server.read_timeout and server.write_timeout must be positive")
	}
	return out
}

func (d DatabaseConfig) problems() []string {
	var out []string
	if !validPort(d.Port) {
		out = append(out, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	for key, val := range map[string]string{
		"database.host":   d.Host,
		"database.user":   d.User,
		"database.dbname": d.DBName,
	} {
		if val == "" {
			out = append(out, key+" is required")
		}
	}
	return out
}

func validPort(p int) bool { return p > 0 && p <= 65535 }
