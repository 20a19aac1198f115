// Package config loads appsize settings.
//
// Values are layered: struct-tag defaults, then an optional YAML file named
// by APPSIZE_CONFIG, then environment variables. The result is validated once
// so a bad setting fails before any report is read.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	IOS       IOSConfig       `yaml:"ios"`
	Android   AndroidConfig   `yaml:"android"`
	Report    ReportConfig    `yaml:"report"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a whole evaluation request, bundletool excluded.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes caps uploaded reports and CSVs (default: 32 MiB).
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" default:"33554432"`

	// TrustedProxies lists CIDRs whose X-Real-IP/X-Forwarded-For are honored.
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// APIKeys protects /api when non-empty.
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// DatabaseConfig holds the optional run history database.
type DatabaseConfig struct {
	// URL enables history when set. DB_URL is accepted as an alias.
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// IOSConfig holds the App Thinning evaluation defaults.
type IOSConfig struct {
	BuildType     string  `yaml:"build_type" env:"IOS_BUILD_TYPE" default:"App"`
	LimitSize     float64 `yaml:"limit_size" env:"IOS_LIMIT_SIZE" default:"4"`
	LimitUnit     string  `yaml:"limit_unit" env:"IOS_LIMIT_UNIT" default:"GB"`
	FailOnWarning bool    `yaml:"fail_on_warning" env:"IOS_FAIL_ON_WARNING" default:"false"`
}

// AndroidConfig holds the bundletool evaluation defaults.
type AndroidConfig struct {
	ScreenDensities []string `yaml:"screen_densities" env:"ANDROID_SCREEN_DENSITIES" default:"MDPI,HDPI,XHDPI,XXHDPI,XXXHDPI"`
	Languages       []string `yaml:"languages" env:"ANDROID_LANGUAGES" default:"en"`

	BuildType     string  `yaml:"build_type" env:"ANDROID_BUILD_TYPE" default:"App"`
	LimitSize     float64 `yaml:"limit_size" env:"ANDROID_LIMIT_SIZE" default:"150"`
	LimitUnit     string  `yaml:"limit_unit" env:"ANDROID_LIMIT_UNIT" default:"MB"`
	FailOnWarning bool    `yaml:"fail_on_warning" env:"ANDROID_FAIL_ON_WARNING" default:"false"`

	// VariantsLimit caps each markdown table before collapsing.
	VariantsLimit int `yaml:"variants_limit" env:"ANDROID_VARIANTS_LIMIT" default:"25"`

	BundletoolVersion string `yaml:"bundletool_version" env:"BUNDLETOOL_VERSION" default:"1.8.2"`
	BundletoolURL     string `yaml:"bundletool_url" env:"BUNDLETOOL_URL" default:"https://github.com/google/bundletool/releases/download"`

	// WorkDir parents the per-run scratch directory; empty uses the OS temp dir.
	WorkDir  string        `yaml:"work_dir" env:"ANDROID_WORK_DIR"`
	JavaPath string        `yaml:"java_path" env:"JAVA_PATH" default:"java"`
	Timeout  time.Duration `yaml:"timeout" env:"ANDROID_TIMEOUT" default:"10m"`
}

// ReportConfig holds markdown rendering settings.
type ReportConfig struct {
	// Locale groups byte counts (e.g. "en"); empty prints plain digits.
	Locale string `yaml:"locale" env:"REPORT_LOCALE"`
}

// RetentionConfig controls pruning of stored runs.
type RetentionConfig struct {
	// Days to keep runs; 0 disables pruning.
	Days          int           `yaml:"days" env:"RETENTION_DAYS" default:"30"`
	CheckInterval time.Duration `yaml:"check_interval" env:"RETENTION_CHECK_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
