package config

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/appsize/internal/policy"
)

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "APPSIZE_CONFIG"

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv, applying defaults, the
// optional YAML file and environment overrides in that order.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv, true); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path := strings.TrimSpace(getenv(FileEnv)); path != "" {
		if err := loadFile(cfg, path, getenv); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv, false); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string, getenv func(string) string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	data = interpolateEnv(data, getenv)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// envPattern matches ${VAR} or ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		value := getenv(string(parts[1]))
		if value == "" && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// loadStruct populates struct fields. With defaults it writes the default
// tags; otherwise only environment variables that are set override.
func loadStruct(v reflect.Value, getenv func(string) string, defaults bool) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv, defaults); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		var value string
		if defaults {
			value = field.Tag.Get("default")
		} else {
			value = getenv(envName)
			if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
				value = getenv(alt)
			}
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(SplitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// SplitList splits a comma-separated value, trimming blanks.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
// It reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "SERVER_MAX_BODY_BYTES must be positive")
	}

	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	errs = append(errs, limitErrors("IOS", policy.IOS, c.IOS.BuildType, c.IOS.LimitSize, c.IOS.LimitUnit)...)
	errs = append(errs, limitErrors("ANDROID", policy.Android, c.Android.BuildType, c.Android.LimitSize, c.Android.LimitUnit)...)

	if len(c.Android.ScreenDensities) == 0 {
		errs = append(errs, "ANDROID_SCREEN_DENSITIES must list at least one density")
	}
	if len(c.Android.Languages) == 0 {
		errs = append(errs, "ANDROID_LANGUAGES must list at least one language")
	}
	if c.Android.VariantsLimit <= 0 {
		errs = append(errs, "ANDROID_VARIANTS_LIMIT must be positive")
	}
	if c.Android.BundletoolVersion == "" {
		errs = append(errs, "BUNDLETOOL_VERSION is required")
	}
	if c.Android.Timeout <= 0 {
		errs = append(errs, "ANDROID_TIMEOUT must be positive")
	}

	if c.Retention.Days < 0 {
		errs = append(errs, "RETENTION_DAYS must be non-negative")
	}
	if c.Retention.Days > 0 && c.Retention.CheckInterval <= 0 {
		errs = append(errs, "RETENTION_CHECK_INTERVAL must be positive when RETENTION_DAYS is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func limitErrors(prefix string, p policy.Platform, buildType string, limit float64, unit string) []string {
	var errs []string
	if _, err := policy.ParseBuildType(p, buildType); err != nil {
		errs = append(errs, fmt.Sprintf("%s_BUILD_TYPE: %v", prefix, err))
	}
	if limit < 0 {
		errs = append(errs, fmt.Sprintf("%s_LIMIT_SIZE must be non-negative", prefix))
	}
	if _, err := policy.ParseLimitUnit(unit); err != nil {
		errs = append(errs, fmt.Sprintf("%s_LIMIT_UNIT: %v", prefix, err))
	}
	return errs
}

// String returns a representation safe for logs; the database URL and API
// keys are masked.
func (c *Config) String() string {
	db := "[UNSET]"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q, MaxBodyBytes: %d, APIKeys: %d configured}, ",
		c.Server.Addr(), c.Server.MaxBodyBytes, len(c.Server.APIKeys))
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", db, c.Database.MaxConns)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format)
	fmt.Fprintf(&b, "IOS: {BuildType: %s, Limit: %v %s}, ", c.IOS.BuildType, c.IOS.LimitSize, c.IOS.LimitUnit)
	fmt.Fprintf(&b, "Android: {BuildType: %s, Limit: %v %s, Densities: %v, Languages: %v, Bundletool: %s}, ",
		c.Android.BuildType, c.Android.LimitSize, c.Android.LimitUnit,
		c.Android.ScreenDensities, c.Android.Languages, c.Android.BundletoolVersion)
	fmt.Fprintf(&b, "Retention: {Days: %d}", c.Retention.Days)
	b.WriteString("}")
	return b.String()
}
