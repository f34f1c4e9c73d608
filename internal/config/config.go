package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultInputFiles are the vendor exports loaded when none are configured.
var DefaultInputFiles = []string{
	"/home/ubuntu/upload/ubicquia_adjusted_baltimore22.csv",
	"/home/ubuntu/upload/ubicquia_full_capabilities_baltimore.csv",
}

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("config: DATABASE_URL environment variable is not set")

// Config defines seeder configuration.
type Config struct {
	DatabaseURL        string   `yaml:"-"`
	DatabaseHostSuffix string   `yaml:"database_host_suffix"`
	InputFiles         []string `yaml:"input_files"`
	BatchSize          int      `yaml:"batch_size"`
	TimestampLocation  string   `yaml:"timestamp_location"`
	EnsureSchema       bool     `yaml:"ensure_schema"`
	KPIReportDir       string   `yaml:"kpi_report_dir"`
	MetricsTextfile    string   `yaml:"metrics_textfile"`
	LogLevel           string   `yaml:"log_level"`
	LogFile            string   `yaml:"log_file"`
}

// Load reads .env files, the environment and the optional SEED_CONFIG yaml
// overlay. Values in the yaml file win over the environment.
func Load() (Config, error) {
	if err := loadDotenv(".env.local", ".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DatabaseHostSuffix: os.Getenv("DATABASE_HOST_SUFFIX"),
		InputFiles:         splitCSV(os.Getenv("INPUT_FILES")),
		BatchSize:          getenvIntDefault("BATCH_SIZE", 100),
		TimestampLocation:  getenvDefault("TIMESTAMP_LOCATION", "UTC"),
		EnsureSchema:       getenvBoolDefault("ENSURE_SCHEMA", false),
		KPIReportDir:       os.Getenv("KPI_REPORT_DIR"),
		MetricsTextfile:    os.Getenv("METRICS_TEXTFILE"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
	}

	if path := os.Getenv("SEED_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if len(cfg.InputFiles) == 0 {
		cfg.InputFiles = append([]string(nil), DefaultInputFiles...)
	}
	if cfg.DatabaseURL == "" {
		return cfg, ErrMissingDatabaseURL
	}
	if cfg.BatchSize <= 0 {
		return cfg, fmt.Errorf("config: batch size must be positive, got %d", cfg.BatchSize)
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves TimestampLocation.
func (c Config) Location() (*time.Location, error) {
	if c.TimestampLocation == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimestampLocation)
	if err != nil {
		return nil, fmt.Errorf("config: timestamp location: %w", err)
	}
	return loc, nil
}

// DSN returns the connection string the store should use.
func (c Config) DSN() (string, error) {
	return ResolveDSN(c.DatabaseURL, c.DatabaseHostSuffix)
}

// ResolveDSN rewrites the host of a postgres URL so it ends in suffix,
// keeping only the part before any "-pooler" marker, and requires TLS.
// An empty suffix or a host that already carries it leaves dsn unchanged.
func ResolveDSN(dsn, suffix string) (string, error) {
	if suffix == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("config: parse database url: %w", err)
	}
	if u.Host == "" {
		return "", errors.New("config: database url has no host")
	}
	host := u.Hostname()
	if strings.HasSuffix(host, suffix) {
		return dsn, nil
	}
	if i := strings.Index(host, "-pooler"); i >= 0 {
		host = host[:i]
	}
	host += suffix
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// loadDotenv loads the files that exist. Earlier files win, and the real
// environment wins over all of them.
func loadDotenv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: %w", err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
