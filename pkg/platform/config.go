// Package platform loads the agent's configuration and wires its components
// together.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/courtline/tennis-agent/pkg/admin"
	"github.com/courtline/tennis-agent/pkg/audit"
	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/player"
	"github.com/courtline/tennis-agent/pkg/telemetry"
)

// DefaultAppName namespaces sessions when app_name is not configured.
const DefaultAppName = "agents"

// Config holds the complete agent configuration.
type Config struct {
	AppName     string            `yaml:"app_name"`
	Database    DatabaseConfig    `yaml:"database"`
	Players     PlayersConfig     `yaml:"players"`
	Predictions PredictionsConfig `yaml:"predictions"`
	Server      ServerConfig      `yaml:"server"`
	Audit       audit.Config      `yaml:"audit"`
	Telemetry   telemetry.Config  `yaml:"telemetry"`
	Log         LogConfig         `yaml:"log"`
}

// DatabaseConfig configures the relational store. The memory driver keeps
// sessions in process and serves players from Players.Names.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// PlayersConfig configures player resolution.
type PlayersConfig struct {
	Table             string   `yaml:"table"`
	DefaultMaxResults int      `yaml:"default_max_results"`
	ExpandLimit       int      `yaml:"expand_limit"`
	Names             []string `yaml:"names"` // memory driver only
}

// PredictionsConfig configures prediction lookups.
type PredictionsConfig struct {
	Table string `yaml:"table"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address           string         `yaml:"address"`
	ReadHeaderTimeout time.Duration  `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration  `yaml:"shutdown_timeout"`
	APIKeys           []admin.APIKey `yaml:"api_keys"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// envOverrides are applied on top of the file. Empty values leave the file
// setting alone.
type envOverrides struct {
	DatabaseURL  string `env:"DATABASE_URL"`
	DBDriver     string `env:"TENNIS_AGENT_DB_DRIVER"`
	Address      string `env:"TENNIS_AGENT_ADDRESS"`
	LogLevel     string `env:"TENNIS_AGENT_LOG_LEVEL"`
	OTelEndpoint string `env:"TENNIS_AGENT_OTEL_ENDPOINT"`
}

// LoadConfig loads configuration from a file. A .env file next to the
// working directory is loaded first; variables already set win.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when no file is given,
// adjusted by the environment.
func DefaultConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return ParseConfig(nil)
}

// ParseConfig parses YAML configuration, expanding ${VAR} references and
// applying environment overrides and defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if o.DatabaseURL != "" {
		cfg.Database.DSN = o.DatabaseURL
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = database.DriverPostgres
		}
	}
	if o.DBDriver != "" {
		cfg.Database.Driver = o.DBDriver
	}
	if o.Address != "" {
		cfg.Server.Address = o.Address
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.OTelEndpoint != "" {
		cfg.Telemetry.Endpoint = o.OTelEndpoint
		cfg.Telemetry.Enabled = true
	}
	return nil
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = database.DriverMemory
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Players.DefaultMaxResults == 0 {
		cfg.Players.DefaultMaxResults = player.DefaultMaxResults
	}
	if cfg.Players.ExpandLimit == 0 {
		cfg.Players.ExpandLimit = player.DefaultExpandLimit
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 90
	}
	if cfg.Audit.CleanupInterval == 0 {
		cfg.Audit.CleanupInterval = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if !strings.EqualFold(c.Database.Driver, database.DriverMemory) {
		dialect, err := database.DialectFor(c.Database.Driver)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
		case dialect == database.Postgres && strings.TrimSpace(c.Database.DSN) == "":
			errs = append(errs, "database.dsn is required for postgres")
		}
	}

	if c.Players.DefaultMaxResults < 1 {
		errs = append(errs, "players.default_max_results must be at least 1")
	}
	if c.Players.ExpandLimit < 1 {
		errs = append(errs, "players.expand_limit must be at least 1")
	}
	if c.Audit.RetentionDays < 0 {
		errs = append(errs, "audit.retention_days must not be negative")
	}

	for i, k := range c.Server.APIKeys {
		if k.Name == "" {
			errs = append(errs, fmt.Sprintf("server.api_keys[%d].name is required", i))
		}
		if _, err := bcrypt.Cost([]byte(k.KeyHash)); err != nil {
			errs = append(errs, fmt.Sprintf("server.api_keys[%d].key_hash must be a bcrypt hash", i))
		}
		if !admin.ValidRole(k.Role) {
			errs = append(errs, fmt.Sprintf("server.api_keys[%d].role %q is not supported", i, k.Role))
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not supported", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
