package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used in dev when JWT_SECRET is unset. Rejected when ENV=prod.
const DefaultJWTSecret = "supersecretkey"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	Port string `yaml:"port" env:"PORT" env-default:"8080"`

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// DBDriver is "postgres" (default) or "sqlite3".
	DBDriver string `yaml:"db_driver" env:"DB_DRIVER" env-default:"postgres"`
	// DatabaseURL, when set, is used as-is and the DB_* parts below are ignored.
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	DBHost    string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort    string `yaml:"db_port" env:"DB_PORT" env-default:"5432"`
	DBName    string `yaml:"db_name" env:"DB_NAME" env-default:"tododb"`
	DBUser    string `yaml:"db_user" env:"DB_USER" env-default:"todouser"`
	DBPass    string `yaml:"db_pass" env:"DB_PASS" env-default:"todopass"`
	DBSSLMode string `yaml:"db_sslmode" env:"DB_SSLMODE" env-default:"disable"`

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int `yaml:"db_max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int `yaml:"db_max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`

	// DBPingSchedule is the cron spec for the background database health check.
	DBPingSchedule string `yaml:"db_ping_schedule" env:"DB_PING_SCHEDULE" env-default:"@every 30s"`

	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"supersecretkey"`
	// JWTAlgorithm must be one of HS256, HS384, HS512.
	JWTAlgorithm string `yaml:"jwt_algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	// JWTTTL is the access token lifetime (default 20m). Set via JWT_TTL, e.g. "20m" or "1h".
	JWTTTL time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"20m"`

	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// Load reads configuration from a .env file (if present), an optional config file named by
// CONFIG_PATH, and the process environment. Environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg.CORSAllowedOrigins = trimOrigins(cfg.CORSAllowedOrigins)
	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q (want HS256, HS384 or HS512)", c.JWTAlgorithm)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	return nil
}

// DSN returns the connection string handed to the database driver.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == DriverSQLite {
		return "todo.db"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// trimOrigins trims spaces and drops empty entries.
func trimOrigins(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
