package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	App       AppConfig       `mapstructure:"app" envPrefix:"APP_"`
	Server    ServerConfig    `mapstructure:"http_server" envPrefix:"HTTP_SERVER_"`
	Database  DatabaseConfig  `mapstructure:"database" envPrefix:"DATABASE_"`
	Security  SecurityConfig  `mapstructure:"security" envPrefix:"SECURITY_"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Redis     RedisConfig     `mapstructure:"redis" envPrefix:"REDIS_"`
	Storage   StorageConfig   `mapstructure:"storage" envPrefix:"STORAGE_"`
	Employee  EmployeeConfig  `mapstructure:"employee" envPrefix:"EMPLOYEE_"`
	Logging   LoggingConfig   `mapstructure:"logging" envPrefix:"LOGGING_"`
}

type AppConfig struct {
	Env    string `mapstructure:"env" env:"ENV" envDefault:"development"`
	Locale string `mapstructure:"locale" env:"LOCALE" envDefault:"en"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"8080"`
	APIPrefix         string        `mapstructure:"api_prefix" env:"API_PREFIX" envDefault:"/api"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS" envDefault:"*"`
	OpenAPIPath       string        `mapstructure:"openapi_path" env:"OPENAPI_PATH" envDefault:"./api/openapi.yml"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" env:"DRIVER" envDefault:"postgres"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type SecurityConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" env:"JWT_SECRET"`
	TokenDuration time.Duration `mapstructure:"token_duration" env:"TOKEN_DURATION" envDefault:"24h"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled" env:"ENABLED" envDefault:"true"`
	Limit   int           `mapstructure:"limit" env:"LIMIT" envDefault:"100"`
	Window  time.Duration `mapstructure:"window" env:"WINDOW" envDefault:"15m"`
}

// RedisConfig is optional; an empty Addr keeps rate limit counters in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" env:"ADDR"`
	Password string `mapstructure:"password" env:"PASSWORD"`
	DB       int    `mapstructure:"db" env:"DB" envDefault:"0"`
}

type StorageConfig struct {
	Driver        string      `mapstructure:"driver" env:"DRIVER" envDefault:"local"`
	LocalDir      string      `mapstructure:"local_dir" env:"LOCAL_DIR" envDefault:"./uploads"`
	MaxUploadSize int64       `mapstructure:"max_upload_size" env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`
	Minio         MinioConfig `mapstructure:"minio" envPrefix:"MINIO_"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint" env:"ENDPOINT"`
	AccessKey string `mapstructure:"access_key" env:"ACCESS_KEY"`
	SecretKey string `mapstructure:"secret_key" env:"SECRET_KEY"`
	Bucket    string `mapstructure:"bucket" env:"BUCKET" envDefault:"employee-photos"`
	UseSSL    bool   `mapstructure:"use_ssl" env:"USE_SSL" envDefault:"false"`
}

type EmployeeConfig struct {
	DefaultPassword   string `mapstructure:"default_password" env:"DEFAULT_PASSWORD" envDefault:"123456"`
	RomanizeUsernames bool   `mapstructure:"romanize_usernames" env:"ROMANIZE_USERNAMES" envDefault:"false"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"json"`
}

// LoadConfigFromEnv reads the whole configuration from environment variables.
// Used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills values a config file left empty.
func (c *Config) SetDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.Locale == "" {
		c.App.Locale = "en"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = "/api"
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Security.TokenDuration == 0 {
		c.Security.TokenDuration = 24 * time.Hour
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 10
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "./uploads"
	}
	if c.Storage.MaxUploadSize == 0 {
		c.Storage.MaxUploadSize = 5 << 20
	}
	if c.Storage.Minio.Bucket == "" {
		c.Storage.Minio.Bucket = "employee-photos"
	}
	if c.Employee.DefaultPassword == "" {
		c.Employee.DefaultPassword = "123456"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
		if c.App.Env == "production" {
			c.Logging.Format = "json"
		}
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if c.App.Locale != "en" && c.App.Locale != "zh" {
		errs = append(errs, fmt.Sprintf("app config: unsupported locale %q", c.App.Locale))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, "rate_limit config: limit and window must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return errors.New("api_prefix must start with /")
	}
	return nil
}

// Origins splits the comma separated allowed_origins value.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver != "postgres" && c.Driver != "sqlite" {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt_secret must be at least 16 characters")
	}
	if c.TokenDuration <= 0 {
		return errors.New("token_duration must be positive")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "local":
		if c.LocalDir == "" {
			return errors.New("local_dir is required")
		}
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return errors.New("minio endpoint, access_key and secret_key are required")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}
	return nil
}
