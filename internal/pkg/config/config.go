package config

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"parking-booking/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	razorpayPlaceholderKeyID = "your_razorpay_key_id_here"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Sweeper   SweeperConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"PORT" required:"true"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
}

type DBConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Kolkata"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Kolkata"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"19800"` // 5.5*60*60
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"720h"`
}

type PaymentConfig struct {
	KeyID     string        `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout   time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"10s"`
	Currency  string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
}

type SweeperConfig struct {
	Enabled  bool          `envconfig:"SWEEP_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`
	LockTTL  time.Duration `envconfig:"SWEEP_LOCK_TTL" default:"55s"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type RateLimitConfig struct {
	RPS     float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst   int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	IdleTTL time.Duration `envconfig:"RATE_LIMIT_IDLE_TTL" default:"10m"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c *DBConfig) UsesMemory() bool {
	return strings.EqualFold(c.Driver, StoreDriverMemory)
}

// Configured reports whether both gateway credentials are present and are not
// the sample placeholder shipped in .env.example.
func (c *PaymentConfig) Configured() bool {
	keyID := strings.TrimSpace(c.KeyID)
	secret := strings.TrimSpace(c.KeySecret)
	return keyID != "" && secret != "" && keyID != razorpayPlaceholderKeyID
}

func (c *Config) validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DB.User == "" || c.DB.Password == "" || c.DB.DBName == "" {
			return errs.New("DB_USER, DB_PASSWORD and DB_NAME are required for the postgres store")
		}
	default:
		return errs.Newf("unsupported STORE_DRIVER %q", c.DB.Driver)
	}
	if c.Sweeper.Interval <= 0 {
		return errs.New("SWEEP_INTERVAL must be positive")
	}
	return nil
}

func LoadConfig() (Config, error) {
	// .env is optional; real environment variables always win
	if err := godotenv.Load(); err != nil && !errs.Is(err, fs.ErrNotExist) {
		return Config{}, errs.Wrap(err, "failed to load .env file")
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, errs.Wrap(err, "failed to process env config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8889", // Test port
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		DB: DBConfig{
			Driver:   StoreDriverPostgres,
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Kolkata",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Kolkata",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 19800,
		},
		JWT: JWTConfig{
			Secret:   "test-secret-key-for-testing-only",
			Duration: time.Hour,
		},
		Payment: PaymentConfig{
			KeyID:     "rzp_test_key",
			KeySecret: "rzp_test_secret",
			BaseURL:   "http://127.0.0.1:0",
			Timeout:   2 * time.Second,
			Currency:  "INR",
		},
		Sweeper: SweeperConfig{
			Enabled:  false,
			Interval: time.Minute,
			LockTTL:  55 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:     100,
			Burst:   100,
			IdleTTL: 10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
