package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	OTP           OTPConfig
	SMTP          SMTPConfig
	Media         MediaConfig
	Locations     LocationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AQP_APP_ENV" required:"true"`
	Port         string `envconfig:"AQP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AQP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AQP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AQP_DB_DSN"`
	Driver string `envconfig:"AQP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AQP_DB_HOST"`
	Port     int    `envconfig:"AQP_DB_PORT" default:"5432"`
	User     string `envconfig:"AQP_DB_USER"`
	Password string `envconfig:"AQP_DB_PASSWORD"`
	Name     string `envconfig:"AQP_DB_NAME"`
	SSLMode  string `envconfig:"AQP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AQP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AQP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AQP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AQP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AQP_REDIS_URL"`
	Address      string        `envconfig:"AQP_REDIS_ADDR"`
	Password     string        `envconfig:"AQP_REDIS_PASSWORD"`
	DB           int           `envconfig:"AQP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AQP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AQP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AQP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AQP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AQP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AQP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AQP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AQP_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AQP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AQP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AQP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AQP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AQP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AQP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AQP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AQP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AQP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AQP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AQP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AQP_AUTO_MIGRATE" default:"false"`
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"AQP_OTP_TTL" default:"10m"`
	MaxAttempts int           `envconfig:"AQP_OTP_MAX_ATTEMPTS" default:"5"`
	ResendAfter time.Duration `envconfig:"AQP_OTP_RESEND_AFTER" default:"1m"`
}

type SMTPConfig struct {
	Host        string `envconfig:"AQP_SMTP_HOST"`
	Port        int    `envconfig:"AQP_SMTP_PORT" default:"587"`
	Username    string `envconfig:"AQP_SMTP_USERNAME"`
	Password    string `envconfig:"AQP_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"AQP_SMTP_FROM" default:"no-reply@aquaticpose.com"`
}

type MediaConfig struct {
	UploadURL   string        `envconfig:"AQP_MEDIA_UPLOAD_URL"`
	UploadKey   string        `envconfig:"AQP_MEDIA_UPLOAD_KEY"`
	MaxUploadMB int           `envconfig:"AQP_MEDIA_MAX_UPLOAD_MB" default:"10"`
	Timeout     time.Duration `envconfig:"AQP_MEDIA_TIMEOUT" default:"30s"`
}

type LocationsConfig struct {
	BaseURL string        `envconfig:"AQP_LOCATIONS_BASE_URL" default:"https://provinces.open-api.vn/api"`
	Timeout time.Duration `envconfig:"AQP_LOCATIONS_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"AQP_DB_HOST": db.Host,
		"AQP_DB_USER": db.User,
		"AQP_DB_NAME": db.Name,
	}
	for _, key := range []string{"AQP_DB_HOST", "AQP_DB_USER", "AQP_DB_NAME"} {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either AQP_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
