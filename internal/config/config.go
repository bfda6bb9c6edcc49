// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	JWT       JWTConfig       `koanf:"jwt"`
	Session   SessionConfig   `koanf:"session"`
	Chat      ChatConfig      `koanf:"chat"`
	Billing   BillingConfig   `koanf:"billing"`
	Seed      SeedConfig      `koanf:"seed"`
	Features  FeaturesConfig  `koanf:"features"`
	Realtime  RealtimeConfig  `koanf:"realtime"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// JWTConfig configures session token signing. An empty PrivateKeyPath
// makes the server generate an ephemeral key at start-up.
type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type SessionConfig struct {
	AccessCookie  string `koanf:"access_cookie"`
	RefreshCookie string `koanf:"refresh_cookie"`
	Secure        bool   `koanf:"secure"`
	SameSite      string `koanf:"same_site"`
	Domain        string `koanf:"domain"`
}

type ChatConfig struct {
	HistoryLimit  int `koanf:"history_limit"`
	MaxTextLength int `koanf:"max_text_length"`
}

type BillingConfig struct {
	Currency    string `koanf:"currency"`
	OrderPrefix string `koanf:"order_prefix"`
}

type SeedConfig struct {
	Enabled       bool   `koanf:"enabled"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
	AdminName     string `koanf:"admin_name"`
}

type FeaturesConfig struct {
	RequireProForBusiness bool `koanf:"require_pro_for_business"`
}

type RealtimeConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	PongTimeout    time.Duration `koanf:"pong_timeout"`
	MaxMessageSize int64         `koanf:"max_message_size"`
}

// DatabaseConfig is optional; when URL is set transactions are archived
// to Postgres in addition to the in-memory ledger.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// RedisConfig is optional; without it rate limiting is process-local.
type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Brasil no Mundo",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             3000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"jwt.access_token_expire":  "1h",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "brasil-no-mundo",
		"jwt.audience":             "brasil-no-mundo-web",
		"jwt.private_key_path":     "",

		"session.access_cookie":  "token",
		"session.refresh_cookie": "refresh_token",
		"session.secure":         true,
		"session.same_site":      "none",

		"chat.history_limit":   50,
		"chat.max_text_length": 2000,

		"billing.currency":     "BRL",
		"billing.order_prefix": "PAYPAL-",

		"seed.enabled":        true,
		"seed.admin_email":    "admin@brasilnomundo.com",
		"seed.admin_password": "admin123",
		"seed.admin_name":     "Super Admin",

		"features.require_pro_for_business": false,

		"realtime.send_buffer":      64,
		"realtime.write_timeout":    "10s",
		"realtime.pong_timeout":     "60s",
		"realtime.max_message_size": 8192,

		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"rate_limit.requests": 120,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    30,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "brasil-no-mundo",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                     "database.url",
	"REDIS_URL":                        "redis.url",
	"ENVIRONMENT":                      "app.environment",
	"HOST":                             "server.host",
	"PORT":                             "server.port",
	"LOG_LEVEL":                        "log.level",
	"LOG_FORMAT":                       "log.format",
	"JWT_PRIVATE_KEY_PATH":             "jwt.private_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":          "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":         "jwt.refresh_token_expire",
	"JWT_ISSUER":                       "jwt.issuer",
	"JWT_AUDIENCE":                     "jwt.audience",
	"SESSION_SECURE":                   "session.secure",
	"SESSION_SAME_SITE":                "session.same_site",
	"CHAT_HISTORY_LIMIT":               "chat.history_limit",
	"BILLING_CURRENCY":                 "billing.currency",
	"SEED_ENABLED":                     "seed.enabled",
	"SEED_ADMIN_EMAIL":                 "seed.admin_email",
	"SEED_ADMIN_PASSWORD":              "seed.admin_password",
	"FEATURE_REQUIRE_PRO_FOR_BUSINESS": "features.require_pro_for_business",
	"RATE_LIMIT_REQUESTS":              "rate_limit.requests",
	"RATE_LIMIT_WINDOW":                "rate_limit.window",
	"RATE_LIMIT_BURST":                 "rate_limit.burst",
	"OTEL_ENDPOINT":                    "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":      "otel.endpoint",
	"OTEL_SERVICE_NAME":                "otel.service_name",
	"OTEL_ENABLED":                     "otel.enabled",
	"OTEL_INSECURE":                    "otel.insecure",
	"OTEL_SAMPLE_RATE":                 "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.JWT.AccessTokenExpire <= 0 {
		return fmt.Errorf("jwt.access_token_expire must be positive")
	}

	if c.JWT.RefreshTokenExpire < c.JWT.AccessTokenExpire {
		return fmt.Errorf(
			"jwt.refresh_token_expire must not be shorter than the access token",
		)
	}

	if c.Chat.HistoryLimit < 1 {
		return fmt.Errorf("chat.history_limit must be at least 1")
	}

	switch c.Session.SameSite {
	case "none", "lax", "strict":
	default:
		return fmt.Errorf(
			"session.same_site must be one of none, lax, strict",
		)
	}

	if c.Session.SameSite == "none" && !c.Session.Secure {
		return fmt.Errorf("SameSite=None cookies require session.secure")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Seed.Enabled && c.Seed.AdminPassword == "admin123" {
			return fmt.Errorf(
				"SEED_ADMIN_PASSWORD must be changed in production",
			)
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
