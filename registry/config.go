package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sghaida/vdto/locator"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig
// (VDTO_NAMESPACE, VDTO_CACHE_DRIVER, ...).
const EnvPrefix = "VDTO"

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the file/env configuration of a registry.
type Config struct {
	Namespace string      `mapstructure:"namespace" validate:"required"`
	Exclude   []string    `mapstructure:"exclude"`
	Cache     CacheConfig `mapstructure:"cache"`
	Log       LogConfig   `mapstructure:"log"`
}

// CacheConfig selects the resolution cache.
type CacheConfig struct {
	Driver string      `mapstructure:"driver" validate:"omitempty,oneof=none memory redis"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis cache driver.
type RedisConfig struct {
	Addr    string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	DB      int           `mapstructure:"db" validate:"min=0,max=15"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"ttl" validate:"min=0"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// LogConfig configures the logger built by NewLogger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// LoadConfig reads path (any format viper understands; "" for env only) and
// VDTO_* environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("registry: read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("registry: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := locator.DefaultRedisConfig()
	v.SetDefault("namespace", "")
	v.SetDefault("exclude", []string{})
	v.SetDefault("cache.driver", CacheNone)
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", def.Prefix)
	v.SetDefault("cache.redis.ttl", def.TTL)
	v.SetDefault("cache.redis.timeout", def.Timeout)
	v.SetDefault("log.level", "info")
}

// Validate checks the struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("registry: invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("registry: invalid config: %w", err)
	}
	if c.Cache.Driver == CacheRedis && c.Cache.Redis.Addr == "" {
		return errors.New("registry: invalid config: cache.redis.addr is required for the redis driver")
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "hostname_port":
		return field + " must be host:port"
	case "min", "max":
		return field + " is out of range"
	default:
		return field + " is invalid"
	}
}

// NewCache builds the configured resolution cache; nil for the "none" driver.
// The redis driver pings the server before returning.
func (c *Config) NewCache(logger *zap.Logger) (locator.Cache, error) {
	switch c.Cache.Driver {
	case "", CacheNone:
		return nil, nil
	case CacheMemory:
		return locator.NewMemoryCache(), nil
	case CacheRedis:
		rc := c.Cache.Redis
		client := redis.NewClient(&redis.Options{Addr: rc.Addr, DB: rc.DB})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("registry: redis cache %s: %w", rc.Addr, err)
		}
		return locator.NewRedisCache(client, locator.RedisConfig{
			Prefix:  rc.Prefix,
			TTL:     rc.TTL,
			Timeout: rc.Timeout,
		}, logger), nil
	}
	return nil, fmt.Errorf("registry: unknown cache driver %q", c.Cache.Driver)
}

// NewLogger builds a production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Log.Level != "" {
		l, err := zapcore.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("registry: log level: %w", err)
		}
		level = l
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
