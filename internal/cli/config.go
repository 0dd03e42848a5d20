package cli

import (
	"errors"
	"fmt"
	"time"
)

const (
	backendRedis  = "redis"
	backendDynamo = "dynamo"
)

// Config is the validated CLI configuration (flags > env > .env > config file > defaults).
type Config struct {
	Backend        string        `mapstructure:"backend"`
	RedisAddr      string        `mapstructure:"redis-addr"`
	RedisPassword  string        `mapstructure:"redis-password"`
	RedisDB        int           `mapstructure:"redis-db"`
	DynamoTable    string        `mapstructure:"dynamo-table"`
	DynamoRegion   string        `mapstructure:"dynamo-region"`
	DynamoEndpoint string        `mapstructure:"dynamo-endpoint"`
	DynamoKeyAttr  string        `mapstructure:"dynamo-key-attr"`
	Namespace      string        `mapstructure:"namespace"`
	Cache          string        `mapstructure:"cache"`
	ProbeAddrs     []string      `mapstructure:"probe-addr"`
	RetryInterval  time.Duration `mapstructure:"retry-interval"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	MaxRetries     int           `mapstructure:"max-retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
	LogFormat      string        `mapstructure:"log-format"`
	LogLevel       string        `mapstructure:"log-level"`
	NoColor        bool          `mapstructure:"no-color"`
	TraceHooks     bool          `mapstructure:"trace-hooks"`
}

var validCaches = map[string]bool{"none": true, "ristretto": true, "bigcache": true, "redis": true}

func (c Config) validate() error {
	var errs []error
	switch c.Backend {
	case backendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis-addr is required for the redis backend"))
		}
	case backendDynamo:
		if c.DynamoTable == "" {
			errs = append(errs, errors.New("dynamo-table is required for the dynamo backend"))
		}
		if c.DynamoKeyAttr == "" {
			errs = append(errs, errors.New("dynamo-key-attr must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want redis or dynamo)", c.Backend))
	}
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace must not be empty"))
	}
	if !validCaches[c.Cache] {
		errs = append(errs, fmt.Errorf("unknown cache %q (want none, ristretto, bigcache or redis)", c.Cache))
	}
	if c.Cache == "redis" && c.RedisAddr == "" {
		errs = append(errs, errors.New("redis-addr is required for the redis cache"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max-retries must be >= 0"))
	}
	return errors.Join(errs...)
}
