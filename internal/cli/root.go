// Package cli implements the remoteop command: an operator tool that runs the
// connectivity tracker and executor against a live redis or DynamoDB store.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/remoteop"
)

type app struct {
	v   *viper.Viper
	cfg Config
	log remoteop.Logger
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: remoteop.NopLogger{}}

	root := &cobra.Command{
		Use:   "remoteop",
		Short: "Probe and read a remote document store through remoteop",
		Long: `remoteop runs the connectivity tracker and the operation executor against
a redis or DynamoDB document store.

Configuration is read from flags, REMOTEOP_* environment variables, a .env
file and .remoteop.yaml (current directory or $HOME), in that order.

Examples:
  # stream online/offline changes
  remoteop watch --backend redis --redis-addr localhost:6379

  # read two documents three times with a 1m cache
  remoteop get profile-42 purchases-42 --repeat 3 --ttl 1m`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.load(cmd) },
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default .remoteop.yaml)")
	f.String("env-file", ".env", "dotenv file loaded before reading the environment")
	f.String("backend", backendRedis, "remote store: redis or dynamo")
	f.String("redis-addr", "localhost:6379", "redis address")
	f.String("redis-password", "", "redis password")
	f.Int("redis-db", 0, "redis database")
	f.String("dynamo-table", "", "DynamoDB table holding the documents")
	f.String("dynamo-region", "us-east-1", "AWS region")
	f.String("dynamo-endpoint", "", "DynamoDB endpoint override (e.g. DynamoDB Local)")
	f.String("dynamo-key-attr", "id", "partition key attribute of the table")
	f.String("namespace", "doc", "cache namespace")
	f.String("cache", "none", "second cache tier: none, ristretto, bigcache or redis")
	f.StringSlice("probe-addr", nil, "host:port probed for host connectivity (repeatable)")
	f.Duration("retry-interval", 5*time.Second, "reconnect period while unreachable")
	f.Duration("connect-timeout", 10*time.Second, "bound for one connection attempt")
	f.Int("max-retries", 3, "attempts per operation")
	f.Duration("timeout", 15*time.Second, "deadline for one attempt")
	f.String("log-format", "slog", "log backend: zap, logrus or slog")
	f.String("log-level", "info", "log level")
	f.Bool("no-color", false, "disable colored output")
	f.Bool("trace-hooks", false, "log executor events to stderr")
	_ = a.v.BindPFlags(f)

	root.AddCommand(newWatchCmd(a), newGetCmd(a), newClearCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	v := a.v
	if err := godotenv.Load(v.GetString("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".remoteop")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	v.SetEnvPrefix("REMOTEOP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	color.NoColor = color.NoColor || cfg.NoColor
	a.cfg, a.log = cfg, log
	return nil
}
