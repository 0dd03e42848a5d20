package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/remoteop/netpath"
)

type fakeStore struct {
	docs    map[string]string
	gets    atomic.Int32
	enabled atomic.Bool
	down    bool
	gate    netpath.Gate
}

func (f *fakeStore) backend() *backend {
	return &backend{
		path: netpath.Funcs{
			EnableFunc: func(context.Context) error {
				if f.down {
					f.gate.Shut()
					return errors.New("dial tcp: connection refused")
				}
				f.enabled.Store(true)
				f.gate.Open()
				return nil
			},
			DisableFunc: func(context.Context) error {
				f.gate.Shut()
				return nil
			},
		},
		retryable: func(error) bool { return false },
		get: func(ctx context.Context, key string) ([]byte, error) {
			if err := f.gate.Check(ctx); err != nil {
				return nil, err
			}
			f.gets.Add(1)
			doc, ok := f.docs[key]
			if !ok {
				return nil, fmt.Errorf("%s: %w", key, errNotFound)
			}
			return []byte(doc), nil
		},
		close: func() error { return nil },
	}
}

func useStore(t *testing.T, f *fakeStore) {
	t.Helper()
	prev := openBackend
	openBackend = func(context.Context, Config) (*backend, error) { return f.backend(), nil }
	t.Cleanup(func() { openBackend = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir()) // no stray .env or .remoteop.yaml
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return out.String(), err
}

func TestConfigValidate(t *testing.T) {
	ok := Config{Backend: backendRedis, RedisAddr: "localhost:6379", Namespace: "doc", Cache: "none", DynamoKeyAttr: "id"}
	require.NoError(t, ok.validate())

	cases := map[string]func(*Config){
		"unknown backend":  func(c *Config) { c.Backend = "mongo" },
		"missing table":    func(c *Config) { c.Backend = backendDynamo },
		"empty namespace":  func(c *Config) { c.Namespace = "" },
		"unknown cache":    func(c *Config) { c.Cache = "memcached" },
		"redis cache addr": func(c *Config) { c.Backend, c.DynamoTable, c.RedisAddr, c.Cache = backendDynamo, "t", "", "redis" },
		"negative retries": func(c *Config) { c.MaxRetries = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := ok
			mutate(&c)
			assert.Error(t, c.validate())
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"zap", "logrus", "slog"} {
		var buf bytes.Buffer
		l, err := newLogger(format, "info", &buf)
		require.NoError(t, err, format)
		l.Info("connected", nil)
		l.Debug("hidden", nil)
		assert.Contains(t, buf.String(), "connected", format)
		assert.NotContains(t, buf.String(), "hidden", format)
	}

	_, err := newLogger("printf", "info", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = newLogger("zap", "loud", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestGetCachesWithinTTL(t *testing.T) {
	f := &fakeStore{docs: map[string]string{"profile-42": `{"name":"x"}`}}
	useStore(t, f)

	out, err := run(t, "get", "profile-42", "--repeat", "3", "--ttl", "1m")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, `{"name":"x"}`))
	assert.EqualValues(t, 1, f.gets.Load())
}

func TestGetWithSecondTier(t *testing.T) {
	for _, tier := range []string{"ristretto", "bigcache"} {
		t.Run(tier, func(t *testing.T) {
			f := &fakeStore{docs: map[string]string{"a": "A"}}
			useStore(t, f)
			out, err := run(t, "get", "a", "--repeat", "2", "--ttl", "1m", "--cache", tier)
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(out, "\tA\n"))
			assert.EqualValues(t, 1, f.gets.Load())
		})
	}
}

func TestGetWithoutTTLReadsEveryTime(t *testing.T) {
	f := &fakeStore{docs: map[string]string{"a": "A", "b": "B"}}
	useStore(t, f)

	_, err := run(t, "get", "a", "b", "--repeat", "2")
	require.NoError(t, err)
	assert.EqualValues(t, 4, f.gets.Load())
}

func TestGetReportsMissingDocument(t *testing.T) {
	f := &fakeStore{docs: map[string]string{}}
	useStore(t, f)

	out, err := run(t, "get", "ghost")
	assert.ErrorIs(t, err, errSomeFailed)
	assert.Contains(t, out, "document not found")
	assert.EqualValues(t, 1, f.gets.Load())
}

func TestWatchOnce(t *testing.T) {
	up := &fakeStore{}
	useStore(t, up)
	out, err := run(t, "watch", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "online")
	assert.True(t, up.enabled.Load())

	down := &fakeStore{down: true}
	useStore(t, down)
	out, err = run(t, "watch", "--once", "--log-format", "zap")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")
}

func TestEnvFileAndConfigFile(t *testing.T) {
	useStore(t, &fakeStore{docs: map[string]string{"a": "A"}})
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REMOTEOP_LOG_FORMAT=printf\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("REMOTEOP_LOG_FORMAT") })

	_, err := run(t, "get", "a", "--env-file", envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")

	cfgFile := filepath.Join(dir, "remoteop.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("backend: mongo\n"), 0o600))
	_, err = run(t, "get", "a", "--config", cfgFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestClearCommand(t *testing.T) {
	useStore(t, &fakeStore{})

	out, err := run(t, "clear", "profile", "--cache", "ristretto")
	require.NoError(t, err)
	assert.Contains(t, out, `cleared "profile" in namespace doc`)

	_, err = run(t, "clear", "a", "b")
	assert.Error(t, err)
}

func TestGetOfflineSendsNoReads(t *testing.T) {
	f := &fakeStore{docs: map[string]string{"profile-42": `{"name":"x"}`}}
	useStore(t, f)

	out, err := run(t, "get", "profile-42", "--offline", "--max-retries", "3")
	assert.ErrorIs(t, err, errSomeFailed)
	assert.Contains(t, out, "network path disabled")
	assert.EqualValues(t, 0, f.gets.Load())
}
