package cli

import (
	"context"
	"time"

	"github.com/unkn0wn-root/remoteop"
	"github.com/unkn0wn-root/remoteop/codec"
	"github.com/unkn0wn-root/remoteop/connectivity"
	"github.com/unkn0wn-root/remoteop/genstore"
	"github.com/unkn0wn-root/remoteop/host"
	"github.com/unkn0wn-root/remoteop/provider/bigcache"
	redisprovider "github.com/unkn0wn-root/remoteop/provider/redis"
	"github.com/unkn0wn-root/remoteop/provider/ristretto"
)

const genTTL = 24 * time.Hour

// executorOptions wires the second cache tier selected by --cache.
func executorOptions(ctx context.Context, cfg Config, be *backend, conn remoteop.Connector, log remoteop.Logger) (remoteop.Options[[]byte], error) {
	opts := remoteop.Options[[]byte]{
		Namespace: cfg.Namespace,
		Connector: conn,
		Retryable: be.retryable,
		Logger:    log,
		DefaultPolicy: remoteop.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout,
		},
		Codec: codec.Bytes{},
	}

	switch cfg.Cache {
	case "ristretto":
		p, err := ristretto.New(ristretto.Config{NumCounters: 100_000, MaxCost: 64 << 20, BufferItems: 64})
		if err != nil {
			return opts, err
		}
		opts.Provider = p
		opts.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	case "bigcache":
		p, err := bigcache.New(ctx, bigcache.Config{LifeWindow: 10 * time.Minute, HardMaxCacheSizeMB: 64})
		if err != nil {
			return opts, err
		}
		opts.Provider = p
	case "redis":
		rdb := newRedisClient(cfg)
		p, err := redisprovider.New(redisprovider.Config{Client: rdb})
		if err != nil {
			_ = rdb.Close()
			return opts, err
		}
		opts.Provider = p
		// the gen store owns the client and closes it last
		opts.GenStore = genstore.NewRedisGenStore(genstore.RedisConfig{
			Client:      rdb,
			Namespace:   cfg.Namespace,
			TTL:         genTTL,
			CloseClient: true,
		})
	}
	return opts, nil
}

// newTracker starts a tracker over be.path. The host monitor probes
// --probe-addr when given and is otherwise always online.
func newTracker(ctx context.Context, cfg Config, be *backend, log remoteop.Logger) (*connectivity.Tracker, func(), error) {
	var mon host.Monitor = host.NewManual(true)
	stopProbe := func() {}
	if len(cfg.ProbeAddrs) > 0 {
		p, err := host.NewProbe(ctx, host.ProbeConfig{Addrs: cfg.ProbeAddrs, Interval: cfg.RetryInterval})
		if err != nil {
			return nil, nil, err
		}
		mon, stopProbe = p, p.Close
	}
	tr, err := connectivity.New(connectivity.Options{
		Path:           be.path,
		Host:           mon,
		Logger:         log,
		RetryInterval:  cfg.RetryInterval,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		stopProbe()
		return nil, nil, err
	}
	return tr, func() {
		_ = tr.Close(context.Background())
		stopProbe()
	}, nil
}
