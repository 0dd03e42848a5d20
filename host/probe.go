package host

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

const (
	defaultProbeInterval = 10 * time.Second
	defaultProbeTimeout  = 2 * time.Second
)

type ProbeConfig struct {
	// Addrs are host:port pairs; the host is online when any accepts a TCP dial.
	Addrs    []string
	Interval time.Duration // 0 => 10s
	Timeout  time.Duration // per dial; 0 => 2s

	// Dial overrides the dialer (tests).
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Probe is a Monitor that polls TCP reachability of a set of addresses.
type Probe struct {
	*Manual

	addrs   []string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewProbe checks once synchronously, then keeps polling until Close.
func NewProbe(ctx context.Context, cfg ProbeConfig) (*Probe, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("host: probe needs at least one address")
	}
	p := &Probe{
		addrs:   append([]string(nil), cfg.Addrs...),
		timeout: cfg.Timeout,
		dial:    cfg.Dial,
		stopCh:  make(chan struct{}),
	}
	if p.timeout <= 0 {
		p.timeout = defaultProbeTimeout
	}
	if p.dial == nil {
		p.dial = (&net.Dialer{}).DialContext
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	p.Manual = NewManual(p.check(ctx))
	p.ticker = time.NewTicker(interval)
	p.wg.Add(1)
	go p.loop()
	return p, nil
}

func (p *Probe) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ticker.C:
			p.SetOnline(p.check(context.Background()))
		case <-p.stopCh:
			return
		}
	}
}

func (p *Probe) check(ctx context.Context) bool {
	for _, addr := range p.addrs {
		dctx, cancel := context.WithTimeout(ctx, p.timeout)
		conn, err := p.dial(dctx, "tcp", addr)
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

func (p *Probe) Close() {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		p.ticker.Stop()
		p.wg.Wait()
	})
}
