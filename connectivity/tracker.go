// Package connectivity tracks whether the remote document store is reachable.
//
// A Tracker owns one reachability flag and exposes it two ways: as a boolean
// with listeners notified on every state write (Status, AddListener), and as an
// offline flag with listeners notified on change only (OfflineStatus,
// AddOfflineListener). It implements remoteop.Connector.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/remoteop"
	"github.com/unkn0wn-root/remoteop/host"
	"github.com/unkn0wn-root/remoteop/netpath"
)

var errSuperseded = errors.New("connectivity: connect superseded by offline state")

const (
	defaultRetryInterval  = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

type Options struct {
	Path           netpath.Path    // required
	Host           host.Monitor    // nil => always online
	Logger         remoteop.Logger // nil => NopLogger
	RetryInterval  time.Duration   // self-heal period; 0 => 5s
	ConnectTimeout time.Duration   // bound for one Path.Enable; 0 => 10s
}

type listener struct {
	id int
	fn func(bool)
}

type Tracker struct {
	path           netpath.Path
	host           host.Monitor
	log            remoteop.Logger
	connectTimeout time.Duration

	mu        sync.Mutex
	reachable bool
	forced    bool
	offlineAt uint64 // bumped by every host-offline event
	nextID    int
	listeners []listener // called with reachable on every write
	offline   []listener // called with !reachable on change

	connect singleflight.Group

	hostCh    chan struct{}
	unsubHost func()
	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ remoteop.Connector = (*Tracker)(nil)

// New starts the self-heal loop and subscribes to the host monitor.
// The initial state is the host's online state.
func New(opts Options) (*Tracker, error) {
	if opts.Path == nil {
		return nil, errors.New("connectivity: path is required")
	}
	t := &Tracker{
		path:           opts.Path,
		host:           opts.Host,
		log:            opts.Logger,
		connectTimeout: opts.ConnectTimeout,
		hostCh:         make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}
	if t.host == nil {
		t.host = host.NewManual(true)
	}
	if t.log == nil {
		t.log = remoteop.NopLogger{}
	}
	if t.connectTimeout <= 0 {
		t.connectTimeout = defaultConnectTimeout
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	t.reachable = t.host.Online()
	t.unsubHost = t.host.Subscribe(func(bool) {
		select {
		case t.hostCh <- struct{}{}:
		default: // a pending signal already covers this change
		}
	})

	t.ticker = time.NewTicker(interval)
	t.wg.Add(1)
	go t.loop()
	return t, nil
}

func (t *Tracker) loop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ticker.C:
			t.selfHeal()
		case <-t.hostCh:
			t.hostChanged(t.host.Online())
		case <-t.stopCh:
			return
		}
	}
}

func (t *Tracker) selfHeal() {
	t.mu.Lock()
	idle := t.reachable || t.forced
	t.mu.Unlock()
	if idle || !t.host.Online() {
		return
	}
	t.log.Debug("reconnecting", nil)
	t.EnsureConnection(context.Background())
}

func (t *Tracker) hostChanged(online bool) {
	if online {
		t.log.Info("host online", nil)
		t.selfHeal()
		return
	}
	t.log.Info("host offline", nil)
	t.mu.Lock()
	t.offlineAt++
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.connectTimeout)
	defer cancel()
	if err := t.path.Disable(ctx); err != nil {
		t.log.Warn("disable network path failed", remoteop.Fields{"err": err})
	}
	t.commit(false, nil)
}

// EnsureConnection reports whether the remote store is reachable, connecting
// first when it is not. Concurrent callers share one connection attempt. A
// done ctx ends the caller's wait with false; the attempt keeps running.
func (t *Tracker) EnsureConnection(ctx context.Context) bool {
	t.mu.Lock()
	reachable, forced := t.reachable, t.forced
	t.mu.Unlock()
	if reachable {
		return true
	}
	if forced {
		return false
	}

	ch := t.connect.DoChan("connect", func() (any, error) {
		return t.connectOnce(), nil
	})
	select {
	case r := <-ch:
		ok, _ := r.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

func (t *Tracker) connectOnce() bool {
	ctx, cancel := context.WithTimeout(context.Background(), t.connectTimeout)
	defer cancel()
	return t.enable(ctx) == nil
}

// enable runs Path.Enable and commits the outcome. A success is dropped, and
// the path disabled again, if offline mode was forced or the host went
// offline while Enable was running.
func (t *Tracker) enable(ctx context.Context) error {
	t.mu.Lock()
	epoch := t.offlineAt
	t.mu.Unlock()

	if err := t.path.Enable(ctx); err != nil {
		t.log.Warn("connect failed", remoteop.Fields{"err": err})
		t.commit(false, t.unforced)
		return err
	}
	if !t.commit(true, func() bool { return !t.forced && t.offlineAt == epoch }) {
		t.log.Info("connect superseded by offline state", nil)
		_ = t.path.Disable(ctx)
		return errSuperseded
	}
	t.log.Info("connected", nil)
	return nil
}

func (t *Tracker) unforced() bool { return !t.forced }

// commit writes the reachability flag and notifies listeners outside the lock.
// allow, when set, runs under the lock and can refuse the write.
func (t *Tracker) commit(reachable bool, allow func() bool) bool {
	t.mu.Lock()
	if allow != nil && !allow() {
		t.mu.Unlock()
		return false
	}
	changed := t.reachable != reachable
	t.reachable = reachable
	ls := fns(t.listeners)
	var offs []func(bool)
	if changed {
		offs = fns(t.offline)
	}
	t.mu.Unlock()

	for _, fn := range ls {
		fn(reachable)
	}
	for _, fn := range offs {
		fn(!reachable)
	}
	return true
}

func fns(ls []listener) []func(bool) {
	out := make([]func(bool), len(ls))
	for i, l := range ls {
		out[i] = l.fn
	}
	return out
}

func (t *Tracker) Status() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reachable
}

func (t *Tracker) OfflineStatus() bool { return !t.Status() }

// AddListener calls fn with the current state, then after every state write.
func (t *Tracker) AddListener(fn func(reachable bool)) (unsubscribe func()) {
	return t.add(&t.listeners, fn, false)
}

// AddOfflineListener calls fn with the current offline flag, then whenever it changes.
func (t *Tracker) AddOfflineListener(fn func(offline bool)) (unsubscribe func()) {
	return t.add(&t.offline, fn, true)
}

func (t *Tracker) add(list *[]listener, fn func(bool), invert bool) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	*list = append(*list, listener{id: id, fn: fn})
	cur := t.reachable != invert
	t.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, l := range *list {
				if l.id == id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

// ForceOffline disables the network path and keeps the tracker unreachable
// until ForceOnline. Reconnects from the self-heal loop and host events stop.
func (t *Tracker) ForceOffline(ctx context.Context) error {
	t.mu.Lock()
	t.forced = true
	t.mu.Unlock()

	err := t.path.Disable(ctx)
	t.commit(false, nil)
	if err != nil {
		t.log.Warn("force offline: disable failed", remoteop.Fields{"err": err})
	}
	return err
}

// ForceOnline leaves offline mode and enables the network path.
func (t *Tracker) ForceOnline(ctx context.Context) error {
	t.mu.Lock()
	t.forced = false
	t.mu.Unlock()

	return t.enable(ctx)
}

// Close stops the self-heal loop and detaches from the host monitor.
func (t *Tracker) Close(context.Context) error {
	t.closeOnce.Do(func() {
		t.unsubHost()
		close(t.stopCh)
		t.ticker.Stop()
		t.wg.Wait()
	})
	return nil
}
