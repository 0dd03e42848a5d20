package genstore

import (
	"context"
	"sync"
	"time"
)

type genRecord struct {
	gen     uint64
	touched time.Time
}

// LocalGenStore keeps generations in process memory. It is the default for a
// single executor or for executors in one process sharing a provider.
//
// Records untouched for longer than retention are pruned; a pruned key reads
// as generation 0 again. Retention must exceed the longest execution, or a
// result started before the prune can pass the admit check.
type LocalGenStore struct {
	mu      sync.RWMutex
	records map[string]genRecord
	now     func() time.Time

	retention time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewLocalGenStore starts a cleanup loop when both durations are positive.
func NewLocalGenStore(cleanupInterval, retention time.Duration) *LocalGenStore {
	s := &LocalGenStore{
		records:   make(map[string]genRecord),
		now:       time.Now,
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func (s *LocalGenStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(s.retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	r := s.records[k]
	s.mu.RUnlock()
	return r.gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string) (uint64, error) {
	now := s.now()
	s.mu.Lock()
	g := s.bumpLocked(k, now)
	s.mu.Unlock()
	return g, nil
}

// BumpMany takes the write lock once for the whole batch.
func (s *LocalGenStore) BumpMany(_ context.Context, ks []string) error {
	if len(ks) == 0 {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	for _, k := range ks {
		s.bumpLocked(k, now)
	}
	s.mu.Unlock()
	return nil
}

func (s *LocalGenStore) bumpLocked(k string, now time.Time) uint64 {
	r := s.records[k]
	r.gen++
	r.touched = now
	s.records[k] = r
	return r.gen
}

func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	for k, r := range s.records {
		if r.touched.Before(cutoff) {
			delete(s.records, k)
		}
	}
	s.mu.Unlock()
}

// Len reports how many keys currently carry a generation.
func (s *LocalGenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *LocalGenStore) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
