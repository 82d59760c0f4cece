// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package ratelimit provides a bounded in-memory fixed-window rate limiter.
//
// State is per process instance: behind a load balancer the effective limit
// for a client is configured_limit x instance_count. A distributed backend is
// an explicit non-goal; the Store interface boundary keeps a swap possible.
package ratelimit

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults for the backing store.
const (
	// DefaultCapacity is the entry count above which the emergency eviction
	// pass runs inline on Check.
	DefaultCapacity = 5000

	// DefaultSweepInterval is how often the background sweep removes expired
	// entries.
	DefaultSweepInterval = 5 * time.Minute

	// entryOverheadBytes is a rough per-entry memory estimate (map bucket,
	// key string, counters) reported by Stats.
	entryOverheadBytes = 96
)

// Policy names a rate limit configuration. Entries are keyed by
// (identity, policy name) so two policies applied to the same client never
// share a counter.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Preset policies applied at the HTTP boundary.
var (
	PolicyLogin    = Policy{Name: "login", Limit: 5, Window: 15 * time.Minute}
	PolicyRegister = Policy{Name: "register", Limit: 3, Window: time.Hour}
	PolicyRead     = Policy{Name: "read", Limit: 100, Window: time.Minute}
	PolicyWrite    = Policy{Name: "write", Limit: 30, Window: time.Minute}
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Stats is a read-only snapshot of the store for health checks. It is
// diagnostic only and never used for control flow.
type Stats struct {
	TotalEntries   int
	ActiveEntries  int
	ExpiredEntries int
	MemoryEstimate int
}

type entry struct {
	count     int
	resetTime time.Time
}

type bucketKey struct {
	identity string
	policy   string
}

// Store is an injectable fixed-window counter store with bounded memory.
// It is safe for concurrent use and runs a background sweep goroutine;
// call Close to stop it.
type Store struct {
	mu       sync.Mutex
	entries  map[bucketKey]*entry
	capacity int

	stopChan chan struct{}
	wg       sync.WaitGroup

	entriesGauge    prometheus.Gauge
	evictionCounter prometheus.Counter
}

// New creates a Store with the given capacity and sweep interval, applying
// defaults for non-positive values. Call Close to stop the sweep goroutine.
func New(capacity int, sweepInterval time.Duration) *Store {
	return newStore(capacity, sweepInterval, nil)
}

// NewWithRegistry creates a Store and registers its entry gauge and eviction
// counter with the provided Prometheus registry.
func NewWithRegistry(capacity int, sweepInterval time.Duration, reg prometheus.Registerer) *Store {
	return newStore(capacity, sweepInterval, reg)
}

func newStore(capacity int, sweepInterval time.Duration, reg prometheus.Registerer) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	s := &Store{
		entries:  make(map[bucketKey]*entry),
		capacity: capacity,
		stopChan: make(chan struct{}),
	}

	if reg != nil {
		s.entriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vetclinic_ratelimit_entries",
			Help: "Current number of tracked rate limit entries",
		})
		s.evictionCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vetclinic_ratelimit_evictions_total",
			Help: "Total number of entries evicted under capacity pressure",
		})
		reg.MustRegister(s.entriesGauge, s.evictionCounter)
	}

	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)

	return s
}

// Check records one request for the identity under the policy and reports
// whether it is allowed. It never fails: a client whose entry was evicted
// under memory pressure simply starts a fresh window (best-effort fairness,
// documented trade-off).
func (s *Store) Check(identity string, p Policy) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := bucketKey{identity: identity, policy: p.Name}

	e, exists := s.entries[key]
	if !exists || now.After(e.resetTime) {
		// Fixed-window reset: a burst straddling the boundary can exceed the
		// nominal rate across it. Accepted approximation, not a sliding log.
		e = &entry{count: 0, resetTime: now.Add(p.Window)}
		s.entries[key] = e
	}
	e.count++

	if len(s.entries) > s.capacity {
		s.evictLocked(now)
	}
	s.updateGaugeLocked()

	remaining := p.Limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   e.count <= p.Limit,
		Remaining: remaining,
		ResetTime: e.resetTime,
	}
}

// evictLocked relieves capacity pressure: expired entries go first, then the
// soonest-to-expire until at or under capacity. Eviction is by expiry rather
// than last access: entries near expiry are the cheapest to re-create.
// Caller must hold s.mu.
func (s *Store) evictLocked(now time.Time) {
	for key, e := range s.entries {
		if now.After(e.resetTime) {
			delete(s.entries, key)
			if s.evictionCounter != nil {
				s.evictionCounter.Inc()
			}
		}
	}
	if len(s.entries) <= s.capacity {
		return
	}

	type victim struct {
		key   bucketKey
		reset time.Time
	}
	victims := make([]victim, 0, len(s.entries))
	for key, e := range s.entries {
		victims = append(victims, victim{key: key, reset: e.resetTime})
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].reset.Before(victims[j].reset) })

	excess := len(s.entries) - s.capacity
	for i := 0; i < excess; i++ {
		delete(s.entries, victims[i].key)
		if s.evictionCounter != nil {
			s.evictionCounter.Inc()
		}
	}
}

// Sweep removes every expired entry. Called periodically by the background
// goroutine; exported for manual cleanup in tests.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.resetTime) {
			delete(s.entries, key)
		}
	}
	s.updateGaugeLocked()
}

// Stats returns a snapshot of the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	st := Stats{TotalEntries: len(s.entries)}
	for _, e := range s.entries {
		if now.After(e.resetTime) {
			st.ExpiredEntries++
		} else {
			st.ActiveEntries++
		}
	}
	st.MemoryEstimate = st.TotalEntries * entryOverheadBytes
	return st
}

func (s *Store) updateGaugeLocked() {
	if s.entriesGauge != nil {
		s.entriesGauge.Set(float64(len(s.entries)))
	}
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops the background sweep goroutine. It blocks until the goroutine
// has stopped.
func (s *Store) Close() {
	close(s.stopChan)
	s.wg.Wait()
}
