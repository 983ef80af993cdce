// Package persistence mirrors the store's persisted subset into a durable
// key-value slot and restores it at startup.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kvcore "mskboard/internal/kv/core"
	"mskboard/pkg/domain"
)

// SnapshotKey is the slot holding the serialized store.
const SnapshotKey = "msk-suggestion-store"

// Logger is the logging surface used by the snapshotter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives one observation per slot write.
type Metrics interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Hydrator accepts a snapshot at most once.
type Hydrator interface {
	Hydrate(snapshot domain.Snapshot) bool
}

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("persistence: snapshotter closed")

// Option customises a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *Snapshotter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the write metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Snapshotter) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *Snapshotter) {
		if key != "" {
			s.key = key
		}
	}
}

// Snapshotter is a domain.StateObserver. StateChanged serializes on the
// caller's goroutine and returns; a single writer goroutine stores the most
// recent payload, dropping any it never got to.
type Snapshotter struct {
	slot    kvcore.Store
	key     string
	logger  Logger
	metrics Metrics

	mu      sync.Mutex
	pending []byte
	closed  bool

	signal  chan struct{}
	flushes chan chan error
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once

	writes   atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Pointer[error]
}

// NewSnapshotter starts the background writer for slot.
func NewSnapshotter(slot kvcore.Store, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		slot:    slot,
		key:     SnapshotKey,
		logger:  discard{},
		metrics: discard{},
		signal:  make(chan struct{}, 1),
		flushes: make(chan chan error),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Key returns the slot key.
func (s *Snapshotter) Key() string { return s.key }

// StateChanged queues snapshot for writing.
func (s *Snapshotter) StateChanged(_ context.Context, snapshot domain.Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.failures.Add(1)
		s.logger.Error("snapshot encode failed", "key", s.key, "error", err)
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("snapshot dropped after close", "key", s.key)
		return
	}
	s.pending = data
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot queued before the call has been written
// and returns the error of the last write, if it failed.
func (s *Snapshotter) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.flushes <- reply:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any pending snapshot and stops the writer. The slot itself is
// left open.
func (s *Snapshotter) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	<-s.done
	return s.LastError()
}

// Writes reports the number of successful slot writes.
func (s *Snapshotter) Writes() int64 { return s.writes.Load() }

// Failures reports the number of failed encodes and writes.
func (s *Snapshotter) Failures() int64 { return s.failures.Load() }

// LastError returns the error of the most recent write, or nil when it succeeded.
func (s *Snapshotter) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Snapshotter) run() {
	defer close(s.done)
	for {
		select {
		case <-s.signal:
			s.drain()
		case reply := <-s.flushes:
			s.drain()
			reply <- s.LastError()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *Snapshotter) drain() {
	for {
		s.mu.Lock()
		data := s.pending
		s.pending = nil
		s.mu.Unlock()
		if data == nil {
			return
		}
		s.write(data)
	}
}

func (s *Snapshotter) write(data []byte) {
	ctx := context.Background()
	start := time.Now()
	err := s.slot.Set(ctx, s.key, data)
	s.metrics.Observe(ctx, "snapshot_write", err == nil, time.Since(start))
	if err != nil {
		s.failures.Add(1)
		s.lastErr.Store(&err)
		s.logger.Error("snapshot write failed", "key", s.key, "driver", s.slot.Driver(), "error", err)
		return
	}
	s.writes.Add(1)
	s.lastErr.Store(nil)
	s.logger.Debug("snapshot written", "key", s.key, "bytes", len(data))
}

// Load reads and decodes the slot. found is false when the slot is empty.
func Load(ctx context.Context, slot kvcore.Store, key string) (snapshot domain.Snapshot, found bool, err error) {
	if key == "" {
		key = SnapshotKey
	}
	data, err := slot.Get(ctx, key)
	if errors.Is(err, kvcore.ErrNotFound) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snapshot.Normalize(), true, nil
}

// Rehydrate loads the slot into target. It reports whether target accepted
// the snapshot; an empty slot or an already hydrated target yields false.
func (s *Snapshotter) Rehydrate(ctx context.Context, target Hydrator) (bool, error) {
	snapshot, found, err := Load(ctx, s.slot, s.key)
	if err != nil {
		s.logger.Warn("snapshot rehydrate failed", "key", s.key, "error", err)
		return false, err
	}
	if !found {
		s.logger.Debug("no snapshot to rehydrate", "key", s.key)
		return false, nil
	}
	applied := target.Hydrate(snapshot)
	if applied {
		s.logger.Info("store rehydrated", "key", s.key,
			"suggestions", len(snapshot.Suggestions), "employees", len(snapshot.Employees))
	}
	return applied, nil
}

type discard struct{}

func (discard) Debug(string, ...any)                                 {}
func (discard) Info(string, ...any)                                  {}
func (discard) Warn(string, ...any)                                  {}
func (discard) Error(string, ...any)                                 {}
func (discard) Observe(context.Context, string, bool, time.Duration) {}
