package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mskboard/internal/infra/persistence/memory"
	"mskboard/internal/kv"
	kvcore "mskboard/internal/kv/core"
	"mskboard/pkg/domain"
)

var baseTime = time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)

func fixtureSeed() domain.Seed {
	return domain.Seed{
		Employees: []domain.Employee{
			{ID: "e1", Name: "Alice Smith", Department: "Finance", RiskLevel: domain.RiskHigh},
		},
		Suggestions: []domain.Suggestion{
			{ID: "s1", EmployeeID: "e1", Type: domain.TypeExercise, Description: "Daily stretching routine", Status: domain.StatusPending, Priority: domain.PriorityLow, Source: domain.SourceAdmin, DateCreated: baseTime, DateUpdated: baseTime},
		},
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+":"+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *recordingLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// gatedSlot blocks its first Set until released.
type gatedSlot struct {
	kv.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	sets    int
}

func newGatedSlot() *gatedSlot {
	return &gatedSlot{Store: kv.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSlot) Set(ctx context.Context, key string, value []byte) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	g.mu.Lock()
	g.sets++
	g.mu.Unlock()
	return g.Store.Set(ctx, key, value)
}

type failingSlot struct{ kv.Store }

func (failingSlot) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestSnapshotterRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := kv.NewMemory()
	snap := NewSnapshotter(slot)
	t.Cleanup(func() { _ = snap.Close() })

	store := memory.NewStore(nil)
	store.Subscribe(snap)
	if _, err := store.InitialiseData(ctx, fixtureSeed()); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	if err := store.SetCurrentUser(ctx, &domain.AdminUser{ID: "1", Email: "hsmanager@company.com", Permissions: []string{domain.PermissionViewSuggestions}}); err != nil {
		t.Fatalf("set user: %v", err)
	}
	statuses := []string{string(domain.StatusPending)}
	if err := store.SetFilters(ctx, domain.FilterPatch{Status: &statuses}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	store.SetLoading(ctx, true)
	if err := snap.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	raw, err := slot.Get(ctx, SnapshotKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"employees", "suggestions", "currentUser", "filters"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %q in persisted payload", key)
		}
	}
	if _, ok := payload["loading"]; ok {
		t.Fatalf("transient loading flag must not be persisted")
	}

	restored := memory.NewStore(nil)
	second := NewSnapshotter(slot)
	t.Cleanup(func() { _ = second.Close() })
	applied, err := second.Rehydrate(ctx, restored)
	if err != nil || !applied {
		t.Fatalf("expected rehydrate to apply, applied=%v err=%v", applied, err)
	}
	got := restored.State().Snapshot()
	want := store.State().Snapshot()
	if len(got.Suggestions) != len(want.Suggestions) || got.Suggestions[0].ID != want.Suggestions[0].ID {
		t.Fatalf("suggestions mismatch: %+v vs %+v", got.Suggestions, want.Suggestions)
	}
	if got.CurrentUser == nil || got.CurrentUser.Email != "hsmanager@company.com" {
		t.Fatalf("expected current user restored, got %+v", got.CurrentUser)
	}
	if len(got.Filters.Status) != 1 || got.Filters.Status[0] != "pending" {
		t.Fatalf("expected filters restored, got %+v", got.Filters)
	}
	if restored.State().Loading {
		t.Fatalf("loading must start false after rehydrate")
	}

	again, err := second.Rehydrate(ctx, restored)
	if err != nil || again {
		t.Fatalf("expected second rehydrate to be ignored, applied=%v err=%v", again, err)
	}
}

func TestSnapshotterCoalescesPendingWrites(t *testing.T) {
	ctx := context.Background()
	slot := newGatedSlot()
	snap := NewSnapshotter(slot)
	t.Cleanup(func() { _ = snap.Close() })

	snapshotWith := func(n int) domain.Snapshot {
		return domain.Snapshot{Suggestions: []domain.Suggestion{{ID: fmt.Sprintf("s%d", n)}}}
	}
	snap.StateChanged(ctx, snapshotWith(1))
	<-slot.entered
	for i := 2; i <= 5; i++ {
		snap.StateChanged(ctx, snapshotWith(i))
	}
	close(slot.release)
	if err := snap.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if snap.Writes() != 2 {
		t.Fatalf("expected first and latest writes only, got %d", snap.Writes())
	}
	loaded, found, err := Load(ctx, slot, SnapshotKey)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.Suggestions[0].ID != "s5" {
		t.Fatalf("expected latest snapshot to win, got %s", loaded.Suggestions[0].ID)
	}
}

func TestSnapshotterLogsWriteFailures(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	snap := NewSnapshotter(failingSlot{kv.NewMemory()}, WithLogger(logger))
	snap.StateChanged(ctx, domain.Snapshot{})
	if err := snap.Flush(ctx); err == nil {
		t.Fatalf("expected flush to surface the failed write")
	}
	if snap.Failures() != 1 {
		t.Fatalf("expected one failure, got %d", snap.Failures())
	}
	if !logger.has("error:snapshot write failed") {
		t.Fatalf("expected write failure to be logged, got %v", logger.entries)
	}
	if err := snap.Close(); err == nil {
		t.Fatalf("expected close to report the last failure")
	}
	if err := snap.Flush(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	snap.StateChanged(ctx, domain.Snapshot{})
	if !logger.has("warn:snapshot dropped after close") {
		t.Fatalf("expected dropped snapshot warning")
	}
}

func TestSnapshotterCloseWritesPending(t *testing.T) {
	ctx := context.Background()
	slot := kv.NewMemory()
	snap := NewSnapshotter(slot, WithKey("custom"))
	snap.StateChanged(ctx, domain.Snapshot{Employees: []domain.Employee{{ID: "e9"}}})
	if err := snap.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	loaded, found, err := Load(ctx, slot, "custom")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(loaded.Employees) != 1 || loaded.Suggestions == nil {
		t.Fatalf("expected normalized snapshot, got %+v", loaded)
	}
}

func TestLoadHandlesMissingAndCorruptSlots(t *testing.T) {
	ctx := context.Background()
	slot := kv.NewMemory()
	if _, found, err := Load(ctx, slot, ""); err != nil || found {
		t.Fatalf("expected empty slot, found=%v err=%v", found, err)
	}
	if err := slot.Set(ctx, SnapshotKey, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := Load(ctx, slot, SnapshotKey); err == nil {
		t.Fatalf("expected decode error")
	}
	snap := NewSnapshotter(slot)
	t.Cleanup(func() { _ = snap.Close() })
	target := memory.NewStore(nil)
	if applied, err := snap.Rehydrate(ctx, target); err == nil || applied {
		t.Fatalf("expected rehydrate error, applied=%v err=%v", applied, err)
	}
}

var _ kvcore.Store = failingSlot{}
var _ domain.StateObserver = (*Snapshotter)(nil)
