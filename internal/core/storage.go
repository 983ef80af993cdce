package core

import (
	"context"
	"errors"
	"fmt"

	"mskboard/internal/kv"
	"mskboard/internal/persistence"
)

// PersistentService is a Service whose persisted state is mirrored into a
// durable key-value slot.
type PersistentService struct {
	*Service
	slot      kv.Store
	snapshots *persistence.Snapshotter
}

// OpenPersistentService opens the slot described by cfg, rehydrates a fresh
// store from it and subscribes the snapshot writer. A snapshot that cannot be
// decoded is logged and skipped; the store then starts empty and the next
// mutation overwrites the slot.
func OpenPersistentService(ctx context.Context, cfg kv.Config, engine *RulesEngine, opts ...ServiceOption) (*PersistentService, error) {
	slot, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc := NewInMemoryService(engine, opts...)
	snapshots := persistence.NewSnapshotter(slot,
		persistence.WithLogger(svc.logger),
		persistence.WithMetrics(svc.metrics),
	)
	if _, err := snapshots.Rehydrate(ctx, svc.store); err != nil {
		svc.logger.Warn("starting with an empty store", "driver", slot.Driver(), "error", err)
	}
	svc.store.Subscribe(snapshots)
	return &PersistentService{Service: svc, slot: slot, snapshots: snapshots}, nil
}

// Driver reports the durable slot backend.
func (p *PersistentService) Driver() kv.Driver { return p.slot.Driver() }

// Flush waits for queued snapshots to reach the slot.
func (p *PersistentService) Flush(ctx context.Context) error {
	if err := p.snapshots.Flush(ctx); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// Close writes any pending snapshot and releases the slot.
func (p *PersistentService) Close() error {
	err := errors.Join(p.snapshots.Close(), p.slot.Close())
	p.logger.Debug("storage closed",
		"driver", p.slot.Driver(),
		"snapshot_writes", p.snapshots.Writes(),
		"snapshot_failures", p.snapshots.Failures())
	return err
}
