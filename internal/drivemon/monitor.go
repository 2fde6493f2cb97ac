// Package drivemon polls the host OS for attached volumes, diffs against the
// registry, and emits connect/disconnect events.
package drivemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/registry"
)

// Monitor periodically enumerates attached volumes and publishes transitions.
type Monitor struct {
	enum     Enumerator
	reg      *registry.Store
	bus      *events.Bus
	log      *slog.Logger
	interval time.Duration
	timeout  time.Duration

	connected map[string]registry.Volume // last-known connected set
}

// NewMonitor creates a drive monitor.
func NewMonitor(enum Enumerator, reg *registry.Store, bus *events.Bus, interval, timeout time.Duration, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		enum:      enum,
		reg:       reg,
		bus:       bus,
		log:       log,
		interval:  interval,
		timeout:   timeout,
		connected: make(map[string]registry.Volume),
	}
}

// Run polls on a fixed interval until the context is canceled.
// Enumeration failures are logged and retried next tick; they never
// terminate the loop.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("drive monitor started", "interval", m.interval.String())

	// Immediate first poll so attached volumes surface without waiting a tick.
	if err := m.Poll(ctx); err != nil {
		m.log.Error("enumeration failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			m.log.Info("drive monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.Poll(ctx); err != nil {
				m.log.Error("enumeration failed", "error", err)
			}
		}
	}
}

// Poll runs one enumeration cycle: list attached volumes, update the
// registry, and publish VolumeConnected/VolumeDisconnected for transitions.
func (m *Monitor) Poll(ctx context.Context) error {
	enumCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	attached, err := m.enum.Enumerate(enumCtx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(attached))
	for _, ev := range attached {
		id, confidence := registry.ResolveIdentity(ev.UUID, ev.MountRoot, ev.Label)
		seen[id] = true

		if _, known := m.connected[id]; known {
			continue
		}

		vol := registry.Volume{
			ID:         id,
			Label:      ev.Label,
			MountRoot:  ev.MountRoot,
			Removable:  ev.Removable,
			Connected:  true,
			Confidence: confidence,
		}
		if err := m.reg.Upsert(&vol); err != nil {
			m.log.Error("registry upsert failed", "volume", id, "error", err)
			continue
		}
		m.connected[id] = vol
		m.log.Info("volume connected", "volume", id, "label", ev.Label, "mount", ev.MountRoot, "confidence", confidence)
		_ = m.bus.Publish(ctx, events.NewVolumeConnected(id, ev.Label, ev.MountRoot, ev.Removable))
	}

	for id := range m.connected {
		if seen[id] {
			continue
		}
		delete(m.connected, id)
		if err := m.reg.MarkDisconnected(id); err != nil {
			m.log.Error("registry update failed", "volume", id, "error", err)
		}
		m.log.Info("volume disconnected", "volume", id)
		_ = m.bus.Publish(ctx, events.NewVolumeDisconnected(id))
	}

	return nil
}
