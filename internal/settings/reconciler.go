package settings

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwell-editor/inkwell/internal/host"
)

// ErrPersistence wraps durable-store write failures. The error is
// non-fatal: the cache write has already succeeded, so the user's change
// is not lost locally.
var ErrPersistence = errors.New("settings: durable store write failed")

// Reconciler merges the fast cache with the durable per-plugin store.
//
// Invariant: after Initialize both tiers agree. The reconciliation rule
// is "durable store wins if non-empty, else promote the cache into the
// durable store".
type Reconciler struct {
	cache  *Cache
	bridge host.Bridge
	log    *slog.Logger
}

// NewReconciler creates a reconciler over the given tiers.
func NewReconciler(cache *Cache, bridge host.Bridge, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		cache:  cache,
		bridge: bridge,
		log:    log.With("component", "settings"),
	}
}

// Load returns the durable-store record if present, else the cache
// record, else an empty record.
func (r *Reconciler) Load(pluginID string) map[string]any {
	durable, err := r.bridge.ReadPluginSettings(pluginID)
	if err != nil {
		r.log.Warn("failed to read durable settings", "plugin", pluginID, "error", err)
	} else if len(durable) > 0 {
		return durable
	}

	if cached := r.cache.Get(pluginID); len(cached) > 0 {
		return cached
	}
	return map[string]any{}
}

// Save writes the cache synchronously (best-effort) and then the durable
// store. A durable failure propagates as a reported ErrPersistence; the
// cache write stands either way.
func (r *Reconciler) Save(pluginID string, record map[string]any) error {
	r.cache.Set(pluginID, record)

	if err := r.bridge.WritePluginSettings(pluginID, record); err != nil {
		r.log.Error("durable settings write failed", "plugin", pluginID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Initialize reconciles the two tiers on first enable, writing back
// whichever representation is stale.
func (r *Reconciler) Initialize(pluginID string) error {
	durable, err := r.bridge.ReadPluginSettings(pluginID)
	if err != nil {
		return fmt.Errorf("settings: failed to read durable store for %s: %w", pluginID, err)
	}

	if len(durable) > 0 {
		// Durable store wins; refresh the cache.
		r.cache.Set(pluginID, durable)
		return nil
	}

	if cached := r.cache.Get(pluginID); len(cached) > 0 {
		// Promote the cache into the durable store.
		if err := r.bridge.WritePluginSettings(pluginID, cached); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return nil
}

// Backup snapshots the durable record. Best-effort: failures are logged
// and returned but must not block the caller.
func (r *Reconciler) Backup(pluginID string) (host.BackupHandle, error) {
	handle, err := r.bridge.BackupPluginSettings(pluginID)
	if err != nil {
		r.log.Warn("settings backup failed", "plugin", pluginID, "error", err)
		return host.BackupHandle{}, err
	}
	return handle, nil
}
