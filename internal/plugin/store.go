package plugin

import (
	"log/slog"
	"sort"

	"github.com/inkwell-editor/inkwell/internal/host"
)

// Store discovers installed plugins through the host bridge.
type Store struct {
	bridge host.Bridge
	log    *slog.Logger
}

// NewStore creates a store over the bridge.
func NewStore(bridge host.Bridge, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		bridge: bridge,
		log:    log.With("component", "plugin-store"),
	}
}

// Scan walks the plugins directory and returns the manifests of every
// valid plugin, sorted by id. A directory with a missing or invalid
// manifest is skipped with a logged reason; one bad plugin never hides
// the rest.
func (s *Store) Scan() ([]*Manifest, error) {
	entries, err := s.bridge.ScanPluginsDirectory()
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0, len(entries))
	for _, entry := range entries {
		if entry.Err != nil {
			s.log.Warn("plugin skipped", "dir", entry.ID, "error", entry.Err)
			continue
		}
		m, err := ParseManifest(entry.Manifest, entry.ID)
		if err != nil {
			s.log.Warn("plugin skipped", "dir", entry.ID, "error", err)
			continue
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].ID < manifests[j].ID })
	return manifests, nil
}
