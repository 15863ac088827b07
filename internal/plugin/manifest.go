package plugin

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/inkwell-editor/inkwell/internal/plugin/security"
)

// idPattern validates plugin ids: lowercase alphanumerics and hyphens,
// no leading/trailing hyphen. The id doubles as a namespace prefix for
// qualified command ids, status-bar items, and the settings cache, all
// of which use "." as a separator, so a dot inside an id would let one
// plugin's namespace swallow another's.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// Manifest describes an installed plugin, parsed from the manifest.json
// in its directory.
type Manifest struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Description   string   `json:"description,omitempty"`
	Author        string   `json:"author,omitempty"`
	MinAppVersion string   `json:"minAppVersion"`
	Main          string   `json:"main"`
	Homepage      string   `json:"homepage,omitempty"`
	Repository    string   `json:"repository,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

// ParseManifest decodes and validates manifest JSON. dirName is the name
// of the directory the manifest was found in; the manifest id must match
// it so a plugin cannot masquerade under another plugin's directory.
func ParseManifest(data []byte, dirName string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(dirName); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the required fields and the directory binding.
func (m *Manifest) Validate(dirName string) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"id", m.ID},
		{"name", m.Name},
		{"version", m.Version},
		{"minAppVersion", m.MinAppVersion},
		{"main", m.Main},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidManifest, strings.Join(missing, ", "))
	}

	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: id %q must be lowercase alphanumerics and hyphens", ErrInvalidManifest, m.ID)
	}

	if dirName != "" && m.ID != dirName {
		return fmt.Errorf("%w: id %q does not match directory %q", ErrInvalidManifest, m.ID, dirName)
	}

	if _, err := m.Capabilities(); err != nil {
		return err
	}
	return nil
}

// Capabilities parses the manifest's permission strings.
func (m *Manifest) Capabilities() ([]security.Capability, error) {
	caps := make([]security.Capability, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		cap, err := security.ParseCapability(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		caps = append(caps, cap)
	}
	return caps, nil
}
