package plugin

import "errors"

var (
	// ErrNotFound is returned when no discovered plugin has the id.
	ErrNotFound = errors.New("plugin not found")

	// ErrInvalidManifest is returned when a manifest fails validation.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrEnabling is returned when an operation races a load in progress.
	ErrEnabling = errors.New("plugin is being enabled")

	// ErrIncompatible is returned when a plugin's minimum app version
	// exceeds the host version.
	ErrIncompatible = errors.New("plugin incompatible with host version")
)
