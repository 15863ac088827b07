package plugin

// Status tracks where a plugin is in its lifecycle.
type Status int

const (
	// StatusDiscovered means the manifest was found but the plugin has
	// never been enabled this session.
	StatusDiscovered Status = iota

	// StatusEnabling means the plugin's code is being loaded.
	StatusEnabling

	// StatusLoaded means the plugin is running.
	StatusLoaded

	// StatusDisabled means the plugin was loaded and then disabled.
	StatusDisabled

	// StatusError means the last enable attempt failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDiscovered:
		return "discovered"
	case StatusEnabling:
		return "enabling"
	case StatusLoaded:
		return "loaded"
	case StatusDisabled:
		return "disabled"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
