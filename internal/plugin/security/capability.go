package security

import "fmt"

// Capability identifies a class of host operations a plugin may be granted.
type Capability string

const (
	// CapabilityFileRead allows reading files through the host bridge.
	CapabilityFileRead Capability = "fs:read"

	// CapabilityFileWrite allows writing files through the host bridge.
	CapabilityFileWrite Capability = "fs:write"

	// CapabilityNetwork allows opening external http/https URLs.
	CapabilityNetwork Capability = "network"

	// CapabilityClipboard allows reading and writing the system clipboard.
	CapabilityClipboard Capability = "clipboard"
)

var knownCapabilities = map[Capability]bool{
	CapabilityFileRead:  true,
	CapabilityFileWrite: true,
	CapabilityNetwork:   true,
	CapabilityClipboard: true,
}

// ParseCapability validates a manifest permission string.
func ParseCapability(s string) (Capability, error) {
	cap := Capability(s)
	if !knownCapabilities[cap] {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return cap, nil
}

// impliesCapability reports whether granting one capability implies another.
// Write access implies read access.
func impliesCapability(granted, requested Capability) bool {
	return granted == CapabilityFileWrite && requested == CapabilityFileRead
}

// CapabilityError reports a host operation denied for a missing capability.
type CapabilityError struct {
	Capability Capability
	Operation  string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("permission %q required for %s", e.Capability, e.Operation)
}
