package security

import "sync"

// Checker validates host operations against the capabilities a plugin's
// manifest declared. A zero checker denies everything gated.
type Checker struct {
	mu           sync.RWMutex
	capabilities map[Capability]bool
}

// NewChecker creates a checker with the given granted capabilities.
func NewChecker(caps []Capability) *Checker {
	c := &Checker{capabilities: make(map[Capability]bool, len(caps))}
	for _, cap := range caps {
		c.capabilities[cap] = true
	}
	return c
}

// Has reports whether the capability is granted, directly or by implication.
func (c *Checker) Has(cap Capability) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.capabilities[cap] {
		return true
	}
	for granted := range c.capabilities {
		if impliesCapability(granted, cap) {
			return true
		}
	}
	return false
}

// Check returns a CapabilityError if the capability is not granted.
func (c *Checker) Check(cap Capability, operation string) error {
	if !c.Has(cap) {
		return &CapabilityError{Capability: cap, Operation: operation}
	}
	return nil
}

// Validate reports, for each requested permission name, whether the
// checker grants it. Unknown names are reported as not granted rather
// than erroring, so a caller can check names it does not recognize.
func (c *Checker) Validate(requested []string) map[string]bool {
	out := make(map[string]bool, len(requested))
	for _, name := range requested {
		cap, err := ParseCapability(name)
		out[name] = err == nil && c.Has(cap)
	}
	return out
}

// Capabilities returns the directly granted capabilities.
func (c *Checker) Capabilities() []Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()

	caps := make([]Capability, 0, len(c.capabilities))
	for cap := range c.capabilities {
		caps = append(caps, cap)
	}
	return caps
}
