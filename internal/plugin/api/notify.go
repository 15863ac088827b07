package api

import (
	"sync"
	"time"
)

// Severity classifies a user-facing notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a transient user-facing message raised by a plugin or the host.
type Notice struct {
	PluginID string
	Severity Severity
	Message  string
	Time     time.Time
}

// Notifier receives notices for display. The host installs a UI-backed
// implementation; tests use a CollectingNotifier.
type Notifier interface {
	Notify(n Notice)
}

// CollectingNotifier buffers notices in memory.
type CollectingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *CollectingNotifier) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Notices returns a copy of everything collected so far.
func (c *CollectingNotifier) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}
