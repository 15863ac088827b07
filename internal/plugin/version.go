package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// versionParts extracts the numeric segments of a dotted version string.
// Non-numeric segments are skipped, so "1.2.0-beta" yields [1 2 0].
func versionParts(s string) []int {
	var parts []int
	for _, seg := range strings.Split(s, ".") {
		if n, err := strconv.Atoi(seg); err == nil {
			parts = append(parts, n)
		}
	}
	return parts
}

// compareVersions orders two dotted version strings segment by segment.
// Missing segments compare as zero, so "1.2" equals "1.2.0".
func compareVersions(a, b string) int {
	ap, bp := versionParts(a), versionParts(b)
	n := len(ap)
	if len(bp) > n {
		n = len(bp)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(ap) {
			av = ap[i]
		}
		if i < len(bp) {
			bv = bp[i]
		}
		switch {
		case av > bv:
			return 1
		case av < bv:
			return -1
		}
	}
	return 0
}

// CompatibleWith reports whether a host at hostVersion satisfies the
// manifest's minimum app version. Host versions with no numeric
// segments ("dev" builds) accept everything.
func (m *Manifest) CompatibleWith(hostVersion string) error {
	if len(versionParts(hostVersion)) == 0 {
		return nil
	}
	if compareVersions(hostVersion, m.MinAppVersion) < 0 {
		return fmt.Errorf("%w: %s requires app %s or newer, host is %s",
			ErrIncompatible, m.ID, m.MinAppVersion, hostVersion)
	}
	return nil
}
