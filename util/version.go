// Package util provides utility functions for the backend.
package util

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NormalizeVersionBound canonicalizes one boundary of an affected version
// range. Parseable semantic versions come back in canonical form, "0" is
// kept as-is because upstream sources use it for "from the beginning", and
// anything unparseable passes through trimmed.
func NormalizeVersionBound(version string) string {
	v := strings.TrimSpace(version)
	if v == "" || v == "0" {
		return v
	}
	// Go stdlib versions arrive as "go1.22.2", which semver cannot parse
	if parsed, err := semver.NewVersion(strings.TrimPrefix(v, "go")); err == nil {
		return parsed.String()
	}
	return v
}
