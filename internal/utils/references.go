package utils

import (
	"strings"
)

// ParseReferences splits a References header into its message-IDs,
// preserving order and the angle brackets (they are part of the ID).
func ParseReferences(refs string) []string {
	if refs == "" {
		return nil
	}

	// strings.Fields handles spaces, tabs and folded-header newlines
	fields := strings.Fields(refs)

	var out []string
	for _, ref := range fields {
		ref = strings.TrimSpace(ref)
		if ref != "" {
			out = append(out, ref)
		}
	}

	return out
}
