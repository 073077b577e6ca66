package ask

import "strings"

// schemePrefixes are stripped in the fallback resolution tier. Markers
// emitted by a model often swap or drop the scheme of a URL-shaped id.
var schemePrefixes = []string{"https://", "http://", "docs://", "uploaded://"}

// Resolve maps a marker emitted by the model to a known asset id.
// Three tiers apply in order, first match wins: exact equality, substring
// in either direction, then substring after stripping scheme prefixes and
// trailing slashes from both sides. Within a tier, earlier ids win so
// resolution is deterministic. The second return is false when no tier
// matches.
func Resolve(marker string, ids []string) (string, bool) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", false
	}

	for _, id := range ids {
		if marker == id {
			return id, true
		}
	}

	for _, id := range ids {
		if id != "" && (strings.Contains(id, marker) || strings.Contains(marker, id)) {
			return id, true
		}
	}

	cleaned := stripScheme(marker)
	if cleaned == "" {
		return "", false
	}
	for _, id := range ids {
		clean := stripScheme(id)
		if clean != "" && (strings.Contains(clean, cleaned) || strings.Contains(cleaned, clean)) {
			return id, true
		}
	}

	return "", false
}

func stripScheme(s string) string {
	for _, p := range schemePrefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			s = rest
			break
		}
	}
	return strings.TrimSuffix(s, "/")
}
