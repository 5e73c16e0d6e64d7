package httputil

import "strings"

// ParseLinkHeader parses an RFC 8288 Link header into a map from relation
// type to target URL, e.g. {"next": "https://...&page=2"}. A link carrying
// several space-separated relations is registered under each of them; the
// first link wins when a relation repeats. Malformed entries are skipped.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	for _, entry := range splitLinks(header) {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, "<") {
			continue
		}
		end := strings.Index(entry, ">")
		if end < 0 {
			continue
		}
		target := entry[1:end]

		for _, param := range strings.Split(entry[end+1:], ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}
			value = strings.Trim(strings.TrimSpace(value), `"`)
			for _, rel := range strings.Fields(value) {
				rel = strings.ToLower(rel)
				if _, seen := links[rel]; !seen {
					links[rel] = target
				}
			}
		}
	}
	return links
}

// splitLinks splits on commas that are outside angle brackets, since link
// targets may themselves contain commas.
func splitLinks(header string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range header {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, header[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, header[start:])
}
