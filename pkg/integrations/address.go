package integrations

import "strings"

// SplitAddress splits a "Display Name <user@host>" string into its display
// name and e-mail address. Surrounding quotes are removed from the name.
// A bare address yields an empty name; text without an address yields an
// empty email. Only the first entry of a comma-separated list is used.
//
//	SplitAddress(`"Ola Nordmann" <ola@ssb.no>, Kari <kari@ssb.no>`)
//	// "Ola Nordmann", "ola@ssb.no"
func SplitAddress(s string) (name, email string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	open := strings.IndexByte(s, '<')
	if open < 0 {
		first, _, _ := strings.Cut(s, ",")
		first = strings.TrimSpace(first)
		if strings.Contains(first, "@") && !strings.ContainsAny(first, " \t") {
			return "", first
		}
		return unquote(s), ""
	}

	name = unquote(s[:open])
	rest := s[open+1:]
	if end := strings.IndexByte(rest, '>'); end >= 0 {
		email = strings.TrimSpace(rest[:end])
	} else {
		email = strings.TrimSpace(rest)
	}
	return name, email
}

// EmailDomain returns the lowercased domain of an e-mail address, or "" when
// addr has no '@'.
func EmailDomain(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.Trim(addr[at+1:], " \t<>."))
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	return strings.TrimSpace(s)
}
