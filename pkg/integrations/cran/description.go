package cran

import (
	"bufio"
	"strings"

	"github.com/statisticsnorway/pkgdash/pkg/integrations"
)

// Description holds the fields of a DESCRIPTION file that pkgdash uses.
type Description struct {
	Package    string
	Version    string
	Title      string
	Maintainer string // raw value, e.g. "Ola Nordmann <ola@ssb.no>"
	URL        string
	BugReports string
}

// ParseDescription reads a DESCRIPTION file. Fields are matched by line
// prefix; indented lines continue the previous field. When a field occurs
// more than once the first occurrence wins. Malformed lines are ignored.
func ParseDescription(text string) *Description {
	fields := map[string]string{}
	var current string

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			current = ""
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if current != "" {
				fields[current] += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			current = ""
			continue
		}
		key = strings.TrimSpace(key)
		if _, seen := fields[key]; seen {
			current = ""
			continue
		}
		fields[key] = strings.TrimSpace(value)
		current = key
	}

	return &Description{
		Package:    fields["Package"],
		Version:    fields["Version"],
		Title:      fields["Title"],
		Maintainer: fields["Maintainer"],
		URL:        fields["URL"],
		BugReports: fields["BugReports"],
	}
}

// MaintainerName returns the maintainer's display name with any
// "<email>" suffix removed.
func (d *Description) MaintainerName() string {
	if i := strings.IndexByte(d.Maintainer, '<'); i >= 0 {
		return strings.Trim(strings.TrimSpace(d.Maintainer[:i]), `"`)
	}
	return strings.TrimSpace(d.Maintainer)
}

// MaintainerEmail returns the address inside the angle brackets of the
// Maintainer field, or "" when there is none.
func (d *Description) MaintainerEmail() string {
	if !strings.Contains(d.Maintainer, "<") {
		return ""
	}
	_, email := integrations.SplitAddress(d.Maintainer)
	return email
}
