package render

import (
	_ "embed"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/model"
)

//go:embed dashboard.html.tmpl
var dashboardTemplate string

// DefaultTitle is the page title when [Options.Title] is empty.
const DefaultTitle = "Package dashboard"

// Options configures the dashboard.
type Options struct {
	Title       string
	GeneratedAt time.Time // shown in the footer; zero hides it

	// Template replaces the built-in page. It must be html/template source.
	Template string
}

// Page is the data a dashboard template receives.
type Page struct {
	Title       string
	GeneratedAt string
	Count       int
	Platforms   map[string]int
	Rows        []Row
}

// Row is one table row. Field names match the snapshot columns.
type Row struct {
	Name            string `json:"name"`
	Platform        string `json:"platform"`
	LatestVersion   string `json:"latest_version"`
	LastUpdated     string `json:"last_updated"`
	Description     string `json:"description"`
	Homepage        string `json:"homepage"`
	Repository      string `json:"repository"`
	OwnerName       string `json:"owner_name"`
	Contributors    int    `json:"contributors"`
	Stars           int    `json:"stars"`
	Forks           int    `json:"forks"`
	ReleaseCount    int    `json:"release_count"`
	DependentsCount int    `json:"dependents_count"`
}

// Rows converts records to table rows. Dates are shown as YYYY-MM-DD and a
// missing date as an empty string. Links that are not http(s) are blanked.
func Rows(records []model.CanonicalRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		var updated string
		if r.LastUpdated != nil {
			updated = r.LastUpdated.UTC().Format(time.DateOnly)
		}
		rows[i] = Row{
			Name:            r.Name,
			Platform:        r.Platform,
			LatestVersion:   r.LatestVersion,
			LastUpdated:     updated,
			Description:     r.Description,
			Homepage:        safeLink(r.Homepage),
			Repository:      safeLink(r.Repository),
			OwnerName:       r.OwnerName,
			Contributors:    r.Contributors,
			Stars:           r.Stars,
			Forks:           r.Forks,
			ReleaseCount:    r.ReleaseCount,
			DependentsCount: r.DependentsCount,
		}
	}
	return rows
}

// NewPage builds the template data.
func NewPage(records []model.CanonicalRecord, opts Options) Page {
	p := Page{
		Title:     opts.Title,
		Count:     len(records),
		Platforms: map[string]int{},
		Rows:      Rows(records),
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if !opts.GeneratedAt.IsZero() {
		p.GeneratedAt = opts.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")
	}
	for _, r := range records {
		p.Platforms[r.Platform]++
	}
	return p
}

// Dashboard writes the HTML page for records to w.
func Dashboard(w io.Writer, records []model.CanonicalRecord, opts Options) error {
	src := dashboardTemplate
	if opts.Template != "" {
		src = opts.Template
	}
	tmpl, err := template.New("dashboard").Parse(src)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "parse dashboard template")
	}
	return tmpl.Execute(w, NewPage(records, opts))
}

// DashboardFile writes the page to path, creating parent directories.
func DashboardFile(path string, records []model.CanonicalRecord, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".dashboard-*.html")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if err := Dashboard(tmp, records, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadTemplate reads a custom template file.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "template %s", path)
		}
		return "", pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "read template %s", path)
	}
	return string(data), nil
}

func safeLink(u string) string {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
		return u
	}
	return ""
}
