// Package snapshot reads and writes the CSV file that holds one run's
// canonical records.
//
// The column set and order is fixed by [Header]. Numbers are base-10
// integers, booleans are "true"/"false", timestamps are RFC 3339 in UTC and
// a missing timestamp is an empty cell.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// Header is the snapshot's column order.
var Header = []string{
	"name",
	"platform",
	"latest_version",
	"last_updated",
	"description",
	"homepage",
	"repository",
	"owner_name",
	"internal",
	"contributors",
	"stars",
	"forks",
	"release_count",
	"dependents_count",
	"downloaded_at",
}

// Write encodes records as CSV, header first.
func Write(w io.Writer, records []model.CanonicalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path atomically. Missing parent directories
// are created. An existing file is replaced only after the new content has
// been written completely.
func WriteFile(path string, records []model.CanonicalRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "close snapshot")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "chmod snapshot")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "move snapshot to %s", path)
	}
	return nil
}

// Read decodes a snapshot. Columns are matched by header name, so extra
// columns are ignored; a missing column is an error.
func Read(r io.Reader) ([]model.CanonicalRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "snapshot is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "read snapshot header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, h := range Header {
		if _, ok := cols[h]; !ok {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "snapshot is missing column %q", h)
		}
	}

	var records []model.CanonicalRecord
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "read snapshot line %d", line)
		}
		rec, err := parseRow(fields, cols)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "snapshot line %d", line)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) ([]model.CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "snapshot %s", path)
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "open snapshot %s", path)
	}
	defer f.Close()
	return Read(f)
}

func row(r model.CanonicalRecord) []string {
	return []string{
		r.Name,
		r.Platform,
		r.LatestVersion,
		formatTime(r.LastUpdated),
		r.Description,
		r.Homepage,
		r.Repository,
		r.OwnerName,
		strconv.FormatBool(r.Internal),
		strconv.Itoa(r.Contributors),
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Forks),
		strconv.Itoa(r.ReleaseCount),
		strconv.Itoa(r.DependentsCount),
		r.DownloadedAt.UTC().Format(time.RFC3339),
	}
}

func parseRow(fields []string, cols map[string]int) (model.CanonicalRecord, error) {
	get := func(name string) string {
		if i := cols[name]; i < len(fields) {
			return fields[i]
		}
		return ""
	}
	var firstErr error
	num := func(name string) int {
		n, err := strconv.Atoi(get(name))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("column %s: %w", name, err)
		}
		return n
	}

	rec := model.CanonicalRecord{
		Name:            get("name"),
		Platform:        get("platform"),
		LatestVersion:   get("latest_version"),
		Description:     get("description"),
		Homepage:        get("homepage"),
		Repository:      get("repository"),
		OwnerName:       get("owner_name"),
		Contributors:    num("contributors"),
		Stars:           num("stars"),
		Forks:           num("forks"),
		ReleaseCount:    num("release_count"),
		DependentsCount: num("dependents_count"),
	}

	internal, err := strconv.ParseBool(get("internal"))
	if err != nil {
		return rec, fmt.Errorf("column internal: %w", err)
	}
	rec.Internal = internal

	if s := get("last_updated"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return rec, fmt.Errorf("column last_updated: %w", err)
		}
		t = t.UTC()
		rec.LastUpdated = &t
	}
	downloaded, err := time.Parse(time.RFC3339, get("downloaded_at"))
	if err != nil {
		return rec, fmt.Errorf("column downloaded_at: %w", err)
	}
	rec.DownloadedAt = downloaded.UTC()

	return rec, firstErr
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
