package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/url"
	"strconv"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
)

// Pagination strategy names accepted by [NewPaginator].
const (
	PaginationPage = "page"
	PaginationLink = "link"
)

// Paginator walks a paged collection lazily. Iteration ends at the first
// empty or absent page; no request is issued after it. A fatal fetch error is
// yielded once and ends iteration.
type Paginator interface {
	Pages(ctx context.Context, f Fetcher, startURL string, headers map[string]string) iter.Seq2[*Response, error]
}

// NewPaginator returns the paginator registered under name.
func NewPaginator(name string) (Paginator, error) {
	switch name {
	case "", PaginationPage:
		return PageNumber{}, nil
	case PaginationLink:
		return LinkNext{}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "unknown pagination strategy %q (want %q or %q)", name, PaginationPage, PaginationLink)
	}
}

// PageNumber sets a page query parameter, starting at Start and
// incrementing by one. It never assumes a page size.
type PageNumber struct {
	Param string // defaults to "page"
	Start int    // defaults to 1
}

// Pages implements [Paginator].
func (p PageNumber) Pages(ctx context.Context, f Fetcher, startURL string, headers map[string]string) iter.Seq2[*Response, error] {
	param := p.Param
	if param == "" {
		param = "page"
	}
	start := p.Start
	if start < 1 {
		start = 1
	}

	return func(yield func(*Response, error) bool) {
		for n := start; ; n++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			u, err := withQuery(startURL, param, strconv.Itoa(n))
			if err != nil {
				yield(nil, err)
				return
			}
			resp, err := f.Fetch(ctx, u, headers)
			if errors.Is(err, ErrNotFound) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if IsEmptyPage(resp.Body) {
				return
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

// LinkNext follows the rel="next" entry of the Link response header until it
// is absent.
type LinkNext struct{}

// Pages implements [Paginator].
func (LinkNext) Pages(ctx context.Context, f Fetcher, startURL string, headers map[string]string) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		seen := map[string]bool{}
		next := startURL
		for next != "" && !seen[next] {
			seen[next] = true
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			resp, err := f.Fetch(ctx, next, headers)
			if errors.Is(err, ErrNotFound) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if IsEmptyPage(resp.Body) {
				return
			}
			if !yield(resp, nil) {
				return
			}
			next = resolveLink(next, resp.Links["next"])
		}
	}
}

// Collect decodes every page as a JSON array of T and concatenates them.
func Collect[T any](pages iter.Seq2[*Response, error]) ([]T, error) {
	var out []T
	for resp, err := range pages {
		if err != nil {
			return nil, err
		}
		var page []T
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "decode page %s", RedactURL(resp.URL))
		}
		out = append(out, page...)
	}
	return out, nil
}

// IsEmptyPage reports whether body is an empty page: no bytes, JSON null, or
// an empty JSON array.
func IsEmptyPage(body []byte) bool {
	b := bytes.TrimSpace(body)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return true
	}
	if b[0] != '[' {
		return false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return false
	}
	return len(items) == 0
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "invalid URL %s", RedactURL(raw))
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resolveLink(current, next string) string {
	if next == "" {
		return ""
	}
	base, err := url.Parse(current)
	if err != nil {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
