package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/httputil"
)

func recordSleeps(waits *[]time.Duration) httputil.Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
}

func newTestClient(t *testing.T, server *httptest.Server, waits *[]time.Duration, backend cache.Cache) *Client {
	t.Helper()
	client := NewClient(backend, "test:", time.Hour, nil, WithSleeper(recordSleeps(waits)))
	client.http = server.Client()
	return client
}

func TestNewClient(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(c, "test:", time.Hour, headers)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != c {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
	if client.delay != DefaultDelay {
		t.Errorf("NewClient() delay = %v, want %v", client.delay, DefaultDelay)
	}
}

func TestNewClientNilCache(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)
	if client.cache == nil {
		t.Fatal("NewClient() should fall back to a null cache")
	}
	if client.headers != nil {
		t.Error("NewClient() should allow nil headers")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, nil)

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
	if len(waits) != 1 || waits[0] != DefaultDelay {
		t.Errorf("sleeps = %v, want one delay of %v", waits, DefaultDelay)
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var receivedHeader, receivedDefault string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Override")
		receivedDefault = r.Header.Get("X-Default")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour,
		map[string]string{"X-Override": "default", "X-Default": "kept"},
		WithDelay(0))
	client.http = server.Client()

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if receivedHeader != "overridden" {
		t.Errorf("header = %q, want %q", receivedHeader, "overridden")
	}
	if receivedDefault != "kept" {
		t.Errorf("default header = %q, want %q", receivedDefault, "kept")
	}
}

func TestClientGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Package: klassR\nMaintainer: Someone <a@ssb.no>\n"))
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, nil)

	text, err := client.GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if !strings.HasPrefix(text, "Package: klassR") {
		t.Errorf("GetText() = %q", text)
	}
}

func TestClientFetch404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, nil)

	_, err := client.Fetch(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestClientFetchUnexpectedStatus(t *testing.T) {
	for _, code := range []int{400, 401, 403, 500, 502, 503} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				w.Write([]byte("upstream says no"))
			}))
			defer server.Close()

			var waits []time.Duration
			client := newTestClient(t, server, &waits, nil)

			_, err := client.Fetch(context.Background(), server.URL+"/search?q=x&api_key=secret", nil)
			if err == nil {
				t.Fatal("Fetch() should fail")
			}
			if !pkgerrors.Is(err, pkgerrors.ErrCodeHTTPStatus) {
				t.Errorf("code = %q, want %q", pkgerrors.GetCode(err), pkgerrors.ErrCodeHTTPStatus)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error should be *StatusError, got %T", err)
			}
			if statusErr.StatusCode != code {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, code)
			}
			if statusErr.Body != "upstream says no" {
				t.Errorf("Body = %q", statusErr.Body)
			}
			if strings.Contains(err.Error(), "secret") {
				t.Errorf("error leaks api key: %v", err)
			}
			if len(waits) != 0 {
				t.Errorf("unexpected sleeps on fatal status: %v", waits)
			}
		})
	}
}

func TestClientFetchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, nil)

	resp, err := client.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d", resp.Status)
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3", calls.Load())
	}
	want := []time.Duration{2 * time.Second, httputil.DefaultRetryAfter, DefaultDelay}
	if len(waits) != len(want) {
		t.Fatalf("sleeps = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestClientFetchRetryAfterZero(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, nil)

	if _, err := client.Fetch(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	want := []time.Duration{0, DefaultDelay}
	if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
		t.Errorf("sleeps = %v, want %v", waits, want)
	}
}

func TestClientFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(nil, "test:", time.Hour, nil, WithDelay(0))

	_, err := client.Fetch(context.Background(), url+"/?api_key=secret", nil)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Fetch() error = %v, want ErrNetwork", err)
	}
	if !pkgerrors.Is(err, pkgerrors.ErrCodeNetwork) {
		t.Errorf("code = %q, want %q", pkgerrors.GetCode(err), pkgerrors.ErrCodeNetwork)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestClientFetchCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Link", `<`+"http://"+r.Host+`/next>; rel="next"`)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	var waits []time.Duration
	client := newTestClient(t, server, &waits, c)
	ctx := context.Background()

	first, err := client.Fetch(ctx, server.URL+"/ok", nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	second, err := client.Fetch(ctx, server.URL+"/ok", nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1 (second should hit cache)", calls.Load())
	}
	if string(second.Body) != string(first.Body) {
		t.Errorf("cached body = %q, want %q", second.Body, first.Body)
	}
	if second.Links["next"] == "" {
		t.Error("cached response lost its Link relations")
	}
	if len(waits) != 1 {
		t.Errorf("sleeps = %v, want a single delay (none on cache hit)", waits)
	}

	for range 2 {
		if _, err := client.Fetch(ctx, server.URL+"/missing", nil); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Fetch() error = %v, want ErrNotFound", err)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3 (404 must not be cached)", calls.Load())
	}
}

func TestNormalizePkgName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Package", "package"},
		{"underscore to dash", "my_package", "my-package"},
		{"trim spaces", "  package  ", "package"},
		{"combined", "  SSB_Klass_Python  ", "ssb-klass-python"},
		{"empty", "", ""},
		{"already normalized", "my-package", "my-package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePkgName(tt.input); got != tt.want {
				t.Errorf("NormalizePkgName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"https url", "https://github.com/user/repo", "https://github.com/user/repo"},
		{"with .git suffix", "https://github.com/user/repo.git", "https://github.com/user/repo"},
		{"trailing slash", "https://github.com/user/repo/", "https://github.com/user/repo"},
		{"git@ to https", "git@github.com:user/repo", "https://github.com/user/repo"},
		{"git:// to https", "git://github.com/user/repo", "https://github.com/user/repo"},
		{"git+ prefix", "git+https://github.com/user/repo", "https://github.com/user/repo"},
		{"with spaces", "  https://github.com/user/repo  ", "https://github.com/user/repo"},
		{"combined", "git+git@github.com:user/repo.git", "https://github.com/user/repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRepoURL(tt.input); got != tt.want {
				t.Errorf("NormalizeRepoURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepoPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"https://GitHub.com/StatisticsNorway/ssb-klass-python.git", "github.com/statisticsnorway/ssb-klass-python"},
		{"git@github.com:statisticsnorway/dapla-toolbelt", "github.com/statisticsnorway/dapla-toolbelt"},
		{"github.com/statisticsnorway/klassR/", "github.com/statisticsnorway/klassr"},
		{"https://www.github.com/a/b?tab=readme", "github.com/a/b"},
		{"https://gitlab.com", "gitlab.com"},
	}

	for _, tt := range tests {
		if got := RepoPath(tt.input); got != tt.want {
			t.Errorf("RepoPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOwnerRepo(t *testing.T) {
	owner, repo, ok := OwnerRepo("https://github.com/statisticsnorway/ssb-fagfunksjoner")
	if !ok || owner != "statisticsnorway" || repo != "ssb-fagfunksjoner" {
		t.Errorf("OwnerRepo() = %q, %q, %v", owner, repo, ok)
	}
	if _, _, ok := OwnerRepo("https://github.com/statisticsnorway"); ok {
		t.Error("OwnerRepo() should fail with a single path segment")
	}
	if !IsGitHubURL("git@github.com:a/b.git") {
		t.Error("IsGitHubURL() should accept ssh form")
	}
	if IsGitHubURL("https://gitlab.com/a/b") {
		t.Error("IsGitHubURL() should reject gitlab")
	}
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://libraries.io/api/search?q=ssb&api_key=secret&page=2")
	if strings.Contains(got, "secret") {
		t.Errorf("RedactURL() = %q, still contains key", got)
	}
	if !strings.Contains(got, "api_key=REDACTED") || !strings.Contains(got, "page=2") {
		t.Errorf("RedactURL() = %q", got)
	}

	plain := "https://pypi.org/pypi/dapla-toolbelt/json"
	if got := RedactURL(plain); got != plain {
		t.Errorf("RedactURL(%q) = %q, want unchanged", plain, got)
	}
}

func TestURLEncode(t *testing.T) {
	if got := URLEncode("statistics norway"); got != "statistics+norway" {
		t.Errorf("URLEncode() = %q", got)
	}
	if got := PathEscape("a b"); got != "a%20b" {
		t.Errorf("PathEscape() = %q", got)
	}
}
