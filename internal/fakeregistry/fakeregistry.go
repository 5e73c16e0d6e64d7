// Package fakeregistry serves canned Libraries.io, PyPI, CRAN and GitHub
// responses over HTTP for tests.
//
// Mount the [Registry] handler on an httptest server and point each client at
// its prefix:
//
//	reg := fakeregistry.New("key")
//	srv := httptest.NewServer(reg)
//	lio := librariesio.NewClient(srv.URL+fakeregistry.LibrariesIOPath, "key", nil, 0)
//	pyp := pypi.NewClient(srv.URL+fakeregistry.PyPIPath, nil, 0)
package fakeregistry

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// Route prefixes, one per upstream.
const (
	LibrariesIOPath = "/libraries"
	PyPIPath        = "/pypi"
	CRANPath        = "/cran"
	GitHubPath      = "/github"
)

// DefaultPageSize is the number of search results per page.
const DefaultPageSize = 2

// Owner is an owner record as served by the Libraries.io and GitHub fakes.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
}

// Registry is an in-memory upstream. Add data before serving; the Add
// methods are safe to call concurrently with requests.
type Registry struct {
	APIKey   string
	PageSize int

	mu       sync.Mutex
	search   map[string][]model.RawSearchRecord // by platform
	projects map[string]Owner                   // by platform/name
	pypi     map[string]pypiInfo
	cran     map[string]string
	repos    map[string]Owner // by owner/repo
	status   map[string]int   // forced status by path
	requests []string

	router chi.Router
}

type pypiInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email"`
	HomePage    string `json:"home_page"`
}

// New returns an empty registry that requires apiKey on Libraries.io routes.
func New(apiKey string) *Registry {
	r := &Registry{
		APIKey:   apiKey,
		PageSize: DefaultPageSize,
		search:   map[string][]model.RawSearchRecord{},
		projects: map[string]Owner{},
		pypi:     map[string]pypiInfo{},
		cran:     map[string]string{},
		repos:    map[string]Owner{},
		status:   map[string]int{},
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(r.record)
	router.Use(r.forced)

	router.Route(LibrariesIOPath, func(lr chi.Router) {
		lr.Use(r.requireKey)
		lr.Get("/search", r.handleSearch)
		lr.Get("/{platform}/{name}", r.handleProject)
	})
	router.Get(PyPIPath+"/{name}/json", r.handlePyPI)
	router.Get(CRANPath+"/web/packages/{name}/DESCRIPTION", r.handleCRAN)
	router.Get(GitHubPath+"/repos/{owner}/{repo}", r.handleRepo)

	r.router = router
	return r
}

// ServeHTTP implements http.Handler.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// AddSearch adds search results for a platform.
func (r *Registry) AddSearch(platform string, records ...model.RawSearchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	platform = strings.ToLower(platform)
	r.search[platform] = append(r.search[platform], records...)
}

// AddProject registers a Libraries.io project owner.
func (r *Registry) AddProject(platform, name string, owner Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[strings.ToLower(platform)+"/"+name] = owner
}

// AddPyPI registers PyPI metadata under the normalized name.
func (r *Registry) AddPyPI(name, author, authorEmail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	norm := normalize(name)
	r.pypi[norm] = pypiInfo{Name: name, Version: "1.0.0", Author: author, AuthorEmail: authorEmail}
}

// AddCRAN registers a DESCRIPTION file.
func (r *Registry) AddCRAN(name, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cran[name] = description
}

// AddRepo registers a GitHub repository owner.
func (r *Registry) AddRepo(owner, repo string, o Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repos[strings.ToLower(owner+"/"+repo)] = o
}

// SetStatus forces every request to path to answer with status.
func (r *Registry) SetStatus(path string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[path] = status
}

// Requests returns the request URIs served so far, in order.
func (r *Registry) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.requests)
}

// Count returns how many served request paths start with prefix.
func (r *Registry) Count(prefix string) int {
	n := 0
	for _, uri := range r.Requests() {
		if strings.HasPrefix(uri, prefix) {
			n++
		}
	}
	return n
}

func (r *Registry) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests = append(r.requests, req.URL.RequestURI())
		r.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) forced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		status, ok := r.status[req.URL.Path]
		r.mu.Unlock()
		if ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("api_key") != r.APIKey {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) handleSearch(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	term := strings.ToLower(q.Get("q"))
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	r.mu.Lock()
	var matches []model.RawSearchRecord
	for _, platform := range strings.Split(strings.ToLower(q.Get("platforms")), ",") {
		for _, rec := range r.search[platform] {
			haystack := strings.ToLower(rec.Name + " " + rec.RepositoryURL + " " + rec.Description)
			if term == "" || strings.Contains(haystack, term) {
				matches = append(matches, rec)
			}
		}
	}
	size := r.PageSize
	r.mu.Unlock()

	if size <= 0 {
		size = DefaultPageSize
	}
	start := (page - 1) * size
	if start >= len(matches) {
		writeJSON(w, []model.RawSearchRecord{})
		return
	}
	end := min(start+size, len(matches))
	writeJSON(w, matches[start:end])
}

func (r *Registry) handleProject(w http.ResponseWriter, req *http.Request) {
	platform := strings.ToLower(chi.URLParam(req, "platform"))
	name := chi.URLParam(req, "name")

	r.mu.Lock()
	owner, ok := r.projects[platform+"/"+name]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, map[string]any{
		"name":     name,
		"platform": platform,
		"owner":    owner,
	})
}

func (r *Registry) handlePyPI(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	info, ok := r.pypi[normalize(chi.URLParam(req, "name"))]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, map[string]any{"info": info})
}

func (r *Registry) handleCRAN(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	desc, ok := r.cran[chi.URLParam(req, "name")]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(desc))
}

func (r *Registry) handleRepo(w http.ResponseWriter, req *http.Request) {
	owner, repo := chi.URLParam(req, "owner"), chi.URLParam(req, "repo")

	r.mu.Lock()
	o, ok := r.repos[strings.ToLower(owner+"/"+repo)]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, map[string]any{
		"name":      repo,
		"full_name": owner + "/" + repo,
		"html_url":  "https://github.com/" + owner + "/" + repo,
		"owner":     o,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}
