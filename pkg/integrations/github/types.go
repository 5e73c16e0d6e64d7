package github

import "time"

// Owner is the user or organization that owns a repository.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"` // "User" or "Organization"
	Email string `json:"email"`
}

// Repo represents a GitHub repository.
type Repo struct {
	Name        string
	FullName    string
	Description string
	HTMLURL     string
	Homepage    string
	Owner       Owner
	Stars       int
	Forks       int
	Archived    bool
	PushedAt    *time.Time
}

// apiRepoResponse is the internal GitHub API response structure.
type apiRepoResponse struct {
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	HTMLURL     string     `json:"html_url"`
	Homepage    string     `json:"homepage"`
	Owner       Owner      `json:"owner"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Archived    bool       `json:"archived"`
	PushedAt    *time.Time `json:"pushed_at"`
}
