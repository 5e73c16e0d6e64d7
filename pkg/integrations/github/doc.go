// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package looks up repository owners on GitHub (https://api.github.com)
// for ownership enrichment. A package whose repository URL points at
// github.com can be attributed to the repository's owner login.
//
// # Usage
//
//	client := github.NewClient("", token, nil, cache.TTLHTTP)
//
//	owner, repo, ok := github.ParseRepoURL(record.RepositoryURL)
//	if ok {
//	    r, err := client.FetchRepo(ctx, owner, repo)
//	    ...
//	    fmt.Println(r.Owner.Login, r.Owner.Type)
//	}
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
//
// # URL Parsing
//
// [ParseRepoURL] extracts owner and repository from repository URLs,
// handling various formats (with/without .git, ssh, trailing slashes).
package github
