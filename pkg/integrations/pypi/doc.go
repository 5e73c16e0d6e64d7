// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// This package fetches package metadata from PyPI (https://pypi.org) to
// learn who owns a package.
//
// # Usage
//
//	client := pypi.NewClient("", nil, cache.TTLHTTP)
//
//	pkg, err := client.FetchPackage(ctx, "dapla_toolbelt")
//	if errors.Is(err, integrations.ErrNotFound) {
//	    // not on PyPI
//	}
//
//	fmt.Println(pkg.OwnerName(), pkg.OwnerEmail())
//
// # Ownership fields
//
// PyPI has no structured owner record. [PackageInfo.OwnerName] uses
// info.author and falls back to the display name in info.author_email,
// which many projects fill as "Name <addr>". [PackageInfo.OwnerEmail]
// returns the first address found there.
//
// Package names are normalized following PEP 503.
package pypi
