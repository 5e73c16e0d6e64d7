package enrich

import (
	"context"
	"strings"

	"github.com/statisticsnorway/pkgdash/pkg/integrations/cran"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/github"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/librariesio"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/pypi"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
)

// PyPI reads the author fields of the PyPI JSON API. The homepage is always
// the pypi.org project page, even when the fetch fails.
type PyPI struct {
	Client *pypi.Client
	Org    ownership.Org
}

func (e *PyPI) Enrich(ctx context.Context, rec model.RawSearchRecord) Outcome {
	res := defaultResult(pypi.ProjectURL(rec.Name))

	info, err := e.Client.FetchPackage(ctx, rec.Name)
	if err != nil {
		return failure(res, err)
	}

	res.OwnerName = ownerOrUnknown(info.OwnerName())
	res.OwnerEmail = info.OwnerEmail()
	res.Internal = e.Org.OwnsEmail(res.OwnerEmail)
	return Outcome{Result: res, Status: StatusOK}
}

// CRAN reads the Maintainer field of the package DESCRIPTION file. The
// homepage is always the CRAN package page.
type CRAN struct {
	Client *cran.Client
	Org    ownership.Org
}

func (e *CRAN) Enrich(ctx context.Context, rec model.RawSearchRecord) Outcome {
	res := defaultResult(cran.PackageURL(rec.Name))

	desc, err := e.Client.FetchDescription(ctx, rec.Name)
	if err != nil {
		return failure(res, err)
	}

	res.OwnerName = ownerOrUnknown(desc.MaintainerName())
	res.OwnerEmail = desc.MaintainerEmail()
	res.Internal = e.Org.OwnsEmail(res.OwnerEmail)
	return Outcome{Result: res, Status: StatusOK}
}

// Owner reads the owner object of the Libraries.io project endpoint.
type Owner struct {
	Client *librariesio.Client
	Org    ownership.Org
}

func (e *Owner) Enrich(ctx context.Context, rec model.RawSearchRecord) Outcome {
	res := defaultResult("")

	project, err := e.Client.FetchProject(ctx, strings.ToLower(rec.Platform), rec.Name)
	if err != nil {
		return failure(res, err)
	}

	res.Homepage = strings.TrimSpace(project.Homepage)
	res.OwnerName = model.UnknownOwner
	if o := project.Owner; o != nil {
		res.OwnerName = ownerOrUnknown(o.Login)
		res.OwnerEmail = o.Email
		res.Internal = e.Org.OwnsEmail(o.Email) || e.Org.OwnsLogin(o.Login)
	}
	return Outcome{Result: res, Status: StatusOK}
}

// GitHub reads the owner of the package's GitHub repository. Packages
// without a GitHub repository URL are skipped.
type GitHub struct {
	Client *github.Client
	Org    ownership.Org
}

func (e *GitHub) Enrich(ctx context.Context, rec model.RawSearchRecord) Outcome {
	res := defaultResult("")

	owner, repo, ok := github.ParseRepoURL(rec.RepositoryURL)
	if !ok {
		return Outcome{Result: res, Status: StatusSkipped}
	}

	r, err := e.Client.FetchRepo(ctx, owner, repo)
	if err != nil {
		return failure(res, err)
	}

	res.Homepage = strings.TrimSpace(r.Homepage)
	res.OwnerName = ownerOrUnknown(r.Owner.Login)
	res.OwnerEmail = r.Owner.Email
	res.Internal = e.Org.OwnsLogin(r.Owner.Login) || e.Org.OwnsEmail(r.Owner.Email)
	return Outcome{Result: res, Status: StatusOK}
}
