package ownership

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/statisticsnorway/pkgdash/pkg/model"
)

// Decision is the outcome of evaluating a rule.
type Decision int

const (
	Undecided Decision = iota
	Keep
	Reject
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Reject:
		return "reject"
	default:
		return "undecided"
	}
}

// Reasons attached to verdicts.
const (
	ReasonTestArtifact       = "test-artifact"
	ReasonExternalRepository = "external-repository"
	ReasonNoOrgEmail         = "no-organizational-email"
	ReasonNoEvidence         = "no-evidence"
	ReasonOrgRepository      = "organization-repository"
	ReasonOrgEmail           = "organizational-email"
)

// Verdict is a rule's answer for one candidate.
type Verdict struct {
	Decision Decision
	Reason   string
	Rule     string // name of the deciding rule, empty when undecided
}

// Kept reports whether the verdict keeps the candidate.
func (v Verdict) Kept() bool { return v.Decision == Keep }

// Candidate is what the rules see of a package.
type Candidate struct {
	Name          string
	RepositoryURL string

	// Enrichment is nil until a metadata source has been consulted.
	Enrichment *model.EnrichmentResult
}

// Rule is one step of a [Policy].
type Rule interface {
	Name() string
	Evaluate(c Candidate) Verdict
}

// Rule names used in policy files.
const (
	RuleTestArtifact = "test-artifact"
	RuleRepository   = "repository"
	RuleEmailDomain  = "email-domain"
)

// TestArtifactRule rejects packages whose name starts with one of Prefixes.
// Matching uses Unicode case folding.
type TestArtifactRule struct {
	Prefixes []string
}

func (TestArtifactRule) Name() string { return RuleTestArtifact }

func (r TestArtifactRule) Evaluate(c Candidate) Verdict {
	fold := cases.Fold()
	name := fold.String(strings.TrimSpace(c.Name))
	for _, p := range r.Prefixes {
		p = fold.String(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(name, p) {
			return Verdict{Decision: Reject, Reason: ReasonTestArtifact, Rule: RuleTestArtifact}
		}
	}
	return Verdict{}
}

// RepositoryRule decides from the repository URL when there is one.
type RepositoryRule struct {
	Org Org
}

func (RepositoryRule) Name() string { return RuleRepository }

func (r RepositoryRule) Evaluate(c Candidate) Verdict {
	if strings.TrimSpace(c.RepositoryURL) == "" {
		return Verdict{}
	}
	if r.Org.OwnsRepository(c.RepositoryURL) {
		return Verdict{Decision: Keep, Reason: ReasonOrgRepository, Rule: RuleRepository}
	}
	return Verdict{Decision: Reject, Reason: ReasonExternalRepository, Rule: RuleRepository}
}

// EmailDomainRule decides packages without a repository from the owner
// e-mail reported by enrichment. It abstains until enrichment is known.
type EmailDomainRule struct {
	Org Org
}

func (EmailDomainRule) Name() string { return RuleEmailDomain }

func (r EmailDomainRule) Evaluate(c Candidate) Verdict {
	if strings.TrimSpace(c.RepositoryURL) != "" || c.Enrichment == nil {
		return Verdict{}
	}
	if r.Org.OwnsEmail(c.Enrichment.OwnerEmail) {
		return Verdict{Decision: Keep, Reason: ReasonOrgEmail, Rule: RuleEmailDomain}
	}
	return Verdict{Decision: Reject, Reason: ReasonNoOrgEmail, Rule: RuleEmailDomain}
}
