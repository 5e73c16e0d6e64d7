package ownership

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
)

// CurrentVersion is the policy file format understood by [LoadPolicyFile].
const CurrentVersion = 1

// DefaultRuleOrder is the rule precedence used when a policy file does not
// name one.
var DefaultRuleOrder = []string{RuleTestArtifact, RuleRepository, RuleEmailDomain}

// Policy is an ordered rule list.
type Policy struct {
	Version int
	Org     Org
	Rules   []Rule
}

// DefaultPolicy returns the standard policy for org.
func DefaultPolicy(org Org, testPrefixes []string) *Policy {
	p, _ := newPolicy(CurrentVersion, org, testPrefixes, DefaultRuleOrder)
	return p
}

// Prefilter evaluates the rules without enrichment. The result may be
// [Undecided], in which case the candidate needs enrichment.
func (p *Policy) Prefilter(name, repositoryURL string) Verdict {
	return p.evaluate(Candidate{Name: name, RepositoryURL: repositoryURL})
}

// Classify makes the final decision. A candidate no rule decides is
// rejected with [ReasonNoEvidence].
func (p *Policy) Classify(c Candidate) Verdict {
	v := p.evaluate(c)
	if v.Decision == Undecided {
		return Verdict{Decision: Reject, Reason: ReasonNoEvidence}
	}
	return v
}

func (p *Policy) evaluate(c Candidate) Verdict {
	for _, r := range p.Rules {
		if v := r.Evaluate(c); v.Decision != Undecided {
			return v
		}
	}
	return Verdict{}
}

// RuleNames lists the rules in evaluation order.
func (p *Policy) RuleNames() []string {
	names := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		names[i] = r.Name()
	}
	return names
}

// File is the TOML form of a policy.
type File struct {
	Version      int      `toml:"version"`
	Namespace    string   `toml:"namespace"`
	EmailDomain  string   `toml:"email_domain"`
	TestPrefixes []string `toml:"test_prefixes"`
	Rules        []string `toml:"rules"`
}

// LoadPolicyFile reads a TOML policy.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "policy file %s", path)
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPath, err, "read policy file %s", path)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a TOML policy.
func ParsePolicy(data []byte) (*Policy, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidPolicy, err, "parse policy")
	}
	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	if f.Version != CurrentVersion {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "unsupported policy version %d (want %d)", f.Version, CurrentVersion)
	}
	if strings.TrimSpace(f.Namespace) == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "policy namespace is required")
	}
	if strings.TrimSpace(f.EmailDomain) == "" {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "policy email_domain is required")
	}
	order := f.Rules
	if len(order) == 0 {
		order = DefaultRuleOrder
	}
	return newPolicy(f.Version, Org{Namespace: f.Namespace, EmailDomain: f.EmailDomain}, f.TestPrefixes, order)
}

func newPolicy(version int, org Org, testPrefixes, order []string) (*Policy, error) {
	p := &Policy{Version: version, Org: org}
	seen := map[string]bool{}
	for _, name := range order {
		if seen[name] {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "rule %q listed twice", name)
		}
		seen[name] = true
		switch name {
		case RuleTestArtifact:
			p.Rules = append(p.Rules, TestArtifactRule{Prefixes: testPrefixes})
		case RuleRepository:
			p.Rules = append(p.Rules, RepositoryRule{Org: org})
		case RuleEmailDomain:
			p.Rules = append(p.Rules, EmailDomainRule{Org: org})
		default:
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "unknown rule %q", name)
		}
	}
	return p, nil
}
