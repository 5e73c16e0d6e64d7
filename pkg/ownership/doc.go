// Package ownership decides whether a discovered package belongs to the
// organization.
//
// # Policy
//
// A [Policy] is an ordered list of [Rule] values. Each rule looks at a
// [Candidate] and either keeps it, rejects it, or abstains. The first rule
// that decides wins; a candidate no rule decides is rejected with
// [ReasonNoEvidence]. The default order is:
//
//  1. [TestArtifactRule]: names starting with a test prefix are rejected
//  2. [RepositoryRule]: a repository URL decides on its own; inside the
//     organization namespace keeps, anywhere else rejects
//  3. [EmailDomainRule]: without a repository, the owner e-mail domain
//     decides
//
// Repository evidence therefore outranks e-mail evidence when both exist.
//
// # Two passes
//
// [Policy.Prefilter] runs before enrichment and may abstain, which lets the
// pipeline skip enrichment for packages that are already decided.
// [Policy.Classify] runs after enrichment and always decides.
//
// Rejected packages are dropped from the snapshot. Every kept package is
// internal.
//
// # Policy files
//
// Policies can be versioned as TOML and loaded with [LoadPolicyFile]:
//
//	version = 1
//	namespace = "github.com/statisticsnorway"
//	email_domain = "ssb.no"
//	test_prefixes = ["ssb-libtest"]
//	rules = ["test-artifact", "repository", "email-domain"]
package ownership
