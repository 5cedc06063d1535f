// Package cienv detects the CI provider a run is executing under and
// extracts the git/PR context that provider exposes through environment
// variables.
package cienv

import (
	"encoding/json"
	"os"

	"github.com/sorry-currents/shardctl/internal/model"
)

// Lookup resolves an environment variable by name; tests substitute a map
// instead of touching process-global environment.
type Lookup func(string) string

// presenceVars are checked, in order, purely to decide "are we running in
// CI at all" — GITHUB_ACTIONS etc. report CI identity, not git context.
var presenceVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"CIRCLECI",
	"BUILDKITE",
	"TRAVIS",
	"AZURE_PIPELINES",
	"TF_BUILD",
}

// Provider names surfaced in Environment.CIProvider.
const (
	ProviderGitHub      = "github-actions"
	ProviderGitLab      = "gitlab-ci"
	ProviderJenkins     = "jenkins"
	ProviderCircleCI    = "circleci"
	ProviderBuildkite   = "buildkite"
	ProviderTravis      = "travis"
	ProviderAzure       = "azure-pipelines"
	ProviderGenericCI   = "ci"
	ProviderLocal       = ""
)

// Detect reports whether any recognized CI environment variable is present.
func Detect(lookup Lookup) bool {
	for _, v := range presenceVars {
		if lookup(v) != "" {
			return true
		}
	}
	return false
}

// Provider identifies which specific CI system is running, falling back to
// ProviderGenericCI when only the generic CI marker is set, and
// ProviderLocal when nothing is set.
func Provider(lookup Lookup) string {
	switch {
	case lookup("GITHUB_ACTIONS") != "":
		return ProviderGitHub
	case lookup("GITLAB_CI") != "":
		return ProviderGitLab
	case lookup("JENKINS_URL") != "":
		return ProviderJenkins
	case lookup("CIRCLECI") != "":
		return ProviderCircleCI
	case lookup("BUILDKITE") != "":
		return ProviderBuildkite
	case lookup("TRAVIS") != "":
		return ProviderTravis
	case lookup("AZURE_PIPELINES") != "", lookup("TF_BUILD") != "":
		return ProviderAzure
	case lookup("CI") != "":
		return ProviderGenericCI
	default:
		return ProviderLocal
	}
}

// GitContext extracts branch/commit/author/PR from whichever provider's
// variables are populated, preferring GitHub's names and falling back to
// GitLab's.
func GitContext(lookup Lookup) model.GitInfo {
	g := model.GitInfo{
		Branch:        firstNonEmpty(lookup("GITHUB_REF_NAME"), lookup("CI_COMMIT_BRANCH")),
		Commit:        firstNonEmpty(lookup("GITHUB_SHA"), lookup("CI_COMMIT_SHA")),
		CommitMessage: lookup("GITHUB_EVENT_HEAD_COMMIT_MESSAGE"),
		Author:        firstNonEmpty(lookup("GITHUB_ACTOR"), lookup("GITLAB_USER_LOGIN")),
	}
	if pr := prInfo(lookup); pr != nil {
		g.PR = pr
	}
	return g
}

// prInfo reads the PR number out of the GitHub Actions event payload, if
// GITHUB_EVENT_PATH points at one containing a pull_request.number field.
// Anything short of a clean parse yields nil rather than a partial PRInfo.
func prInfo(lookup Lookup) *model.PRInfo {
	path := lookup("GITHUB_EVENT_PATH")
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	num := ExtractPRNumber(data)
	if num == 0 {
		return nil
	}
	return &model.PRInfo{Number: num}
}

// ExtractPRNumber reads the pull_request.number field out of a GitHub
// Actions event payload. Callers outside this package (cmd/shardctl's
// notify command, building its own comment/status URLs) share this instead
// of hand-scanning the payload themselves.
func ExtractPRNumber(body []byte) int {
	var event struct {
		PullRequest struct {
			Number int `json:"number"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return 0
	}
	return event.PullRequest.Number
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
