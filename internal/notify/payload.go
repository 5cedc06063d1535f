// Package notify builds and sends the integration payloads a finished run
// reports outward: a GitHub PR comment body, a commit status, a Slack/chat
// message, and a generic webhook envelope. The builders are pure functions
// of a RunResult; only the Send* adapters touch the network, and failures
// there are downgraded to warnings rather than failing the command.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/sorry-currents/shardctl/internal/model"
)

// ReportCommentMarker is embedded in every PR comment body so a sender can
// find and update its own prior comment instead of posting duplicates.
const ReportCommentMarker = "<!-- sorry-currents:report -->"

// contextName is the fixed GitHub commit-status context string.
const contextName = "sorry-currents"

const maxDescriptionLen = 140
const maxFailedTestsInSlack = 5

func statusEmoji(s model.RunStatus) string {
	switch s {
	case model.RunStatusPassed:
		return "✅"
	case model.RunStatusFailed:
		return "❌"
	case model.RunStatusTimedOut:
		return "⏱️"
	case model.RunStatusInterrupted:
		return "🛑"
	default:
		return "❔"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// CommentOptions carries the optional extras a comment body may include.
type CommentOptions struct {
	ReportURL string
}

// BuildGitHubCommentBody renders the PR comment body: a title line with a
// status emoji, a summary table, optional failed/flaky blocks, an optional
// report-link footer, and the tracking marker.
func BuildGitHubCommentBody(run model.RunResult, opts CommentOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s ## Test Run %s\n\n", statusEmoji(run.Status), run.Status)

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Status | %s |\n", run.Status)
	fmt.Fprintf(&b, "| Total | %d |\n", run.Summary.Total)
	fmt.Fprintf(&b, "| Passed | %d |\n", run.Summary.Passed)
	fmt.Fprintf(&b, "| Failed | %d |\n", run.Summary.Failed)
	fmt.Fprintf(&b, "| Flaky | %d |\n", run.Summary.Flaky)
	fmt.Fprintf(&b, "| Skipped | %d |\n", run.Summary.Skipped)
	fmt.Fprintf(&b, "| Duration | %dms |\n", run.DurationMS)
	fmt.Fprintf(&b, "| Shards | %d |\n", run.ShardCount)

	if failed := failedTests(run.Tests); len(failed) > 0 {
		b.WriteString("\n### Failed Tests\n\n")
		for _, t := range failed {
			msg := ""
			if len(t.Errors) > 0 {
				msg = truncate(t.Errors[0].Message, maxDescriptionLen)
			}
			fmt.Fprintf(&b, "- `%s` — %s: %s\n", t.File, t.Title, msg)
		}
	}

	if flaky := flakyTests(run.Tests); len(flaky) > 0 {
		b.WriteString("\n### Flaky Tests\n\n")
		for _, t := range flaky {
			fmt.Fprintf(&b, "- `%s` — %s (retries: %d)\n", t.File, t.Title, t.Retries)
		}
	}

	if opts.ReportURL != "" {
		fmt.Fprintf(&b, "\n[Full Report](%s)\n", opts.ReportURL)
	}

	fmt.Fprintf(&b, "\n%s\n", ReportCommentMarker)

	return b.String()
}

// StatusState is the GitHub commit-status state vocabulary.
type StatusState string

const (
	StatusStateSuccess StatusState = "success"
	StatusStateFailure StatusState = "failure"
)

// GitHubStatusPayload is the outbound commit-status shape.
type GitHubStatusPayload struct {
	State       StatusState `json:"state"`
	Description string      `json:"description"`
	Context     string      `json:"context"`
}

// BuildGitHubStatusPayload renders the commit-status payload: success when
// the merged status is passed, failure otherwise.
func BuildGitHubStatusPayload(run model.RunResult) GitHubStatusPayload {
	state := StatusStateSuccess
	if run.Status != model.RunStatusPassed {
		state = StatusStateFailure
	}

	desc := fmt.Sprintf("%d passed, %d failed", run.Summary.Passed, run.Summary.Failed)
	if run.Summary.Flaky > 0 {
		desc += fmt.Sprintf(", %d flaky", run.Summary.Flaky)
	}
	desc += fmt.Sprintf(" (%s)", humanDuration(run.DurationMS))

	return GitHubStatusPayload{
		State:       state,
		Description: truncate(desc, maxDescriptionLen),
		Context:     contextName,
	}
}

// SlackPayload is the outbound chat-message shape.
type SlackPayload struct {
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a minimal subset of Slack's Block Kit vocabulary, enough to
// express header, section, and context blocks.
type SlackBlock struct {
	Type   string            `json:"type"`
	Text   string            `json:"text,omitempty"`
	Fields []string          `json:"fields,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// BuildSlackPayload renders a Slack/chat message: header, a summary
// section, an optional flaky section, an optional failed-tests section
// capped at 5 entries, an optional report-link element, and a footer
// context element naming the author and commit message.
func BuildSlackPayload(run model.RunResult, reportURL string) SlackPayload {
	blocks := []SlackBlock{
		{Type: "header", Text: fmt.Sprintf("%s Test Run %s", statusEmoji(run.Status), run.Status)},
		{Type: "section", Fields: []string{
			fmt.Sprintf("*Branch:* %s", run.Git.Branch),
			fmt.Sprintf("*Commit:* %s", shortCommit(run.Git.Commit)),
			fmt.Sprintf("*Total:* %d", run.Summary.Total),
			fmt.Sprintf("*Duration:* %s", humanDuration(run.DurationMS)),
			fmt.Sprintf("*Passed:* %d", run.Summary.Passed),
			fmt.Sprintf("*Failed:* %d", run.Summary.Failed),
		}},
	}

	if run.Summary.Flaky > 0 {
		blocks = append(blocks, SlackBlock{Type: "section", Text: fmt.Sprintf("*Flaky:* %d", run.Summary.Flaky)})
	}

	if failed := failedTests(run.Tests); len(failed) > 0 {
		lines := make([]string, 0, maxFailedTestsInSlack)
		for i, t := range failed {
			if i >= maxFailedTestsInSlack {
				lines = append(lines, fmt.Sprintf("… and %d more", len(failed)-maxFailedTestsInSlack))
				break
			}
			lines = append(lines, fmt.Sprintf("`%s` — %s", t.File, t.Title))
		}
		blocks = append(blocks, SlackBlock{Type: "section", Text: strings.Join(lines, "\n")})
	}

	if reportURL != "" {
		blocks = append(blocks, SlackBlock{Type: "context", Text: fmt.Sprintf("<%s|Full Report>", reportURL)})
	}

	blocks = append(blocks, SlackBlock{Type: "context", Text: fmt.Sprintf("%s — %s", run.Git.Author, run.Git.CommitMessage)})

	return SlackPayload{Blocks: blocks}
}

// WebhookTestEntry is one test's entry in the generic webhook's test list.
// Stack traces are deliberately omitted to bound payload size.
type WebhookTestEntry struct {
	ID         string   `json:"id"`
	File       string   `json:"file"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	DurationMS int      `json:"duration"`
	IsFlaky    bool     `json:"isFlaky"`
	Errors     []string `json:"errors,omitempty"`
}

// WebhookGit is the git-context subset the generic webhook carries.
type WebhookGit struct {
	Branch        string `json:"branch"`
	Commit        string `json:"commit"`
	Author        string `json:"author"`
	CommitMessage string `json:"commitMessage"`
}

// WebhookPayload is the generic integration-event shape.
type WebhookPayload struct {
	Event     string              `json:"event"`
	Timestamp string              `json:"timestamp"`
	Result    model.SummaryCounts `json:"result"`
	Git       WebhookGit          `json:"git"`
	Tests     []WebhookTestEntry  `json:"tests"`
}

// BuildWebhookPayload renders the generic webhook event.
func BuildWebhookPayload(run model.RunResult) WebhookPayload {
	tests := make([]WebhookTestEntry, 0, len(run.Tests))
	for _, t := range run.Tests {
		errs := make([]string, 0, len(t.Errors))
		for _, e := range t.Errors {
			errs = append(errs, e.Message)
		}
		tests = append(tests, WebhookTestEntry{
			ID:         t.Identity,
			File:       t.File,
			Title:      t.Title,
			Status:     string(t.Status),
			DurationMS: t.DurationMS,
			IsFlaky:    t.IsFlaky,
			Errors:     errs,
		})
	}

	return WebhookPayload{
		Event:     "test-run-completed",
		Timestamp: run.Timestamp.Format(time.RFC3339),
		Result:    run.Summary,
		Git: WebhookGit{
			Branch:        run.Git.Branch,
			Commit:        run.Git.Commit,
			Author:        run.Git.Author,
			CommitMessage: run.Git.CommitMessage,
		},
		Tests: tests,
	}
}

func failedTests(tests []model.TestResult) []model.TestResult {
	var out []model.TestResult
	for _, t := range tests {
		if t.Status == model.StatusFailed || t.Status == model.StatusTimedOut {
			out = append(out, t)
		}
	}
	return out
}

func flakyTests(tests []model.TestResult) []model.TestResult {
	var out []model.TestResult
	for _, t := range tests {
		if t.IsFlaky {
			out = append(out, t)
		}
	}
	return out
}

func shortCommit(commit string) string {
	if len(commit) <= 7 {
		return commit
	}
	return commit[:7]
}

func humanDuration(ms int) string {
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
