package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sorry-currents/shardctl/internal/cienv"
	"github.com/sorry-currents/shardctl/internal/notify"
	"github.com/sorry-currents/shardctl/internal/orchestrator"
)

var (
	notifyGitHubComment bool
	notifyGitHubStatus  bool
	notifySlackURL      string
	notifyWebhookURL    string
	notifyInputDir      string
	notifyReportURL     string
	notifyFormat        string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Post the merged run's summary to configured integrations",
	Long: `notify reads the merged run record, builds one payload per requested
integration kind, and sends them all concurrently. Integration failures are
never fatal — notify always exits 0, warning about any failed sends.`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().BoolVar(&notifyGitHubComment, "github-comment", false, "Post a PR comment (requires GITHUB_TOKEN, GITHUB_REPOSITORY, GITHUB_EVENT_PATH)")
	notifyCmd.Flags().BoolVar(&notifyGitHubStatus, "github-status", false, "Post a commit status (requires GITHUB_TOKEN, GITHUB_REPOSITORY)")
	notifyCmd.Flags().StringVar(&notifySlackURL, "slack", "", "Slack incoming-webhook URL")
	notifyCmd.Flags().StringVar(&notifyWebhookURL, "webhook", "", "Generic webhook URL")
	notifyCmd.Flags().StringVar(&notifyInputDir, "input", "", "Data directory containing merged-run-result.json (default: config base dir)")
	notifyCmd.Flags().StringVar(&notifyReportURL, "report-url", "", "Full-report link embedded in comment/chat payloads")
	notifyCmd.Flags().StringVar(&notifyFormat, "format", "text", "Summary format printed to stdout (text, json)")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	inDir := notifyInputDir
	if inDir == "" {
		inDir = cfg.BaseDir
	}

	reportURL := notifyReportURL
	if reportURL == "" {
		reportURL = cfg.Notify.ReportURL
	}

	targets := buildTargets()
	if len(targets) == 0 {
		return fmt.Errorf("no notification target given: pass --github-comment, --github-status, --slack, or --webhook")
	}

	results, err := orchestrator.Notify(context.Background(), orchestrator.NotifyOptions{
		InputPath: filepath.Join(inDir, "merged-run-result.json"),
		ReportURL: reportURL,
		Targets:   targets,
	})
	if err != nil {
		return err
	}

	printNotifyResults(results)
	return nil
}

// buildTargets translates the boolean/URL flags into notify.Target values,
// reading GitHub integration coordinates from the environment per §6.
func buildTargets() []notify.Target {
	var targets []notify.Target

	token := os.Getenv("GITHUB_TOKEN")
	if notifyGitHubComment {
		if url := githubCommentURL(); url != "" {
			targets = append(targets, notify.Target{Name: "github-comment", Kind: "github-comment", URL: url, Token: token})
		}
	}
	if notifyGitHubStatus {
		if url := githubStatusURL(); url != "" {
			targets = append(targets, notify.Target{Name: "github-status", Kind: "github-status", URL: url, Token: token})
		}
	}
	if notifySlackURL != "" {
		targets = append(targets, notify.Target{Name: "slack", Kind: "slack", URL: notifySlackURL})
	}
	if notifyWebhookURL != "" {
		targets = append(targets, notify.Target{Name: "webhook", Kind: "webhook", URL: notifyWebhookURL})
	}
	return targets
}

// githubCommentURL builds the issue-comments API URL from GITHUB_REPOSITORY
// and the PR number in GITHUB_EVENT_PATH; an empty result drops the target
// rather than sending to a malformed URL.
func githubCommentURL() string {
	repo := os.Getenv("GITHUB_REPOSITORY")
	if repo == "" {
		return ""
	}
	num := prNumberFromEvent()
	if num == 0 {
		return ""
	}
	return fmt.Sprintf("https://api.github.com/repos/%s/issues/%d/comments", repo, num)
}

// githubStatusURL builds the commit-status API URL from GITHUB_REPOSITORY
// and GITHUB_SHA.
func githubStatusURL() string {
	repo := os.Getenv("GITHUB_REPOSITORY")
	sha := os.Getenv("GITHUB_SHA")
	if repo == "" || sha == "" {
		return ""
	}
	return fmt.Sprintf("https://api.github.com/repos/%s/statuses/%s", repo, sha)
}

// prNumberFromEvent reads GITHUB_EVENT_PATH and delegates the
// pull_request.number extraction to internal/cienv, which every other PR
// context consumer in this repo also uses.
func prNumberFromEvent() int {
	path := os.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return cienv.ExtractPRNumber(data)
}

func printNotifyResults(results []notify.SendResult) {
	if notifyFormat == "json" {
		type outcome struct {
			Target string `json:"target"`
			Kind   string `json:"kind"`
			OK     bool   `json:"ok"`
			Error  string `json:"error,omitempty"`
		}
		out := make([]outcome, len(results))
		for i, r := range results {
			o := outcome{Target: r.Target.Name, Kind: r.Target.Kind, OK: r.Err == nil}
			if r.Err != nil {
				o.Error = r.Err.Error()
			}
			out[i] = o
		}
		_ = writeJSON(os.Stdout, out)
		return
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s notification failed: %v\n", r.Target.Name, r.Err)
			continue
		}
		fmt.Printf("%s notification sent\n", r.Target.Name)
	}
}
