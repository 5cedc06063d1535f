package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// Target names one configured notification destination: a webhook URL plus
// which payload shape to post there.
type Target struct {
	Name string
	Kind string // "github-comment", "github-status", "slack", "webhook"
	URL  string

	// Token authenticates github-comment/github-status sends (GITHUB_TOKEN);
	// empty for slack/webhook targets, which carry no credential.
	Token string
}

// githubCommentPayload is the GitHub issue-comments API request body: a PR
// comment is always posted as {"body": "<markdown>"}, never a bare string.
type githubCommentPayload struct {
	Body string `json:"body"`
}

// SendResult records the outcome of delivering to one target. Integration
// failures are never fatal — the orchestrator logs Err and moves on.
type SendResult struct {
	Target Target
	Err    error
}

// SendAll posts to every target concurrently (bounded by the errgroup's
// implicit unlimited-but-small fan-out — one goroutine per target, which in
// practice numbers in the single digits) and collects a result per target
// regardless of individual failures. No error is returned; per-target
// outcomes are carried in the SendResult slice so the caller can decide what
// to log versus surface.
func SendAll(ctx context.Context, client *http.Client, targets []Target, payloads map[string]any) []SendResult {
	results := make([]SendResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			payload, ok := payloads[target.Kind]
			if !ok {
				results[i] = SendResult{Target: target, Err: fmt.Errorf("no payload built for kind %q", target.Kind)}
				return nil
			}
			if target.Kind == "github-comment" {
				body, _ := payload.(string)
				payload = githubCommentPayload{Body: body}
			}
			err := post(gctx, client, target.URL, target.Token, payload)
			results[i] = SendResult{Target: target, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func post(ctx context.Context, client *http.Client, url, token string, payload any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/vnd.github+json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s responded with status %d", url, resp.StatusCode)
	}
	return nil
}
