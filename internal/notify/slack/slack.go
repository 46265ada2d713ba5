// Package slack sends analysis alerts to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/bizpulse/internal/business"
	"github.com/linnemanlabs/go-core/log"
)

const (
	maxNarrativeLen = 3000
	maxHeaderLen    = 150
	httpTimeout     = 10 * time.Second
)

// Notifier sends analyses to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts an analysis to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, a *business.Analysis) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(a)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification sent", "analysis_id", a.ID)
	return nil
}

func buildMessage(a *business.Analysis) map[string]any {
	out := outputOf(a)
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(out),
			{"type": "divider"},
			fieldsBlock(out),
			{"type": "divider"},
			findingsBlock(out, a.Narrative),
			{"type": "divider"},
			contextBlock(a),
		},
	}
}

// outputOf never returns nil so block builders can stay simple.
func outputOf(a *business.Analysis) *business.Output {
	if a.State == nil || a.Output == nil {
		return &business.Output{}
	}
	return a.Output
}

func headerBlock(out *business.Output) map[string]any {
	title := "Business health: no alerts"
	if len(out.Alerts) > 0 {
		title = "Business alert: " + strings.Join(out.Alerts, ", ")
	}
	text := truncate(fmt.Sprintf("%s %s", alertEmoji(out.Alerts), title), maxHeaderLen)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(out *business.Output) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Profit:* %.2f", out.Profit),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*CAC:* %.2f", out.CAC),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Revenue change:* %+.1f%%", out.RevenueChangePct),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Cost change:* %+.1f%%", out.CostChangePct),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func findingsBlock(out *business.Output, narrative string) map[string]any {
	var b strings.Builder
	b.WriteString("*Recommendations*\n")
	if len(out.Recommendations) == 0 {
		b.WriteString("_None._\n")
	}
	for _, r := range out.Recommendations {
		b.WriteString("• ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	if narrative != "" {
		b.WriteString("\n*Summary*\n\n")
		b.WriteString(truncate(narrative, maxNarrativeLen))
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": strings.TrimRight(b.String(), "\n"),
		},
	}
}

func contextBlock(a *business.Analysis) map[string]any {
	ts := a.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("bizpulse • analysis %s • %s", a.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func alertEmoji(alerts []string) string {
	for _, a := range alerts {
		if a == business.AlertNegativeProfit {
			return "\U0001f534" // red circle
		}
	}
	if len(alerts) > 0 {
		return "\U0001f7e1" // yellow circle
	}
	return "\U0001f7e2" // green circle
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
