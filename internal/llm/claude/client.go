// Package claude narrates analyses with the Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/bizpulse/internal/business"
	"github.com/linnemanlabs/go-core/xerrors"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	defaultMaxTokens = 512
	tracerName       = "github.com/linnemanlabs/bizpulse/internal/llm/claude"
)

// ErrEmptyResponse is returned when the model replies without any text.
var ErrEmptyResponse = xerrors.New("claude: empty response")

const systemPrompt = `You are a financial analyst writing for a small business owner.
Summarize the day's figures in at most three sentences of plain prose.
Explain the alerts if there are any and refer to the recommendations given.
Do not invent numbers that are not in the data.`

// Client narrates analyses through the Claude API.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a new Claude client with the given API key and model name.
// Extra request options are passed to the SDK, e.g. option.WithBaseURL in tests.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client:    anthropic.NewClient(all...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

// Narrate asks the model for a short summary of s.
func (c *Client) Narrate(ctx context.Context, s *business.State) (string, error) {
	if s == nil || s.Output == nil {
		return "", xerrors.New("claude: state has no output to narrate")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "claude.narrate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(s))),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("claude: create message: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("llm.tokens.input", msg.Usage.InputTokens),
		attribute.Int64("llm.tokens.output", msg.Usage.OutputTokens),
	)

	text := textFromMessage(msg)
	if text == "" {
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return "", ErrEmptyResponse
	}
	return text, nil
}

// buildPrompt renders the state as a plain list the model can quote from.
func buildPrompt(s *business.State) string {
	in, out := s.Input, s.Output

	var b strings.Builder
	b.WriteString("Today's figures:\n")
	fmt.Fprintf(&b, "- daily revenue: %.2f\n", in.DailyRevenue)
	fmt.Fprintf(&b, "- daily cost: %.2f\n", in.DailyCost)
	fmt.Fprintf(&b, "- customers: %d\n", in.NumberOfCustomers)
	fmt.Fprintf(&b, "- previous day revenue: %.2f\n", in.PreviousDayRevenue)
	fmt.Fprintf(&b, "- previous day cost: %.2f\n", in.PreviousDayCost)

	b.WriteString("\nMetrics:\n")
	fmt.Fprintf(&b, "- profit: %.2f\n", out.Profit)
	fmt.Fprintf(&b, "- customer acquisition cost: %.2f\n", out.CAC)
	fmt.Fprintf(&b, "- revenue change: %.2f%%\n", out.RevenueChangePct)
	fmt.Fprintf(&b, "- cost change: %.2f%%\n", out.CostChangePct)

	b.WriteString("\nAlerts:\n")
	writeList(&b, out.Alerts)
	b.WriteString("\nRecommendations:\n")
	writeList(&b, out.Recommendations)

	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}

// textFromMessage joins the text blocks of msg, skipping any other block types.
func textFromMessage(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, strings.TrimSpace(block.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}
