package composer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/observer"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// Composer produces outreach copy, reply drafts and conversation digests.
// Every method degrades to a deterministic template when the AI backend is
// unavailable, so callers never have to handle a composition error.
type Composer struct {
	client Client
}

// New creates a Composer backed by the given text-generation client.
// A nil client forces template output for every call.
func New(client Client) *Composer {
	return &Composer{client: client}
}

// ComposeOutreach builds the first message for a lead. Variables are
// substituted into the prompt to steer the copy.
func (c *Composer) ComposeOutreach(ctx context.Context, lead *model.Lead, variables map[string]string) string {
	prompt := buildOutreachPrompt(lead, variables)
	if text, ok := c.generate(ctx, "message", prompt); ok {
		return text
	}
	return fallbackOutreach(lead)
}

// ComposeReply drafts a response to the lead's latest inbound message using
// up to the last 10 exchanged messages for context.
func (c *Composer) ComposeReply(ctx context.Context, lead *model.Lead, history []model.Response) string {
	prompt := buildReplyPrompt(lead, history)
	if text, ok := c.generate(ctx, "message", prompt); ok {
		return text
	}
	return fallbackReply(lead)
}

// SummarizeConversation produces a digest and key points for the lead's
// message history.
func (c *Composer) SummarizeConversation(ctx context.Context, lead *model.Lead, history []model.Response) (string, []string) {
	prompt := buildSummaryPrompt(lead, history)
	if text, ok := c.generate(ctx, "summary", prompt); ok {
		summary, points := parseSummaryResponse(text)
		if summary != "" {
			return summary, points
		}
	}
	return fallbackSummary(lead, history)
}

// ExtractKeyPoints pulls the key discussion points out of free-form text.
func (c *Composer) ExtractKeyPoints(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf("Extract the key points from the following conversation as a bullet list, one point per line:\n\n%s", text)
	if generated, ok := c.generate(ctx, "key_points", prompt); ok {
		if points := parseBulletList(generated); len(points) > 0 {
			return points
		}
	}
	return []string{truncate(text, 120)}
}

func (c *Composer) generate(ctx context.Context, kind, prompt string) (string, bool) {
	if c.client == nil {
		observer.IncComposition(kind, "fallback")
		return "", false
	}
	text, err := c.client.GenerateText(ctx, prompt)
	if err != nil || text == "" {
		logger.FromContext(ctx).Warn("AI composition failed, using template fallback",
			zap.String("kind", kind),
			zap.Error(err),
		)
		observer.IncComposition(kind, "fallback")
		return "", false
	}
	observer.IncComposition(kind, "ok")
	return text, true
}

// --- Prompt construction ---

func buildOutreachPrompt(lead *model.Lead, variables map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Write a short, friendly first outreach message for the following lead. ")
	sb.WriteString("Keep it under 80 words, no subject line, no signature placeholders.\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", lead.Name)
	if lead.Company != "" {
		fmt.Fprintf(&sb, "Company: %s\n", lead.Company)
	}
	for k, v := range variables {
		fmt.Fprintf(&sb, "%s: %s\n", k, v)
	}
	return sb.String()
}

func buildReplyPrompt(lead *model.Lead, history []model.Response) string {
	var sb strings.Builder
	sb.WriteString("You are following up with a sales lead. Write a short, helpful reply to their latest message. ")
	sb.WriteString("Keep it under 80 words.\n\nConversation so far (newest last):\n")
	writeHistory(&sb, history)
	fmt.Fprintf(&sb, "\nLead name: %s\n", lead.Name)
	return sb.String()
}

func buildSummaryPrompt(lead *model.Lead, history []model.Response) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following sales conversation. Respond in exactly this format:\n")
	sb.WriteString("Summary: <one paragraph>\n")
	sb.WriteString("Key Points:\n- <point>\n- <point>\n\nConversation (newest last):\n")
	writeHistory(&sb, history)
	fmt.Fprintf(&sb, "\nLead name: %s\n", lead.Name)
	return sb.String()
}

// writeHistory renders messages oldest first. Storage returns newest first.
func writeHistory(sb *strings.Builder, history []model.Response) {
	for i := len(history) - 1; i >= 0; i-- {
		role := "Us"
		if history[i].Direction == model.DirectionIncoming {
			role = "Lead"
		}
		fmt.Fprintf(sb, "%s: %s\n", role, history[i].MessageContent)
	}
}

// parseSummaryResponse splits a "Summary: ... Key Points: ..." response.
func parseSummaryResponse(text string) (string, []string) {
	lower := strings.ToLower(text)
	kpIdx := strings.Index(lower, "key points:")

	summaryPart := text
	var pointsPart string
	if kpIdx >= 0 {
		summaryPart = text[:kpIdx]
		pointsPart = text[kpIdx+len("key points:"):]
	}

	summaryPart = strings.TrimSpace(summaryPart)
	if sIdx := strings.Index(strings.ToLower(summaryPart), "summary:"); sIdx >= 0 {
		summaryPart = strings.TrimSpace(summaryPart[sIdx+len("summary:"):])
	}

	return summaryPart, parseBulletList(pointsPart)
}

// parseBulletList extracts non-empty lines, stripping bullet markers.
func parseBulletList(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimPrefix(line, "• ")
		line = strings.TrimSpace(line)
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}

// --- Template fallbacks ---

func fallbackOutreach(lead *model.Lead) string {
	if lead.Company != "" {
		return fmt.Sprintf("Hi %s, I came across %s and thought it could be a great fit for what we do. Would you be open to a quick chat this week?", lead.Name, lead.Company)
	}
	return fmt.Sprintf("Hi %s, I'd love to tell you about what we do and see if it could be useful for you. Would you be open to a quick chat this week?", lead.Name)
}

func fallbackReply(lead *model.Lead) string {
	return fmt.Sprintf("Thanks for getting back to us, %s! A member of our team will follow up with the details shortly.", lead.Name)
}

func fallbackSummary(lead *model.Lead, history []model.Response) (string, []string) {
	incoming := 0
	outgoing := 0
	for _, r := range history {
		if r.Direction == model.DirectionIncoming {
			incoming++
		} else {
			outgoing++
		}
	}
	summary := fmt.Sprintf("Conversation with %s: %d message(s) sent, %d received.", lead.Name, outgoing, incoming)
	points := []string{fmt.Sprintf("%d total messages exchanged", len(history))}
	if len(history) > 0 {
		points = append(points, fmt.Sprintf("Latest message: %s", truncate(history[0].MessageContent, 80)))
	}
	return summary, points
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
