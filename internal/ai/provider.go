package ai

import (
	"context"
	"fmt"
	"strings"
)

// GenerateRequest carries everything a provider needs to produce an answer:
// the user query, the grounding context chunks (possibly empty), and the
// tenant's answer-style settings.
type GenerateRequest struct {
	Query         string
	ContextChunks []string
	CompanyName   string
	Personality   string
	ResponseStyle string
	MaxTokens     int
}

// Provider is the external generation capability. Implementations must be
// safe for concurrent use.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// BuildPrompt renders the grounding context and query into a single prompt.
// An empty context produces an ungrounded best-effort prompt rather than an
// error; the orchestrator labels such answers accordingly.
func BuildPrompt(req GenerateRequest) string {
	personality := req.Personality
	if personality == "" {
		personality = "helpful"
	}
	style := req.ResponseStyle
	if style == "" {
		style = "concise"
	}
	company := req.CompanyName
	if company == "" {
		company = "the company"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s AI assistant for %s. Keep responses %s.\n\n", personality, company, style)

	if len(req.ContextChunks) == 0 {
		fmt.Fprintf(&b, "No company documents matched this question; answer from general knowledge and say the answer is not based on %s's documents.\n\n", company)
	} else {
		fmt.Fprintf(&b, "Context from %s's documents:\n\n", company)
		for i, chunk := range req.ContextChunks {
			fmt.Fprintf(&b, "Context %d:\n%s\n\n", i+1, chunk)
		}
	}

	fmt.Fprintf(&b, "Question: %s", req.Query)
	return b.String()
}
