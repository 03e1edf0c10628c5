package ai

import (
	"context"
	"errors"
	"time"

	"docqa-platform/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// GeminiProvider is the primary generation provider. Requests flow through a
// per-process rate limiter and a circuit breaker so a degraded upstream trips
// fast instead of queueing work.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	tier        string
}

type rateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiProvider(apiKey, model, tier string) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10)

	return &GeminiProvider{
		client:      client,
		model:       model,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		tier:        tier,
	}, nil
}

func getRateLimits(tier string) rateLimits {
	switch tier {
	case "free":
		return rateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return rateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return rateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return rateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	tracer := otel.Tracer("ai-provider")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	span.SetAttributes(
		attribute.Int("ai.context_chunks", len(req.ContextChunks)),
		attribute.String("ai.model", p.model),
	)

	if err := p.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("ai.rate_limited", true))
		return "", err
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		model := p.client.GenerativeModel(p.model)
		model.SetTemperature(0.7)
		maxTokens := req.MaxTokens
		if maxTokens <= 0 {
			maxTokens = 1024
		}
		model.SetMaxOutputTokens(int32(maxTokens))

		resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(req)))
		if err != nil {
			span.SetAttributes(attribute.Bool("ai.error", true))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			span.SetAttributes(attribute.Bool("ai.circuit_breaker_open", true))
		}
		return "", err
	}

	text := extractText(result.(*genai.GenerateContentResponse))
	if text == "" {
		return "", errors.New("gemini returned no text candidates")
	}

	span.SetAttributes(attribute.Bool("ai.success", true))
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var out string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}

// Close releases the underlying API client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

var _ Provider = (*GeminiProvider)(nil)
