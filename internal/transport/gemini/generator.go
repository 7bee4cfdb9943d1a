package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/metrics"
)

const provider = "gemini"

// Generator produces answers with a Gemini model on Vertex AI.
type Generator struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

// Config holds the generation provider settings.
type Config struct {
	Project         string
	Location        string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// NewGenerator creates a Vertex AI Gemini generation provider.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		client:          client,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// Generate implements the answer pipeline's Generator contract.
// All provider faults are wrapped with domain.ErrGenerationBackend.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxOutputTokens,
	}

	start := time.Now()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.model, "api_error").Inc()
		return "", fmt.Errorf("generate content: %v: %w", err, domain.ErrGenerationBackend)
	}

	text := resp.Text()
	if text == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.model, "empty_response").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrGenerationBackend)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.model).Observe(duration.Seconds())

	if usage := resp.UsageMetadata; usage != nil {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model, "prompt").Add(float64(usage.PromptTokenCount))
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model, "completion").Add(float64(usage.CandidatesTokenCount))
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model, "total").Add(float64(usage.TotalTokenCount))
	}

	return text, nil
}
