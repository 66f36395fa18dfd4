package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
)

// Defaults for Gemini's OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 5 * time.Second
)

// Config configures the qualitative analyzer.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// GeminiAnalyzer implements port.QualitativeAnalyzer with a single chat
// completion call. It never retries.
type GeminiAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	cfg     Config
	logger  *slog.Logger
}

// NewGeminiAnalyzer creates an analyzer. Without an API key it still
// constructs, and every call fails with NOT_CONFIGURED.
func NewGeminiAnalyzer(cfg Config, logger *slog.Logger) *GeminiAnalyzer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger.Info("initializing qualitative analyzer",
		slog.String("model", cfg.Model),
		slog.String("base_url", clientCfg.BaseURL),
		slog.Bool("configured", cfg.APIKey != ""),
	)

	return &GeminiAnalyzer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		cfg:     cfg,
		logger:  logger,
	}
}

// Configured reports whether an API key is set.
func (g *GeminiAnalyzer) Configured() bool {
	return g.cfg.APIKey != ""
}

// Analyze requests a short free-text analysis of the assessment.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, input port.AnalysisInput) (string, error) {
	if !g.Configured() {
		return "", model.NewAnalysisFailure(model.FailureNotConfigured, errors.New("LLM API key not set"))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(input)},
		},
		Temperature: g.cfg.Temperature,
	}
	if g.cfg.MaxTokens > 0 {
		req.MaxTokens = g.cfg.MaxTokens
	}

	g.logger.DebugContext(ctx, "requesting qualitative analysis", slog.String("model", g.model))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", model.NewAnalysisFailure(model.FailureMalformedOutput, errors.New("no choices returned"))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", model.NewAnalysisFailure(model.FailureMalformedOutput, errors.New("empty completion"))
	}

	g.logger.DebugContext(ctx, "qualitative analysis received",
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return text, nil
}

func classify(ctx context.Context, err error) *model.AnalysisFailure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		f := model.NewAnalysisFailure(model.FailureUpstreamStatus, err)
		f.StatusCode = apiErr.HTTPStatusCode
		return f
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		f := model.NewAnalysisFailure(model.FailureUpstreamStatus, err)
		f.StatusCode = reqErr.HTTPStatusCode
		return f
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.NewAnalysisFailure(model.FailureTimeout, err)
	case errors.Is(err, context.Canceled):
		return model.NewAnalysisFailure(model.FailureCanceled, err)
	case ctx.Err() != nil:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.NewAnalysisFailure(model.FailureTimeout, err)
		}
		return model.NewAnalysisFailure(model.FailureCanceled, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.NewAnalysisFailure(model.FailureTimeout, err)
	}
	return model.NewAnalysisFailure(model.FailureTransport, fmt.Errorf("calling LLM: %w", err))
}
