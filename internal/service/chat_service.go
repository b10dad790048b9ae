package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kdange/portfolio/internal/config"
	"github.com/kdange/portfolio/internal/metrics"
	"github.com/kdange/portfolio/internal/telemetry"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CompletionClient is the subset of the OpenAI client the chat service uses.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatService answers visitor questions through an LLM speaking as the persona.
type ChatService struct {
	client      CompletionClient
	persona     *Persona
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	limiter     *OutboundLimiter
	metrics     *metrics.Metrics
}

// NewChatService builds the service. Without an API key the service is
// disabled and every Reply fails with ErrServiceUnavailable.
func NewChatService(cfg config.LLMConfig, persona *Persona, limiter *OutboundLimiter, m *metrics.Metrics) *ChatService {
	var client CompletionClient
	if cfg.Enabled() {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		client = openai.NewClientWithConfig(clientCfg)
	}
	return NewChatServiceWithClient(client, cfg, persona, limiter, m)
}

func NewChatServiceWithClient(client CompletionClient, cfg config.LLMConfig, persona *Persona, limiter *OutboundLimiter, m *metrics.Metrics) *ChatService {
	if m == nil {
		m = metrics.New()
	}
	return &ChatService{
		client:      client,
		persona:     persona,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		limiter:     limiter,
		metrics:     m,
	}
}

func (s *ChatService) Enabled() bool {
	return s.client != nil
}

type modelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Ping checks the provider accepts the configured key.
func (s *ChatService) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrServiceUnavailable
	}
	lister, ok := s.client.(modelLister)
	if !ok {
		return nil
	}
	if _, err := lister.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return nil
}

// Reply returns the model's answer to message, trimmed.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	if !s.Enabled() {
		s.metrics.ChatRequests.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		return "", ErrServiceUnavailable
	}
	if message == "" {
		s.metrics.ChatRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return "", ErrValidation
	}

	prompt, err := s.persona.Prompt(message)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(metrics.OutcomeError).Inc()
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.persona.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	ctx, span := telemetry.Tracer().Start(ctx, "chat.completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.model),
		attribute.Int("llm.max_tokens", s.maxTokens),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var resp openai.ChatCompletionResponse
	start := time.Now()
	err = s.limiter.Do(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	s.metrics.ChatDuration.Observe(time.Since(start).Seconds())

	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("provider returned no choices")
	}
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(metrics.OutcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.metrics.ChatRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
