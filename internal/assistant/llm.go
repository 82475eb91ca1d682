package assistant

import (
	"context"

	"github.com/clinsight/clinic-analytics/pkg/logging"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries a chat completion request to an upstream model.
type ChatRequest struct {
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// ChatClient completes chat conversations against a hosted model.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ScanAnalyzer describes an uploaded medical scan image.
type ScanAnalyzer interface {
	AnalyzeScan(ctx context.Context, mimeType string, data []byte) (string, error)
}

// FallbackChatClient wraps a primary chat client with a fallback provider.
// If the primary fails, it automatically retries with the fallback.
type FallbackChatClient struct {
	primary  ChatClient
	fallback ChatClient
	logger   *logging.Logger
}

// NewFallbackChatClient creates a fallback-enabled chat client. If
// fallback is nil, only the primary provider is used.
func NewFallbackChatClient(primary, fallback ChatClient, logger *logging.Logger) *FallbackChatClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackChatClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete sends the request to the primary provider and falls back on
// failure.
func (c *FallbackChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	reply, err := c.primary.Complete(ctx, req)
	if err == nil {
		return reply, nil
	}

	c.logger.Warn("primary chat provider failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return "", err
	}

	fallbackReply, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback chat provider also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return "", fallbackErr
	}

	c.logger.Info("fallback chat provider succeeded after primary failure")
	return fallbackReply, nil
}
