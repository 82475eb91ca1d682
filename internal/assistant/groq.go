package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

const groqDefaultTimeout = 15 * time.Second

// GroqClient completes chats against Groq's OpenAI-compatible API. Failed
// requests are retried up to maxRetries times before giving up.
type GroqClient struct {
	baseURL    string
	apiKey     string
	modelID    string
	maxRetries int
	httpClient *http.Client
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
}

// NewGroqClient creates a new Groq chat client.
func NewGroqClient(baseURL, apiKey, modelID string, maxRetries int, m *metrics.AssistantMetrics, logger *logging.Logger) (*GroqClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: groq api key is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "llama-3.3-70b-versatile"
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GroqClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		modelID:    modelID,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: groqDefaultTimeout},
		metrics:    m,
		logger:     logger,
	}, nil
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request, retrying transient failures.
func (c *GroqClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 && len(req.System) == 0 {
		return "", errors.New("assistant: groq requires at least one message")
	}

	msgs := make([]groqMessage, 0, len(req.System)+len(req.Messages))
	for _, sys := range req.System {
		if strings.TrimSpace(sys) == "" {
			continue
		}
		msgs = append(msgs, groqMessage{Role: RoleSystem, Content: sys})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, groqMessage{Role: m.Role, Content: m.Content})
	}

	body := groqChatRequest{
		Model:       c.modelID,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("assistant: marshal groq request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		reply, err := c.doRequest(ctx, payload)
		elapsed := time.Since(start).Seconds()
		if err == nil {
			c.metrics.ObserveLLM("groq", "ok", elapsed)
			return reply, nil
		}
		c.metrics.ObserveLLM("groq", "error", elapsed)
		lastErr = err
		c.logger.Warn("groq request failed", "attempt", attempt, "error", err)

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
	return "", fmt.Errorf("assistant: groq completion failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *GroqClient) doRequest(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("assistant: build groq request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant: groq request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("assistant: read groq response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant: groq returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed groqChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("assistant: decode groq response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("assistant: groq returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
