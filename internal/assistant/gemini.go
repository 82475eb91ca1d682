package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

// GeminiClient talks to Google's Gemini API. It serves two roles: the
// multimodal scan analyzer, and the text-chat fallback behind Groq.
type GeminiClient struct {
	client     *genai.Client
	modelID    string
	maxRetries int
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string, maxRetries int, m *metrics.AssistantMetrics, logger *logging.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.0-flash"
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		modelID:    modelID,
		maxRetries: maxRetries,
		metrics:    m,
		logger:     logger,
	}, nil
}

// AnalyzeScan sends the fixed medical-imaging prompt plus the uploaded
// image to Gemini, retrying transient failures.
func (c *GeminiClient) AnalyzeScan(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("assistant: empty scan image")
	}

	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0.2)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(800)

	parts := []genai.Part{
		genai.Text(scanAnalysisPrompt),
		genai.Blob{MIMEType: mimeType, Data: data},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		resp, err := model.GenerateContent(ctx, parts...)
		elapsed := time.Since(start).Seconds()
		if err == nil {
			text, extractErr := extractText(resp)
			if extractErr == nil {
				c.metrics.ObserveLLM("gemini", "ok", elapsed)
				return text, nil
			}
			err = extractErr
		}
		c.metrics.ObserveLLM("gemini", "error", elapsed)
		lastErr = err
		c.logger.Warn("gemini scan analysis failed", "attempt", attempt, "error", err)

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
	return "", fmt.Errorf("assistant: gemini scan analysis failed after %d attempts: %w", c.maxRetries, lastErr)
}

// Complete implements ChatClient for the text-chat fallback path.
func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("assistant: gemini requires at least one message")
	}

	model := c.client.GenerativeModel(c.modelID)
	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.TopP > 0 {
		model.SetTopP(req.TopP)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	if len(req.System) > 0 {
		systemText := strings.Join(req.System, "\n\n")
		if strings.TrimSpace(systemText) != "" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
		}
	}

	cs := model.StartChat()
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == RoleSystem {
			continue
		}
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	start := time.Now()
	resp, err := cs.SendMessage(ctx, genai.Text(req.Messages[len(req.Messages)-1].Content))
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.metrics.ObserveLLM("gemini", "error", elapsed)
		return "", fmt.Errorf("assistant: gemini completion failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		c.metrics.ObserveLLM("gemini", "error", elapsed)
		return "", err
	}
	c.metrics.ObserveLLM("gemini", "ok", elapsed)
	return text, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("assistant: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("assistant: gemini returned empty content")
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	result := strings.TrimSpace(out.String())
	if result == "" {
		return "", errors.New("assistant: gemini returned empty text")
	}
	return result, nil
}
