package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const generateContentURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

// apiRequest is the generateContent request body.
type apiRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
	Index        int     `json:"index"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Client calls the Gemini generateContent API over plain HTTP.
type Client struct {
	logger *zap.Logger
	apiKey string
	client *http.Client
	tracer trace.Tracer
}

func NewClient(logger *zap.Logger, apiKey string) *Client {
	return &Client{
		logger: logger,
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
		tracer: otel.Tracer("ai/client"),
	}
}

// Generate sends a single-turn prompt and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	traceCtx, span := c.tracer.Start(ctx, "Generate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, c.logger)

	if c.apiKey == "" {
		err := fmt.Errorf("gemini API key is not configured")
		logger.Error("gemini API key is missing", zap.Error(err))
		span.RecordError(err)
		return "", err
	}

	reqBody, err := json.Marshal(apiRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", generateContentURL, c.apiKey)
	httpReq, err := http.NewRequestWithContext(traceCtx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		logger.Error("failed to send request to Gemini API", zap.Error(err))
		span.RecordError(err)
		return "", fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Gemini API returned status %d: %s", resp.StatusCode, string(body))
		logger.Error("Gemini API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		span.RecordError(err)
		return "", err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		logger.Error("failed to unmarshal response", zap.Error(err))
		span.RecordError(err)
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.PromptFeedback != nil && apiResp.PromptFeedback.BlockReason != "" {
		err := fmt.Errorf("prompt was blocked: %s", apiResp.PromptFeedback.BlockReason)
		logger.Error("prompt was blocked", zap.String("reason", apiResp.PromptFeedback.BlockReason))
		span.RecordError(err)
		return "", err
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}

	if apiResp.UsageMetadata != nil {
		logger.Debug("Gemini token usage",
			zap.Int("prompt_tokens", apiResp.UsageMetadata.PromptTokenCount),
			zap.Int("total_tokens", apiResp.UsageMetadata.TotalTokenCount))
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}
