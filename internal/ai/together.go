package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"multivector-rag/internal/config"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// TogetherClient calls the Together AI chat completions API. Calls are paced
// by a fixed-interval limiter (one request per configured delay) and guarded
// by a circuit breaker so a flapping upstream does not burn the whole quota.
type TogetherClient struct {
	apiKey      string
	apiURL      string
	textModel   string
	visionModel string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewTogetherClient(cfg *config.Config) *TogetherClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TogetherAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	delay := time.Duration(cfg.SummaryDelayMS) * time.Millisecond
	// rate.Every(delay) with burst 1 is a blocking fixed inter-call sleep
	rateLimiter := rate.NewLimiter(rate.Every(delay), 1)

	return &TogetherClient{
		apiKey:      cfg.TogetherAPIKey,
		apiURL:      cfg.TogetherAPIURL,
		textModel:   cfg.TogetherTextModel,
		visionModel: cfg.TogetherVisionModel,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []contentPart for vision prompts
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a plain text prompt to the configured text model.
func (tc *TogetherClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.chat(ctx, tc.textModel, []chatMessage{
		{Role: "user", Content: prompt},
	})
}

// DescribeImage sends a vision prompt with a base64 JPEG payload to the
// configured vision model.
func (tc *TogetherClient) DescribeImage(ctx context.Context, prompt, imageB64 string) (string, error) {
	return tc.chat(ctx, tc.visionModel, []chatMessage{
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + imageB64}},
		}},
	})
}

func (tc *TogetherClient) chat(ctx context.Context, model string, messages []chatMessage) (string, error) {
	tracer := otel.Tracer("together-client")
	ctx, span := tracer.Start(ctx, "together.chat_completion")
	defer span.End()

	span.SetAttributes(
		attribute.String("together.model", model),
		attribute.Int("together.messages", len(messages)),
	)

	// Rate limiter wait
	if err := tc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("together.rate_limited", true))
		return "", err
	}

	result, err := tc.breaker.Execute(func() (interface{}, error) {
		return tc.doRequest(ctx, chatRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   2048,
			Temperature: 0.7,
		})
	})
	if err != nil {
		span.SetAttributes(
			attribute.Bool("together.error", true),
			attribute.String("together.error_message", err.Error()),
		)
		return "", err
	}

	span.SetAttributes(attribute.Bool("together.success", true))
	return result.(string), nil
}

func (tc *TogetherClient) doRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tc.apiKey)

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("together request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	// Decode into the expected shape and validate at the boundary; dynamic
	// payloads never travel further into the pipeline.
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("together API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("together API returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("together API returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("together API returned an empty message")
	}

	return content, nil
}
