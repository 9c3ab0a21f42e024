package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// AIProvider is the interface for generative text providers
type AIProvider interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
	GetProviderName() string
}

// GenerationErrorKind distinguishes the failures callers report differently.
type GenerationErrorKind string

const (
	GenerationRateLimited GenerationErrorKind = "rate_limited"
	GenerationOverloaded  GenerationErrorKind = "overloaded"
	GenerationUpstream    GenerationErrorKind = "upstream"
)

// GenerationError is returned once a provider call has failed for good,
// either on a non-retryable status or after the last attempt.
type GenerationError struct {
	Kind     GenerationErrorKind
	Provider string
	Status   int // 0 for transport failures
	Detail   string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("Error from %s after %d attempt(s)", e.Provider, e.Attempts)
	if e.Status != 0 {
		msg = fmt.Sprintf("Error %d from %s after %d attempt(s)", e.Status, e.Provider, e.Attempts)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationKind(status int) GenerationErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return GenerationRateLimited
	case http.StatusServiceUnavailable:
		return GenerationOverloaded
	default:
		return GenerationUpstream
	}
}

// RetryPolicy bounds provider retries. Delay before retry n (0-based) is
// 2^n * BaseDelay plus a random jitter in [0, MaxJitter), rounded to the ms.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxJitter:   500 * time.Millisecond,
	}
}

func (p RetryPolicy) Delay(retry int, jitter time.Duration) time.Duration {
	d := math.Pow(2, float64(retry))*float64(p.BaseDelay) + float64(jitter)
	return time.Duration(math.Round(d/float64(time.Millisecond))) * time.Millisecond
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// ProviderConfig selects and configures an AIProvider.
type ProviderConfig struct {
	Provider   string // gemini, openai, anthropic
	APIKey     string
	Model      string
	Endpoint   string // overrides the provider's base URL
	Policy     RetryPolicy
	HTTPClient *http.Client
}

func NewAIProvider(cfg ProviderConfig) AIProvider {
	client := retryingClient{
		http:   cfg.HTTPClient,
		policy: cfg.Policy,
		sleep:  sleepContext,
		jitter: randomJitter,
	}
	if client.http == nil {
		client.http = &http.Client{}
	}
	if client.policy.MaxAttempts < 1 {
		client.policy = DefaultRetryPolicy()
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return &OpenAIProvider{APIKey: cfg.APIKey, Model: cfg.Model, Endpoint: orDefault(cfg.Endpoint, "https://api.openai.com/v1/chat/completions"), client: client}
	case "anthropic":
		return &AnthropicProvider{APIKey: cfg.APIKey, Model: cfg.Model, Endpoint: orDefault(cfg.Endpoint, "https://api.anthropic.com/v1/messages"), client: client}
	default:
		return &GeminiProvider{APIKey: cfg.APIKey, Model: cfg.Model, Endpoint: orDefault(cfg.Endpoint, "https://generativelanguage.googleapis.com/v1beta/models"), client: client}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// retryingClient posts JSON and retries transient failures serially.
type retryingClient struct {
	http   *http.Client
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

func (c retryingClient) postJSON(ctx context.Context, provider, endpoint string, headers map[string]string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var (
		lastStatus int
		lastDetail string
		lastErr    error
		attempts   int
	)
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.policy.Delay(attempt-1, c.jitter(c.policy.MaxJitter))
			log.Warn().
				Str("provider", provider).
				Int("attempt", attempt+1).
				Int("status", lastStatus).
				Dur("delay", delay).
				Msg("Retrying generation request")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, &GenerationError{Kind: GenerationUpstream, Provider: provider, Status: lastStatus, Attempts: attempt, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, &GenerationError{Kind: GenerationUpstream, Provider: provider, Attempts: attempt + 1, Err: fmt.Errorf("failed to create request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		attempts = attempt + 1
		resp, err := c.http.Do(req)
		if err != nil {
			lastStatus, lastDetail, lastErr = 0, "", fmt.Errorf("failed to send request: %w", redactURLError(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastStatus, lastDetail, lastErr = 0, "", fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastStatus, lastDetail, lastErr = resp.StatusCode, errorDetail(body), nil
		if !retryableStatus(resp.StatusCode) {
			return nil, &GenerationError{Kind: generationKind(lastStatus), Provider: provider, Status: lastStatus, Detail: lastDetail, Attempts: attempt + 1}
		}
	}

	return nil, &GenerationError{
		Kind:     generationKind(lastStatus),
		Provider: provider,
		Status:   lastStatus,
		Detail:   lastDetail,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// errorDetail pulls error.message out of a JSON error body, falling back to a
// truncated copy of the raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}

// redactURLError drops the request URL, which carries the Gemini API key.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// GeminiProvider implements the Gemini generateContent API
type GeminiProvider struct {
	APIKey   string
	Model    string
	Endpoint string
	client   retryingClient
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

func (g *GeminiProvider) GetProviderName() string {
	return "gemini"
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", strings.TrimSuffix(g.Endpoint, "/"), g.Model, url.QueryEscape(g.APIKey))

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}

	body, err := g.client.postJSON(ctx, g.GetProviderName(), endpoint, nil, reqBody)
	if err != nil {
		return "", err
	}

	var result struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: g.GetProviderName(), Attempts: 1, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(result.Candidates) == 0 {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: g.GetProviderName(), Attempts: 1, Detail: "no candidates in response"}
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// OpenAIProvider implements OpenAI chat completions
type OpenAIProvider struct {
	APIKey   string
	Model    string
	Endpoint string
	client   retryingClient
}

func (o *OpenAIProvider) GetProviderName() string {
	return "openai"
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	reqBody := map[string]interface{}{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemInstruction},
			{"role": "user", "content": prompt},
		},
		"max_tokens": 4096,
		"response_format": map[string]string{
			"type": "json_object",
		},
	}
	headers := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", o.APIKey)}

	body, err := o.client.postJSON(ctx, o.GetProviderName(), o.Endpoint, headers, reqBody)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: o.GetProviderName(), Attempts: 1, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: o.GetProviderName(), Attempts: 1, Detail: "no choices in response"}
	}
	return result.Choices[0].Message.Content, nil
}

// AnthropicProvider implements Claude messages
type AnthropicProvider struct {
	APIKey   string
	Model    string
	Endpoint string
	client   retryingClient
}

func (a *AnthropicProvider) GetProviderName() string {
	return "anthropic"
}

func (a *AnthropicProvider) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      a.Model,
		"max_tokens": 4096,
		"system":     systemInstruction,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": "2023-06-01",
	}

	body, err := a.client.postJSON(ctx, a.GetProviderName(), a.Endpoint, headers, reqBody)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: a.GetProviderName(), Attempts: 1, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(result.Content) == 0 {
		return "", &GenerationError{Kind: GenerationUpstream, Provider: a.GetProviderName(), Attempts: 1, Detail: "no content in response"}
	}
	return result.Content[0].Text, nil
}
