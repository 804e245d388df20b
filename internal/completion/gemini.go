package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls Google's Gemini API through the genai SDK. One SDK
// client is built at construction and shared by every call.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider builds the SDK client authenticated with apiKey. baseURL
// may be empty to use the SDK default. The client outlives any request, so it
// is built on context.Background.
func NewGeminiProvider(apiKey, baseURL string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Complete implements Provider.
func (p *GeminiProvider) Complete(ctx context.Context, model string, req Request) (string, error) {
	res, err := p.client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens: int32(req.MaxTokens),
		},
	)
	if err != nil {
		return "", classifyGemini(err)
	}
	text := res.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// classifyGemini wraps quota errors in ErrRateLimited and keeps the SDK
// message for everything else.
func classifyGemini(err error) error {
	var code int
	var status, msg string

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status, msg = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, status, msg = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	default:
		return err
	}

	if msg == "" {
		msg = err.Error()
	}
	if code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	}
	return errors.New(msg)
}
