// Package planner generates diet and medication plan text for a diagnosis
// using a generative language model API, then sanitizes the markdown-ish
// output into simple HTML fragments for storage alongside the report.
package planner

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
)

// Plan kinds.
const (
	KindDiet       = "diet"
	KindMedication = "medication"
)

// ErrUnavailable indicates the plan service could not produce text.
// Handlers map it to 502.
var ErrUnavailable = errors.New("plan service unavailable")

// Planner produces sanitized plan text for a diagnosis.
type Planner interface {
	Generate(ctx context.Context, kind, diagnosis string) (string, error)
}

// GeminiPlanner calls the Gemini generateContent REST endpoint.
type GeminiPlanner struct {
	url    string
	apiKey string
	client *http.Client
}

// NewGeminiPlanner creates a planner for the given generateContent URL and
// API key. The timeout bounds each HTTP attempt.
func NewGeminiPlanner(url, apiKey string, timeout time.Duration) *GeminiPlanner {
	return &GeminiPlanner{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks the model for a plan of the given kind and returns the
// sanitized HTML fragment. One retry is attempted on transient failures
// before giving up.
func (p *GeminiPlanner) Generate(ctx context.Context, kind, diagnosis string) (string, error) {
	prompt := fmt.Sprintf("Generate a %s plan for a patient diagnosed with %s.", kind, diagnosis)

	text, err := p.generateText(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		text, err = p.generateText(ctx, prompt)
	}
	if err != nil {
		return "", err
	}

	return Sanitize(text), nil
}

func (p *GeminiPlanner) generateText(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	var sb strings.Builder
	for _, pt := range out.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
