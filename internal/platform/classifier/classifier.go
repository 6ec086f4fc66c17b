// Package classifier calls the external heart disease model service. The
// model consumes the 13-value clinical feature vector and answers with a
// binary outcome, which is mapped onto the two diagnosis labels used
// throughout the reports.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Diagnosis labels produced from the model's binary outcome.
const (
	LabelPositive = "Heart Disease Detected"
	LabelNegative = "No Heart Disease"
)

// ErrUnavailable indicates the model service could not be reached or gave an
// unusable answer. Handlers map it to 502.
var ErrUnavailable = errors.New("classifier service unavailable")

// Prediction is the model's answer for one feature vector.
type Prediction struct {
	Outcome   int    `json:"outcome"`
	Diagnosis string `json:"diagnosis"`
}

// Classifier produces a diagnosis from an ordered clinical feature vector.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (*Prediction, error)
}

// HTTPClassifier talks to the model service over HTTP.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier client for the given endpoint URL.
func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type classifyRequest struct {
	Features []float64 `json:"features"`
}

type classifyResponse struct {
	Prediction int `json:"prediction"`
}

// Classify posts the feature vector to the model service. Only outcomes 0
// and 1 are accepted; anything else is treated as a service failure.
func (c *HTTPClassifier) Classify(ctx context.Context, features []float64) (*Prediction, error) {
	payload, err := json.Marshal(classifyRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	diagnosis, err := DiagnosisForOutcome(out.Prediction)
	if err != nil {
		return nil, err
	}
	return &Prediction{Outcome: out.Prediction, Diagnosis: diagnosis}, nil
}

// DiagnosisForOutcome maps the model's binary outcome to a diagnosis label.
func DiagnosisForOutcome(outcome int) (string, error) {
	switch outcome {
	case 0:
		return LabelNegative, nil
	case 1:
		return LabelPositive, nil
	default:
		return "", fmt.Errorf("%w: unexpected outcome %d", ErrUnavailable, outcome)
	}
}
