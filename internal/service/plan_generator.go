package service

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

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-1.5-flash"

	geminiAPIKeyHeader = "x-goog-api-key"
	geminiTimeout      = 90 * time.Second

	// A full 4096-token answer is well under this
	maxGeminiResponseBytes = 2 << 20
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiPlanGenerator implements domain.PlanGenerator against a Gemini-compatible
// generateContent endpoint
type GeminiPlanGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	archive    domain.PlanArchive // optional
	log        *logrus.Entry
}

// NewGeminiPlanGenerator creates a generator. archive may be nil.
func NewGeminiPlanGenerator(baseURL, apiKey, model string, archive domain.PlanArchive, logger *logrus.Logger) *GeminiPlanGenerator {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiPlanGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: geminiTimeout},
		archive:    archive,
		log:        logger.WithField("component", "plan_generator"),
	}
}

// Generate asks the model for a plan and parses the answer. Single attempt, nothing is persisted.
func (g *GeminiPlanGenerator) Generate(ctx context.Context, profile *domain.FitnessProfile) (*domain.WorkoutPlan, error) {
	ctx, span := otel.Tracer("metafit-generator").Start(ctx, "PlanGenerator.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", g.model))

	text, err := g.complete(ctx, FormatPlanPrompt(profile))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("gemini.response_bytes", len(text)))

	plan, parseErr := ParsePlan(text)
	g.archiveRaw(ctx, profile, text, parseErr)
	if parseErr != nil {
		span.RecordError(parseErr)
		span.SetStatus(codes.Error, "malformed plan")
		g.log.WithError(parseErr).Warn("generated plan rejected")
		return nil, parseErr
	}

	span.SetAttributes(attribute.Int("plan.workouts", len(plan.Workouts)))
	return plan, nil
}

// complete sends one generateContent call and returns the first candidate's text
func (g *GeminiPlanGenerator) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.4,
			TopK:            32,
			TopP:            0.95,
			MaxOutputTokens: 4096,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(geminiAPIKeyHeader, g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: failed to send request: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeminiResponseBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", domain.ErrServiceUnavailable, err)
	}
	if len(body) > maxGeminiResponseBytes {
		return "", fmt.Errorf("%w: response larger than %d bytes", domain.ErrServiceUnavailable, maxGeminiResponseBytes)
	}

	g.log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("gemini call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: gemini api error (status %d): %s", domain.ErrServiceUnavailable, resp.StatusCode, truncate(string(body), 512))
	}

	var apiResponse geminiResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", domain.ErrServiceUnavailable, err)
	}
	if apiResponse.Error != nil {
		return "", fmt.Errorf("%w: gemini error: %s (code: %d)", domain.ErrServiceUnavailable, apiResponse.Error.Message, apiResponse.Error.Code)
	}
	if len(apiResponse.Candidates) == 0 || len(apiResponse.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response from AI model", domain.ErrServiceUnavailable)
	}

	return apiResponse.Candidates[0].Content.Parts[0].Text, nil
}

// archiveRaw stores the raw text for auditing. Failures are logged, never returned.
func (g *GeminiPlanGenerator) archiveRaw(ctx context.Context, profile *domain.FitnessProfile, text string, parseErr error) {
	if g.archive == nil {
		return
	}

	userID := "anonymous"
	if profile != nil && profile.UserID != "" {
		userID = profile.UserID
	}
	status := "accepted"
	if parseErr != nil {
		status = "rejected"
	}
	key := fmt.Sprintf("plan-responses/%s/%s/%s.txt", status, userID, newID())

	if err := g.archive.StoreRawResponse(ctx, key, []byte(text)); err != nil {
		g.log.WithError(err).WithField("key", key).Warn("failed to archive raw plan response")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
