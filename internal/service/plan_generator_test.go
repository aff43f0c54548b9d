package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiBody(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func TestGeminiPlanGenerator_Generate(t *testing.T) {
	var gotReq geminiRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiBody("```json\n"+validPlanJSON+"\n```"))
	}))
	defer srv.Close()

	archive := &memArchive{}
	gen := NewGeminiPlanGenerator(srv.URL+"/", "secret-key", "gemini-test", archive, newTestLogger())

	plan, err := gen.Generate(context.Background(), &domain.FitnessProfile{UserID: "user-1", WorkoutFrequency: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, plan.Workouts, 2)

	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "- Workout Frequency: 2 times per week")
	assert.Equal(t, 0.4, gotReq.GenerationConfig.Temperature)
	assert.Equal(t, 32, gotReq.GenerationConfig.TopK)
	assert.Equal(t, 0.95, gotReq.GenerationConfig.TopP)
	assert.Equal(t, 4096, gotReq.GenerationConfig.MaxOutputTokens)

	keys := archive.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "plan-responses/accepted/user-1/"))
}

func TestGeminiPlanGenerator_ServiceUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-2xx status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}},
		{"provider error body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates": []}`)
		}},
		{"candidate without parts", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates": [{"content": {"parts": []}}]}`)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>bad gateway</html>`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			archive := &memArchive{}
			gen := NewGeminiPlanGenerator(srv.URL, "k", "m", archive, newTestLogger())
			plan, err := gen.Generate(context.Background(), &domain.FitnessProfile{})
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
			assert.Empty(t, archive.keys(), "nothing to archive without a response text")
		})
	}
}

func TestGeminiPlanGenerator_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiBody(validPlanJSON+strings.Repeat(" ", maxGeminiResponseBytes)))
	}))
	defer srv.Close()

	archive := &memArchive{}
	gen := NewGeminiPlanGenerator(srv.URL, "k", "m", archive, newTestLogger())
	plan, err := gen.Generate(context.Background(), &domain.FitnessProfile{})
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "response larger than")
	assert.Empty(t, archive.keys())
}

func TestGeminiPlanGenerator_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gen := NewGeminiPlanGenerator(url, "k", "m", nil, newTestLogger())
	_, err := gen.Generate(context.Background(), &domain.FitnessProfile{})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestGeminiPlanGenerator_MalformedPlanIsArchived(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, geminiBody(`{"title": "Only a title"}`))
	}))
	defer srv.Close()

	archive := &memArchive{}
	gen := NewGeminiPlanGenerator(srv.URL, "k", "m", archive, newTestLogger())
	_, err := gen.Generate(context.Background(), &domain.FitnessProfile{UserID: "user-9"})
	require.ErrorIs(t, err, domain.ErrMalformedPlan)
	assert.False(t, errors.Is(err, domain.ErrServiceUnavailable))

	keys := archive.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "plan-responses/rejected/user-9/"))
}

func TestGeminiPlanGenerator_ArchiveFailureDoesNotFailGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, geminiBody(validPlanJSON))
	}))
	defer srv.Close()

	gen := NewGeminiPlanGenerator(srv.URL, "k", "m", &memArchive{err: errors.New("bucket gone")}, newTestLogger())
	plan, err := gen.Generate(context.Background(), &domain.FitnessProfile{})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
}

func TestGeminiPlanGenerator_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGeminiPlanGenerator(srv.URL, "k", "m", nil, newTestLogger())
	_, err := gen.Generate(ctx, &domain.FitnessProfile{})
	assert.ErrorIs(t, err, context.Canceled)
}
