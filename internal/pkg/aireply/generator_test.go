package aireply

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replybot-ai/replybot/app/models"
)

func TestGenerate(t *testing.T) {
	var requests []chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		content := "Thanks for sharing, that is a great point!"
		if strings.Contains(req.Messages[0].Content, "Classify the sentiment") {
			content = "question"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	defer server.Close()

	gen := NewGeneratorWithEndpoint("test-key", server.URL)
	reply, err := gen.Generate(context.Background(), "How does this work?", "alice", models.PersonalitySupportive)
	require.NoError(t, err)

	assert.Equal(t, "Thanks for sharing, that is a great point!", reply.Text)
	assert.Equal(t, models.SENTIMENT_QUESTION, reply.Sentiment)

	require.Len(t, requests, 2)
	assert.Contains(t, requests[0].Messages[0].Content, "supportive")
	assert.Contains(t, requests[0].Messages[1].Content, "@alice")
}

func TestGenerateUnknownPersonalityFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !strings.Contains(req.Messages[0].Content, "Classify the sentiment") {
			assert.Contains(t, req.Messages[0].Content, "friendly and professional")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "neutral"}},
			},
		})
	}))
	defer server.Close()

	gen := NewGeneratorWithEndpoint("test-key", server.URL)
	reply, err := gen.Generate(context.Background(), "hello", "bob", "does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, models.SENTIMENT_NEUTRAL, reply.Sentiment)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	gen := NewGeneratorWithEndpoint("", "http://localhost:1")
	_, err := gen.Generate(context.Background(), "hello", "bob", models.PersonalityHelpful)
	assert.Error(t, err)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	gen := NewGeneratorWithEndpoint("test-key", server.URL)
	_, err := gen.Generate(context.Background(), "hello", "bob", models.PersonalityHelpful)
	assert.Error(t, err)
}
