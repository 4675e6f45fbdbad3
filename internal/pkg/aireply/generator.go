package aireply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/internal/pkg/env"
)

const (
	defaultCompletionsURL = "https://api.openai.com/v1/chat/completions"
	defaultModel          = "gpt-4o-mini"
)

// personalityPrompts defines the system prompt for each reply personality.
var personalityPrompts = map[string]string{
	models.PersonalityFriendlyProfessional: "You are a friendly and professional Twitter user. Respond with helpful, engaging content that adds value to the conversation.",
	models.PersonalitySupportive:           "You are supportive and encouraging. Respond with empathy and positivity, offering help or encouragement.",
	models.PersonalityThoughtful:           "You are thoughtful and analytical. Provide insightful responses that demonstrate deep thinking and consideration.",
	models.PersonalityDiplomatic:           "You are diplomatic and balanced. Respond with measured, fair perspectives that acknowledge different viewpoints.",
	models.PersonalityHelpful:              "You are extremely helpful and solution-oriented. Focus on providing practical advice or resources.",
}

// Reply is a generated reply plus its sentiment classification.
type Reply struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
}

// Generator produces AI replies via the completions endpoint.
type Generator struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

// NewGenerator reads the API key from the environment; a missing key surfaces
// as an error on the first Generate call, not at construction.
func NewGenerator() *Generator {
	return &Generator{
		apiKey:     env.GetEnv("OPENAI_API_KEY", ""),
		url:        defaultCompletionsURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGeneratorWithEndpoint is used by tests to target a fake server.
func NewGeneratorWithEndpoint(apiKey, url string) *Generator {
	return &Generator{
		apiKey:     apiKey,
		url:        url,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate produces a reply to the given tweet in the configured personality
// and classifies the original tweet's sentiment.
func (g *Generator) Generate(ctx context.Context, tweetText, authorName, personality string) (*Reply, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	systemPrompt, ok := personalityPrompts[personality]
	if !ok {
		systemPrompt = personalityPrompts[models.PersonalityFriendlyProfessional]
	}

	text, err := g.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt + " Keep responses under 280 characters for Twitter. Be authentic and engaging. Do not use hashtags unless absolutely necessary."},
		{Role: "user", Content: fmt.Sprintf("Generate a reply to this tweet by @%s: %q", authorName, tweetText)},
	}, 100, 0.7)
	if err != nil {
		return nil, err
	}

	sentiment, err := g.classifySentiment(ctx, tweetText)
	if err != nil {
		// A reply without a sentiment label is still usable.
		sentiment = models.SENTIMENT_NEUTRAL
	}

	return &Reply{Text: text, Sentiment: sentiment}, nil
}

// classifySentiment labels the tweet as positive, negative, neutral or question.
func (g *Generator) classifySentiment(ctx context.Context, tweetText string) (string, error) {
	label, err := g.complete(ctx, []chatMessage{
		{Role: "system", Content: "Classify the sentiment of the tweet. Answer with exactly one word: positive, negative, neutral or question."},
		{Role: "user", Content: tweetText},
	}, 5, 0)
	if err != nil {
		return "", err
	}

	switch label = strings.ToLower(strings.TrimSpace(label)); label {
	case models.SENTIMENT_POSITIVE, models.SENTIMENT_NEGATIVE, models.SENTIMENT_NEUTRAL, models.SENTIMENT_QUESTION:
		return label, nil
	}
	return models.SENTIMENT_NEUTRAL, nil
}

func (g *Generator) complete(ctx context.Context, messages []chatMessage, maxTokens int, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to completions API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completions API error: %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("invalid completions response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completions response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
