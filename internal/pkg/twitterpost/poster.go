package twitterpost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/replybot-ai/replybot/internal/pkg/env"
)

const defaultTweetsURL = "https://api.twitter.com/2/tweets"

// Poster publishes reply tweets using OAuth 1.0a signed requests.
type Poster struct {
	signer     *signer
	url        string
	httpClient *http.Client
}

// NewPoster builds a poster for the given user keys. Consumer keys come from
// the environment so they are configured once per deployment.
func NewPoster(accessToken, accessSecret string) *Poster {
	return NewPosterWithEndpoint(OAuth1Credentials{
		ConsumerKey:    env.GetEnv("TWITTER_CONSUMER_KEY", ""),
		ConsumerSecret: env.GetEnv("TWITTER_CONSUMER_SECRET", ""),
		AccessToken:    accessToken,
		AccessSecret:   accessSecret,
	}, defaultTweetsURL)
}

// NewPosterWithEndpoint is used by tests to target a fake server.
func NewPosterWithEndpoint(creds OAuth1Credentials, url string) *Poster {
	return &Poster{
		signer:     newSigner(creds),
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type tweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// PostReply publishes text as a reply to the given tweet and returns the id
// of the created tweet.
func (p *Poster) PostReply(ctx context.Context, inReplyToID, text string) (string, error) {
	if !p.signer.creds.Valid() {
		return "", fmt.Errorf("twitter OAuth 1.0a credentials not configured")
	}
	if inReplyToID == "" || text == "" {
		return "", fmt.Errorf("tweet id and text are required")
	}

	body := tweetRequest{Text: text}
	body.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: inReplyToID}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", p.signer.AuthorizationHeader(http.MethodPost, p.url, nil))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach twitter: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("twitter rejected tweet: %s: %s", resp.Status, detail)
	}

	var parsed tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("invalid twitter response: %v", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("twitter response missing tweet id")
	}
	return parsed.Data.ID, nil
}
