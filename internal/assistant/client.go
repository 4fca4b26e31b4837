// Package assistant talks to an OpenAI-compatible chat completion endpoint
// (Groq by default) and exposes the reply as a stream of text chunks.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
)

var (
	ErrNotConfigured = errors.New("assistant api key is not configured")
	ErrEmptyHistory  = errors.New("conversation history is empty")
)

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config selects the model endpoint and sampling settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client sends conversations to the chat endpoint.
type Client struct {
	cfg    Config
	client *upstream.Client
}

func NewClient(client *upstream.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, client: client}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// SendChat starts a streamed completion for history, prefixed by the system
// prompt for loc. The caller must Close the returned stream.
func (c *Client) SendChat(ctx context.Context, history []Message, loc *geo.Location) (*Stream, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: SystemPrompt(loc)})
	messages = append(messages, history...)

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("start chat completion: %w", err)
	}

	return newStream(resp.Body), nil
}
