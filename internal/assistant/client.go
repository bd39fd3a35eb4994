// Package assistant forwards chat prompts to an OpenAI-compatible
// chat-completions endpoint using the server's API key.
package assistant

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

var (
	ErrNotConfigured = errors.New("assistant not configured")
	ErrUpstream      = errors.New("assistant upstream error")
	ErrEmptyPrompt   = errors.New("at least one message is required")
	ErrInvalidRole   = errors.New("message role must be system, user or assistant")
)

const maxMessages = 50

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Reply struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the conversation and returns the first choice.
func (c *Client) Chat(ctx context.Context, msgs []Message, model string) (*Reply, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	msgs, err := sanitize(msgs)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(completionRequest{Model: model, Messages: msgs})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	var out completionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Status
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, decodeErr)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUpstream)
	}

	if out.Model == "" {
		out.Model = model
	}
	return &Reply{Reply: out.Choices[0].Message.Content, Model: out.Model, Usage: out.Usage}, nil
}

func sanitize(msgs []Message) ([]Message, error) {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		m.Content = strings.TrimSpace(m.Content)
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case "system", "user", "assistant":
		case "":
			m.Role = "user"
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, ErrEmptyPrompt
	}
	if len(out) > maxMessages {
		out = out[len(out)-maxMessages:]
	}
	return out, nil
}
