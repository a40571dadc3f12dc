package service

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

// ErrLLMUnavailable is returned when no API key is configured.
var ErrLLMUnavailable = errors.New("assistant model not configured")

const (
	llmModel = "llama-3.3-70b-versatile"

	// assistantSystemPrompt keeps answers short and on the farming
	// domain; the assistant always receives and produces English,
	// translation happens around the call.
	assistantSystemPrompt = "You are KrishiBandhu, a helpful assistant for Indian farmers. " +
		"Answer briefly and practically about crops, irrigation, soil, weather and plant diseases. " +
		"If weather data is provided, use it."
)

// LLMClient calls the Groq OpenAI-compatible chat completions API.
type LLMClient struct {
	APIKey  string
	BaseURL string
	Model   string
	HTTP    *http.Client
}

func NewLLMClient(apiKey string) *LLMClient {
	return &LLMClient{
		APIKey:  apiKey,
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   llmModel,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Ask sends the user prompt (optionally with extra context such as
// current weather) and returns the assistant's reply.
func (l *LLMClient) Ask(ctx context.Context, prompt, extraContext string) (string, error) {
	msgs := []chatMessage{{Role: "system", Content: assistantSystemPrompt}}
	if extraContext != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: extraContext})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})
	return l.complete(ctx, msgs)
}

// complete runs one chat completion round-trip.
func (l *LLMClient) complete(ctx context.Context, msgs []chatMessage) (string, error) {
	if l.APIKey == "" {
		return "", ErrLLMUnavailable
	}

	payload, err := json.Marshal(map[string]any{
		"model":    l.Model,
		"messages": msgs,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.APIKey)

	res, err := l.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("call llm: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("llm status %d: %s", res.StatusCode, b)
	}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
