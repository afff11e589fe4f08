package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

// ChatGPTClient implements ports.Classifier backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Classifier = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatGPTClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Category returns the category label or "None".
func (c *ChatGPTClient) Category(ctx context.Context, sentence string) (string, error) {
	var out struct {
		Category string `json:"category"`
	}
	if err := c.complete(ctx, categoryPrompt, sentence, &out); err != nil {
		return "", fmt.Errorf("category: %w", err)
	}
	return strings.TrimSpace(out.Category), nil
}

// Keywords returns the nouns extracted from the sentence.
func (c *ChatGPTClient) Keywords(ctx context.Context, sentence string) ([]string, error) {
	var out struct {
		Keywords []string `json:"keywords"`
	}
	if err := c.complete(ctx, keywordPrompt, sentence, &out); err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}
	return out.Keywords, nil
}

// Sentiment returns the polarity of the sentence.
func (c *ChatGPTClient) Sentiment(ctx context.Context, sentence string) (domain.Sentiment, error) {
	var out struct {
		Sentiment string `json:"sentiment"`
	}
	if err := c.complete(ctx, sentimentPrompt, sentence, &out); err != nil {
		return "", fmt.Errorf("sentiment: %w", err)
	}
	return domain.ParseSentiment(out.Sentiment)
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatGPTClient) complete(ctx context.Context, prompt, sentence string, v any) error {
	if c == nil {
		return fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
			{"role": "user", "content": flatten(sentence)},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return fmt.Errorf("chatgpt returned no choices")
	}

	return decodeInto(completion.Choices[0].Message.Content, v)
}

func decodeInto(content string, v any) error {
	raw, err := parseJSON[json.RawMessage](content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return nil
}

// flatten collapses line breaks so the sentence stays on one prompt line.
func flatten(sentence string) string {
	return strings.Join(strings.Fields(sentence), " ")
}
