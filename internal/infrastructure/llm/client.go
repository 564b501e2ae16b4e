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

	"NewsRefinery/internal/config"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

const defaultTimeout = 60 * time.Second

// Client rewrites news items through an OpenAI-compatible chat-completions
// API. Both the xAI and OpenAI providers are served by this one type.
type Client struct {
	provider     string
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	creds        ports.CredentialSource
	httpClient   *http.Client
}

var _ ports.Rewriter = (*Client)(nil)

// NewClient builds a provider client from configuration. creds is optional;
// when present it supplies the admin-stored API key if the config key is empty.
func NewClient(cfg config.ProviderConfig, timeout time.Duration, creds ports.CredentialSource) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		provider:     cfg.Name,
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		creds:        creds,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Provider returns the configured provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Rewrite sends the item to the provider and parses the rewritten article.
func (c *Client) Rewrite(ctx context.Context, item domain.RawNews) (domain.Rewrite, error) {
	if c.endpoint == "" || c.model == "" {
		return domain.Rewrite{}, fmt.Errorf("%s client misconfigured", c.provider)
	}

	apiKey, err := c.resolveKey(ctx)
	if err != nil {
		return domain.Rewrite{}, err
	}
	if apiKey == "" {
		return domain.Rewrite{}, fmt.Errorf("%s api key is not configured", c.provider)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildUserPrompt(item)},
		},
	})
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Rewrite{}, fmt.Errorf("%s error %s: %s", c.provider, resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Rewrite{}, fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	if len(completion.Choices) == 0 {
		return domain.Rewrite{}, fmt.Errorf("%s returned no choices", c.provider)
	}

	rewrite, err := parseRewrite(completion.Choices[0].Message.Content)
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("%s: %w", c.provider, err)
	}
	return rewrite, nil
}

func (c *Client) resolveKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	if c.creds == nil {
		return "", nil
	}

	key, err := c.creds.APIKey(ctx, c.provider)
	if err != nil {
		return "", fmt.Errorf("load %s api key: %w", c.provider, err)
	}
	return key, nil
}

func buildUserPrompt(item domain.RawNews) string {
	payload, _ := json.Marshal(map[string]string{
		"title":       item.Title,
		"source":      item.Source,
		"url":         item.URL,
		"publishedAt": item.PublishedAt.Format(time.RFC3339),
		"category":    item.Category,
		"country":     item.Country,
	})
	return string(payload)
}

// parseRewrite extracts the JSON article from the model output, tolerating
// markdown code fences around it.
func parseRewrite(content string) (domain.Rewrite, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var rewrite domain.Rewrite
	if err := json.Unmarshal([]byte(content), &rewrite); err != nil {
		return domain.Rewrite{}, fmt.Errorf("parse rewrite payload: %w", err)
	}

	if rewrite.Title == "" || rewrite.Body == "" {
		return domain.Rewrite{}, fmt.Errorf("rewrite payload missing title or body")
	}
	if rewrite.Difficulty < 1 || rewrite.Difficulty > 5 {
		rewrite.Difficulty = 3
	}
	return rewrite, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You rewrite news articles as simple, friendly explanations. " +
			"Respond with a JSON object containing title, summary, body and difficulty (1-5)."
	}
	return prompt
}
