// Package llm is a minimal OpenAI-compatible chat completions client.
// It keeps a pooled HTTP transport and retries transient network
// failures with increasing backoff.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
	defaultTimeout = 120 * time.Second

	maxRetries = 5
)

// backoff schedule between retry attempts
var retryWaits = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}

type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	httpClient *http.Client
}

func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Timeout: defaultTimeout,
	}
}

// Chat sends a system + user prompt pair and returns the assistant
// message content. Transient network errors are retried.
func (c *Client) Chat(systemPrompt, userPrompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("API key not set")
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("⚠ LLM call failed, retrying (%d/%d)...", attempt, maxRetries)
		}

		result, err := c.chatOnce(systemPrompt, userPrompt)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}

		if attempt < maxRetries {
			wait := retryWaits[len(retryWaits)-1]
			if attempt-1 < len(retryWaits) {
				wait = retryWaits[attempt-1]
			}
			time.Sleep(wait)
		}
	}

	return "", fmt.Errorf("giving up after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) chatOnce(systemPrompt, userPrompt string) (string, error) {
	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	requestBody := map[string]interface{}{
		"model":       c.Model,
		"messages":    messages,
		"temperature": 0.5,
		"max_tokens":  4000,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.BaseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	if c.httpClient == nil {
		transport := &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		timeout := c.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

func isRetryableError(err error) bool {
	errStr := err.Error()
	retryable := []string{
		"EOF",
		"timeout",
		"connection reset",
		"connection refused",
		"forcibly closed",
		"temporary failure",
		"no such host",
		"broken pipe",
		"network is unreachable",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
	}
	for _, s := range retryable {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
