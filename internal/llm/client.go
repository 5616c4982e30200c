// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/xuzhougeng/sgpt-go/internal/config"
)

// sharedStreamingClient is used for all requests. No client-level timeout:
// streams are long-lived and bounded by the request context instead.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client talks to one OpenAI-compatible completion endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	topP        float64
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewClient builds a client from explicit parameters.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: 0,
		topP:        1,
		limiter:     rate.NewLimiter(rate.Inf, 1),
	}
}

// NewClientFromConfig builds a client from the loaded configuration.
func NewClientFromConfig(cfg *config.Config) *Client {
	c := NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.API.Model)
	c.temperature = cfg.API.Temperature
	c.topP = cfg.API.TopP
	if cfg.API.RequestTimeoutSecs > 0 {
		c.timeout = time.Duration(cfg.API.RequestTimeoutSecs) * time.Second
	}
	if cfg.API.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), 1)
	}
	return c
}

// Model returns the default model requests use when Options.Model is empty.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// buildRequest assembles the wire request for the given messages/options.
func (c *Client) buildRequest(messages []Message, opts Options, stream bool) chatRequest {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	temp := opts.Temperature
	if temp == nil {
		t := c.temperature
		temp = &t
	}
	topP := opts.TopP
	if topP == nil {
		p := c.topP
		topP = &p
	}
	return chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temp,
		TopP:        topP,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

// do sends one request, applying the rate limiter and per-request timeout.
// The returned cancel func must be called once the body is consumed.
func (c *Client) do(ctx context.Context, body chatRequest) (*http.Response, context.CancelFunc, error) {
	if !c.IsConfigured() {
		return nil, nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		defer cancel()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, nil, c.handleErrorResponse(resp, respBody)
	}
	return resp, cancel, nil
}

// Complete performs a non-streaming completion and returns the full
// assistant message content. Used by the cacheable one-shot path.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, cancel, err := c.do(ctx, c.buildRequest(messages, opts, false))
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty response: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// handleErrorResponse converts HTTP error responses to typed errors.
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	status := resp.StatusCode

	var apiErr apiErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
		}
		return ErrAuthFailed
	case http.StatusNotFound:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrModelNotFound, msg)
		}
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
	}
	return &APIError{Status: status, Message: msg}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
