package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	chatCompletionsPath = "/chat/completions"
)

// Message is one turn of a conversation sent to the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint
// (DeepSeek by default).
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration

	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chat: base_url required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("chat: model required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
		log:        log.With("component", "chat", "model", model),
	}, nil
}

// NewWithHTTPClient builds a client that sends requests through httpClient.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	c, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

func (c *Client) Model() string { return c.model }

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
	} `json:"choices"`
}

type chatCompletionStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
	} `json:"choices"`
	Error any `json:"error,omitempty"`
}

// StreamResponse streams the answer to messages under the tutor prompt for
// topic. On failure the sequence yields a single "错误: ..." fragment
// instead of returning an error, so callers can render it inline.
func (c *Client) StreamResponse(ctx context.Context, messages []Message, topic string) iter.Seq[string] {
	return func(yield func(string) bool) {
		msgs := withSystem(SystemPrompt(topic), messages)
		err := c.stream(ctx, msgs, yield)
		if err == nil || errors.Is(err, errStopped) {
			return
		}
		c.log.Warn("stream failed", "topic", topic, "error", err)
		yield(ErrorPrefix + err.Error())
	}
}

// Complete returns the whole answer to messages in one request.
func (c *Client) Complete(ctx context.Context, messages []Message, topic string) (string, error) {
	return c.complete(ctx, withSystem(SystemPrompt(topic), messages), 0.7)
}

// Blocking adapts a Client so StreamResponse issues one non-streaming
// request and yields the whole answer as a single fragment.
type Blocking struct {
	*Client
}

func (b Blocking) StreamResponse(ctx context.Context, messages []Message, topic string) iter.Seq[string] {
	return func(yield func(string) bool) {
		text, err := b.Complete(ctx, messages, topic)
		if err != nil {
			b.log.Warn("completion failed", "topic", topic, "error", err)
			yield(ErrorPrefix + err.Error())
			return
		}
		yield(text)
	}
}

// FollowUpQuestions always returns QuestionCount questions; any failure
// falls back to DefaultQuestions.
func (c *Client) FollowUpQuestions(ctx context.Context, history []Message, topic string) []string {
	msgs := []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(followUpSystemPrompt, topic)},
		{Role: RoleUser, Content: fmt.Sprintf(followUpUserPrompt, topic, FormatHistory(history))},
	}
	text, err := c.complete(ctx, msgs, 0.7)
	if err != nil {
		c.log.Warn("follow-up questions failed", "topic", topic, "error", err)
		return defaultQuestions()
	}
	return normalizeQuestions(text)
}

func (c *Client) stream(ctx context.Context, messages []Message, yield func(string) bool) error {
	msgs := toChatMessages(messages)
	if len(msgs) == 0 {
		return ErrNoMessages
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(chatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.7,
		Stream:      true,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, &buf)
	if err != nil {
		return err
	}
	c.setHeaders(req, "text/event-stream")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var n int
	err = streamSSE(resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var chunk chatCompletionStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if chunk.Error != nil {
			b, _ := json.Marshal(chunk.Error)
			return fmt.Errorf("upstream stream error: %s", string(b))
		}
		for _, ch := range chunk.Choices {
			if ch.Delta.Content == "" {
				continue
			}
			n += len(ch.Delta.Content)
			if !yield(ch.Delta.Content) {
				return errStopped
			}
		}
		return nil
	})
	c.log.Debug("stream finished", "bytes", n, "elapsed", time.Since(start))
	return err
}

func (c *Client) complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	msgs := toChatMessages(messages)
	if len(msgs) == 0 {
		return "", ErrNoMessages
	}

	var resp chatCompletionResponse
	req := chatCompletionRequest{Model: c.model, Messages: msgs, Temperature: temperature}
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return "", err
	}
	for _, ch := range resp.Choices {
		if strings.TrimSpace(ch.Message.Content) != "" {
			return ch.Message.Content, nil
		}
	}
	return "", ErrEmptyCompletion
}

func (c *Client) setHeaders(req *http.Request, accept string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) doJSON(ctx context.Context, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, &buf)
	if err != nil {
		return err
	}
	c.setHeaders(req, "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func withSystem(system string, messages []Message) []Message {
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: system})
	return append(out, messages...)
}

func toChatMessages(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		role := strings.TrimSpace(m.Role)
		content := strings.TrimSpace(m.Content)
		if role == "" || content == "" {
			continue
		}
		out = append(out, Message{Role: role, Content: content})
	}
	return out
}
