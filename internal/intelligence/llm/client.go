// Package llm talks to the hosted language model through its OpenAI-compatible
// chat completions endpoint. Failures never surface as errors to callers:
// completion methods return the empty string and the caller decides on a
// fallback. Nothing is retried.
package llm

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// Operation labels reported to the CallObserver.
const (
	OpComplete = "complete"
	OpRespond  = "respond"
)

// Config configures the client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Validate checks the required fields.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New(errors.ErrCodeValidation, "llm api key is required").
			WithDetail("set llm.api_key, NARCOS_LLM_API_KEY or GEMINI_API_KEY")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.Newf(errors.ErrCodeValidation, "llm temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return errors.Newf(errors.ErrCodeValidation, "llm max tokens cannot be negative, got %d", c.MaxTokens)
	}
	return nil
}

// PromptRenderer renders a named prompt template.
type PromptRenderer interface {
	Render(name string, data interface{}) (string, error)
}

// CallObserver receives one observation per completion request.
type CallObserver interface {
	ObserveLLMCall(operation, status string, d time.Duration)
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client is a thin completion client. It is safe for concurrent use.
type Client struct {
	api      chatCompleter
	cfg      Config
	prompts  PromptRenderer
	logger   logging.Logger
	observer CallObserver
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports call outcomes and latencies.
func WithObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client for cfg. prompts supplies the chat system prompt.
func NewClient(cfg Config, prompts PromptRenderer, logger logging.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		prompts: prompts,
		logger:  logger.Named("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends prompt as a single user message and returns the reply text,
// or "" on any failure.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
	text, err := c.call(ctx, OpComplete, msgs)
	if err != nil {
		c.logger.Warn("llm completion failed", logging.Err(err))
		return ""
	}
	return text
}

// Respond continues a conversation: system prompt, then history in order,
// then message as the newest user turn. Returns "" on any failure.
func (c *Client) Respond(ctx context.Context, history []session.Turn, message string) string {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if c.prompts != nil {
		system, err := c.prompts.Render(prompt.ChatSystem, nil)
		if err != nil {
			c.logger.Warn("chat system prompt unavailable", logging.Err(err))
		} else if system != "" {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
		}
	}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == session.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	text, err := c.call(ctx, OpRespond, msgs)
	if err != nil {
		c.logger.Warn("llm chat response failed", logging.Err(err), logging.Int("history_turns", len(history)))
		return ""
	}
	return text
}

func (c *Client) call(ctx context.Context, op string, msgs []openai.ChatCompletionMessage) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
	}
	if c.cfg.MaxTokens > 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	status := "ok"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveLLMCall(op, status, time.Since(start))
		}
	}()

	if err != nil {
		status = "error"
		return "", errors.Wrap(err, errors.ErrCodeLLMUnavailable, "chat completion request failed")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		status = "empty"
		return "", errors.New(errors.ErrCodeLLMEmptyResponse, "llm returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}

//Personal.AI order the ending
