// Package llm wraps a langchaingo model with the three calls the chat backend needs:
// a streamed conversational turn, a buffered turn, and a single function-tool call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/models"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyResponse is returned when the provider answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// Settings tunes generation for every call made through a Client.
type Settings struct {
	Temperature float64
	MaxTokens   int
}

// DefaultSettings matches the sales assistant's tone: a little creative, bounded length.
var DefaultSettings = Settings{Temperature: 0.7, MaxTokens: 2000}

// Client issues chat calls against a langchaingo model.
type Client struct {
	model     llms.Model
	modelName string
	settings  Settings
}

// NewClient wraps model. modelName is informational (logs, service descriptor).
func NewClient(model llms.Model, modelName string, settings Settings) *Client {
	return &Client{model: model, modelName: modelName, settings: settings}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Name      string
	Arguments string // Raw JSON arguments
}

// StreamChat sends messages and forwards each fragment to onFragment in the order the
// provider emits it. It returns the concatenated text; on error the text holds whatever
// was already forwarded. An error from onFragment aborts the upstream call.
func (c *Client) StreamChat(ctx context.Context, messages []models.Message, onFragment func(string) error) (string, error) {
	var full strings.Builder
	streamed := false

	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages), c.callOptions(
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			full.Write(chunk)
			return onFragment(string(chunk))
		}),
	)...)
	if err != nil {
		return full.String(), fmt.Errorf("stream chat: %w", err)
	}

	// Providers that ignore the streaming callback still return the full text.
	if !streamed {
		text, err := firstContent(resp)
		if err != nil {
			return "", fmt.Errorf("stream chat: %w", err)
		}
		if text != "" {
			full.WriteString(text)
			if err := onFragment(text); err != nil {
				return full.String(), fmt.Errorf("stream chat: %w", err)
			}
		}
	}
	return full.String(), nil
}

// Complete sends messages and returns the whole reply.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (string, error) {
	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages), c.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	text, err := firstContent(resp)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return text, nil
}

// CallTool offers a single function tool and returns the model's call to it.
// A nil ToolCall with a nil error means the model chose not to call the tool.
func (c *Client) CallTool(ctx context.Context, messages []models.Message, tool llms.Tool) (*ToolCall, error) {
	opts := append(c.callOptions(), llms.WithTools([]llms.Tool{tool}))
	resp, err := c.model.GenerateContent(ctx, toMessageContent(messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", tool.Function.Name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("call tool %s: %w", tool.Function.Name, ErrEmptyResponse)
	}

	for _, choice := range resp.Choices {
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall != nil && tc.FunctionCall.Name == tool.Function.Name {
				return &ToolCall{Name: tc.FunctionCall.Name, Arguments: tc.FunctionCall.Arguments}, nil
			}
		}
		if choice.FuncCall != nil && choice.FuncCall.Name == tool.Function.Name {
			return &ToolCall{Name: choice.FuncCall.Name, Arguments: choice.FuncCall.Arguments}, nil
		}
	}
	return nil, nil
}

func (c *Client) callOptions(extra ...llms.CallOption) []llms.CallOption {
	opts := make([]llms.CallOption, 0, 2+len(extra))
	opts = append(opts, llms.WithTemperature(c.settings.Temperature))
	if c.settings.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.settings.MaxTokens))
	}
	return append(opts, extra...)
}

func firstContent(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func toMessageContent(messages []models.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		out = append(out, llms.TextParts(messageType(m.Role), m.Content))
	}
	return out
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
