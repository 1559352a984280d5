// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Call records one GenerateContent invocation.
type Call struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// Model streams Reply chunk by chunk for plain calls and answers calls that carry
// tools with ToolCall. It is safe for concurrent use once configured.
type Model struct {
	Reply      []string
	ChunkDelay time.Duration // Pause before every chunk after the first; honors ctx
	Err        error         // Returned after Reply has been streamed

	ToolCall *llms.FunctionCall // nil means the model declines to call the tool
	ToolErr  error
	ToolFunc func(messages []llms.MessageContent) *llms.FunctionCall // Overrides ToolCall when set

	mu        sync.Mutex
	calls     []Call
	cancelled int
}

var _ llms.Model = (*Model)(nil)

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Messages: messages, Options: opts})
	m.mu.Unlock()

	if len(opts.Tools) > 0 {
		return m.answerTool(ctx, messages)
	}

	var full strings.Builder
	for i, chunk := range m.Reply {
		if i > 0 && m.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, m.abort(ctx)
			case <-time.After(m.ChunkDelay):
			}
		}
		if ctx.Err() != nil {
			return nil, m.abort(ctx)
		}
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
		full.WriteString(chunk)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: full.String(), StopReason: "stop"}},
	}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *Model) answerTool(ctx context.Context, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, m.abort(ctx)
	}
	if m.ToolErr != nil {
		return nil, m.ToolErr
	}
	fc := m.ToolCall
	if m.ToolFunc != nil {
		fc = m.ToolFunc(messages)
	}
	choice := &llms.ContentChoice{StopReason: "stop"}
	if fc != nil {
		choice.StopReason = "tool_calls"
		choice.ToolCalls = []llms.ToolCall{{ID: "call_1", Type: "function", FunctionCall: fc}}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}, nil
}

func (m *Model) abort(ctx context.Context) error {
	m.mu.Lock()
	m.cancelled++
	m.mu.Unlock()
	return ctx.Err()
}

// Calls returns a copy of the recorded invocations.
func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// ToolCalls counts invocations that offered tools.
func (m *Model) ToolCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if len(c.Options.Tools) > 0 {
			n++
		}
	}
	return n
}

// Cancelled counts calls that stopped because their context ended.
func (m *Model) Cancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

// Text flattens the text parts of a message.
func Text(mc llms.MessageContent) string {
	var b strings.Builder
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
