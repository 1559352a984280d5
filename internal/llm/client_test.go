package llm

import (
	"context"
	"errors"
	"leadchat-backend/internal/llm/llmtest"
	"leadchat-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

var saveLead = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:       "save_lead",
		Parameters: map[string]any{"type": "object"},
	},
}

func TestStreamChatForwardsFragments(t *testing.T) {
	model := &llmtest.Model{Reply: []string{"a", "b", "c"}}
	c := NewClient(model, "test", DefaultSettings)

	var got []string
	text, err := c.StreamChat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, func(s string) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", text)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	opts := model.Calls()[0].Options
	assert.Equal(t, DefaultSettings.Temperature, opts.Temperature)
	assert.Equal(t, DefaultSettings.MaxTokens, opts.MaxTokens)
}

func TestStreamChatStopsWhenConsumerFails(t *testing.T) {
	model := &llmtest.Model{Reply: []string{"a", "b", "c"}}
	c := NewClient(model, "test", DefaultSettings)
	stop := errors.New("client gone")

	calls := 0
	text, err := c.StreamChat(context.Background(), nil, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", text)
}

func TestCompleteJoinsReply(t *testing.T) {
	c := NewClient(&llmtest.Model{Reply: []string{"hello ", "world"}}, "test", DefaultSettings)
	text, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestCallTool(t *testing.T) {
	model := &llmtest.Model{ToolCall: &llms.FunctionCall{Name: "save_lead", Arguments: `{"email":"a@b.com"}`}}
	c := NewClient(model, "test", Settings{})

	call, err := c.CallTool(context.Background(), nil, saveLead)
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, `{"email":"a@b.com"}`, call.Arguments)
	assert.Len(t, model.Calls()[0].Options.Tools, 1)
}

func TestCallToolDeclinedOrOtherTool(t *testing.T) {
	c := NewClient(&llmtest.Model{}, "test", Settings{})
	call, err := c.CallTool(context.Background(), nil, saveLead)
	require.NoError(t, err)
	assert.Nil(t, call)

	c = NewClient(&llmtest.Model{ToolCall: &llms.FunctionCall{Name: "other"}}, "test", Settings{})
	call, err = c.CallTool(context.Background(), nil, saveLead)
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestMessageRoles(t *testing.T) {
	content := toMessageContent([]models.Message{
		{Role: models.RoleSystem, Content: "s"},
		{Role: models.RoleUser, Content: "u"},
		{Role: models.RoleAssistant, Content: "a"},
	})
	require.Len(t, content, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, content[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, content[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, content[2].Role)
	assert.Equal(t, "a", llmtest.Text(content[2]))
}
