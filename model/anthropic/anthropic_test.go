package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessagesRolesAndToolResults(t *testing.T) {
	m := NewModelFromClient(nil)

	messages := m.buildMessages([]core.Content{
		core.NewSystemContent("ignored here"),
		core.NewUserContent("list PRs"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{
			FunctionCall: core.FunctionCall{ID: "c1", Name: "ListPRs", Arguments: "{}"},
		}}},
		core.NewToolContent(core.FunctionResponse{ID: "c1", Name: "ListPRs", Response: "[]"}),
	})

	// System content is carried via the system parameter, not the messages.
	require.Len(t, messages, 3)
	assert.Equal(t, "user", string(messages[0].Role))
	assert.Equal(t, "assistant", string(messages[1].Role))
	// Tool results are user-role tool_result blocks per the Messages API.
	assert.Equal(t, "user", string(messages[2].Role))
}

func TestSystemBlocksIncludeSchemaInstruction(t *testing.T) {
	m := NewModelFromClient(nil)

	blocks := m.systemBlocks(model.Request{
		Contents:       []core.Content{core.NewSystemContent("be brief")},
		ResponseSchema: map[string]any{"type": "object"},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "be brief", blocks[0].Text)
	assert.Contains(t, blocks[1].Text, "JSON Schema")
}

func TestBuildTools(t *testing.T) {
	m := NewModelFromClient(nil)

	tools := m.buildTools([]model.ToolDefinition{{
		Name:        "execute_sql",
		Description: "runs sql",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []string{"query"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "execute_sql", tools[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}

func TestGenerateStreamingUnsupported(t *testing.T) {
	m := NewModelFromClient(nil)

	respCh, errCh := m.Generate(context.Background(), model.Request{Stream: true})
	for range respCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "streaming is not supported")
}
