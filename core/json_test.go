package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentJSONRoundTrip(t *testing.T) {
	original := []Content{
		NewSystemContent("You are a helpful assistant."),
		NewUserContent("list pull requests"),
		{
			Role: RoleAssistant,
			Parts: []Part{
				FunctionCallPart{FunctionCall: FunctionCall{
					ID:        "call_1",
					Name:      "list_prs",
					Arguments: `{"state":"open"}`,
				}},
			},
		},
		NewToolContent(FunctionResponse{ID: "call_1", Name: "list_prs", Response: `[{"number":42}]`}),
		NewAssistantContent("There is one open pull request."),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored []Content
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, original, restored)
}

func TestContentJSONToolError(t *testing.T) {
	c := NewToolContent(FunctionResponse{ID: "call_2", Name: "query", Error: "Error: Only SELECT queries are allowed"})

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var restored Content
	require.NoError(t, json.Unmarshal(data, &restored))

	responses := restored.FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "Error: Only SELECT queries are allowed", responses[0].Error)
}

func TestContentJSONUnknownPartType(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"role":"user","parts":[{"type":"video"}]}`), &c)
	assert.Error(t, err)
}

func TestContentAccessors(t *testing.T) {
	c := Content{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "Running two queries. "},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "a", Name: "first"}},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "b", Name: "second"}},
		},
	}

	assert.Equal(t, "Running two queries. ", c.Text())

	calls := c.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}
