package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

var _ model.Model = (*Model)(nil)

type fakeClient struct {
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig
	resp         *genai.GenerateContentResponse
	err          error
}

func (f *fakeClient) GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = modelName
	f.lastContents = contents
	f.lastConfig = config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{genai.NewPartFromText(text)}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func TestGenerateTextAnswer(t *testing.T) {
	fake := &fakeClient{resp: textResponse("hello there")}
	m := NewModelFromClient(fake)

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{
			core.NewSystemContent("be brief"),
			core.NewUserContent("hi"),
		},
	})

	var responses []model.Response
	for resp := range respCh {
		responses = append(responses, resp)
	}
	require.NoError(t, <-errCh)
	require.Len(t, responses, 1)
	assert.Equal(t, "hello there", responses[0].Content.Text())
	assert.Equal(t, core.RoleAssistant, responses[0].Content.Role)

	// System text travels as a system instruction, not as history.
	require.NotNil(t, fake.lastConfig.SystemInstruction)
	require.Len(t, fake.lastContents, 1)
	assert.Equal(t, "user", fake.lastContents[0].Role)
}

func TestGenerateFunctionCall(t *testing.T) {
	fake := &fakeClient{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{
						Name: "execute_sql",
						Args: map[string]any{"query": "SELECT 1"},
					},
				}},
			},
		}},
	}}
	m := NewModelFromClient(fake)

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserContent("run it")},
		Tools: []model.ToolDefinition{{
			Name:        "execute_sql",
			Description: "runs sql",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		}},
	})

	var responses []model.Response
	for resp := range respCh {
		responses = append(responses, resp)
	}
	require.NoError(t, <-errCh)
	require.Len(t, responses, 1)

	calls := responses[0].Content.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "execute_sql", calls[0].Name)
	assert.JSONEq(t, `{"query":"SELECT 1"}`, calls[0].Arguments)
	assert.NotEmpty(t, calls[0].ID, "missing provider ids are filled in")

	require.Len(t, fake.lastConfig.Tools, 1)
	decls := fake.lastConfig.Tools[0].FunctionDeclarations
	require.Len(t, decls, 1)
	assert.Equal(t, "execute_sql", decls[0].Name)
	require.NotNil(t, decls[0].Parameters)
	assert.Equal(t, genai.TypeObject, decls[0].Parameters.Type)
	assert.Equal(t, []string{"query"}, decls[0].Parameters.Required)
	assert.Equal(t, genai.TypeString, decls[0].Parameters.Properties["query"].Type)
}

func TestGenerateStreamingUnsupported(t *testing.T) {
	m := NewModelFromClient(&fakeClient{})

	respCh, errCh := m.Generate(context.Background(), model.Request{Stream: true})
	for range respCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "streaming is not supported")
}

func TestGenerateStructuredOutputConfig(t *testing.T) {
	fake := &fakeClient{resp: textResponse(`{"content":[]}`)}
	m := NewModelFromClient(fake)

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents:       []core.Content{core.NewUserContent("hi")},
		ResponseSchema: map[string]any{"type": "object"},
	})
	for range respCh {
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, "application/json", fake.lastConfig.ResponseMIMEType)
	require.NotNil(t, fake.lastConfig.ResponseSchema)
}

func TestBuildContentsToolResults(t *testing.T) {
	contents := buildContents([]core.Content{
		core.NewUserContent("question"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{
			FunctionCall: core.FunctionCall{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`},
		}}},
		core.NewToolContent(core.FunctionResponse{ID: "c1", Name: "lookup", Response: "42"}),
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "user", contents[2].Role)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Equal(t, map[string]any{"content": "42"}, contents[2].Parts[0].FunctionResponse.Response)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(&fakeClient{}, func(o *Options) {
		o.Model = "gemini-2.5-pro"
	})

	info := m.Info()
	assert.Equal(t, "gemini-2.5-pro", info.Name)
	assert.Equal(t, "gemini", info.Provider)
	assert.True(t, info.SupportsTools)
}
