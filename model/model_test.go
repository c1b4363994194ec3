package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

var _ Model = (*ScriptedModel)(nil)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for resp := range respCh {
		responses = append(responses, resp)
	}
	return responses, <-errCh
}

func TestScriptedModelReplaysSteps(t *testing.T) {
	m := NewScriptedModel(
		TextStep("first"),
		TextStep("second"),
	)

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "first", responses[0].Content.Text())
	assert.Equal(t, "stop", responses[0].FinishReason)

	respCh, errCh = m.Generate(context.Background(), Request{})
	responses, err = drain(t, respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "second", responses[0].Content.Text())
}

func TestScriptedModelExhausted(t *testing.T) {
	m := NewScriptedModel()

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	assert.Empty(t, responses)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps left")
}

func TestScriptedModelToolCallFinishReason(t *testing.T) {
	m := NewScriptedModel(ToolCallStep(core.FunctionCall{ID: "c1", Name: "lookup", Arguments: "{}"}))

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "tool_calls", responses[0].FinishReason)
	require.Len(t, responses[0].Content.FunctionCalls(), 1)
}

func TestScriptedModelStreamsTextPartials(t *testing.T) {
	m := NewScriptedModel(ScriptStep{
		Content:    core.NewAssistantContent("abc"),
		StreamText: true,
	})

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, responses, 4)

	var streamed string
	for _, resp := range responses[:3] {
		require.True(t, resp.Partial)
		streamed += resp.Content.Text()
	}
	assert.Equal(t, "abc", streamed)
	assert.False(t, responses[3].Partial)
	assert.Equal(t, "abc", responses[3].Content.Text())
}

func TestScriptedModelErrorStep(t *testing.T) {
	wantErr := errors.New("scripted failure")
	m := NewScriptedModel(ScriptStep{Err: wantErr})

	respCh, errCh := m.Generate(context.Background(), Request{})
	_, err := drain(t, respCh, errCh)
	require.ErrorIs(t, err, wantErr)
}

func TestScriptedModelRecordsRequests(t *testing.T) {
	m := NewScriptedModel(TextStep("hi"))

	req := Request{
		Contents: []core.Content{core.NewUserContent("hello")},
		Tools:    []ToolDefinition{{Name: "lookup"}},
	}
	respCh, errCh := m.Generate(context.Background(), req)
	_, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hello", reqs[0].Contents[0].Text())
	assert.Equal(t, "lookup", reqs[0].Tools[0].Name)
}
