// Package gemini provides a model wrapper for the Google Gemini API using
// the google.golang.org/genai SDK. The SDK client sits behind a narrow
// Client interface so the adapter can be exercised without network access.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

// Client defines the slice of the genai SDK this adapter needs.
type Client interface {
	GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// SDKClient wraps the official genai client to satisfy Client.
type SDKClient struct {
	client *genai.Client
}

// NewSDKClient creates an SDKClient from an existing genai client.
func NewSDKClient(client *genai.Client) *SDKClient {
	return &SDKClient{client: client}
}

// GenerateContent calls the SDK's GenerateContent method.
func (c *SDKClient) GenerateContent(ctx context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, modelName, contents, config)
}

// Options configure the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float32
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client Client
	opts   Options
}

// NewModelFromClient creates a Gemini model from any Client implementation.
func NewModelFromClient(client Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements buffered generation. Streaming is not supported by this
// adapter.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if req.Stream {
			errCh <- fmt.Errorf("streaming is not supported by the gemini adapter")
			return
		}

		temp := m.opts.Temperature
		config := &genai.GenerateContentConfig{Temperature: &temp}

		if system := systemText(req.Contents); system != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(system)},
			}
		}
		if len(req.Tools) > 0 {
			config.Tools = buildTools(req.Tools)
		}
		if req.ResponseSchema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = mapToSchema(req.ResponseSchema)
		}

		resp, err := m.client.GenerateContent(ctx, m.opts.Model, buildContents(req.Contents), config)
		if err != nil {
			errCh <- fmt.Errorf("gemini api error: %w", err)
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			errCh <- fmt.Errorf("no candidates returned")
			return
		}

		var parts []core.Part
		for _, p := range resp.Candidates[0].Content.Parts {
			if p.Text != "" {
				parts = append(parts, core.TextPart{Text: p.Text})
			}
			if p.FunctionCall != nil {
				args := ""
				if p.FunctionCall.Args != nil {
					if argsBytes, err := json.Marshal(p.FunctionCall.Args); err == nil {
						args = string(argsBytes)
					}
				}
				id := p.FunctionCall.ID
				if id == "" {
					id = core.NewID()
				}
				parts = append(parts, core.FunctionCallPart{
					FunctionCall: core.FunctionCall{
						ID:        id,
						Name:      p.FunctionCall.Name,
						Arguments: args,
					},
				})
			}
		}

		finishReason := "stop"
		if len(resp.Candidates[0].Content.Parts) > 0 && resp.Candidates[0].FinishReason != "" {
			finishReason = string(resp.Candidates[0].FinishReason)
		}

		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finishReason,
		}
	}()

	return out, errCh
}

// systemText concatenates all system message text; Gemini carries it as a
// single system instruction, not a history entry.
func systemText(contents []core.Content) string {
	var out string
	for _, c := range contents {
		if c.Role == core.RoleSystem {
			out += c.Text()
		}
	}
	return out
}

// buildContents converts normalized history into Gemini contents. Gemini
// knows only "user" and "model" roles; tool results travel as user-role
// FunctionResponse parts.
func buildContents(contents []core.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem:
			continue
		case core.RoleUser:
			if text := c.Text(); text != "" {
				out = append(out, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{genai.NewPartFromText(text)},
				})
			}
		case core.RoleAssistant:
			var parts []*genai.Part
			if text := c.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, fc := range c.FunctionCalls() {
				var args map[string]any
				if fc.Arguments != "" {
					_ = json.Unmarshal([]byte(fc.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   fc.ID,
						Name: fc.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: "model", Parts: parts})
			}
		case core.RoleTool:
			var parts []*genai.Part
			for _, fr := range c.FunctionResponses() {
				payload := fr.Response
				if fr.Error != "" {
					payload = fmt.Sprintf("Error: %s", fr.Error)
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       fr.ID,
						Name:     fr.Name,
						Response: map[string]any{"content": payload},
					},
				})
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}
	return out
}

// buildTools converts tool definitions to Gemini function declarations.
func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tdef := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tdef.Name,
			Description: tdef.Description,
		}
		if tdef.Parameters != nil {
			fd.Parameters = mapToSchema(tdef.Parameters)
		}
		declarations = append(declarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// mapToSchema converts a JSON-schema map into the SDK's typed Schema,
// covering the subset the engine produces (type, description, enum,
// properties, required, items).
func mapToSchema(schema map[string]any) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}

	if typeStr, ok := schema["type"].(string); ok {
		out.Type = toGeminiType(typeStr)
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	switch enum := schema["enum"].(type) {
	case []string:
		out.Enum = enum
	case []any:
		for _, v := range enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	if properties, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(properties))
		for name, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				out.Properties[name] = mapToSchema(propMap)
			}
		}
	}
	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []any:
		for _, v := range required {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = mapToSchema(items)
	}
	return out
}

// toGeminiType converts a JSON schema type name to a Gemini Type.
func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
