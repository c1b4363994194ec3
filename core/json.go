package core

import (
	"encoding/json"
	"fmt"
)

// Part type discriminators used in the JSON wire format.
const (
	partTypeText             = "text"
	partTypeFunctionCall     = "function_call"
	partTypeFunctionResponse = "function_response"
)

// partEnvelope is the serialized form of a Part: a "type" discriminator plus
// the fields of the concrete part flattened alongside it.
type partEnvelope struct {
	Type             string            `json:"type"`
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

// MarshalJSON serializes the content with per-part type tags so the closed
// Part union survives a round trip through byte stores.
func (c Content) MarshalJSON() ([]byte, error) {
	envelopes := make([]partEnvelope, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			envelopes = append(envelopes, partEnvelope{Type: partTypeText, Text: v.Text})
		case FunctionCallPart:
			fc := v.FunctionCall
			envelopes = append(envelopes, partEnvelope{Type: partTypeFunctionCall, FunctionCall: &fc})
		case FunctionResponsePart:
			fr := v.FunctionResponse
			envelopes = append(envelopes, partEnvelope{Type: partTypeFunctionResponse, FunctionResponse: &fr})
		default:
			return nil, fmt.Errorf("unknown part type: %T", p)
		}
	}
	return json.Marshal(struct {
		Role  string         `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}{Role: c.Role, Parts: envelopes})
}

// UnmarshalJSON restores the concrete part types from their envelopes.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role  string         `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Role = raw.Role
	c.Parts = make([]Part, 0, len(raw.Parts))
	for _, env := range raw.Parts {
		switch env.Type {
		case partTypeText:
			c.Parts = append(c.Parts, TextPart{Text: env.Text})
		case partTypeFunctionCall:
			if env.FunctionCall == nil {
				return fmt.Errorf("function_call part missing payload")
			}
			c.Parts = append(c.Parts, FunctionCallPart{FunctionCall: *env.FunctionCall})
		case partTypeFunctionResponse:
			if env.FunctionResponse == nil {
				return fmt.Errorf("function_response part missing payload")
			}
			c.Parts = append(c.Parts, FunctionResponsePart{FunctionResponse: *env.FunctionResponse})
		default:
			return fmt.Errorf("unknown part type %q", env.Type)
		}
	}
	return nil
}
