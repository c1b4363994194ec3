package format

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Block kinds used as the "type" discriminator in structured answers.
const (
	KindText      = "text"
	KindChartable = "chartable"
	KindCard      = "card"
)

// Chart types a ChartableBlock may request.
const (
	ChartLine          = "line"
	ChartVerticalBar   = "verticalBar"
	ChartHorizontalBar = "horizontalBar"
	ChartPie           = "pie"
)

// Block is a closed union of renderable content blocks. Implementations are
// TextBlock, ChartableBlock and CardBlock.
type Block interface {
	isBlock()
	// Kind returns the block's discriminator value.
	Kind() string
}

// TextBlock carries plain prose for the caller to render as a message.
type TextBlock struct {
	Text string `json:"text" mapstructure:"text"`
}

func (TextBlock) isBlock() {}

// Kind implements Block.
func (TextBlock) Kind() string { return KindText }

// ChartableBlock carries tabular data plus a rendering hint. The caller
// decides how (or whether) to chart it; the engine never renders.
type ChartableBlock struct {
	Columns   []string       `json:"columns" mapstructure:"columns"`
	Rows      [][]any        `json:"rows" mapstructure:"rows"`
	ChartType string         `json:"chartType" mapstructure:"chartType"`
	Options   map[string]any `json:"options,omitempty" mapstructure:"options"`
}

func (ChartableBlock) isBlock() {}

// Kind implements Block.
func (ChartableBlock) Kind() string { return KindChartable }

// CardBlock carries an opaque card document (e.g. an adaptive card) produced
// by the model or a tool. The payload is passed through untouched.
type CardBlock struct {
	Card map[string]any `json:"card" mapstructure:"card"`
}

func (CardBlock) isBlock() {}

// Kind implements Block.
func (CardBlock) Kind() string { return KindCard }

// envelope is the top-level document shape of a structured answer.
type envelope struct {
	Content []map[string]any `json:"content"`
}

// Parse decodes a model's final content into blocks. It never fails: if raw
// is not a well-formed structured answer, the result is exactly one TextBlock
// containing the raw string.
func Parse(raw string) []Block {
	fallback := []Block{TextBlock{Text: raw}}

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return fallback
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return fallback
	}
	if len(env.Content) == 0 {
		return fallback
	}

	blocks := make([]Block, 0, len(env.Content))
	for _, item := range env.Content {
		block, ok := decodeBlock(item)
		if !ok {
			return fallback
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// decodeBlock decodes one discriminated item. Unknown or malformed items
// report !ok so Parse can degrade the whole answer.
func decodeBlock(item map[string]any) (Block, bool) {
	kind, _ := item["type"].(string)
	switch kind {
	case KindText:
		var b TextBlock
		if err := decode(item, &b); err != nil {
			return nil, false
		}
		return b, true
	case KindChartable:
		var b ChartableBlock
		if err := decode(item, &b); err != nil {
			return nil, false
		}
		return b, true
	case KindCard:
		var b CardBlock
		if err := decode(item, &b); err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

func decode(item map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(item)
}

// Texts returns the concatenated text of all text blocks, joined by newlines.
// Convenient for transports that render prose separately from attachments.
func Texts(blocks []Block) string {
	var parts []string
	for _, b := range blocks {
		if tb, ok := b.(TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ResponseSchema returns the JSON Schema the engine declares to providers so
// the model answers in the block document shape.
func ResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{KindText, KindChartable, KindCard},
						},
						"text": map[string]any{
							"type":        "string",
							"description": "Prose answer, required when type is text",
						},
						"columns": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"rows": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "array"},
						},
						"chartType": map[string]any{
							"type": "string",
							"enum": []string{ChartLine, ChartVerticalBar, ChartHorizontalBar, ChartPie},
						},
						"options": map[string]any{"type": "object"},
						"card":    map[string]any{"type": "object"},
					},
					"required": []string{"type"},
				},
			},
		},
		"required": []string{"content"},
	}
}
