package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextOnly(t *testing.T) {
	blocks := Parse(`{"content":[{"type":"text","text":"hello"}]}`)

	require.Len(t, blocks, 1)
	tb, ok := blocks[0].(TextBlock)
	require.True(t, ok)
	assert.Equal(t, "hello", tb.Text)
	assert.Equal(t, KindText, tb.Kind())
}

func TestParseMixedBlocks(t *testing.T) {
	raw := `{
		"content": [
			{"type": "text", "text": "Sales by region:"},
			{
				"type": "chartable",
				"columns": ["region", "total"],
				"rows": [["EMEA", 1200], ["APAC", 800]],
				"chartType": "verticalBar",
				"options": {"title": "Sales"}
			},
			{"type": "card", "card": {"type": "AdaptiveCard", "version": "1.5"}}
		]
	}`

	blocks := Parse(raw)
	require.Len(t, blocks, 3)

	cb, ok := blocks[1].(ChartableBlock)
	require.True(t, ok)
	assert.Equal(t, []string{"region", "total"}, cb.Columns)
	require.Len(t, cb.Rows, 2)
	assert.Equal(t, "EMEA", cb.Rows[0][0])
	assert.Equal(t, ChartVerticalBar, cb.ChartType)
	assert.Equal(t, "Sales", cb.Options["title"])

	card, ok := blocks[2].(CardBlock)
	require.True(t, ok)
	assert.Equal(t, "AdaptiveCard", card.Card["type"])
}

func TestParseFallsBackOnInvalidJSON(t *testing.T) {
	raw := "I could not produce structured output, sorry."

	blocks := Parse(raw)

	require.Len(t, blocks, 1)
	tb, ok := blocks[0].(TextBlock)
	require.True(t, ok)
	assert.Equal(t, raw, tb.Text)
}

func TestParseFallsBackOnTruncatedJSON(t *testing.T) {
	raw := `{"content":[{"type":"text","text":"hel`

	blocks := Parse(raw)

	require.Len(t, blocks, 1)
	assert.Equal(t, TextBlock{Text: raw}, blocks[0])
}

func TestParseFallsBackOnUnknownBlockType(t *testing.T) {
	raw := `{"content":[{"type":"hologram","text":"hi"}]}`

	blocks := Parse(raw)

	require.Len(t, blocks, 1)
	assert.Equal(t, TextBlock{Text: raw}, blocks[0])
}

func TestParseFallsBackOnEmptyContent(t *testing.T) {
	raw := `{"content":[]}`

	blocks := Parse(raw)

	require.Len(t, blocks, 1)
	assert.Equal(t, TextBlock{Text: raw}, blocks[0])
}

func TestTexts(t *testing.T) {
	blocks := []Block{
		TextBlock{Text: "first"},
		CardBlock{Card: map[string]any{"type": "AdaptiveCard"}},
		TextBlock{Text: "second"},
	}

	assert.Equal(t, "first\nsecond", Texts(blocks))
	assert.Equal(t, "", Texts(nil))
}

func TestResponseSchemaShape(t *testing.T) {
	schema := ResponseSchema()

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "content")
	assert.Equal(t, []string{"content"}, schema["required"])
}
