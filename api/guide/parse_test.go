package guide

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyExtractsGuideObject(t *testing.T) {
	reply := "Claro, aquí está tu guía:\n```json\n" + validGuideJSON + "\n```\nSuerte!"
	obj, err := ParseReply(reply)
	require.NoError(t, err)
	assert.Equal(t, "Present Perfect", obj["title"])
	assert.Len(t, obj["sections"], 3)
}

func TestParseReplyFailures(t *testing.T) {
	for _, reply := range []string{"", "Lo siento, no puedo ayudar.", `["sections"]`, `{"sections": [}`} {
		_, err := ParseReply(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	doc, err := Decode(parse(t, validGuideJSON))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, SectionContent, doc.Sections[0].Type)
	assert.Len(t, doc.Sections[0].Content.Blocks, 5)
	assert.Equal(t, BlockHR, doc.Sections[0].Content.Blocks[4].Type)
	assert.Equal(t, 1, doc.Sections[1].Questions[0].CorrectAnswer)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var v any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.True(t, Validate(v))

	// resources sections always serialize both lists
	res := v.(map[string]any)["sections"].([]any)[2].(map[string]any)
	assert.Equal(t, []any{}, res["internal"])
	assert.Equal(t, []any{}, res["external"])
	assert.NotContains(t, res, "content")
}

func TestDecodeStringContentBecomesBlocks(t *testing.T) {
	v := parse(t, validGuideJSON)
	section(v, 0)["content"] = "# Uso\n\nPara experiencias."
	doc, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, []Block{
		{Type: BlockSubtitle, Text: "Uso"},
		{Type: BlockParagraph, Text: "Para experiencias."},
	}, doc.Sections[0].Content.Blocks)
}

func TestNormalizeStructuredContentIsStable(t *testing.T) {
	doc := Normalize(validGuideJSON, "ignored", "B1")
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Present Perfect", doc.Title)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	again := Normalize(string(raw), "ignored", "B1")
	assert.Equal(t, doc, again)
}

func TestNormalizeUpgradesLegacyText(t *testing.T) {
	doc := Normalize("# Repaso\n\n1. have\n2. has", "Repaso de verbos", "A1")
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Repaso de verbos", doc.Title)
	assert.Equal(t, []Block{
		{Type: BlockSubtitle, Text: "Repaso"},
		{Type: BlockList, Style: ListNumbered, Items: []string{"have", "has"}},
	}, doc.Sections[0].Content.Blocks)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, Normalize(string(raw), "Repaso de verbos", "A1"))
}

func TestNormalizeJSONString(t *testing.T) {
	doc := Normalize(`"Texto guardado como cadena"`, "Guía", "")
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Texto guardado como cadena", doc.Sections[0].Content.Blocks[0].Text)
}

func TestNormalizeInvalidStructureFallsBack(t *testing.T) {
	doc := Normalize(`{"title": "x", "sections": []}`, "Guía", "")
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Guía", doc.Title)
}

func TestPruneDropsEmptySections(t *testing.T) {
	doc := &Document{Sections: []Section{
		{ID: "a", Type: SectionContent, Content: &Content{}},
		{ID: "b", Type: SectionQuiz},
		{ID: "c", Type: SectionResources},
	}}
	assert.True(t, doc.Prune())
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "c", doc.Sections[0].ID)

	assert.False(t, (&Document{Sections: []Section{{Type: SectionQuiz}}}).Prune())
}
