package guide

import (
	"regexp"
	"strings"
)

var (
	paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n\s*`)
	subtitleRe       = regexp.MustCompile(`^#{1,6}\s+`)
	quoteRe          = regexp.MustCompile(`^>\s+`)
	quoteLineRe      = regexp.MustCompile(`(?m)^>[ \t]?`)
	listStartRe      = regexp.MustCompile(`^(\d+\.|- )`)
	numberedRe       = regexp.MustCompile(`^\d+\.`)
	listMarkerRe     = regexp.MustCompile(`^\s*(?:-|\d+\.)\s*`)
	speakerRe        = regexp.MustCompile(`^\p{L}[\p{L}\p{M}]{0,19}:`)
	dialogueLineRe   = regexp.MustCompile(`^([^:]{1,20}):\s*(.*)$`)
)

const emptyGuideText = "No fue posible generar contenido estructurado para este tema. Intenta de nuevo con un tema más específico."

// TextToBlocks splits free text into paragraphs and classifies each one as a
// subtitle, blockquote, list, dialogue or plain paragraph. It never fails;
// blank input yields an empty block list.
func TextToBlocks(text string) Content {
	blocks := []Block{}
	text = strings.TrimSpace(lineEndingRe.ReplaceAllString(text, "\n"))
	if text == "" {
		return Content{Blocks: blocks}
	}
	for _, para := range paragraphBreakRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, classifyParagraph(para))
	}
	return Content{Blocks: blocks}
}

func classifyParagraph(para string) Block {
	switch {
	case subtitleRe.MatchString(para):
		return Block{Type: BlockSubtitle, Text: strings.TrimSpace(subtitleRe.ReplaceAllString(para, ""))}
	case quoteRe.MatchString(para):
		return Block{Type: BlockBlockquote, Text: strings.TrimSpace(quoteLineRe.ReplaceAllString(para, ""))}
	case listStartRe.MatchString(para):
		style := ListBullet
		if numberedRe.MatchString(para) {
			style = ListNumbered
		}
		var items []string
		for _, line := range strings.Split(para, "\n") {
			if item := strings.TrimSpace(listMarkerRe.ReplaceAllString(line, "")); item != "" {
				items = append(items, item)
			}
		}
		return Block{Type: BlockList, Style: style, Items: items}
	}
	if turns := parseDialogue(para); len(turns) > 0 {
		return Block{Type: BlockDialogue, Dialogue: turns}
	}
	return Block{Type: BlockParagraph, Text: para}
}

// parseDialogue returns turns only when every line opens with a short speaker
// name followed by a colon.
func parseDialogue(para string) []DialogueTurn {
	lines := strings.Split(para, "\n")
	for _, line := range lines {
		if !speakerRe.MatchString(strings.TrimSpace(line)) {
			return nil
		}
	}
	var turns []DialogueTurn
	for _, line := range lines {
		m := dialogueLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		turns = append(turns, DialogueTurn{Role: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])})
	}
	return turns
}

// FallbackDocument wraps free text into a single content section. The result
// always passes Validate once marshaled.
func FallbackDocument(text, topic, level string) *Document {
	title := SanitizeString(topic)
	if title == "" {
		title = "Guía de estudio"
	}
	level = SanitizeString(level)
	content := TextToBlocks(StripCodeFences(text))
	doc := &Document{
		Title: title,
		Metadata: Metadata{
			Topic: title,
			Level: level,
		},
		Sections: []Section{{
			ID:      "contenido",
			Title:   title,
			Type:    SectionContent,
			Content: &content,
		}},
	}
	doc.Sanitize()
	doc.ApplyDefaults(title, level)
	if len(content.Blocks) == 0 {
		content.Blocks = []Block{{Type: BlockParagraph, Text: emptyGuideText}}
	}
	return doc
}
