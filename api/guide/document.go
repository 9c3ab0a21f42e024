// Package guide models AI study guides and holds the pure transformations
// applied to model output: sanitization, structural validation, fallback
// conversion of free text into blocks, and keyword extraction.
package guide

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type SectionType string

const (
	SectionContent   SectionType = "content"
	SectionQuiz      SectionType = "quiz"
	SectionResources SectionType = "resources"
)

type BlockType string

const (
	BlockSubtitle   BlockType = "subtitle"
	BlockParagraph  BlockType = "paragraph"
	BlockList       BlockType = "list"
	BlockBlockquote BlockType = "blockquote"
	BlockDialogue   BlockType = "dialogue"
	BlockHR         BlockType = "hr"
	BlockCode       BlockType = "code"
)

type ListStyle string

const (
	ListBullet   ListStyle = "bullet"
	ListNumbered ListStyle = "numbered"
)

type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourcePodcast  ResourceType = "podcast"
	ResourceExercise ResourceType = "exercise"
	ResourceWebsite  ResourceType = "website"
)

const (
	DefaultLevel         = "General"
	DefaultEstimatedTime = "30 minutos"
)

// Document is the structured content of a study guide.
type Document struct {
	Title    string    `json:"title"`
	Metadata Metadata  `json:"metadata"`
	Sections []Section `json:"sections"`
}

type Metadata struct {
	Topic         string `json:"topic"`
	Level         string `json:"level"`
	EstimatedTime string `json:"estimatedTime"`
}

// Section is one of content, quiz or resources, selected by Type. Only the
// fields of the selected variant are serialized.
type Section struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Type  SectionType `json:"type"`

	// content
	Content  *Content  `json:"content,omitempty"`
	Keywords []Keyword `json:"keywords,omitempty"`

	// quiz
	Questions []QuizQuestion `json:"questions,omitempty"`

	// resources
	Internal []Resource `json:"internal,omitempty"`
	External []Resource `json:"external,omitempty"`
}

// Content is the block list of a content section.
type Content struct {
	Blocks []Block `json:"blocks"`
}

// Block is one of the seven block kinds, selected by Type.
type Block struct {
	Type     BlockType      `json:"type"`
	Text     string         `json:"text,omitempty"`
	Style    ListStyle      `json:"style,omitempty"`
	Items    []string       `json:"items,omitempty"`
	Dialogue []DialogueTurn `json:"dialogue,omitempty"`
	Code     string         `json:"code,omitempty"`
}

type DialogueTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type Keyword struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
	Example  string `json:"example"`
}

type Resource struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Link        string       `json:"link"`
	Type        ResourceType `json:"type,omitempty"`
}

// Decode converts a parsed JSON value into a Document. Callers validate first;
// Decode only fails on shapes the typed model cannot hold.
func Decode(v any) (*Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode guide value: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode guide document: %w", err)
	}
	return &doc, nil
}

// UnmarshalJSON accepts a plain string (converted with TextToBlocks), a bare
// block array, or an object with a blocks array.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		c.Blocks = []Block{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = TextToBlocks(text)
		return nil
	case '[':
		var blocks []Block
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		c.Blocks = blocks
		return nil
	}
	type plain Content
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*c = Content(p)
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	blocks := c.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(struct {
		Blocks []Block `json:"blocks"`
	}{blocks})
}

func (s Section) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case SectionContent:
		content := s.Content
		if content == nil {
			content = &Content{}
		}
		keywords := s.Keywords
		if keywords == nil {
			keywords = []Keyword{}
		}
		return json.Marshal(struct {
			ID       string      `json:"id"`
			Title    string      `json:"title"`
			Type     SectionType `json:"type"`
			Content  *Content    `json:"content"`
			Keywords []Keyword   `json:"keywords"`
		}{s.ID, s.Title, s.Type, content, keywords})
	case SectionQuiz:
		questions := s.Questions
		if questions == nil {
			questions = []QuizQuestion{}
		}
		return json.Marshal(struct {
			ID        string         `json:"id"`
			Title     string         `json:"title"`
			Type      SectionType    `json:"type"`
			Questions []QuizQuestion `json:"questions"`
		}{s.ID, s.Title, s.Type, questions})
	case SectionResources:
		internal, external := s.Internal, s.External
		if internal == nil {
			internal = []Resource{}
		}
		if external == nil {
			external = []Resource{}
		}
		return json.Marshal(struct {
			ID       string      `json:"id"`
			Title    string      `json:"title"`
			Type     SectionType `json:"type"`
			Internal []Resource  `json:"internal"`
			External []Resource  `json:"external"`
		}{s.ID, s.Title, s.Type, internal, external})
	}
	type plain Section
	return json.Marshal(plain(s))
}

// PlainText flattens the readable text of a section, one fragment per line.
func (s Section) PlainText() string {
	var b strings.Builder
	write := func(parts ...string) {
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				b.WriteString(p)
				b.WriteByte('\n')
			}
		}
	}
	write(s.Title)
	if s.Content != nil {
		for _, block := range s.Content.Blocks {
			write(block.Text, block.Code)
			write(block.Items...)
			for _, turn := range block.Dialogue {
				write(turn.Text)
			}
		}
	}
	for _, q := range s.Questions {
		write(q.Question, q.Explanation)
		write(q.Options...)
	}
	return b.String()
}

// ResourcesSection returns the first resources section, appending an empty
// one when the document has none.
func (d *Document) ResourcesSection() *Section {
	for i := range d.Sections {
		if d.Sections[i].Type == SectionResources {
			return &d.Sections[i]
		}
	}
	d.Sections = append(d.Sections, Section{
		ID:    "recursos",
		Title: "Recursos recomendados",
		Type:  SectionResources,
	})
	return &d.Sections[len(d.Sections)-1]
}

// ApplyDefaults fills metadata the model may leave blank.
func (d *Document) ApplyDefaults(topic, level string) {
	if strings.TrimSpace(d.Metadata.Topic) == "" {
		d.Metadata.Topic = topic
	}
	if strings.TrimSpace(d.Metadata.Level) == "" {
		d.Metadata.Level = level
	}
	if strings.TrimSpace(d.Metadata.Level) == "" {
		d.Metadata.Level = DefaultLevel
	}
	if strings.TrimSpace(d.Metadata.EstimatedTime) == "" {
		d.Metadata.EstimatedTime = DefaultEstimatedTime
	}
	if strings.TrimSpace(d.Title) == "" {
		d.Title = d.Metadata.Topic
	}
}

// FillKeywords extracts keywords for content sections that have none.
func (d *Document) FillKeywords(limit int) {
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.Type != SectionContent || len(s.Keywords) > 0 {
			continue
		}
		if kws := ExtractKeywords(s.PlainText(), limit); len(kws) > 0 {
			s.Keywords = kws
		}
	}
}

// Prune drops content sections without blocks and quiz sections without
// questions, and reports whether any section is left.
func (d *Document) Prune() bool {
	sections := d.Sections[:0]
	for _, s := range d.Sections {
		switch s.Type {
		case SectionContent:
			if s.Content == nil || len(s.Content.Blocks) == 0 {
				continue
			}
		case SectionQuiz:
			if len(s.Questions) == 0 {
				continue
			}
		}
		sections = append(sections, s)
	}
	d.Sections = sections
	return len(d.Sections) > 0
}

// Sanitize applies SanitizeString to every text field and drops blocks,
// items, turns, options and questions left empty. Links go through
// SanitizeLink.
func (d *Document) Sanitize() {
	d.Title = SanitizeString(d.Title)
	d.Metadata.Topic = SanitizeString(d.Metadata.Topic)
	d.Metadata.Level = SanitizeString(d.Metadata.Level)
	d.Metadata.EstimatedTime = SanitizeString(d.Metadata.EstimatedTime)
	for i := range d.Sections {
		d.Sections[i].sanitize()
	}
}

func (s *Section) sanitize() {
	s.ID = SanitizeString(s.ID)
	s.Title = SanitizeString(s.Title)
	if s.Content != nil {
		blocks := s.Content.Blocks[:0]
		for _, b := range s.Content.Blocks {
			if b.sanitize() {
				blocks = append(blocks, b)
			}
		}
		s.Content.Blocks = blocks
	}
	for i := range s.Keywords {
		k := &s.Keywords[i]
		k.Word = SanitizeString(k.Word)
		k.Phonetic = SanitizeString(k.Phonetic)
		k.Example = SanitizeString(k.Example)
	}
	questions := s.Questions[:0]
	for _, q := range s.Questions {
		if q.sanitize() {
			questions = append(questions, q)
		}
	}
	s.Questions = questions
	sanitizeResources(s.Internal)
	sanitizeResources(s.External)

	// empty and missing lists serialize the same way; keep one in-memory form
	if len(s.Keywords) == 0 {
		s.Keywords = nil
	}
	if len(s.Internal) == 0 {
		s.Internal = nil
	}
	if len(s.External) == 0 {
		s.External = nil
	}
}

func sanitizeResources(rs []Resource) {
	for i := range rs {
		rs[i].Title = SanitizeString(rs[i].Title)
		rs[i].Description = SanitizeString(rs[i].Description)
		rs[i].Link = SanitizeLink(rs[i].Link)
	}
}

// sanitize drops options left empty and moves CorrectAnswer with them. It
// reports false when the question text or the correct option is gone.
func (q *QuizQuestion) sanitize() bool {
	q.Question = SanitizeString(q.Question)
	q.Explanation = SanitizeString(q.Explanation)
	options := make([]string, 0, len(q.Options))
	answer := -1
	for i, opt := range q.Options {
		opt = SanitizeString(opt)
		if opt == "" {
			continue
		}
		if i == q.CorrectAnswer {
			answer = len(options)
		}
		options = append(options, opt)
	}
	q.Options = options
	q.CorrectAnswer = answer
	return q.Question != "" && answer >= 0
}

// sanitize reports whether the block still carries content.
func (b *Block) sanitize() bool {
	b.Text = SanitizeString(b.Text)
	b.Code = SanitizeString(b.Code)
	switch b.Type {
	case BlockList:
		items := b.Items[:0]
		for _, item := range b.Items {
			if item = SanitizeString(item); item != "" {
				items = append(items, item)
			}
		}
		b.Items = items
		return len(b.Items) > 0
	case BlockDialogue:
		turns := b.Dialogue[:0]
		for _, t := range b.Dialogue {
			t.Role = SanitizeString(t.Role)
			t.Text = SanitizeString(t.Text)
			if t.Text != "" {
				turns = append(turns, t)
			}
		}
		b.Dialogue = turns
		return len(b.Dialogue) > 0
	case BlockHR:
		return true
	case BlockCode:
		return b.Code != ""
	}
	return b.Text != ""
}
