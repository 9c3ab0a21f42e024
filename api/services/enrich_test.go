package services

import (
	"context"
	"errors"
	"testing"

	"github.com/local/studyguide/api/guide"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func contentDoc() *guide.Document {
	return &guide.Document{
		Title:    "Present Perfect",
		Metadata: guide.Metadata{Topic: "Present Perfect", Level: "A2", EstimatedTime: "30 minutos"},
		Sections: []guide.Section{{
			ID: "intro", Title: "Uso", Type: guide.SectionContent,
			Content: &guide.Content{Blocks: []guide.Block{{Type: guide.BlockParagraph, Text: "Texto"}}},
		}},
	}
}

func TestEnrichCreatesResourcesSection(t *testing.T) {
	videos := &mockVideos{}
	videos.On("Search", mock.Anything, "Present Perfect", 3).Return([]Video{
		{Title: "Present Perfect explained 🎉", URL: "https://www.youtube.com/watch?v=a_b=1", ChannelTitle: "Teacher | Tom"},
		{Title: "Dup", URL: "https://www.youtube.com/watch?v=a_b=1"},
		{Title: "No link"},
		{Title: "Practice", URL: "https://www.youtube.com/watch?v=c"},
	}, nil)

	doc := contentDoc()
	added := NewEnricher(videos).Enrich(context.Background(), doc, "Present Perfect")
	assert.Equal(t, 2, added)

	require.Len(t, doc.Sections, 2)
	res := doc.Sections[1]
	assert.Equal(t, guide.SectionResources, res.Type)
	assert.Equal(t, []guide.Resource{
		{Title: "Present Perfect explained", Description: "Teacher Tom", Link: "https://www.youtube.com/watch?v=a_b=1", Type: guide.ResourceVideo},
		{Title: "Practice", Link: "https://www.youtube.com/watch?v=c", Type: guide.ResourceVideo},
	}, res.External)
}

func TestEnrichDeduplicatesAgainstExistingResources(t *testing.T) {
	videos := &mockVideos{}
	videos.On("Search", mock.Anything, "tema", 3).Return([]Video{
		{Title: "Old", URL: "https://example.com/v1"},
		{Title: "New", URL: "https://example.com/v2"},
	}, nil)

	doc := contentDoc()
	doc.Sections = append(doc.Sections, guide.Section{
		ID: "res", Title: "Recursos", Type: guide.SectionResources,
		External: []guide.Resource{{Title: "Old", Link: "https://example.com/v1"}},
	})
	assert.Equal(t, 1, NewEnricher(videos).Enrich(context.Background(), doc, "tema"))
	require.Len(t, doc.Sections, 2)
	assert.Len(t, doc.Sections[1].External, 2)
}

func TestEnrichSwallowsSearchFailures(t *testing.T) {
	videos := &mockVideos{}
	videos.On("Search", mock.Anything, "tema", 3).Return(nil, errors.New("quota exceeded"))

	doc := contentDoc()
	assert.Zero(t, NewEnricher(videos).Enrich(context.Background(), doc, "tema"))
	assert.Equal(t, contentDoc(), doc)
}

type panickingSearcher struct{}

func (panickingSearcher) Search(context.Context, string, int) ([]Video, error) {
	panic("boom")
}

func TestEnrichSurvivesPanickingSearcher(t *testing.T) {
	doc := contentDoc()
	assert.Zero(t, NewEnricher(panickingSearcher{}).Enrich(context.Background(), doc, "tema"))
	assert.Len(t, doc.Sections, 1)
}

func TestEnrichCapsAtThreeVideos(t *testing.T) {
	videos := &mockVideos{}
	videos.On("Search", mock.Anything, "tema", 3).Return([]Video{
		{Title: "1", URL: "u1"}, {Title: "2", URL: "u2"}, {Title: "3", URL: "u3"}, {Title: "4", URL: "u4"},
	}, nil)

	doc := contentDoc()
	assert.Equal(t, 3, NewEnricher(videos).Enrich(context.Background(), doc, "tema"))
}

func TestNilSearcherAddsNothing(t *testing.T) {
	doc := contentDoc()
	assert.Zero(t, NewEnricher(nil).Enrich(context.Background(), doc, "tema"))
	assert.Len(t, doc.Sections, 1)
}

func TestEnrichWithoutUsableLinksLeavesDocumentAlone(t *testing.T) {
	videos := &mockVideos{}
	videos.On("Search", mock.Anything, "tema", 3).Return([]Video{
		{Title: "No link"},
		{Title: "Blank", URL: "   "},
	}, nil)

	doc := contentDoc()
	assert.Zero(t, NewEnricher(videos).Enrich(context.Background(), doc, "tema"))
	assert.Equal(t, contentDoc(), doc)
}
