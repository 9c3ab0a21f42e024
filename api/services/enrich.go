package services

import (
	"context"
	"strings"

	"github.com/local/studyguide/api/guide"
	"github.com/rs/zerolog/log"
)

const maxEnrichmentVideos = 3

// Enricher appends recommended videos to a guide's resources section.
type Enricher struct {
	videos VideoSearcher
}

func NewEnricher(videos VideoSearcher) *Enricher {
	if videos == nil {
		videos = NoVideos{}
	}
	return &Enricher{videos: videos}
}

// Enrich never fails; it returns how many videos were added.
func (e *Enricher) Enrich(ctx context.Context, doc *guide.Document, query string) int {
	videos := e.searchVideos(ctx, query)
	if len(videos) == 0 {
		return 0
	}

	seen := make(map[string]bool)
	for _, s := range doc.Sections {
		if s.Type != guide.SectionResources {
			continue
		}
		for _, r := range s.Internal {
			seen[r.Link] = true
		}
		for _, r := range s.External {
			seen[r.Link] = true
		}
	}

	var fresh []guide.Resource
	for _, v := range videos {
		link := guide.SanitizeLink(v.URL)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		title := guide.SanitizeString(v.Title)
		if title == "" {
			title = "Video"
		}
		fresh = append(fresh, guide.Resource{
			Title:       title,
			Description: guide.SanitizeString(v.ChannelTitle),
			Link:        link,
			Type:        guide.ResourceVideo,
		})
	}
	if len(fresh) == 0 {
		return 0
	}

	resources := doc.ResourcesSection()
	resources.External = append(resources.External, fresh...)
	return len(fresh)
}

// searchVideos swallows search failures and panics, returning no videos.
func (e *Enricher) searchVideos(ctx context.Context, query string) (videos []Video) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Video search panicked")
			videos = nil
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	videos, err := e.videos.Search(ctx, query, maxEnrichmentVideos)
	if err != nil {
		log.Warn().Err(err).Msg("Video search failed, continuing without videos")
		return nil
	}
	if len(videos) > maxEnrichmentVideos {
		videos = videos[:maxEnrichmentVideos]
	}
	return videos
}
