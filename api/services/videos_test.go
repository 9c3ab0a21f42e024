package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestYouTubeSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Present Perfect English lesson", q.Get("q"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "3", q.Get("maxResults"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"id":{"kind":"youtube#video","videoId":"abc123"},"snippet":{"title":"Present Perfect","channelTitle":"EnglishClass"}},
			{"id":{"kind":"youtube#channel","channelId":"xyz"},"snippet":{"title":"A channel"}}
		]}`))
	}))
	defer srv.Close()

	yt, err := NewYouTubeSearcher(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	videos, err := yt.Search(context.Background(), "Present Perfect", 3)
	require.NoError(t, err)
	assert.Equal(t, []Video{{
		Title:        "Present Perfect",
		URL:          "https://www.youtube.com/watch?v=abc123",
		ChannelTitle: "EnglishClass",
	}}, videos)
}

func TestYouTubeSearcherError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	yt, err := NewYouTubeSearcher(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	_, err = yt.Search(context.Background(), "tema", 3)
	assert.Error(t, err)
}

func TestCachedVideoSearcherServesRepeatsFromCache(t *testing.T) {
	next := &mockVideos{}
	next.On("Search", mock.Anything, "Present  Perfect", 3).Return([]Video{{Title: "v", URL: "u"}}, nil).Once()
	cache := newMemoryCache()
	s := NewCachedVideoSearcher(next, cache, time.Hour)

	first, err := s.Search(context.Background(), "Present  Perfect", 3)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), "present perfect", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, cache.ttls["videos:3:present perfect"])
	next.AssertExpectations(t)
}

func TestCachedVideoSearcherToleratesCacheFailures(t *testing.T) {
	next := &mockVideos{}
	next.On("Search", mock.Anything, "tema", 3).Return([]Video{{Title: "v", URL: "u"}}, nil).Twice()
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	s := NewCachedVideoSearcher(next, cache, time.Hour)

	for i := 0; i < 2; i++ {
		videos, err := s.Search(context.Background(), "tema", 3)
		require.NoError(t, err)
		assert.Len(t, videos, 1)
	}
	assert.Len(t, cache.setKeys, 2)
	next.AssertExpectations(t)
}

func TestCachedVideoSearcherDoesNotCacheErrors(t *testing.T) {
	next := &mockVideos{}
	next.On("Search", mock.Anything, "tema", 3).Return(nil, errors.New("quota exceeded"))
	cache := newMemoryCache()

	_, err := NewCachedVideoSearcher(next, cache, time.Hour).Search(context.Background(), "tema", 3)
	assert.Error(t, err)
	assert.Empty(t, cache.setKeys)
}

func TestCachedVideoSearcherDiscardsCorruptEntries(t *testing.T) {
	next := &mockVideos{}
	next.On("Search", mock.Anything, "tema", 3).Return([]Video{{Title: "fresh", URL: "u"}}, nil)
	cache := newMemoryCache()
	cache.data["videos:3:tema"] = []byte("not json")

	videos, err := NewCachedVideoSearcher(next, cache, time.Hour).Search(context.Background(), "tema", 3)
	require.NoError(t, err)
	assert.Equal(t, "fresh", videos[0].Title)
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not a url")
	assert.Error(t, err)
}
