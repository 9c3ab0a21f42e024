package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/local/studyguide/api/auth"
	"github.com/local/studyguide/api/config"
	"github.com/local/studyguide/api/db"
	"github.com/local/studyguide/api/handlers"
	"github.com/local/studyguide/api/repository"
	"github.com/local/studyguide/api/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Initialize database
	dsn := cfg.DBPath
	if cfg.DBDriver == "postgres" {
		dsn = cfg.DatabaseURL
	}
	database, err := db.Init(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	log.Info().Str("db_driver", cfg.DBDriver).Msg("Database initialized")

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; every request will be unauthenticated")
	}

	guides := services.NewStudyGuideService(services.StudyGuideDeps{
		Sessions:     auth.ContextSessions{},
		Students:     repository.NewStudentRepository(database),
		Academics:    repository.NewAcademicRepository(database),
		Guides:       repository.NewGuideRepository(database),
		LLM:          newAIProvider(cfg),
		Videos:       newVideoSearcher(cfg),
		Materials:    services.PDFMaterials{Dir: cfg.MaterialsDir},
		KeywordLimit: cfg.KeywordLimit,
	})

	// Create Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", handlers.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(auth.Middleware([]byte(cfg.JWTSecret)))

	handlers.New(cfg, guides).Register(router)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().
		Str("port", cfg.Port).
		Str("model_provider", cfg.ModelProvider).
		Msg("Starting study guide API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func newAIProvider(cfg *config.Config) services.AIProvider {
	pc := services.ProviderConfig{
		Provider: cfg.ModelProvider,
		Policy: services.RetryPolicy{
			MaxAttempts: cfg.LLMMaxAttempts,
			BaseDelay:   cfg.LLMBaseDelay,
			MaxJitter:   cfg.LLMMaxJitter,
		},
		HTTPClient: &http.Client{Timeout: cfg.LLMTimeout},
	}
	switch cfg.ModelProvider {
	case "openai":
		pc.APIKey, pc.Model = cfg.OpenAIAPIKey, cfg.OpenAIModel
	case "anthropic":
		pc.APIKey, pc.Model = cfg.AnthropicAPIKey, cfg.AnthropicModel
	default:
		pc.APIKey, pc.Model, pc.Endpoint = cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint
	}
	if pc.APIKey == "" {
		log.Warn().Str("model_provider", cfg.ModelProvider).Msg("No API key configured for the model provider")
	}
	return services.NewAIProvider(pc)
}

// newVideoSearcher returns YouTube search, cached in redis when configured, or
// no search at all without an API key.
func newVideoSearcher(cfg *config.Config) services.VideoSearcher {
	if cfg.YouTubeAPIKey == "" {
		log.Info().Msg("YOUTUBE_API_KEY not set; guides will not include videos")
		return services.NoVideos{}
	}
	ctx := context.Background()
	yt, err := services.NewYouTubeSearcher(ctx, option.WithAPIKey(cfg.YouTubeAPIKey))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube client; guides will not include videos")
		return services.NoVideos{}
	}
	if cfg.RedisURL == "" {
		return yt
	}
	cache, err := services.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; video searches will not be cached")
		return yt
	}
	return services.NewCachedVideoSearcher(yt, cache, cfg.VideoCacheTTL)
}
