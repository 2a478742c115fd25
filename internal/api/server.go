// Package api exposes the read-only query surface over the aggregated data,
// plus the manual collection trigger and the collection status endpoint.
package api

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jmoralesv/pulso/internal/collector"
	"github.com/jmoralesv/pulso/internal/models"
	"github.com/jmoralesv/pulso/internal/sentiment"
)

// Store is the read-side slice of the persistent store.
type Store interface {
	DailySummariesBetween(ctx context.Context, from, to time.Time) ([]models.DailySummary, error)
	ItemsBetween(ctx context.Context, from, to time.Time) ([]models.AnalyzedItem, error)
	ItemSpan(ctx context.Context) (oldest, newest time.Time, err error)
	RecentItems(ctx context.Context, limit int) ([]models.AnalyzedItem, error)
	TrendingTopics(ctx context.Context, since time.Time, limit int) ([]models.TopicTrend, error)
	TopTopicsAllTime(ctx context.Context, limit int) ([]models.TopicCount, error)
	CountItems(ctx context.Context) (int, error)
	CountDailySummaries(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Orchestrator is the collection side the API can trigger and inspect.
type Orchestrator interface {
	CollectOnce(ctx context.Context) (int, error)
	Status() collector.Status
}

type Server struct {
	echo         *echo.Echo
	store        Store
	orchestrator Orchestrator
	analyzer     *sentiment.Analyzer
	clock        clockwork.Clock
}

func NewServer(store Store, orchestrator Orchestrator, analyzer *sentiment.Analyzer, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:         e,
		store:        store,
		orchestrator: orchestrator,
		analyzer:     analyzer,
		clock:        clock,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/healthz", s.handleHealthz)

	s.echo.GET("/sentiment/trend", s.handleSentimentTrend)
	s.echo.GET("/sentiment/current", s.handleCurrentSentiment)
	s.echo.GET("/topics/trending", s.handleTrendingTopics)
	s.echo.GET("/posts/recent", s.handleRecentPosts)
	s.echo.POST("/analyze/text", s.handleAnalyzeText)
	s.echo.GET("/stats", s.handleStats)

	s.echo.POST("/collect/refresh", s.handleCollectRefresh)
	s.echo.GET("/collect/status", s.handleCollectStatus)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
