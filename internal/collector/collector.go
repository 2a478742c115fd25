// Package collector orchestrates collection of political content from the
// monitored subreddits: the periodic incremental cycle and the bulk
// historical backfill.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmoralesv/pulso/internal/models"
	"github.com/jmoralesv/pulso/internal/reddit"
	"github.com/jmoralesv/pulso/internal/relevance"
	"github.com/jmoralesv/pulso/internal/sentiment"
	"github.com/jmoralesv/pulso/internal/topics"
)

// Subreddits are the monitored source feeds.
var Subreddits = []string{
	"argentina",
	"RepublicaArgentina",
	"Republica_Argentina",
	"dankgentina",
	"ArgentinaBenderStyle",
	"BuenosAires",
}

// minRelevantItems is the per-source floor below which the incremental cycle
// falls back to broader historical windows.
const minRelevantItems = 20

// Provider yields raw posts and comments per source feed. Implementations
// return items already fetched alongside any mid-sequence error.
type Provider interface {
	ListPosts(ctx context.Context, subreddit, sortOrder, window string, limit int) ([]reddit.Post, error)
	ListComments(ctx context.Context, postID string, limit int) ([]reddit.Comment, error)
}

// ItemStore is the slice of the persistent store the orchestrator needs.
type ItemStore interface {
	SaveItems(ctx context.Context, items []models.AnalyzedItem) (inserted, skipped int, err error)
	CountItems(ctx context.Context) (int, error)
	ItemSpan(ctx context.Context) (oldest, newest time.Time, err error)
}

type Config struct {
	PageLimit       int
	FetchBudget     time.Duration
	CommentsPerPost int
	MinStoredItems  int
	MinStoredDays   int
	FutureTolerance time.Duration
}

func (c *Config) applyDefaults() {
	if c.PageLimit == 0 {
		c.PageLimit = 100
	}
	if c.FetchBudget == 0 {
		c.FetchBudget = time.Minute
	}
	if c.CommentsPerPost == 0 {
		c.CommentsPerPost = 10
	}
	if c.MinStoredItems == 0 {
		c.MinStoredItems = 200
	}
	if c.MinStoredDays == 0 {
		c.MinStoredDays = 30
	}
	if c.FutureTolerance == 0 {
		c.FutureTolerance = time.Hour
	}
}

type Collector struct {
	provider Provider
	store    ItemStore
	analyzer *sentiment.Analyzer
	clock    clockwork.Clock
	cfg      Config
	status   *StatusRecord
}

func New(provider Provider, store ItemStore, analyzer *sentiment.Analyzer, clock clockwork.Clock, cfg Config) *Collector {
	cfg.applyDefaults()
	return &Collector{
		provider: provider,
		store:    store,
		analyzer: analyzer,
		clock:    clock,
		cfg:      cfg,
		status:   NewStatusRecord(),
	}
}

// Status returns a snapshot of the shared status record.
func (c *Collector) Status() Status {
	return c.status.Snapshot()
}

type fetchPhase struct {
	sortOrder string
	window    string
	limit     int
}

// CollectOnce runs one incremental cycle over all subreddits and persists
// the resulting batch. Returns the number of newly inserted items.
func (c *Collector) CollectOnce(ctx context.Context) (int, error) {
	slog.Info("[Collector] Starting incremental collection")

	var batch []models.AnalyzedItem
	for _, subreddit := range Subreddits {
		items := c.collectSubreddit(ctx, subreddit)
		batch = append(batch, items...)
		slog.Info("[Collector] Collected from subreddit",
			slog.String("subreddit", subreddit),
			slog.Int("items", len(items)))
	}

	if len(batch) == 0 {
		slog.Warn("[Collector] No relevant items collected this cycle")
		return 0, nil
	}

	inserted, skipped, err := c.store.SaveItems(ctx, batch)
	if err != nil {
		c.status.RecordError(err.Error())
		return 0, fmt.Errorf("incremental cycle: %w", err)
	}

	slog.Info("[Collector] Incremental cycle finished",
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped))
	return inserted, nil
}

// collectSubreddit fetches the freshest pages of one subreddit and falls
// back to broader top-of-week and top-of-month windows while too few
// relevant items have surfaced. All fetches for the source share one time
// budget; errors abandon the source without affecting others.
func (c *Collector) collectSubreddit(ctx context.Context, subreddit string) []models.AnalyzedItem {
	budgetCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchBudget)
	defer cancel()

	primaries := []fetchPhase{
		{sortOrder: "hot", limit: c.cfg.PageLimit / 2},
		{sortOrder: "new", limit: c.cfg.PageLimit},
	}
	fallbacks := []fetchPhase{
		{sortOrder: "top", window: "week", limit: c.cfg.PageLimit},
		{sortOrder: "top", window: "month", limit: c.cfg.PageLimit},
	}

	seen := make(map[string]struct{})
	var items []models.AnalyzedItem

	runPhase := func(phase fetchPhase) bool {
		posts, err := c.provider.ListPosts(budgetCtx, subreddit, phase.sortOrder, phase.window, phase.limit)
		for _, post := range posts {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}

			item, _, ok := c.analyzePost(post, relevance.PrimaryThreshold)
			if ok {
				items = append(items, item)
			}
		}
		if err != nil {
			logFetchFailure(subreddit, phase, err)
			return false
		}
		return true
	}

	for _, phase := range primaries {
		if !runPhase(phase) && budgetCtx.Err() != nil {
			return items
		}
	}

	for _, phase := range fallbacks {
		if len(items) >= minRelevantItems {
			break
		}
		slog.Info("[Collector] Too few relevant items, trying fallback window",
			slog.String("subreddit", subreddit),
			slog.String("window", phase.window),
			slog.Int("items_so_far", len(items)))
		if !runPhase(phase) && budgetCtx.Err() != nil {
			return items
		}
	}

	return items
}

// analyzePost gates a post on the relevance threshold and annotates it.
// Returns the analyzed item, the keyword match count, and whether the post
// passed the gate.
func (c *Collector) analyzePost(post reddit.Post, threshold int) (models.AnalyzedItem, int, bool) {
	rawText := post.Title + " " + post.Selftext
	matches := relevance.MatchCount(rawText)
	if matches < threshold {
		return models.AnalyzedItem{}, matches, false
	}

	scored := c.analyzer.Analyze(post.Title + " " + sentiment.FlattenMarkdown(post.Selftext))

	return models.AnalyzedItem{
		ID:             post.ID,
		Subreddit:      post.Subreddit,
		Title:          post.Title,
		Body:           post.Selftext,
		Author:         post.Author,
		Score:          post.Score,
		NumComments:    post.NumComments,
		CreatedAt:      post.CreatedAt,
		Permalink:      post.Permalink,
		Sentiment:      scored.Label,
		SentimentScore: scored.Compound,
		Topics:         topics.Extract(rawText),
		Kind:           models.KindPost,
		AnalyzedAt:     c.clock.Now().UTC(),
	}, matches, true
}

// CommentInScope is the comment-context inheritance rule: a comment is
// analyzed when it has at least one keyword match of its own, or when its
// parent post cleared the primary gate.
func CommentInScope(body string, parentMatches int) bool {
	if parentMatches >= relevance.PrimaryThreshold {
		return true
	}
	return relevance.IsRelevant(body, relevance.SecondaryThreshold)
}

// analyzeComment annotates a comment under its parent post's context.
// Very short comments are skipped.
func (c *Collector) analyzeComment(post reddit.Post, comment reddit.Comment, parentMatches int) (models.AnalyzedItem, bool) {
	if len([]rune(comment.Body)) < 20 {
		return models.AnalyzedItem{}, false
	}
	if !CommentInScope(comment.Body, parentMatches) {
		return models.AnalyzedItem{}, false
	}

	scored := c.analyzer.Analyze(sentiment.FlattenMarkdown(comment.Body))

	title := post.Title
	if len([]rune(title)) > 50 {
		title = string([]rune(title)[:50])
	}

	return models.AnalyzedItem{
		ID:             post.ID + "_" + comment.ID,
		Subreddit:      post.Subreddit,
		Title:          "Comment on: " + title + "...",
		Body:           comment.Body,
		Author:         comment.Author,
		Score:          comment.Score,
		CreatedAt:      comment.CreatedAt,
		Permalink:      comment.Permalink,
		Sentiment:      scored.Label,
		SentimentScore: scored.Compound,
		Topics:         topics.Extract(comment.Body),
		Kind:           models.KindComment,
		AnalyzedAt:     c.clock.Now().UTC(),
	}, true
}

func logFetchFailure(subreddit string, phase fetchPhase, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("[Collector] Source fetch budget exceeded",
			slog.String("subreddit", subreddit),
			slog.String("sort", phase.sortOrder),
			slog.String("window", phase.window))
		return
	}
	slog.Warn("[Collector] Source fetch failed",
		slog.String("subreddit", subreddit),
		slog.String("sort", phase.sortOrder),
		slog.String("window", phase.window),
		slog.String("error", err.Error()))
}
