package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoralesv/pulso/internal/models"
	"github.com/jmoralesv/pulso/internal/relevance"
)

// backfillWindows are walked in order, broadest recency to broadest history,
// for every subreddit.
var backfillWindows = []fetchPhase{
	{sortOrder: "top", window: "month", limit: 150},
	{sortOrder: "top", window: "year", limit: 200},
	{sortOrder: "top", window: "all", limit: 150},
}

// EnsureHistory triggers a backfill when stored history is too thin. It
// refuses to run when the store holds future-dated items, which indicates
// corruption that needs an explicit administrative clear.
func (c *Collector) EnsureHistory(ctx context.Context) error {
	now := c.clock.Now().UTC()

	oldest, newest, err := c.store.ItemSpan(ctx)
	if err != nil {
		return fmt.Errorf("checking stored history: %w", err)
	}

	if !newest.IsZero() && newest.After(now.Add(c.cfg.FutureTolerance)) {
		msg := fmt.Sprintf("newest stored item is dated %s, in the future; clear the store before collecting", newest.Format(time.RFC3339))
		c.status.Fail(now, msg)
		slog.Error("[Collector] Refusing to backfill", slog.String("reason", msg))
		return fmt.Errorf("%w: newest item at %s", ErrFutureData, newest.Format(time.RFC3339))
	}

	count, err := c.store.CountItems(ctx)
	if err != nil {
		return fmt.Errorf("checking stored history: %w", err)
	}

	spanDays := 0
	if !oldest.IsZero() {
		spanDays = int(newest.Sub(oldest).Hours() / 24)
	}

	if count >= c.cfg.MinStoredItems && spanDays >= c.cfg.MinStoredDays {
		slog.Info("[Collector] Stored history is sufficient, skipping backfill",
			slog.Int("items", count),
			slog.Int("span_days", spanDays))
		if c.status.TryStart(now) {
			c.status.Complete(c.clock.Now().UTC(), 0)
		}
		return nil
	}

	slog.Info("[Collector] Stored history insufficient, starting backfill",
		slog.Int("items", count),
		slog.Int("span_days", spanDays))
	_, err = c.Backfill(ctx)
	return err
}

// Backfill walks all windows across all subreddits, collecting posts and
// their top comments, and persists everything in one batch at the end. A
// slow or failing source is skipped for that window; it never stalls the
// run. Only one backfill may be active at a time.
func (c *Collector) Backfill(ctx context.Context) (int, error) {
	if !c.status.TryStart(c.clock.Now().UTC()) {
		return 0, ErrBackfillRunning
	}

	slog.Info("[Collector] Starting historical backfill")

	// One seen-id set per source, shared across windows, so the same post
	// surfacing in month and year listings is analyzed once.
	seen := make(map[string]map[string]struct{}, len(Subreddits))
	for _, subreddit := range Subreddits {
		seen[subreddit] = make(map[string]struct{})
	}

	var collected []models.AnalyzedItem
	for _, window := range backfillWindows {
		for _, subreddit := range Subreddits {
			items, err := c.backfillSource(ctx, subreddit, window, seen[subreddit])
			collected = append(collected, items...)
			if err != nil {
				logFetchFailure(subreddit, window, err)
				continue
			}
			slog.Info("[Collector] Backfill window done",
				slog.String("subreddit", subreddit),
				slog.String("window", window.window),
				slog.Int("items", len(items)))
		}
	}

	if len(collected) == 0 {
		now := c.clock.Now().UTC()
		c.status.Fail(now, "backfill collected no items")
		slog.Error("[Collector] Backfill finished with nothing collected")
		return 0, nil
	}

	inserted, skipped, err := c.store.SaveItems(ctx, collected)
	if err != nil {
		c.status.Fail(c.clock.Now().UTC(), err.Error())
		return 0, fmt.Errorf("backfill persist: %w", err)
	}

	c.status.Complete(c.clock.Now().UTC(), inserted)
	slog.Info("[Collector] Backfill completed",
		slog.Int("collected", len(collected)),
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped))
	return inserted, nil
}

// backfillSource collects one (subreddit, window) pair under the per-source
// time budget. Items gathered before a failure are kept and returned with
// the error.
func (c *Collector) backfillSource(ctx context.Context, subreddit string, window fetchPhase, seen map[string]struct{}) ([]models.AnalyzedItem, error) {
	budgetCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchBudget)
	defer cancel()

	posts, fetchErr := c.provider.ListPosts(budgetCtx, subreddit, window.sortOrder, window.window, window.limit)

	var items []models.AnalyzedItem
	for _, post := range posts {
		if budgetCtx.Err() != nil {
			return items, budgetCtx.Err()
		}
		if _, ok := seen[post.ID]; ok {
			continue
		}

		item, matches, ok := c.analyzePost(post, relevance.SecondaryThreshold)
		if !ok {
			continue
		}
		seen[post.ID] = struct{}{}
		items = append(items, item)

		// Comment failures never abort the post collection.
		comments, err := c.provider.ListComments(budgetCtx, post.ID, c.cfg.CommentsPerPost)
		if err != nil {
			continue
		}
		for _, comment := range comments {
			commentItem, ok := c.analyzeComment(post, comment, matches)
			if !ok {
				continue
			}
			if _, dup := seen[commentItem.ID]; dup {
				continue
			}
			seen[commentItem.ID] = struct{}{}
			items = append(items, commentItem)
		}
	}

	return items, fetchErr
}
