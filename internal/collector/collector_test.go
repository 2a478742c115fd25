package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoralesv/pulso/internal/models"
	"github.com/jmoralesv/pulso/internal/reddit"
	"github.com/jmoralesv/pulso/internal/relevance"
	"github.com/jmoralesv/pulso/internal/sentiment"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	mu       sync.Mutex
	posts    func(subreddit, sortOrder, window string, limit int) ([]reddit.Post, error)
	comments func(postID string, limit int) ([]reddit.Comment, error)
	calls    []string
}

func (p *fakeProvider) ListPosts(_ context.Context, subreddit, sortOrder, window string, limit int) ([]reddit.Post, error) {
	p.mu.Lock()
	p.calls = append(p.calls, fmt.Sprintf("%s/%s/%s/%d", subreddit, sortOrder, window, limit))
	p.mu.Unlock()

	if p.posts == nil {
		return nil, nil
	}
	return p.posts(subreddit, sortOrder, window, limit)
}

func (p *fakeProvider) ListComments(_ context.Context, postID string, limit int) ([]reddit.Comment, error) {
	if p.comments == nil {
		return nil, nil
	}
	return p.comments(postID, limit)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) calledWith(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.calls {
		if c == call {
			return true
		}
	}
	return false
}

type fakeItemStore struct {
	mu      sync.Mutex
	items   map[string]models.AnalyzedItem
	saveErr error
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string]models.AnalyzedItem)}
}

func (s *fakeItemStore) SaveItems(_ context.Context, items []models.AnalyzedItem) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return 0, 0, s.saveErr
	}

	var inserted, skipped int
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			skipped++
			continue
		}
		s.items[item.ID] = item
		inserted++
	}
	return inserted, skipped, nil
}

func (s *fakeItemStore) CountItems(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *fakeItemStore) ItemSpan(context.Context) (time.Time, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest, newest time.Time
	for _, item := range s.items {
		if oldest.IsZero() || item.CreatedAt.Before(oldest) {
			oldest = item.CreatedAt
		}
		if item.CreatedAt.After(newest) {
			newest = item.CreatedAt
		}
	}
	return oldest, newest, nil
}

func (s *fakeItemStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

func (s *fakeItemStore) get(id string) models.AnalyzedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// relevantPost clears the two-keyword gate.
func relevantPost(id string, createdAt time.Time) reddit.Post {
	return reddit.Post{
		ID:        id,
		Subreddit: "argentina",
		Title:     "milei habló del congreso",
		Author:    "someone",
		Score:     42,
		CreatedAt: createdAt,
		Permalink: "https://reddit.com/r/argentina/comments/" + id,
	}
}

func newTestCollector(provider *fakeProvider, store *fakeItemStore) *Collector {
	return New(provider, store, sentiment.NewAnalyzer(), clockwork.NewFakeClockAt(testNow), Config{})
}

func TestCollectOnceFallsBackWhileTooFewRelevantItems(t *testing.T) {
	newPosts := make([]reddit.Post, 0, 6)
	for i := 0; i < 5; i++ {
		newPosts = append(newPosts, relevantPost(fmt.Sprintf("n%d", i), testNow.Add(-time.Hour)))
	}
	weak := relevantPost("weak", testNow.Add(-time.Hour))
	weak.Title = "milei fue al cine"
	newPosts = append(newPosts, weak)

	provider := &fakeProvider{
		posts: func(subreddit, sortOrder, window string, _ int) ([]reddit.Post, error) {
			if subreddit != "argentina" {
				return nil, nil
			}
			switch {
			case sortOrder == "new":
				return newPosts, nil
			case sortOrder == "top" && window == "week":
				return []reddit.Post{
					relevantPost("w0", testNow.AddDate(0, 0, -3)),
					relevantPost("w1", testNow.AddDate(0, 0, -4)),
				}, nil
			case sortOrder == "top" && window == "month":
				return []reddit.Post{relevantPost("m0", testNow.AddDate(0, 0, -20))}, nil
			default:
				return nil, nil
			}
		},
	}
	store := newFakeItemStore()
	coll := newTestCollector(provider, store)

	inserted, err := coll.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, inserted)

	assert.True(t, provider.calledWith("argentina/hot//50"))
	assert.True(t, provider.calledWith("argentina/new//100"))
	assert.True(t, provider.calledWith("argentina/top/week/100"))
	assert.True(t, provider.calledWith("argentina/top/month/100"))

	assert.True(t, store.has("n0"))
	assert.True(t, store.has("w1"))
	assert.True(t, store.has("m0"))
	assert.False(t, store.has("weak"), "single-keyword post must not pass the incremental gate")
}

func TestCollectOnceSkipsFallbackWhenEnoughRelevantItems(t *testing.T) {
	posts := make([]reddit.Post, 0, 25)
	for i := 0; i < 25; i++ {
		posts = append(posts, relevantPost(fmt.Sprintf("n%d", i), testNow.Add(-time.Hour)))
	}

	provider := &fakeProvider{
		posts: func(subreddit, sortOrder, _ string, _ int) ([]reddit.Post, error) {
			if subreddit == "argentina" && sortOrder == "new" {
				return posts, nil
			}
			return nil, nil
		},
	}
	store := newFakeItemStore()
	coll := newTestCollector(provider, store)

	inserted, err := coll.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, inserted)
	assert.False(t, provider.calledWith("argentina/top/week/100"))
	assert.False(t, provider.calledWith("argentina/top/month/100"))
}

func TestCollectOnceSecondRunInsertsNothingNew(t *testing.T) {
	provider := &fakeProvider{
		posts: func(subreddit, sortOrder, _ string, _ int) ([]reddit.Post, error) {
			if subreddit == "argentina" && sortOrder == "new" {
				return []reddit.Post{relevantPost("n0", testNow.Add(-time.Hour))}, nil
			}
			return nil, nil
		},
	}
	store := newFakeItemStore()
	coll := newTestCollector(provider, store)

	first, err := coll.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := coll.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestCollectOncePersistFailureIsReported(t *testing.T) {
	provider := &fakeProvider{
		posts: func(subreddit, sortOrder, _ string, _ int) ([]reddit.Post, error) {
			if subreddit == "argentina" && sortOrder == "new" {
				return []reddit.Post{relevantPost("n0", testNow.Add(-time.Hour))}, nil
			}
			return nil, nil
		},
	}
	store := newFakeItemStore()
	store.saveErr = errors.New("connection refused")
	coll := newTestCollector(provider, store)

	_, err := coll.CollectOnce(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")

	status := coll.Status()
	assert.Contains(t, status.Error, "connection refused")
	assert.False(t, status.InProgress)
}

func TestCollectOnceFailingSourceDoesNotAbortOthers(t *testing.T) {
	provider := &fakeProvider{
		posts: func(subreddit, sortOrder, _ string, _ int) ([]reddit.Post, error) {
			if subreddit == "argentina" {
				return nil, errors.New("503 from upstream")
			}
			if subreddit == "BuenosAires" && sortOrder == "new" {
				return []reddit.Post{relevantPost("b0", testNow.Add(-time.Hour))}, nil
			}
			return nil, nil
		},
	}
	store := newFakeItemStore()
	coll := newTestCollector(provider, store)

	inserted, err := coll.CollectOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.True(t, store.has("b0"))
}

func TestAnalyzePostGatesOnThreshold(t *testing.T) {
	coll := newTestCollector(&fakeProvider{}, newFakeItemStore())

	item, matches, ok := coll.analyzePost(relevantPost("p1", testNow), relevance.PrimaryThreshold)
	require.True(t, ok)
	assert.Equal(t, 2, matches)
	assert.Equal(t, models.KindPost, item.Kind)
	assert.NotEmpty(t, item.Sentiment)
	assert.Contains(t, item.Topics, "milei")
	assert.Contains(t, item.Topics, "congreso")
	assert.Equal(t, testNow, item.AnalyzedAt)

	weak := relevantPost("p2", testNow)
	weak.Title = "milei fue al cine"
	_, matches, ok = coll.analyzePost(weak, relevance.PrimaryThreshold)
	assert.False(t, ok)
	assert.Equal(t, 1, matches)

	_, _, ok = coll.analyzePost(weak, relevance.SecondaryThreshold)
	assert.True(t, ok)
}

func TestCommentInScope(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		parentMatches int
		want          bool
	}{
		{"inherits strong parent context", "totalmente de acuerdo con esto", 2, true},
		{"weak parent and no own keywords", "totalmente de acuerdo con esto", 1, false},
		{"own keyword suffices", "milei fue al cine con amigos", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommentInScope(tt.body, tt.parentMatches))
		})
	}
}

func TestAnalyzeCommentSkipsVeryShortBodies(t *testing.T) {
	coll := newTestCollector(&fakeProvider{}, newFakeItemStore())
	post := relevantPost("p1", testNow)

	_, ok := coll.analyzeComment(post, reddit.Comment{ID: "c1", Body: "corto"}, 2)
	assert.False(t, ok)

	item, ok := coll.analyzeComment(post, reddit.Comment{
		ID:        "c2",
		Body:      "totalmente de acuerdo con esto, muy bien explicado",
		Author:    "commenter",
		CreatedAt: testNow.Add(-time.Hour),
	}, 2)
	require.True(t, ok)
	assert.Equal(t, "p1_c2", item.ID)
	assert.Equal(t, models.KindComment, item.Kind)
	assert.Contains(t, item.Title, "Comment on: ")
}
