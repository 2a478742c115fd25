// Package reddit implements the raw-content provider over the Reddit listing
// API using application-only OAuth.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	authURL  = "https://www.reddit.com/api/v1/access_token"
	apiURL   = "https://oauth.reddit.com"
	pageSize = 100
)

// FetchError is a transient, per-source provider failure. Collection skips
// the affected source and continues.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("reddit fetch for %s failed with status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("reddit fetch for %s failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	conf      *clientcredentials.Config
	limiter   *rate.Limiter
	userAgent string

	mu         sync.Mutex
	httpClient *http.Client
}

func NewClient(clientID, clientSecret, userAgent string) *Client {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     authURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &Client{
		conf:       conf,
		httpClient: conf.Client(context.Background()),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		userAgent:  userAgent,
	}
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.httpClient
}

func (c *Client) refreshClient() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = c.conf.Client(context.Background())
}

// ListPosts fetches up to limit posts from a subreddit listing, paginating
// via the listing cursor. sort is one of "hot", "new", "top"; window applies
// to "top" only ("week", "month", "year", "all"). On a mid-pagination
// failure the posts already fetched are returned alongside the error.
func (c *Client) ListPosts(ctx context.Context, subreddit, sortOrder, window string, limit int) ([]Post, error) {
	var posts []Post

	after := ""
	for len(posts) < limit {
		remaining := limit - len(posts)
		if remaining > pageSize {
			remaining = pageSize
		}

		query := url.Values{}
		query.Set("limit", strconv.Itoa(remaining))
		query.Set("raw_json", "1")
		if after != "" {
			query.Set("after", after)
		}
		if sortOrder == "top" && window != "" {
			query.Set("t", window)
		}

		endpoint := fmt.Sprintf("%s/r/%s/%s", apiURL, url.PathEscape(subreddit), sortOrder)
		body, err := c.get(ctx, endpoint, query, subreddit)
		if err != nil {
			return posts, err
		}

		var listing listingEnvelope
		if err := json.Unmarshal(body, &listing); err != nil {
			return posts, &FetchError{Source: subreddit, Err: fmt.Errorf("decoding listing: %w", err)}
		}
		if len(listing.Data.Children) == 0 {
			break
		}

		for _, child := range listing.Data.Children {
			if child.Kind == "t3" {
				posts = append(posts, child.Data.toPost())
			}
		}

		if listing.Data.After == "" {
			break
		}
		after = listing.Data.After
	}

	return posts, nil
}

// ListComments fetches up to limit top-level comments for a post, highest
// scored first.
func (c *Client) ListComments(ctx context.Context, postID string, limit int) ([]Comment, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("depth", "1")
	query.Set("sort", "top")
	query.Set("raw_json", "1")

	endpoint := fmt.Sprintf("%s/comments/%s", apiURL, url.PathEscape(postID))
	body, err := c.get(ctx, endpoint, query, postID)
	if err != nil {
		return nil, err
	}

	// The comments endpoint returns a two-element array: the post listing
	// followed by the comment listing.
	var envelopes []listingEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, &FetchError{Source: postID, Err: fmt.Errorf("decoding comments: %w", err)}
	}
	if len(envelopes) < 2 {
		return nil, nil
	}

	var comments []Comment
	for _, child := range envelopes[1].Data.Children {
		if child.Kind == "t1" {
			comments = append(comments, child.Data.toComment(postID))
		}
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Score > comments[j].Score
	})
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, source string) ([]byte, error) {
	return c.doGet(ctx, endpoint, query, source, true)
}

func (c *Client) doGet(ctx context.Context, endpoint string, query url.Values, source string, allowRefresh bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client().Do(req)
	if err != nil {
		// Context errors surface unwrapped so deadline overruns are
		// distinguishable from generic fetch failures.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &FetchError{Source: source, Err: err}
		}
		return body, nil
	case http.StatusUnauthorized:
		if allowRefresh {
			slog.Warn("[RedditClient] Token expired - refreshing and retrying",
				slog.String("source", source))
			c.refreshClient()
			return c.doGet(ctx, endpoint, query, source, false)
		}
		return nil, &FetchError{Source: source, StatusCode: resp.StatusCode}
	default:
		return nil, &FetchError{Source: source, StatusCode: resp.StatusCode}
	}
}
