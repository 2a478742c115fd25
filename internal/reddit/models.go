package reddit

import "time"

// Post is the minimal raw submission shape the pipeline consumes. Timestamps
// are normalized to UTC.
type Post struct {
	ID          string
	Subreddit   string
	Title       string
	Selftext    string
	Author      string
	Score       int
	NumComments int
	CreatedAt   time.Time
	Permalink   string
	URL         string
}

// Comment is a raw top-level comment on a post.
type Comment struct {
	ID        string
	PostID    string
	Body      string
	Author    string
	Score     int
	CreatedAt time.Time
	Permalink string
}

type listingEnvelope struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string         `json:"after"`
	Children []listingChild `json:"children"`
}

type listingChild struct {
	Kind string    `json:"kind"`
	Data childData `json:"data"`
}

// childData covers both submission (t3) and comment (t1) payload fields.
type childData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	LinkID      string  `json:"link_id"`
}

func (d childData) createdAt() time.Time {
	return time.Unix(int64(d.CreatedUTC), 0).UTC()
}

func (d childData) toPost() Post {
	return Post{
		ID:          d.ID,
		Subreddit:   d.Subreddit,
		Title:       d.Title,
		Selftext:    d.Selftext,
		Author:      d.Author,
		Score:       d.Score,
		NumComments: d.NumComments,
		CreatedAt:   d.createdAt(),
		Permalink:   "https://reddit.com" + d.Permalink,
		URL:         d.URL,
	}
}

func (d childData) toComment(postID string) Comment {
	return Comment{
		ID:        d.ID,
		PostID:    postID,
		Body:      d.Body,
		Author:    d.Author,
		Score:     d.Score,
		CreatedAt: d.createdAt(),
		Permalink: "https://reddit.com" + d.Permalink,
	}
}
