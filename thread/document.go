package thread

import "fmt"

// SchemaVersion is written into every exported Document.
const SchemaVersion = "1.0"

// Post is the story a discussion hangs off.
type Post struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Text        string `json:"text,omitempty"`
	Author      string `json:"author"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// Document is a complete analysis of one post, as stored and exported.
type Document struct {
	Version           string `json:"version"`
	PostID            int    `json:"hnPostId"`
	PostURL           string `json:"hnPostUrl"`
	Title             string `json:"title"`
	SentimentQuestion string `json:"sentimentQuestion"`
	Model             string `json:"model"`
	AnalyzedAt        string `json:"analyzedAt"`
	RunID             string `json:"runId,omitempty"`
	ThreadSummary     string `json:"threadSummary,omitempty"`
	Post              Post   `json:"post"`
	Comments          Tree   `json:"comments"`
}

// DiscussionURL returns the news.ycombinator.com page for a post.
func DiscussionURL(postID int) string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", postID)
}
