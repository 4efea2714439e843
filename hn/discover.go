package hn

import (
	"context"
	"fmt"
	"log/slog"

	"hn-sentiment/thread"
)

// DiscoveryProgress reports how many comment IDs a discovery run has seen
// so far. The final count is unknown until the walk completes.
type DiscoveryProgress struct {
	Discovered int
}

// Discovery is the result of walking one post's comment graph.
type Discovery struct {
	Post     *Item
	Comments thread.Tree
	// Discovered counts the distinct comment IDs visited by the walk.
	Discovered int
	// Dropped counts discovered IDs that produced no comment in the tree,
	// either because the fetch failed or because their parent did.
	Dropped int
}

// Discoverer walks a post's comment graph. Each Discoverer owns one
// ItemCache, so it should be used for a single post and then discarded.
type Discoverer struct {
	cache      *ItemCache
	onProgress func(DiscoveryProgress)
}

// NewDiscoverer creates a Discoverer with a fresh cache. onProgress may be nil.
func NewDiscoverer(client Client, onProgress func(DiscoveryProgress)) *Discoverer {
	return &Discoverer{
		cache:      NewItemCache(client),
		onProgress: onProgress,
	}
}

// Cache exposes the discoverer's item cache.
func (d *Discoverer) Cache() *ItemCache {
	return d.cache
}

// Post returns the story with the given ID, or nil when the item is
// missing or is not a story.
func (d *Discoverer) Post(ctx context.Context, id int) *Item {
	item := d.cache.Get(ctx, id)
	if item == nil || item.Type != "story" {
		return nil
	}
	return item
}

// Discover fetches every comment under rootID breadth-first and rebuilds
// the tree. Children keep the order of each item's kids list, not the
// order in which the walk fetched them. Items that cannot be fetched are
// left out together with anything only reachable through them. The only
// error is cancellation of ctx.
func (d *Discoverer) Discover(ctx context.Context, rootID int) (*Discovery, error) {
	root := d.cache.Get(ctx, rootID)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovering comments for %d: %w", rootID, err)
	}
	result := &Discovery{Post: root, Comments: thread.Tree{}}
	if root == nil || len(root.Kids) == 0 {
		return result, nil
	}

	queue := append([]int(nil), root.Kids...)
	seen := make(map[int]bool, len(queue))
	var discovered []int

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovering comments for %d: %w", rootID, err)
		}
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		discovered = append(discovered, id)

		item := d.cache.Get(ctx, id)
		if item == nil {
			continue
		}
		queue = append(queue, item.Kids...)
		if d.onProgress != nil {
			d.onProgress(DiscoveryProgress{Discovered: len(discovered)})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovering comments for %d: %w", rootID, err)
	}

	nodes := make(map[int]*thread.Comment, len(discovered))
	for _, id := range discovered {
		if item, _ := d.cache.Lookup(id); item != nil {
			nodes[id] = newComment(id, item, rootID)
		}
	}

	b := &treeBuilder{cache: d.cache, nodes: nodes, linked: make(map[int]bool), path: make(map[int]bool)}
	result.Comments = b.resolve(root.Kids)
	result.Discovered = len(discovered)
	result.Dropped = len(discovered) - len(b.linked)

	slog.Info("comments discovered",
		"post_id", rootID,
		"discovered", result.Discovered,
		"dropped", result.Dropped,
		"fetches", d.cache.Fetches(),
	)
	return result, nil
}

// treeBuilder links comments to their children, starting from the roots.
// Only comments reachable from the roots are linked; an ID that would
// close a cycle with its own ancestors is skipped.
type treeBuilder struct {
	cache  *ItemCache
	nodes  map[int]*thread.Comment
	linked map[int]bool
	path   map[int]bool
}

func (b *treeBuilder) resolve(kids []int) []*thread.Comment {
	out := make([]*thread.Comment, 0, len(kids))
	for _, kid := range kids {
		node := b.nodes[kid]
		if node == nil || b.path[kid] {
			continue
		}
		b.link(node)
		out = append(out, node)
	}
	return out
}

func (b *treeBuilder) link(node *thread.Comment) {
	if b.linked[node.ID] {
		return
	}
	b.linked[node.ID] = true
	b.path[node.ID] = true
	item, _ := b.cache.Lookup(node.ID)
	node.Children = b.resolve(item.Kids)
	delete(b.path, node.ID)
}

func newComment(id int, item *Item, rootID int) *thread.Comment {
	c := &thread.Comment{
		ID:       id,
		Author:   item.By,
		Time:     item.Time,
		Text:     item.Text,
		Deleted:  item.Deleted,
		Dead:     item.Dead,
		Children: []*thread.Comment{},
	}
	if c.Author == "" {
		c.Author = "[deleted]"
	}
	if item.Parent != 0 && item.Parent != rootID {
		parent := item.Parent
		c.ParentID = &parent
	}
	return c
}

// ToPost converts a story item into the post record stored with an analysis.
func ToPost(item *Item) thread.Post {
	author := item.By
	if author == "" {
		author = "[deleted]"
	}
	return thread.Post{
		ID:          item.ID,
		Title:       item.Title,
		URL:         item.URL,
		Text:        item.Text,
		Author:      author,
		Time:        item.Time,
		Score:       item.Score,
		Descendants: item.Descendants,
	}
}
