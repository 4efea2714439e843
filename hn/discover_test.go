package hn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hn-sentiment/thread"
)

type fakeClient struct {
	mu      sync.Mutex
	items   map[int]*Item
	errs    map[int]error
	calls   []int
	onFetch func(id int)
}

func newFakeClient(items ...*Item) *fakeClient {
	f := &fakeClient{items: make(map[int]*Item), errs: make(map[int]error)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeClient) GetItem(ctx context.Context, id int) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, id)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return item, nil
}

func (f *fakeClient) callCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == id {
			n++
		}
	}
	return n
}

func story(id int, kids ...int) *Item {
	return &Item{ID: id, Type: "story", By: "op", Title: "Post", Kids: kids}
}

func hnComment(id, parent int, kids ...int) *Item {
	return &Item{ID: id, Type: "comment", By: fmt.Sprintf("u%d", id), Time: int64(id), Text: fmt.Sprintf("text %d", id), Parent: parent, Kids: kids}
}

func commentIDs(list []*thread.Comment) []int {
	out := make([]int, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func TestDiscover_PreservesKidsOrderNotFetchOrder(t *testing.T) {
	client := newFakeClient(
		story(1, 5, 3, 9),
		hnComment(5, 1, 3),
		hnComment(3, 1),
		hnComment(9, 1),
	)
	d := NewDiscoverer(client, nil)

	got, err := d.Discover(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 3, 9}, commentIDs(got.Comments))
	assert.Equal(t, []int{3}, commentIDs(got.Comments[0].Children))
	assert.Same(t, got.Comments[1], got.Comments[0].Children[0])
	assert.Equal(t, 3, got.Discovered)
	assert.Equal(t, 0, got.Dropped)
	assert.Equal(t, 1, client.callCount(3), "cached item must not be refetched")
}

func TestDiscover_BreadthFirstFetchOrder(t *testing.T) {
	client := newFakeClient(
		story(1, 10, 20),
		hnComment(10, 1, 11, 12),
		hnComment(11, 10, 13),
		hnComment(12, 10),
		hnComment(13, 11),
		hnComment(20, 1, 21),
		hnComment(21, 20),
	)
	d := NewDiscoverer(client, nil)

	got, err := d.Discover(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 10, 20, 11, 12, 21, 13}, client.calls)
	assert.Equal(t, []int{10, 20}, commentIDs(got.Comments))
	assert.Equal(t, []int{11, 12}, commentIDs(got.Comments[0].Children))
	assert.Equal(t, []int{13}, commentIDs(got.Comments[0].Children[0].Children))
	assert.Equal(t, []int{21}, commentIDs(got.Comments[1].Children))
}

func TestDiscover_NormalizesParentID(t *testing.T) {
	client := newFakeClient(
		story(1, 10),
		hnComment(10, 1, 11),
		hnComment(11, 10),
	)
	got, err := NewDiscoverer(client, nil).Discover(context.Background(), 1)
	require.NoError(t, err)

	root := got.Comments[0]
	assert.Nil(t, root.ParentID)
	require.NotNil(t, root.Children[0].ParentID)
	assert.Equal(t, 10, *root.Children[0].ParentID)
	assert.Equal(t, "u10", root.Author)
	assert.Equal(t, "text 10", root.Text)
	assert.NotNil(t, root.Children[0].Children)
}

func TestDiscover_DropsFailedItemsAndOrphans(t *testing.T) {
	client := newFakeClient(
		story(1, 10, 20, 30),
		hnComment(10, 1),
		hnComment(20, 1, 21),
		hnComment(21, 20, 22),
		hnComment(22, 21),
		hnComment(30, 1),
	)
	client.errs[20] = errors.New("boom")
	delete(client.items, 30)

	got, err := NewDiscoverer(client, nil).Discover(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []int{10}, commentIDs(got.Comments))
	// 20 failed so its kids were never queued; 30 is missing.
	assert.Equal(t, 3, got.Discovered)
	assert.Equal(t, 2, got.Dropped)
}

func TestDiscover_OrphanedSubtreeIsDropped(t *testing.T) {
	// 11 is fetched during the walk but evicted before the rebuild, so
	// its kid 12 has no parent to hang from.
	client := newFakeClient(
		story(1, 10),
		hnComment(10, 1, 11, 13),
		hnComment(11, 10, 12),
		hnComment(12, 11),
		hnComment(13, 10),
	)
	d := NewDiscoverer(client, nil)
	client.onFetch = func(id int) {
		if id == 12 {
			d.cache.mu.Lock()
			d.cache.items[11] = nil
			d.cache.mu.Unlock()
		}
	}

	got, err := d.Discover(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got.Comments, 1)
	assert.Equal(t, []int{13}, commentIDs(got.Comments[0].Children))
	assert.Equal(t, 4, got.Discovered)
	assert.Equal(t, 2, got.Dropped)
}

func TestDiscover_EmptyAndMissingRoot(t *testing.T) {
	client := newFakeClient(story(1))
	got, err := NewDiscoverer(client, nil).Discover(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)

	got, err = NewDiscoverer(client, nil).Discover(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got.Post)
	assert.Empty(t, got.Comments)
}

func TestDiscover_ReportsProgressWithoutTotal(t *testing.T) {
	client := newFakeClient(
		story(1, 10, 20, 30),
		hnComment(10, 1, 11),
		hnComment(11, 10),
		hnComment(30, 1),
	)
	var events []DiscoveryProgress
	d := NewDiscoverer(client, func(p DiscoveryProgress) { events = append(events, p) })

	_, err := d.Discover(context.Background(), 1)
	require.NoError(t, err)

	// 20 is missing, so no event fires for it, but it still counts as discovered.
	assert.Equal(t, []DiscoveryProgress{{1}, {3}, {4}}, events)
}

func TestDiscover_Cycle(t *testing.T) {
	client := newFakeClient(
		story(1, 10),
		hnComment(10, 1, 11),
		hnComment(11, 10, 10),
	)
	got, err := NewDiscoverer(client, nil).Discover(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got.Comments, 1)
	assert.Equal(t, []int{11}, commentIDs(got.Comments[0].Children))
	assert.Empty(t, got.Comments[0].Children[0].Children)
}

func TestDiscover_Cancelled(t *testing.T) {
	client := newFakeClient(
		story(1, 10, 20),
		hnComment(10, 1),
		hnComment(20, 1),
	)
	ctx, cancel := context.WithCancel(context.Background())
	client.onFetch = func(id int) {
		if id == 10 {
			cancel()
		}
	}

	_, err := NewDiscoverer(client, nil).Discover(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPost(t *testing.T) {
	client := newFakeClient(story(1, 2), hnComment(2, 1))
	d := NewDiscoverer(client, nil)

	require.NotNil(t, d.Post(context.Background(), 1))
	assert.Nil(t, d.Post(context.Background(), 2), "comments are not posts")
	assert.Nil(t, d.Post(context.Background(), 3))

	// The post fetch is shared with the following discovery.
	_, err := d.Discover(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, client.callCount(1))
}

func TestToPost(t *testing.T) {
	p := ToPost(&Item{ID: 7, Title: "T", URL: "https://x", Score: 5, Descendants: 2, Time: 9})
	assert.Equal(t, thread.Post{ID: 7, Title: "T", URL: "https://x", Author: "[deleted]", Time: 9, Score: 5, Descendants: 2}, p)
}
