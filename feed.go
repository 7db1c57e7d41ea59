package quill

import (
	"context"
	"sync"
)

// FetchPageFunc loads one page of a paginated list.
type FetchPageFunc func(ctx context.Context, page, perPage int) (*FeedPage, error)

// FeedCache accumulates pages of a paginated endpoint into one ordered,
// id-deduplicated sequence for infinite scroll. A page resolving after the
// cache has been reset or refreshed is dropped, never applied to state it no
// longer belongs to.
type FeedCache struct {
	fetch   FetchPageFunc
	perPage int

	mu      sync.Mutex
	items   []*Post
	seen    map[string]struct{}
	page    int
	hasNext bool
	loading bool
	gen     uint64
}

// NewFeedCache creates an empty cache over fetch.
func NewFeedCache(fetch FetchPageFunc, perPage int) *FeedCache {
	return &FeedCache{
		fetch:   fetch,
		perPage: perPage,
		seen:    make(map[string]struct{}),
		hasNext: true,
	}
}

// LoadFirst fetches page 1 and replaces the cache contents. A no-op while a
// first-page load is already in flight.
func (f *FeedCache) LoadFirst(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	fp, err := f.fetch(ctx, 1, f.perPage)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		// Superseded by a Reset/Refresh; the newer operation owns the state.
		return nil
	}
	f.loading = false
	if err != nil {
		return err
	}

	f.items = f.items[:0]
	f.seen = make(map[string]struct{})
	f.appendLocked(fp.Items)
	f.page = 1
	f.hasNext = fp.HasNext
	return nil
}

// LoadNext fetches the page after the last loaded one and appends it,
// skipping any post already present by id. A no-op while a load is in flight,
// when nothing has been loaded yet, or when the feed is exhausted.
func (f *FeedCache) LoadNext(ctx context.Context) error {
	f.mu.Lock()
	if f.loading || !f.hasNext || f.page == 0 {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	gen := f.gen
	next := f.page + 1
	f.mu.Unlock()

	fp, err := f.fetch(ctx, next, f.perPage)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return nil
	}
	f.loading = false
	if err != nil {
		return err
	}

	f.appendLocked(fp.Items)
	f.page = next
	f.hasNext = fp.HasNext
	return nil
}

// Refresh resets pagination state and reloads page 1. Any in-flight load is
// invalidated and its result dropped when it resolves.
func (f *FeedCache) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.gen++
	f.loading = false
	f.page = 0
	f.hasNext = true
	f.mu.Unlock()
	return f.LoadFirst(ctx)
}

// Prepend places a locally created post at the top of the feed. Returns false
// if a post with the same id is already cached; the later page that happens
// to contain it is deduplicated on append as usual.
func (f *FeedCache) Prepend(p *Post) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.seen[p.ID]; dup {
		return false
	}
	f.seen[p.ID] = struct{}{}
	f.items = append([]*Post{p}, f.items...)
	return true
}

// Items returns a snapshot of the cached posts in display order.
func (f *FeedCache) Items() []*Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Post, len(f.items))
	copy(out, f.items)
	return out
}

// HasNext reports whether more pages remain.
func (f *FeedCache) HasNext() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasNext
}

// Len returns the number of cached posts.
func (f *FeedCache) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// appendLocked appends posts not yet present by id. Caller holds f.mu.
func (f *FeedCache) appendLocked(posts []*Post) {
	for _, p := range posts {
		if _, dup := f.seen[p.ID]; dup {
			continue
		}
		f.seen[p.ID] = struct{}{}
		f.items = append(f.items, p)
	}
}

// remove takes the post with the given id out of the cache, returning it with
// its index for a possible re-insert.
func (f *FeedCache) remove(id string) (*Post, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			delete(f.seen, id)
			return p, i, true
		}
	}
	return nil, 0, false
}

// insertAt restores a removed post at its original index.
func (f *FeedCache) insertAt(i int, p *Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.seen[p.ID]; dup {
		return
	}
	if i > len(f.items) {
		i = len(f.items)
	}
	f.items = append(f.items[:i], append([]*Post{p}, f.items[i:]...)...)
	f.seen[p.ID] = struct{}{}
}
