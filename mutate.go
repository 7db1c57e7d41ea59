package quill

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// action identifies the kind of toggle a pending intent belongs to.
type action int

const (
	actionLike action = iota
	actionRepost
	actionFollow
	actionDelete
)

type intentKey struct {
	entityID string
	action   action
}

// Mutator applies engagement toggles optimistically: the entity's flag and
// counter move together before the network call resolves, and are restored to
// the recorded snapshot exactly when it fails. The rollback contract lives
// here once instead of being re-implemented per screen.
//
// While an intent for a given (entity, action) pair is outstanding, a
// repeated toggle returns ErrMutationPending rather than stacking a second
// unreconciled delta on the same counter.
type Mutator struct {
	c        *Client
	onChange func(entityID string)

	mu      sync.Mutex
	pending map[intentKey]struct{}
}

// NewMutator creates a Mutator. onChange, when non-nil, is invoked after
// every local state change (the optimistic apply, the reconcile, and the
// rollback) with the affected entity's id.
func NewMutator(c *Client, onChange func(entityID string)) *Mutator {
	return &Mutator{
		c:        c,
		onChange: onChange,
		pending:  make(map[intentKey]struct{}),
	}
}

func (m *Mutator) notify(entityID string) {
	if m.onChange != nil {
		m.onChange(entityID)
	}
}

// begin registers an intent, rejecting a duplicate for the same key.
func (m *Mutator) begin(key intentKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, outstanding := m.pending[key]; outstanding {
		return ErrMutationPending
	}
	m.pending[key] = struct{}{}
	return nil
}

func (m *Mutator) settle(key intentKey) {
	m.mu.Lock()
	delete(m.pending, key)
	m.mu.Unlock()
}

// countResponse is the optional authoritative counter some engagement
// endpoints return.
type countResponse struct {
	LikesCount   *int `json:"likes_count"`
	RepostsCount *int `json:"reposts_count"`
}

// ToggleLike flips the post's like state. The flag and counter move
// immediately; on failure both are restored and the error is returned for
// user-facing feedback.
func (m *Mutator) ToggleLike(ctx context.Context, p *Post) error {
	key := intentKey{p.ID, actionLike}
	if err := m.begin(key); err != nil {
		return err
	}
	defer m.settle(key)

	m.mu.Lock()
	prevFlag, prevCount := p.IsLiked, p.LikesCount
	liking := !p.IsLiked
	p.IsLiked = liking
	if liking {
		p.LikesCount++
	} else {
		p.LikesCount--
	}
	m.mu.Unlock()
	m.notify(p.ID)

	method, operation := http.MethodPost, "Like"
	if !liking {
		method, operation = http.MethodDelete, "Unlike"
	}
	var out countResponse
	err := m.c.do(ctx, apiCall{operation: operation, method: method, path: likePath(p.ID), auth: true}, &out)

	m.mu.Lock()
	if err != nil {
		p.IsLiked, p.LikesCount = prevFlag, prevCount
	} else if out.LikesCount != nil {
		p.LikesCount = *out.LikesCount
	}
	m.mu.Unlock()
	m.notify(p.ID)

	if err != nil {
		slog.Debug("like rolled back", slog.String("post", p.ID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// ToggleRepost flips the post's repost state with the same rollback shape.
func (m *Mutator) ToggleRepost(ctx context.Context, p *Post) error {
	key := intentKey{p.ID, actionRepost}
	if err := m.begin(key); err != nil {
		return err
	}
	defer m.settle(key)

	m.mu.Lock()
	prevFlag, prevCount := p.IsReposted, p.RepostsCount
	reposting := !p.IsReposted
	p.IsReposted = reposting
	if reposting {
		p.RepostsCount++
	} else {
		p.RepostsCount--
	}
	m.mu.Unlock()
	m.notify(p.ID)

	method, operation := http.MethodPost, "Repost"
	if !reposting {
		method, operation = http.MethodDelete, "Unrepost"
	}
	var out countResponse
	err := m.c.do(ctx, apiCall{operation: operation, method: method, path: repostPath(p.ID), auth: true}, &out)

	m.mu.Lock()
	if err != nil {
		p.IsReposted, p.RepostsCount = prevFlag, prevCount
	} else if out.RepostsCount != nil {
		p.RepostsCount = *out.RepostsCount
	}
	m.mu.Unlock()
	m.notify(p.ID)

	if err != nil {
		slog.Debug("repost rolled back", slog.String("post", p.ID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// ToggleFollow flips the follow state of a user, moving their follower
// counter with the flag.
func (m *Mutator) ToggleFollow(ctx context.Context, u *User) error {
	key := intentKey{u.ID, actionFollow}
	if err := m.begin(key); err != nil {
		return err
	}
	defer m.settle(key)

	m.mu.Lock()
	prevFlag, prevCount := u.IsFollowing, u.FollowersCount
	following := !u.IsFollowing
	u.IsFollowing = following
	if following {
		u.FollowersCount++
	} else {
		u.FollowersCount--
	}
	m.mu.Unlock()
	m.notify(u.ID)

	method, operation := http.MethodPost, "Follow"
	if !following {
		method, operation = http.MethodDelete, "Unfollow"
	}
	err := m.c.do(ctx, apiCall{operation: operation, method: method, path: followPath(u.ID), auth: true}, nil)

	m.mu.Lock()
	if err != nil {
		u.IsFollowing, u.FollowersCount = prevFlag, prevCount
	}
	m.mu.Unlock()
	m.notify(u.ID)

	if err != nil {
		slog.Debug("follow rolled back", slog.String("user", u.ID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// DeletePost removes the post from the feed immediately and deletes it
// server-side. On failure the post is re-inserted at its original index, not
// appended.
func (m *Mutator) DeletePost(ctx context.Context, feed *FeedCache, postID string) error {
	key := intentKey{postID, actionDelete}
	if err := m.begin(key); err != nil {
		return err
	}
	defer m.settle(key)

	removed, idx, ok := feed.remove(postID)
	if ok {
		m.notify(postID)
	}

	err := m.c.do(ctx, apiCall{operation: "DeletePost", method: http.MethodDelete, path: postPath(postID), auth: true}, nil)
	if err != nil {
		if ok {
			feed.insertAt(idx, removed)
			m.notify(postID)
		}
		slog.Debug("delete rolled back", slog.String("post", postID), slog.Any("error", err))
		return fmt.Errorf("DeletePost: %w", err)
	}
	return nil
}
