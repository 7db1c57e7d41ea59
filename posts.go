package quill

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CreatePost publishes a new post and returns the server's copy. Pair with
// FeedCache.Prepend to show it at the top of the feed without a refetch.
func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	var p Post
	call := apiCall{
		operation: "CreatePost",
		method:    http.MethodPost,
		path:      postsPath,
		body:      map[string]string{"text": text},
		auth:      true,
	}
	if err := c.do(ctx, call, &p); err != nil {
		return nil, fmt.Errorf("CreatePost: %w", err)
	}
	return &p, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var p Post
	call := apiCall{operation: "GetPost", method: http.MethodGet, path: postPath(id), auth: true}
	if err := c.do(ctx, call, &p); err != nil {
		return nil, fmt.Errorf("GetPost: %w", err)
	}
	return &p, nil
}

// GetUser fetches a user profile by id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	call := apiCall{operation: "GetUser", method: http.MethodGet, path: "/users/" + id, auth: true}
	if err := c.do(ctx, call, &u); err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &u, nil
}

// fetchPostPage fetches one page of a paginated post list endpoint.
func (c *Client) fetchPostPage(ctx context.Context, operation, path string, auth bool, page, perPage int) (*FeedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var fp FeedPage
	call := apiCall{operation: operation, method: http.MethodGet, path: path, query: q, auth: auth}
	if err := c.do(ctx, call, &fp); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return &fp, nil
}

// Feed returns a cache over the signed-in home timeline.
func (c *Client) Feed() *FeedCache {
	return NewFeedCache(func(ctx context.Context, page, perPage int) (*FeedPage, error) {
		return c.fetchPostPage(ctx, "Feed", feedPath, true, page, perPage)
	}, c.cfg.PerPage)
}

// Explore returns a cache over the public explore timeline.
func (c *Client) Explore() *FeedCache {
	return NewFeedCache(func(ctx context.Context, page, perPage int) (*FeedPage, error) {
		return c.fetchPostPage(ctx, "Explore", explorePath, false, page, perPage)
	}, c.cfg.PerPage)
}

// UserPosts returns a cache over a user's own posts.
func (c *Client) UserPosts(userID string) *FeedCache {
	return NewFeedCache(func(ctx context.Context, page, perPage int) (*FeedPage, error) {
		return c.fetchPostPage(ctx, "UserPosts", userPostsPath(userID), false, page, perPage)
	}, c.cfg.PerPage)
}
