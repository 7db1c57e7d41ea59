package quill

import "fmt"

const (
	defaultBaseURL   = "https://api.quill.social"
	defaultUserAgent = "go-quill/1.0"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"

	feedPath    = "/posts/feed"
	explorePath = "/posts/explore"
	postsPath   = "/posts"
)

func postPath(id string) string      { return fmt.Sprintf("/posts/%s", id) }
func likePath(id string) string      { return fmt.Sprintf("/posts/%s/like", id) }
func repostPath(id string) string    { return fmt.Sprintf("/posts/%s/repost", id) }
func followPath(id string) string    { return fmt.Sprintf("/users/%s/follow", id) }
func userPostsPath(id string) string { return fmt.Sprintf("/users/%s/posts", id) }
