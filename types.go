package quill

import "time"

// AuthTokens is the access/refresh pair issued by the backend.
// The pair is replaced wholesale on login and refresh and cleared wholesale
// on logout; no component outside the TokenStore keeps a copy past a single
// request.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// User represents a Quill account profile.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	PostsCount     int       `json:"posts_count"`
	IsFollowing    bool      `json:"is_following"`
	CreatedAt      time.Time `json:"created_at"`
}

// Post represents a single post in a feed.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	LikesCount   int       `json:"likes_count"`
	RepostsCount int       `json:"reposts_count"`
	RepliesCount int       `json:"replies_count"`
	IsLiked      bool      `json:"is_liked"`
	IsReposted   bool      `json:"is_reposted"`
}

// FeedPage is one page of a paginated list endpoint.
type FeedPage struct {
	Items   []*Post `json:"items"`
	Page    int     `json:"page"`
	HasNext bool    `json:"has_next"`
}
