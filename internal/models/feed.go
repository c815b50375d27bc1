package models

import (
	"fmt"
	"strconv"
	"time"
)

// FeedFilter selects which posts a feed page draws from.
type FeedFilter string

const (
	FilterAll       FeedFilter = "all"
	FilterFollowing FeedFilter = "following"
	FilterProfile   FeedFilter = "profile"
)

// ParseFeedFilter accepts the path values used by the feed endpoints.
func ParseFeedFilter(s string) (FeedFilter, bool) {
	switch f := FeedFilter(s); f {
	case FilterAll, FilterFollowing, FilterProfile:
		return f, true
	}
	return "", false
}

// Cursor identifies the last post a client has seen. Pages continue strictly
// after it in (created_at DESC, id DESC) order.
type Cursor struct {
	PostID    uint
	Timestamp time.Time
}

// CursorAfter builds the cursor that continues after the given post.
func CursorAfter(p PostView) Cursor {
	return Cursor{PostID: p.ID, Timestamp: p.Timestamp}
}

// Params renders the cursor as query parameters.
func (c Cursor) Params() map[string]string {
	return map[string]string{
		"post_id":   strconv.FormatUint(uint64(c.PostID), 10),
		"timestamp": FormatTimestamp(c.Timestamp),
	}
}

// ParseCursor reads a cursor from its query parameter form.
func ParseCursor(postID, timestamp string) (Cursor, error) {
	id, err := strconv.ParseUint(postID, 10, 64)
	if err != nil || id == 0 {
		return Cursor{}, fmt.Errorf("invalid post_id %q", postID)
	}
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid timestamp %q: %w", timestamp, err)
	}
	return Cursor{PostID: uint(id), Timestamp: ts.UTC()}, nil
}

// FormatTimestamp is the wire form of every timestamp the API emits.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// PostView is the per-viewer representation of a post.
type PostView struct {
	ID             uint      `json:"id"`
	User           string    `json:"user"`
	UserID         uint      `json:"user_id"`
	ProfilePicture string    `json:"profile_picture"`
	UserIsAuthor   bool      `json:"user_is_author"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	LikeCount      int64     `json:"like_count"`
	CommentCount   int64     `json:"comment_count"`
	Liked          bool      `json:"liked"`
	CounterVersion int64     `json:"counter_version"`
}

// NewPostView renders a post for viewerID (0 for anonymous).
func NewPostView(p *Post, viewerID uint, liked bool) PostView {
	return PostView{
		ID:             p.ID,
		User:           p.User.Username,
		UserID:         p.UserID,
		ProfilePicture: p.User.ProfilePicture,
		UserIsAuthor:   viewerID != 0 && viewerID == p.UserID,
		Content:        p.Content,
		Timestamp:      p.CreatedAt.UTC(),
		LikeCount:      p.LikeCount,
		CommentCount:   p.CommentCount,
		Liked:          viewerID != 0 && liked,
		CounterVersion: p.CounterVersion,
	}
}

// FeedPage is one page of a feed.
type FeedPage struct {
	Posts   []PostView `json:"posts"`
	HasNext bool       `json:"hasNext"`
}

// CommentView is the per-viewer representation of a comment.
type CommentView struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	User           string    `json:"user"`
	UserIsAuthor   bool      `json:"user_is_author"`
	ProfilePicture string    `json:"profile_picture"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewCommentView(c *Comment, viewerID uint) CommentView {
	return CommentView{
		ID:             c.ID,
		UserID:         c.UserID,
		User:           c.User.Username,
		UserIsAuthor:   viewerID != 0 && viewerID == c.UserID,
		ProfilePicture: c.User.ProfilePicture,
		Content:        c.Content,
		Timestamp:      c.CreatedAt.UTC(),
	}
}

// CommentResult is returned when a comment is created.
type CommentResult struct {
	Message      string      `json:"message"`
	Comment      CommentView `json:"comment"`
	CommentCount int64       `json:"commentCount"`
	Version      int64       `json:"version"`
}

// CommentCountResult is returned when a comment is deleted.
type CommentCountResult struct {
	CommentCount int64 `json:"commentCount"`
	Version      int64 `json:"version"`
}

// LikeState is the authoritative outcome of a like toggle.
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
	Version   int64 `json:"version"`
}

// FollowState is the authoritative outcome of a follow toggle.
type FollowState struct {
	Follow         bool  `json:"follow"`
	FollowersCount int64 `json:"followers_count"`
}

// ProfileView is a user's public profile as seen by a viewer.
type ProfileView struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	Followers      int64  `json:"followers"`
	Following      int64  `json:"following"`
	Follow         bool   `json:"follow"`
	PostCount      int64  `json:"post_count"`
}

// PostCounters is the payload of live counter events. A nil counter did not
// change. Version is the post's CounterVersion after the change; a receiver
// holding a higher version drops the update.
type PostCounters struct {
	PostID       uint   `json:"post_id"`
	LikeCount    *int64 `json:"like_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`
	Version      int64  `json:"version,omitempty"`
}

// WithVersion stamps the counter version the values were read at.
func (c PostCounters) WithVersion(version int64) PostCounters {
	c.Version = version
	return c
}

// Supersedes reports whether c should overwrite counters held at version.
// Unversioned updates always apply.
func (c PostCounters) Supersedes(version int64) bool {
	return c.Version == 0 || c.Version > version
}

// LikeCounters reports a like_count change.
func LikeCounters(postID uint, likeCount int64) PostCounters {
	return PostCounters{PostID: postID, LikeCount: &likeCount}
}

// CommentCounters reports a comment_count change.
func CommentCounters(postID uint, commentCount int64) PostCounters {
	return PostCounters{PostID: postID, CommentCount: &commentCount}
}
