// Package feed is the client-side feed session: it owns the rendered page of
// posts, fetches pages one at a time through a cursor, and merges likes,
// comments and live events into what is already on screen.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"network/internal/models"
	"network/internal/notifications"
)

const (
	EmptyMessage = "No posts found."
	ErrorMessage = "Something went wrong while loading posts."
)

var (
	// ErrBusy is returned when a page fetch is already in flight.
	ErrBusy = errors.New("feed: a page is already loading")
	// ErrStale is returned for a page whose load was superseded.
	ErrStale = errors.New("feed: result superseded by a newer load")
	// ErrNoMore is returned by LoadMorePosts when the sentinel is retired.
	ErrNoMore = errors.New("feed: no more posts to load")
)

// Source fetches feed pages, normally *client.Client.
type Source interface {
	FirstPage(ctx context.Context, filter models.FeedFilter, profileID uint) (models.FeedPage, error)
	NextPage(ctx context.Context, filter models.FeedFilter, profileID uint, cursor models.Cursor) (models.FeedPage, error)
}

// Session is safe for concurrent use. Network calls happen outside the lock.
type Session struct {
	src    Source
	view   View
	logger *slog.Logger

	mu        sync.Mutex
	filter    models.FeedFilter
	profileID uint
	loading   bool
	hasNext   bool
	armed     bool
	epoch     uint64
	posts     []models.PostView
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func NewSession(src Source, view View, opts ...Option) *Session {
	s := &Session{
		src:    src,
		view:   view,
		filter: models.FilterAll,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadPosts replaces the feed with the first page of filter. profileID is
// only used by the profile filter.
func (s *Session) LoadPosts(ctx context.Context, filter models.FeedFilter, profileID uint) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	epoch := s.resetLocked(filter, profileID)
	s.mu.Unlock()

	page, err := s.src.FirstPage(ctx, filter, profileID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	s.loading = false

	if err != nil {
		s.logger.WarnContext(ctx, "first page failed", "filter", filter, "error", err)
		s.view.ShowMessage(ErrorMessage)
		return fmt.Errorf("load %s feed: %w", filter, err)
	}
	if len(page.Posts) == 0 {
		s.hasNext = false
		s.view.ShowMessage(EmptyMessage)
		return nil
	}
	s.appendLocked(page)
	return nil
}

// resetLocked starts a new load: the sentinel is detached before the feed is
// cleared, and the epoch moves so older results are discarded.
func (s *Session) resetLocked(filter models.FeedFilter, profileID uint) uint64 {
	s.armed = false
	s.view.SetSentinel(false)
	s.view.Clear()

	s.filter = filter
	s.profileID = profileID
	s.posts = nil
	s.hasNext = false
	s.loading = true
	s.epoch++
	return s.epoch
}

func (s *Session) appendLocked(page models.FeedPage) {
	s.posts = append(s.posts, page.Posts...)
	s.view.Append(page.Posts)
	s.hasNext = page.HasNext
	s.armed = page.HasNext
	s.view.SetSentinel(s.armed)
}

// LoadMorePosts appends the page after the last rendered post. It only runs
// while the sentinel is armed.
func (s *Session) LoadMorePosts(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if !s.armed || !s.hasNext || len(s.posts) == 0 {
		s.mu.Unlock()
		return ErrNoMore
	}
	cursor := models.CursorAfter(s.posts[len(s.posts)-1])
	filter, profileID := s.filter, s.profileID
	s.loading = true
	epoch := s.epoch
	s.mu.Unlock()

	page, err := s.src.NextPage(ctx, filter, profileID, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	s.loading = false

	if err != nil {
		// Rendered posts stay and the sentinel stays armed for a retry.
		s.logger.WarnContext(ctx, "next page failed", "filter", filter, "error", err)
		return fmt.Errorf("load more %s posts: %w", filter, err)
	}
	s.appendLocked(page)
	return nil
}

// Navigate switches filter on user request, superseding any fetch in flight.
func (s *Session) Navigate(ctx context.Context, filter models.FeedFilter, profileID uint) error {
	s.mu.Lock()
	s.epoch++
	s.loading = false
	s.mu.Unlock()
	return s.LoadPosts(ctx, filter, profileID)
}

// Reload fetches the current filter again from the top.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	filter, profileID := s.filter, s.profileID
	s.mu.Unlock()
	return s.LoadPosts(ctx, filter, profileID)
}

// RemovePost drops a rendered post. Removing the last one reloads the feed
// instead of leaving it empty.
func (s *Session) RemovePost(ctx context.Context, postID uint) error {
	s.mu.Lock()
	if !s.removeLocked(postID) || len(s.posts) > 0 || s.loading {
		s.mu.Unlock()
		return nil
	}
	filter, profileID := s.filter, s.profileID
	s.mu.Unlock()
	return s.LoadPosts(ctx, filter, profileID)
}

func (s *Session) removeLocked(postID uint) bool {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			s.view.Remove(postID)
			return true
		}
	}
	return false
}

// PrependPost shows a freshly created post when it belongs in the current
// feed. A post already on screen is refreshed in place. It reports whether
// the post is shown.
func (s *Session) PrependPost(post models.PostView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acceptsLocked(post) {
		return false
	}
	if i := s.indexLocked(post.ID); i >= 0 {
		s.posts[i] = post
		s.view.Update(post)
		return true
	}
	s.posts = append([]models.PostView{post}, s.posts...)
	s.view.Prepend(post)
	return true
}

func (s *Session) acceptsLocked(post models.PostView) bool {
	switch s.filter {
	case models.FilterAll:
		return true
	case models.FilterProfile:
		return post.UserID == s.profileID
	}
	return false
}

func (s *Session) indexLocked(postID uint) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

// Post returns the rendered post with the given id.
func (s *Session) Post(postID uint) (models.PostView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(postID); i >= 0 {
		return s.posts[i], true
	}
	return models.PostView{}, false
}

// UpdatePost applies fn to a rendered post and re-renders it.
func (s *Session) UpdatePost(postID uint, fn func(*models.PostView)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(postID)
	if i < 0 {
		return false
	}
	fn(&s.posts[i])
	s.view.Update(s.posts[i])
	return true
}

// ApplyCounters overwrites the counters of a rendered post unless it already
// shows a newer counter version. It reports whether the post changed.
func (s *Session) ApplyCounters(counters models.PostCounters) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(counters.PostID)
	if i < 0 || !counters.Supersedes(s.posts[i].CounterVersion) {
		return false
	}
	p := &s.posts[i]
	if counters.LikeCount != nil {
		p.LikeCount = *counters.LikeCount
	}
	if counters.CommentCount != nil {
		p.CommentCount = *counters.CommentCount
	}
	p.CounterVersion = max(p.CounterVersion, counters.Version)
	s.view.Update(*p)
	return true
}

// ApplyEvent merges a live event into the rendered posts. It never touches
// the latch, the cursor or the epoch, and never triggers a fetch.
func (s *Session) ApplyEvent(ev notifications.Event) error {
	switch ev.Type {
	case notifications.EventPostReactionUpdated:
		var counters models.PostCounters
		if err := json.Unmarshal(ev.Payload, &counters); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		if !s.ApplyCounters(counters) {
			s.logger.Debug("feed: counter event skipped", "post_id", counters.PostID, "version", counters.Version)
		}

	case notifications.EventPostDeleted:
		var payload struct {
			PostID uint `json:"post_id"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		s.mu.Lock()
		s.removeLocked(payload.PostID)
		s.mu.Unlock()

	case notifications.EventPostCreated:
		var post models.PostView
		if err := json.Unmarshal(ev.Payload, &post); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		// The broadcast copy is rendered for nobody; keep a richer local one.
		if _, ok := s.Post(post.ID); !ok {
			s.PrependPost(post)
		}
	}
	return nil
}

// State is a point-in-time copy of the session for display.
type State struct {
	Filter    models.FeedFilter
	ProfileID uint
	Loading   bool
	HasNext   bool
	Armed     bool
	Epoch     uint64
	Posts     []models.PostView
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Filter:    s.filter,
		ProfileID: s.profileID,
		Loading:   s.loading,
		HasNext:   s.hasNext,
		Armed:     s.armed,
		Epoch:     s.epoch,
		Posts:     append([]models.PostView(nil), s.posts...),
	}
}
