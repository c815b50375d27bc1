// Package service holds the business rules between the HTTP handlers and the
// repositories: content validation, feed assembly and per-viewer rendering.
package service

import (
	"context"

	"network/internal/models"
	"network/internal/observability"
	"network/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultPageSize is used when a FeedService is built with a non-positive size.
const DefaultPageSize = 10

var errFilterNotFound = &models.AppError{Code: models.CodeNotFound, Message: "Filter not found."}

// FeedRequest describes one feed page request.
type FeedRequest struct {
	Filter models.FeedFilter
	// ProfileUserID is the author whose posts make up a profile feed.
	ProfileUserID uint
	// ViewerID is the authenticated caller, 0 when anonymous.
	ViewerID uint
	Cursor   *models.Cursor
}

type FeedService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	pageSize int
}

func NewFeedService(posts repository.PostRepository, users repository.UserRepository, pageSize int) *FeedService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FeedService{posts: posts, users: users, pageSize: pageSize}
}

func (s *FeedService) PageSize() int { return s.pageSize }

// FirstPage returns the newest page of the feed. Any cursor on req is ignored.
func (s *FeedService) FirstPage(ctx context.Context, req FeedRequest) (models.FeedPage, error) {
	req.Cursor = nil
	return s.page(ctx, req, "first")
}

// NextPage returns the page strictly after req.Cursor.
func (s *FeedService) NextPage(ctx context.Context, req FeedRequest) (models.FeedPage, error) {
	if req.Cursor == nil {
		return models.FeedPage{}, models.NewValidationError("Error parsing post data.")
	}
	return s.page(ctx, req, "next")
}

func (s *FeedService) page(ctx context.Context, req FeedRequest, kind string) (page models.FeedPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed.page",
		attribute.String("feed.filter", string(req.Filter)),
		attribute.String("feed.kind", kind),
	)
	defer func() { observability.EndSpan(span, err) }()

	q := repository.FeedQuery{Filter: req.Filter, Cursor: req.Cursor, Limit: s.pageSize + 1}
	switch req.Filter {
	case models.FilterAll:
	case models.FilterFollowing:
		if req.ViewerID == 0 {
			return models.FeedPage{}, models.NewUnauthorizedError("User not authenticated.")
		}
		q.FollowerID = req.ViewerID
	case models.FilterProfile:
		if req.ProfileUserID == 0 {
			return models.FeedPage{}, models.NewValidationError("Missing required field: user_id")
		}
		if _, err := s.users.GetByID(ctx, req.ProfileUserID); err != nil {
			return models.FeedPage{}, err
		}
		q.AuthorID = req.ProfileUserID
	default:
		return models.FeedPage{}, errFilterNotFound
	}

	posts, err := s.posts.Page(ctx, q)
	if err != nil {
		return models.FeedPage{}, err
	}

	hasNext := len(posts) > s.pageSize
	if hasNext {
		posts = posts[:s.pageSize]
	}

	liked, err := s.likedSet(ctx, req.ViewerID, posts)
	if err != nil {
		return models.FeedPage{}, err
	}

	page = models.FeedPage{Posts: make([]models.PostView, 0, len(posts)), HasNext: hasNext}
	for _, p := range posts {
		page.Posts = append(page.Posts, models.NewPostView(p, req.ViewerID, liked[p.ID]))
	}

	span.SetAttributes(attribute.Int("feed.posts", len(page.Posts)), attribute.Bool("feed.has_next", hasNext))
	observability.FeedPagesServed.WithLabelValues(string(req.Filter), kind).Inc()
	observability.FeedPageSize.WithLabelValues(string(req.Filter)).Observe(float64(len(page.Posts)))
	return page, nil
}

func (s *FeedService) likedSet(ctx context.Context, viewerID uint, posts []*models.Post) (map[uint]bool, error) {
	if viewerID == 0 || len(posts) == 0 {
		return nil, nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likedIDs, err := s.posts.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		set[id] = true
	}
	return set, nil
}
