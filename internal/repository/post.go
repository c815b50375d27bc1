package repository

import (
	"context"

	"network/internal/cache"
	"network/internal/models"
	"network/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedQuery selects one slice of the reverse-chronological post order.
type FeedQuery struct {
	Filter models.FeedFilter
	// AuthorID restricts FilterProfile to one author.
	AuthorID uint
	// FollowerID is the viewer whose followees make up FilterFollowing.
	FollowerID uint
	// Cursor, when set, returns only posts strictly after it.
	Cursor *models.Cursor
	Limit  int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	UpdateContent(ctx context.Context, postID, requesterID uint, content string) (*models.Post, error)
	Delete(ctx context.Context, postID, requesterID uint) error
	ToggleLike(ctx context.Context, userID, postID uint) (models.LikeState, error)
	Page(ctx context.Context, q FeedQuery) ([]*models.Post, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and bumps the author's post_count in one transaction.
// CreatedAt is kept when already set.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post.User, post.UserID).Error; err != nil {
			return translateError(err, "User", post.UserID)
		}
		if err := tx.Omit("User").Create(post).Error; err != nil {
			return err
		}
		return addColumn(tx, &models.User{}, post.UserID, "post_count", 1)
	})
	if err != nil {
		return translateError(err, "Post", post.ID)
	}
	post.User.PostCount++
	cache.InvalidateProfiles(ctx, post.UserID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

// UpdateContent replaces the content of a post owned by requesterID.
func (r *postRepository) UpdateContent(ctx context.Context, postID, requesterID uint, content string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&post, postID).Error; err != nil {
			return err
		}
		if post.UserID != requesterID {
			return models.NewForbiddenError("You can only edit your own posts")
		}
		return tx.Model(&post).Update("content", content).Error
	})
	if err != nil {
		return nil, translateError(err, "Post", postID)
	}
	post.Content = content
	return &post, nil
}

// Delete removes a post owned by requesterID together with its likes and
// comments, and decrements the author's post_count.
func (r *postRepository) Delete(ctx context.Context, postID, requesterID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "user_id").First(&post, postID).Error; err != nil {
			return err
		}
		if post.UserID != requesterID {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, postID).Error; err != nil {
			return err
		}
		return subtractColumn(tx, &models.User{}, post.UserID, "post_count")
	})
	if err != nil {
		return translateError(err, "Post", postID)
	}
	cache.InvalidateProfiles(ctx, requesterID)
	return nil
}

// ToggleLike flips the (user, post) like and adjusts like_count in the same
// transaction, returning the committed state.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (state models.LikeState, err error) {
	ctx, span := observability.StartCounterSpan(ctx, "toggle_like", "likes", "like_count")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sharePost(tx, postID); err != nil {
			return err
		}

		removed := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected > 0 {
			if err := bumpPostCounter(tx, postID, "like_count", -1); err != nil {
				return err
			}
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Like{UserID: userID, PostID: postID})
			if inserted.Error != nil {
				return inserted.Error
			}
			// Zero rows means a concurrent request by the same user won the
			// insert; the like exists and was already counted.
			if inserted.RowsAffected > 0 {
				if err := bumpPostCounter(tx, postID, "like_count", 1); err != nil {
					return err
				}
			}
			state.Liked = true
		}

		var err error
		state.LikeCount, state.Version, err = readCounter(tx, postID, "like_count")
		return err
	})
	if err != nil {
		return models.LikeState{}, translateError(err, "Post", postID)
	}
	span.SetAttributes(attribute.Bool("like.liked", state.Liked))

	outcome := "removed"
	if state.Liked {
		outcome = "added"
	}
	observability.RecordMutation("like", outcome)
	return state, nil
}

// Page returns up to q.Limit posts in (created_at DESC, id DESC) order.
func (r *postRepository) Page(ctx context.Context, q FeedQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("page", "posts")()

	db := r.db.WithContext(ctx).Preload("User")

	switch q.Filter {
	case models.FilterFollowing:
		db = db.Where("posts.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)", q.FollowerID)
	case models.FilterProfile:
		db = db.Where("posts.user_id = ?", q.AuthorID)
	}

	if q.Cursor != nil {
		ts := q.Cursor.Timestamp.UTC()
		db = db.Where("(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))", ts, ts, q.Cursor.PostID)
	}

	var posts []*models.Post
	err := db.Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
