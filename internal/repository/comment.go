package repository

import (
	"context"

	"network/internal/models"
	"network/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations. Create and
// Delete keep Post.CommentCount in step and return the committed counters.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (models.PostCounters, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, commentID, requesterID uint, content string) (*models.Comment, error)
	Delete(ctx context.Context, commentID, requesterID uint) (models.PostCounters, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func readCommentCount(tx *gorm.DB, postID uint) (models.PostCounters, error) {
	count, version, err := readCounter(tx, postID, "comment_count")
	if err != nil {
		return models.PostCounters{}, err
	}
	return models.CommentCounters(postID, count).WithVersion(version), nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (counters models.PostCounters, err error) {
	ctx, span := observability.StartCounterSpan(ctx, "add_comment", "comments", "comment_count")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sharePost(tx, comment.PostID); err != nil {
			return translateError(err, "Post", comment.PostID)
		}
		if err := tx.First(&comment.User, comment.UserID).Error; err != nil {
			return translateError(err, "User", comment.UserID)
		}
		if err := tx.Omit("User").Create(comment).Error; err != nil {
			return translateError(err, "Post", comment.PostID)
		}
		if err := bumpPostCounter(tx, comment.PostID, "comment_count", 1); err != nil {
			return err
		}
		var err error
		counters, err = readCommentCount(tx, comment.PostID)
		return err
	})
	if err != nil {
		return models.PostCounters{}, translateError(err, "Comment", comment.ID)
	}
	observability.RecordMutation("comment", "added")
	return counters, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translateError(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns a post's comments, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id").First(&post, postID).Error; err != nil {
		return nil, translateError(err, "Post", postID)
	}

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, commentID, requesterID uint, content string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&comment, commentID).Error; err != nil {
			return err
		}
		if comment.UserID != requesterID {
			return models.NewForbiddenError("You can only edit your own comments")
		}
		return tx.Model(&comment).Update("content", content).Error
	})
	if err != nil {
		return nil, translateError(err, "Comment", commentID)
	}
	comment.Content = content
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, commentID, requesterID uint) (counters models.PostCounters, err error) {
	ctx, span := observability.StartCounterSpan(ctx, "remove_comment", "comments", "comment_count")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id", "post_id", "user_id").First(&comment, commentID).Error; err != nil {
			return err
		}
		if comment.UserID != requesterID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
		removed := tx.Delete(&models.Comment{}, commentID)
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			if err := bumpPostCounter(tx, comment.PostID, "comment_count", -1); err != nil {
				return err
			}
		}
		var err error
		counters, err = readCommentCount(tx, comment.PostID)
		return err
	})
	if err != nil {
		return models.PostCounters{}, translateError(err, "Comment", commentID)
	}
	observability.RecordMutation("comment", "removed")
	return counters, nil
}
