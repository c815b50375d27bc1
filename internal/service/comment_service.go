package service

import (
	"context"

	"network/internal/models"
	"network/internal/repository"
	"network/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	maxLength   int
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

func NewCommentService(commentRepo repository.CommentRepository, maxLength int) *CommentService {
	if maxLength <= 0 {
		maxLength = validation.CommentMaxLength
	}
	return &CommentService{commentRepo: commentRepo, maxLength: maxLength}
}

// CreateComment returns the new comment along with the post's committed
// comment count.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (models.CommentResult, models.PostCounters, error) {
	content, err := cleanContent(in.Content, s.maxLength)
	if err != nil {
		return models.CommentResult{}, models.PostCounters{}, err
	}

	comment := &models.Comment{PostID: in.PostID, UserID: in.UserID, Content: content}
	counters, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return models.CommentResult{}, models.PostCounters{}, err
	}

	result := models.CommentResult{
		Message: "Comment created successfully.",
		Comment: models.NewCommentView(comment, in.UserID),
	}
	if counters.CommentCount != nil {
		result.CommentCount = *counters.CommentCount
	}
	result.Version = counters.Version
	return result, counters, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]models.CommentView, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.NewCommentView(c, viewerID))
	}
	return views, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (string, error) {
	content, err := cleanContent(in.Content, s.maxLength)
	if err != nil {
		return "", err
	}
	comment, err := s.commentRepo.UpdateContent(ctx, in.CommentID, in.UserID, content)
	if err != nil {
		return "", err
	}
	return comment.Content, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (models.PostCounters, error) {
	return s.commentRepo.Delete(ctx, commentID, userID)
}
