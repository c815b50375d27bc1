package service

import (
	"context"
	"errors"

	"network/internal/models"
	"network/internal/repository"
	"network/internal/validation"
)

type PostService struct {
	postRepo  repository.PostRepository
	maxLength int
}

type CreatePostInput struct {
	UserID  uint
	Content string
}

type EditPostInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func NewPostService(postRepo repository.PostRepository, maxLength int) *PostService {
	if maxLength <= 0 {
		maxLength = validation.PostMaxLength
	}
	return &PostService{postRepo: postRepo, maxLength: maxLength}
}

// cleanContent runs validation.Content and reports failures as validation
// errors carrying the user-facing message.
func cleanContent(raw string, maxLen int) (string, error) {
	content, err := validation.Content(raw, maxLen)
	if err != nil {
		var contentErr *validation.ContentError
		if errors.As(err, &contentErr) {
			return "", models.NewValidationError(contentErr.Message)
		}
		return "", models.NewValidationError(err.Error())
	}
	return content, nil
}

// CreatePost stores a new post and returns it as its author sees it.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (models.PostView, error) {
	if in.UserID == 0 {
		return models.PostView{}, models.NewUnauthorizedError("User not authenticated.")
	}
	content, err := cleanContent(in.Content, s.maxLength)
	if err != nil {
		return models.PostView{}, err
	}

	post := &models.Post{UserID: in.UserID, Content: content}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.PostView{}, err
	}
	return models.NewPostView(post, in.UserID, false), nil
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (models.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return models.PostView{}, err
	}
	liked, err := s.postRepo.LikedPostIDs(ctx, viewerID, []uint{post.ID})
	if err != nil {
		return models.PostView{}, err
	}
	return models.NewPostView(post, viewerID, len(liked) > 0), nil
}

// EditPost replaces the content of the caller's post and returns the stored text.
func (s *PostService) EditPost(ctx context.Context, in EditPostInput) (string, error) {
	content, err := cleanContent(in.Content, s.maxLength)
	if err != nil {
		return "", err
	}
	post, err := s.postRepo.UpdateContent(ctx, in.PostID, in.UserID, content)
	if err != nil {
		return "", err
	}
	return post.Content, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	return s.postRepo.Delete(ctx, postID, userID)
}

func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (models.LikeState, error) {
	return s.postRepo.ToggleLike(ctx, userID, postID)
}
