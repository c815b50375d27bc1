package service

import (
	"context"
	"strings"

	"network/internal/cache"
	"network/internal/models"
	"network/internal/repository"
	"network/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

type UpdateProfileInput struct {
	UserID         uint
	Username       *string
	Email          *string
	ProfilePicture *string
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo}
}

// profileCounters is the viewer-independent part of a profile, cached per user.
type profileCounters struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	Followers      int64  `json:"followers"`
	Following      int64  `json:"following"`
	PostCount      int64  `json:"post_count"`
}

// Profile returns userID's public profile as viewerID sees it.
func (s *UserService) Profile(ctx context.Context, userID, viewerID uint) (models.ProfileView, error) {
	var base profileCounters
	err := cache.Aside(ctx, cache.ProfileKey(userID), &base, cache.ProfileTTL, func() error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		base = profileCounters{
			ID:             user.ID,
			Username:       user.Username,
			ProfilePicture: user.ProfilePicture,
			Followers:      user.FollowersCount,
			Following:      user.FollowingCount,
			PostCount:      user.PostCount,
		}
		return nil
	})
	if err != nil {
		return models.ProfileView{}, err
	}

	follow, err := s.followRepo.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return models.ProfileView{}, err
	}

	return models.ProfileView{
		ID:             base.ID,
		Username:       base.Username,
		ProfilePicture: base.ProfilePicture,
		Followers:      base.Followers,
		Following:      base.Following,
		Follow:         follow,
		PostCount:      base.PostCount,
	}, nil
}

func (s *UserService) ToggleFollow(ctx context.Context, followerID, followeeID uint) (models.FollowState, error) {
	return s.followRepo.Toggle(ctx, followerID, followeeID)
}

// Email reveals a user's email address to that user only.
func (s *UserService) Email(ctx context.Context, userID, requesterID uint) (string, error) {
	if userID != requesterID {
		return "", models.NewForbiddenError("You can only view your own email address.")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// UpdateProfile applies the provided fields. Username and email stay unique
// regardless of case.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByUsername, username, user.ID); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByEmail, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureFree(
	ctx context.Context,
	lookup func(context.Context, string) (*models.User, error),
	value string,
	ownerID uint,
) error {
	existing, err := lookup(ctx, value)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != ownerID {
		return models.NewConflictError("Username or email already taken.")
	}
	return nil
}
