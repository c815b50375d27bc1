package server

import (
	"network/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

// GetProfile handles GET /profile/:id
// @Summary Get a profile
// @Description Public profile with follower counts and whether the caller follows the user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.Profile(c.UserContext(), userID, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfileEmail handles GET /profile/:id/email
// @Summary Get own email
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{email=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /profile/{id}/email [get]
func (s *Server) GetProfileEmail(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	email, err := s.userService.Email(c.UserContext(), userID, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"email": email})
}

// UpdateProfile handles PUT /profile
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         viewerID(c),
		Username:       req.Username,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ToggleFollow handles PUT /follow/:userId
// @Summary Follow or unfollow a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User to follow"
// @Success 200 {object} models.FollowState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{userId} [put]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	followeeID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	state, err := s.userService.ToggleFollow(c.UserContext(), viewerID(c), followeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}
