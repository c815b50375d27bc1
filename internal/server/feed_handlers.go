package server

import (
	"strconv"

	"network/internal/models"
	"network/internal/service"

	"github.com/gofiber/fiber/v2"
)

// feedRequest reads the filter path value and the profile user_id query.
func feedRequest(c *fiber.Ctx) (service.FeedRequest, error) {
	filter, ok := models.ParseFeedFilter(c.Params("filter"))
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Filter not found."})
		return service.FeedRequest{}, errResponseWritten
	}

	req := service.FeedRequest{Filter: filter, ViewerID: viewerID(c)}
	if filter == models.FilterProfile {
		raw := c.Query("user_id")
		if raw == "" {
			_ = respondError(c, models.NewValidationError("Missing required field: user_id"))
			return service.FeedRequest{}, errResponseWritten
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			_ = respondError(c, models.NewValidationError("Invalid user ID"))
			return service.FeedRequest{}, errResponseWritten
		}
		req.ProfileUserID = uint(id)
	}
	return req, nil
}

// GetFeed handles GET /posts/:filter
// @Summary First feed page
// @Description Newest posts for the all, following or profile feed
// @Tags feed
// @Produce json
// @Param filter path string true "all, following or profile"
// @Param user_id query int false "Profile owner (profile filter)"
// @Success 200 {object} models.FeedPage
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{filter} [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	req, err := feedRequest(c)
	if err != nil {
		return nil
	}
	page, err := s.feedService.FirstPage(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetFeedMore handles GET /posts/:filter/more
// @Summary Next feed page
// @Description Posts strictly older than the cursor
// @Tags feed
// @Produce json
// @Param filter path string true "all, following or profile"
// @Param post_id query int true "Last seen post"
// @Param timestamp query string true "Last seen post timestamp (RFC 3339)"
// @Param user_id query int false "Profile owner (profile filter)"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{filter}/more [get]
func (s *Server) GetFeedMore(c *fiber.Ctx) error {
	req, err := feedRequest(c)
	if err != nil {
		return nil
	}
	cursor, err := models.ParseCursor(c.Query("post_id"), c.Query("timestamp"))
	if err != nil {
		return respondError(c, models.NewValidationError("Error parsing post data."))
	}
	req.Cursor = &cursor

	page, err := s.feedService.NextPage(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
