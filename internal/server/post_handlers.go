package server

import (
	"network/internal/models"
	"network/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /post
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ContentRequest true "Post content"
// @Success 201 {object} object{postData=models.PostView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /post [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req models.ContentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	content, err := requireContent(c, req.Content)
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	view, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID:  viewerID(c),
		Content: content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishPostCreated(ctx, view)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"postData": view})
}

// GetPost handles GET /post/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.postService.GetPost(c.UserContext(), postID, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// UpdatePost handles PUT /post/:id with action "like" or "edit".
// @Summary Like or edit a post
// @Description "like" toggles the caller's like; "edit" replaces the content of the caller's own post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body models.ActionRequest true "Action"
// @Success 200 {object} models.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.ActionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	action, err := requireAction(c, req, models.ActionLike, models.ActionEdit)
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := viewerID(c)

	switch action {
	case models.ActionLike:
		state, err := s.postService.ToggleLike(ctx, userID, postID)
		if err != nil {
			return respondError(c, err)
		}
		s.publishCounters(ctx, models.LikeCounters(postID, state.LikeCount).WithVersion(state.Version))
		return c.JSON(state)

	default:
		content, err := requireContent(c, req.Content)
		if err != nil {
			return nil
		}
		stored, err := s.postService.EditPost(ctx, service.EditPostInput{
			UserID:  userID,
			PostID:  postID,
			Content: content,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"content": stored})
	}
}

// DeletePost handles DELETE /post/:id. The body must carry action "delete".
// @Summary Delete a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body models.ActionRequest true "Action"
// @Success 200 {object} object
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.ActionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := requireAction(c, req, models.ActionDelete); err != nil {
		return nil
	}

	ctx := c.UserContext()
	if err := s.postService.DeletePost(ctx, viewerID(c), postID); err != nil {
		return respondError(c, err)
	}
	s.publishPostDeleted(ctx, postID)
	return c.JSON(fiber.Map{})
}
