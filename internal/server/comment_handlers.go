package server

import (
	"network/internal/models"
	"network/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /post/:id/comments
// @Summary List comments
// @Description Comments on a post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{comments=[]models.CommentView}
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// CreateComment handles POST /post/:id/comment
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body models.ContentRequest true "Comment content"
// @Success 201 {object} models.CommentResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.ContentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	content, err := requireContent(c, req.Content)
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	result, counters, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:  viewerID(c),
		PostID:  postID,
		Content: content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishCounters(ctx, counters)
	return c.Status(fiber.StatusCreated).JSON(result)
}

// UpdateComment handles PUT /post/comment/:id with action "edit".
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body models.ActionRequest true "Action and content"
// @Success 200 {object} object{content=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /post/comment/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req models.ActionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if _, err := requireAction(c, req, models.ActionEdit); err != nil {
		return nil
	}
	content, err := requireContent(c, req.Content)
	if err != nil {
		return nil
	}

	stored, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    viewerID(c),
		CommentID: commentID,
		Content:   content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"content": stored})
}

// DeleteComment handles DELETE /post/comment/:id
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.CommentCountResult
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/comment/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	counters, err := s.commentService.DeleteComment(ctx, viewerID(c), commentID)
	if err != nil {
		return respondError(c, err)
	}

	s.publishCounters(ctx, counters)
	res := models.CommentCountResult{Version: counters.Version}
	if counters.CommentCount != nil {
		res.CommentCount = *counters.CommentCount
	}
	return c.JSON(res)
}
