package server

import (
	"context"

	"network/internal/models"
	"network/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// publishPostCreated announces a new post. The payload is rendered for an
// anonymous viewer since it fans out to everyone.
func (s *Server) publishPostCreated(ctx context.Context, view models.PostView) {
	view.UserIsAuthor = false
	view.Liked = false
	s.events.Publish(ctx, notifications.EventPostCreated, view)
}

func (s *Server) publishPostDeleted(ctx context.Context, postID uint) {
	s.events.Publish(ctx, notifications.EventPostDeleted, fiber.Map{"post_id": postID})
}

// publishCounters pushes the committed like or comment count of a post with
// the counter version it was read at.
func (s *Server) publishCounters(ctx context.Context, counters models.PostCounters) {
	s.events.Publish(ctx, notifications.EventPostReactionUpdated, counters)
}
