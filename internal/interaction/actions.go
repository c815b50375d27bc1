package interaction

import (
	"context"
	"fmt"
	"strconv"

	"network/internal/models"
	"network/internal/validation"
)

func key(kind string, id uint) string {
	return kind + ":" + strconv.FormatUint(uint64(id), 10)
}

// LikeKey and the other key helpers name the control an action disables.
func LikeKey(postID uint) string       { return key("like", postID) }
func PostKey(postID uint) string       { return key("post", postID) }
func CommentOnKey(postID uint) string  { return key("comment-on", postID) }
func CommentKey(commentID uint) string { return key("comment", commentID) }
func FollowKey(userID uint) string     { return key("follow", userID) }

// ComposeKey is the new-post form.
const ComposeKey = "compose"

// ToggleLike flips the like on a rendered post, then takes the server's
// {liked, like_count} as the truth unless a newer count already arrived.
func (c *Controller) ToggleLike(ctx context.Context, postID uint) error {
	before, ok := c.posts.Post(postID)
	if !ok {
		return ErrUnknownPost
	}
	return c.Run(ctx, Optimistic{
		Key: LikeKey(postID),
		Apply: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) {
				if p.Liked {
					p.LikeCount--
				} else {
					p.LikeCount++
				}
				p.Liked = !p.Liked
			})
		},
		Remote: func(ctx context.Context) error {
			state, err := c.api.ToggleLike(ctx, postID)
			if err != nil {
				return err
			}
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.Liked = state.Liked })
			c.posts.ApplyCounters(models.LikeCounters(postID, state.LikeCount).WithVersion(state.Version))
			return nil
		},
		Compensate: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) {
				p.Liked = before.Liked
				p.LikeCount = before.LikeCount
			})
		},
	})
}

// LoadProfile fetches a profile into the cache.
func (c *Controller) LoadProfile(ctx context.Context, userID uint) (models.ProfileView, error) {
	p, err := c.api.Profile(ctx, userID)
	if err != nil {
		return models.ProfileView{}, err
	}
	c.profiles.Set(p)
	return p, nil
}

// ToggleFollow flips the follow on a profile. Only a cached profile is
// updated optimistically.
func (c *Controller) ToggleFollow(ctx context.Context, userID uint) error {
	before, cached := c.profiles.Get(userID)
	return c.Run(ctx, Optimistic{
		Key: FollowKey(userID),
		Apply: func() {
			c.profiles.Update(userID, func(p *models.ProfileView) {
				if p.Follow {
					p.Followers--
				} else {
					p.Followers++
				}
				p.Follow = !p.Follow
			})
		},
		Remote: func(ctx context.Context) error {
			state, err := c.api.ToggleFollow(ctx, userID)
			if err != nil {
				return err
			}
			c.profiles.Update(userID, func(p *models.ProfileView) {
				p.Follow = state.Follow
				p.Followers = state.FollowersCount
			})
			return nil
		},
		Compensate: func() {
			if cached {
				c.profiles.Set(before)
			}
		},
	})
}

// LoadComments opens the thread of a post.
func (c *Controller) LoadComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	comments, err := c.api.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	c.comments.Load(postID, comments)
	return comments, nil
}

// CreateComment counts the comment before the server has it.
func (c *Controller) CreateComment(ctx context.Context, postID uint, content string) error {
	k := CommentOnKey(postID)
	cleaned, err := validation.Content(content, c.commentMax)
	if err != nil {
		return c.reject(k, err)
	}
	before, _ := c.posts.Post(postID)
	return c.Run(ctx, Optimistic{
		Key: k,
		Apply: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.CommentCount++ })
		},
		Remote: func(ctx context.Context) error {
			res, err := c.api.CreateComment(ctx, postID, cleaned)
			if err != nil {
				return err
			}
			c.comments.Add(postID, res.Comment)
			c.posts.ApplyCounters(models.CommentCounters(postID, res.CommentCount).WithVersion(res.Version))
			return nil
		},
		Compensate: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.CommentCount = before.CommentCount })
		},
	})
}

// DeleteComment hides the comment and drops the count until the server
// answers.
func (c *Controller) DeleteComment(ctx context.Context, postID, commentID uint) error {
	before, _ := c.posts.Post(postID)
	return c.Run(ctx, Optimistic{
		Key: CommentKey(commentID),
		Apply: func() {
			c.comments.SetHidden(commentID, true)
			c.posts.UpdatePost(postID, func(p *models.PostView) {
				if p.CommentCount > 0 {
					p.CommentCount--
				}
			})
		},
		Remote: func(ctx context.Context) error {
			res, err := c.api.DeleteComment(ctx, commentID)
			if err != nil {
				return err
			}
			c.comments.Remove(postID, commentID)
			c.posts.ApplyCounters(models.CommentCounters(postID, res.CommentCount).WithVersion(res.Version))
			return nil
		},
		Compensate: func() {
			c.comments.SetHidden(commentID, false)
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.CommentCount = before.CommentCount })
		},
	})
}

func (c *Controller) EditComment(ctx context.Context, commentID uint, content string) error {
	k := CommentKey(commentID)
	cleaned, err := validation.Content(content, c.commentMax)
	if err != nil {
		return c.reject(k, err)
	}
	before, _ := c.comments.Get(commentID)
	return c.Run(ctx, Optimistic{
		Key:   k,
		Apply: func() { c.comments.SetContent(commentID, cleaned) },
		Remote: func(ctx context.Context) error {
			stored, err := c.api.EditComment(ctx, commentID, cleaned)
			if err != nil {
				return err
			}
			c.comments.SetContent(commentID, stored)
			return nil
		},
		Compensate: func() { c.comments.SetContent(commentID, before.Content) },
	})
}

// EditPost shows the new content at once and restores the old on failure.
func (c *Controller) EditPost(ctx context.Context, postID uint, content string) error {
	k := PostKey(postID)
	cleaned, err := validation.Content(content, c.postMax)
	if err != nil {
		return c.reject(k, err)
	}
	before, ok := c.posts.Post(postID)
	if !ok {
		return ErrUnknownPost
	}
	return c.Run(ctx, Optimistic{
		Key: k,
		Apply: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.Content = cleaned })
		},
		Remote: func(ctx context.Context) error {
			stored, err := c.api.EditPost(ctx, postID, cleaned)
			if err != nil {
				return err
			}
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.Content = stored })
			return nil
		},
		Compensate: func() {
			c.posts.UpdatePost(postID, func(p *models.PostView) { p.Content = before.Content })
		},
	})
}

// DeletePost asks for confirmation and removes the post only once the
// server has deleted it.
func (c *Controller) DeletePost(ctx context.Context, postID uint) error {
	if !c.confirm(fmt.Sprintf("Delete post %d?", postID)) {
		return ErrCancelled
	}
	err := c.Run(ctx, Optimistic{
		Key:    PostKey(postID),
		Remote: func(ctx context.Context) error { return c.api.DeletePost(ctx, postID) },
	})
	if err != nil {
		return err
	}
	return c.posts.RemovePost(ctx, postID)
}

// CreatePost publishes a post and shows it at the top of the feed when it
// belongs there.
func (c *Controller) CreatePost(ctx context.Context, content string) error {
	cleaned, err := validation.Content(content, c.postMax)
	if err != nil {
		return c.reject(ComposeKey, err)
	}
	return c.Run(ctx, Optimistic{
		Key: ComposeKey,
		Remote: func(ctx context.Context) error {
			post, err := c.api.CreatePost(ctx, cleaned)
			if err != nil {
				return err
			}
			c.posts.PrependPost(post)
			return nil
		},
	})
}
