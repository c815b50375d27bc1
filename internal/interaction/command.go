package interaction

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a Command.
type Kind int

const (
	KindLike Kind = iota + 1
	KindEditPost
	KindDeletePost
	KindComment
	KindEditComment
	KindDeleteComment
	KindFollow
	KindCreatePost
)

func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindEditPost:
		return "edit"
	case KindDeletePost:
		return "delete"
	case KindComment:
		return "comment"
	case KindEditComment:
		return "edit-comment"
	case KindDeleteComment:
		return "delete-comment"
	case KindFollow:
		return "follow"
	case KindCreatePost:
		return "post"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Command is one user action. Only the fields its Kind uses are set.
type Command struct {
	Kind      Kind
	PostID    uint
	CommentID uint
	UserID    uint
	Content   string
}

// Dispatch runs cmd through the matching action.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindLike:
		return c.ToggleLike(ctx, cmd.PostID)
	case KindEditPost:
		return c.EditPost(ctx, cmd.PostID, cmd.Content)
	case KindDeletePost:
		return c.DeletePost(ctx, cmd.PostID)
	case KindComment:
		return c.CreateComment(ctx, cmd.PostID, cmd.Content)
	case KindEditComment:
		return c.EditComment(ctx, cmd.CommentID, cmd.Content)
	case KindDeleteComment:
		return c.DeleteComment(ctx, cmd.PostID, cmd.CommentID)
	case KindFollow:
		return c.ToggleFollow(ctx, cmd.UserID)
	case KindCreatePost:
		return c.CreatePost(ctx, cmd.Content)
	default:
		return fmt.Errorf("interaction: unknown command kind %v", cmd.Kind)
	}
}

// Usage lists the forms ParseCommand accepts.
var Usage = []string{
	"post TEXT",
	"like POST_ID",
	"edit POST_ID TEXT",
	"delete POST_ID",
	"comment POST_ID TEXT",
	"edit-comment COMMENT_ID TEXT",
	"delete-comment POST_ID COMMENT_ID",
	"follow USER_ID",
}

// ParseCommand reads one action line such as "comment 12 nice post".
func ParseCommand(line string) (Command, error) {
	verb, rest := cutField(line)
	switch verb {
	case "post":
		return Command{Kind: KindCreatePost, Content: rest}, nil
	case "like":
		id, _, err := idArg(rest, "post")
		return Command{Kind: KindLike, PostID: id}, err
	case "edit":
		id, text, err := idArg(rest, "post")
		return Command{Kind: KindEditPost, PostID: id, Content: text}, err
	case "delete":
		id, _, err := idArg(rest, "post")
		return Command{Kind: KindDeletePost, PostID: id}, err
	case "comment":
		id, text, err := idArg(rest, "post")
		return Command{Kind: KindComment, PostID: id, Content: text}, err
	case "edit-comment":
		id, text, err := idArg(rest, "comment")
		return Command{Kind: KindEditComment, CommentID: id, Content: text}, err
	case "delete-comment":
		postID, rest, err := idArg(rest, "post")
		if err != nil {
			return Command{}, err
		}
		commentID, _, err := idArg(rest, "comment")
		return Command{Kind: KindDeleteComment, PostID: postID, CommentID: commentID}, err
	case "follow":
		id, _, err := idArg(rest, "user")
		return Command{Kind: KindFollow, UserID: id}, err
	case "":
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

func cutField(s string) (field, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func idArg(s, what string) (uint, string, error) {
	field, rest := cutField(s)
	id, err := strconv.ParseUint(field, 10, 64)
	if err != nil || id == 0 {
		return 0, "", fmt.Errorf("invalid %s id %q", what, field)
	}
	return uint(id), rest, nil
}
