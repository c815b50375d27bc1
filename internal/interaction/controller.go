// Package interaction applies user actions to the rendered feed before the
// server confirms them, and undoes them when it does not.
package interaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"network/internal/client"
	"network/internal/models"
	"network/internal/validation"
)

// GenericError is shown when a failure carries no message fit for users.
const GenericError = "Something went wrong. Please try again."

var (
	// ErrInFlight rejects an action whose control is still disabled.
	ErrInFlight = errors.New("interaction: action already in flight")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("interaction: cancelled")
	// ErrUnknownPost is returned for a post that is not rendered.
	ErrUnknownPost = errors.New("interaction: post not in feed")
)

// API is the subset of *client.Client the controller calls.
type API interface {
	CreatePost(ctx context.Context, content string) (models.PostView, error)
	ToggleLike(ctx context.Context, postID uint) (models.LikeState, error)
	EditPost(ctx context.Context, postID uint, content string) (string, error)
	DeletePost(ctx context.Context, postID uint) error
	ListComments(ctx context.Context, postID uint) ([]models.CommentView, error)
	CreateComment(ctx context.Context, postID uint, content string) (models.CommentResult, error)
	EditComment(ctx context.Context, commentID uint, content string) (string, error)
	DeleteComment(ctx context.Context, commentID uint) (models.CommentCountResult, error)
	ToggleFollow(ctx context.Context, userID uint) (models.FollowState, error)
	Profile(ctx context.Context, userID uint) (models.ProfileView, error)
}

// Posts is the rendered feed, normally *feed.Session.
type Posts interface {
	Post(postID uint) (models.PostView, bool)
	UpdatePost(postID uint, fn func(*models.PostView)) bool
	ApplyCounters(counters models.PostCounters) bool
	RemovePost(ctx context.Context, postID uint) error
	PrependPost(post models.PostView) bool
}

// Surface owns the controls. Keys name one control, e.g. "like:12".
type Surface interface {
	SetEnabled(key string, enabled bool)
	ShowError(key, message string)
}

// Optimistic is one compensating action. Apply changes local state, Remote
// performs the mutation and reconciles with the server's answer on success,
// Compensate restores what Apply changed.
type Optimistic struct {
	Key        string
	Apply      func()
	Remote     func(ctx context.Context) error
	Compensate func()
}

type Controller struct {
	api      API
	posts    Posts
	surface  Surface
	comments *Comments
	profiles *Profiles
	logger   *slog.Logger

	postMax    int
	commentMax int
	confirm    func(prompt string) bool

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithLimits sets the content lengths checked before a request is sent.
func WithLimits(postMax, commentMax int) Option {
	return func(c *Controller) {
		c.postMax = postMax
		c.commentMax = commentMax
	}
}

// WithConfirm installs the prompt asked before destructive actions.
func WithConfirm(fn func(prompt string) bool) Option {
	return func(c *Controller) { c.confirm = fn }
}

func NewController(api API, posts Posts, surface Surface, opts ...Option) *Controller {
	c := &Controller{
		api:        api,
		posts:      posts,
		surface:    surface,
		comments:   NewComments(),
		profiles:   NewProfiles(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		postMax:    validation.PostMaxLength,
		commentMax: validation.CommentMaxLength,
		confirm:    func(string) bool { return true },
		inFlight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Comments() *Comments { return c.comments }
func (c *Controller) Profiles() *Profiles { return c.profiles }

// Run executes op: disable, apply, remote, compensate on failure, enable.
// The control is re-enabled on every path.
func (c *Controller) Run(ctx context.Context, op Optimistic) error {
	c.mu.Lock()
	if _, busy := c.inFlight[op.Key]; busy {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.inFlight[op.Key] = struct{}{}
	c.mu.Unlock()

	c.surface.SetEnabled(op.Key, false)
	defer func() {
		c.mu.Lock()
		delete(c.inFlight, op.Key)
		c.mu.Unlock()
		c.surface.SetEnabled(op.Key, true)
	}()

	if op.Apply != nil {
		op.Apply()
	}
	err := op.Remote(ctx)
	if err == nil {
		return nil
	}

	if op.Compensate != nil {
		op.Compensate()
	}
	c.logger.WarnContext(ctx, "action rolled back", "key", op.Key, "error", err)
	c.surface.ShowError(op.Key, Message(err))
	return err
}

// Message picks the text shown inline for err.
func Message(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var contentErr *validation.ContentError
	if errors.As(err, &contentErr) {
		return contentErr.Message
	}
	return GenericError
}

// reject reports a client-side validation failure without touching state.
func (c *Controller) reject(key string, err error) error {
	c.surface.ShowError(key, Message(err))
	return err
}
