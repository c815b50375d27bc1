// Package client is a typed HTTP client for the network API. It keeps the
// session cookie jar, injects the CSRF header on unsafe requests and carries
// the bearer token once logged in.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"network/internal/middleware"
	"network/internal/models"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to one API server. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	base   *url.URL
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

// New builds a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	c := &Client{
		http:   resty.New().SetBaseURL(base.String()).SetHeader("Accept", "application/json"),
		base:   base,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.OnBeforeRequest(c.injectCSRF)
	return c, nil
}

// injectCSRF echoes the csrftoken cookie on unsafe methods.
func (c *Client) injectCSRF(_ *resty.Client, r *resty.Request) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}
	if token := c.csrfToken(); token != "" {
		r.SetHeader(middleware.CSRFHeaderName, token)
	}
	return nil
}

func (c *Client) csrfToken() string {
	jar := c.http.GetClient().Jar
	if jar == nil {
		return ""
	}
	for _, ck := range jar.Cookies(c.base) {
		if ck.Name == middleware.CSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetToken sets the bearer token; an empty token logs the client out locally.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.http.SetAuthToken(token)
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	var apiErr models.ErrorResponse
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.DebugContext(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode())

	if resp.IsError() {
		message := apiErr.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: message}
	}
	return nil
}

// AuthResult is the register/login answer.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// FetchCSRF obtains the CSRF cookie. Call it once before any mutation.
func (c *Client) FetchCSRF(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/csrf", nil, nil, nil)
}

// Register creates an account and keeps its token.
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/register", nil, map[string]string{
		"username":     username,
		"email":        email,
		"password":     password,
		"confirmation": password,
	}, &out)
	if err == nil {
		c.SetToken(out.Token)
	}
	return out, err
}

// Login authenticates with a username or email and keeps the token.
func (c *Client) Login(ctx context.Context, identifier, password string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/login", nil, map[string]string{
		"username": identifier,
		"password": password,
	}, &out)
	if err == nil {
		c.SetToken(out.Token)
	}
	return out, err
}

// Logout revokes the token server side and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
	c.SetToken("")
	return err
}

func profileQuery(filter models.FeedFilter, profileID uint) map[string]string {
	q := map[string]string{}
	if filter == models.FilterProfile {
		q["user_id"] = strconv.FormatUint(uint64(profileID), 10)
	}
	return q
}

// FirstPage fetches the newest page of a feed.
func (c *Client) FirstPage(ctx context.Context, filter models.FeedFilter, profileID uint) (models.FeedPage, error) {
	var page models.FeedPage
	err := c.do(ctx, http.MethodGet, "/posts/"+string(filter), profileQuery(filter, profileID), nil, &page)
	return page, err
}

// NextPage fetches the page after cursor.
func (c *Client) NextPage(ctx context.Context, filter models.FeedFilter, profileID uint, cursor models.Cursor) (models.FeedPage, error) {
	q := profileQuery(filter, profileID)
	for k, v := range cursor.Params() {
		q[k] = v
	}
	var page models.FeedPage
	err := c.do(ctx, http.MethodGet, "/posts/"+string(filter)+"/more", q, nil, &page)
	return page, err
}

func postPath(id uint) string    { return "/post/" + strconv.FormatUint(uint64(id), 10) }
func commentPath(id uint) string { return "/post/comment/" + strconv.FormatUint(uint64(id), 10) }

// CreatePost publishes a post.
func (c *Client) CreatePost(ctx context.Context, content string) (models.PostView, error) {
	var out struct {
		PostData models.PostView `json:"postData"`
	}
	err := c.do(ctx, http.MethodPost, "/post", nil, models.ContentRequest{Content: &content}, &out)
	return out.PostData, err
}

func (c *Client) GetPost(ctx context.Context, postID uint) (models.PostView, error) {
	var out models.PostView
	err := c.do(ctx, http.MethodGet, postPath(postID), nil, nil, &out)
	return out, err
}

// ToggleLike flips the caller's like on a post.
func (c *Client) ToggleLike(ctx context.Context, postID uint) (models.LikeState, error) {
	var out models.LikeState
	err := c.do(ctx, http.MethodPut, postPath(postID), nil, models.ActionRequest{Action: string(models.ActionLike)}, &out)
	return out, err
}

// EditPost replaces a post's content and returns the stored text.
func (c *Client) EditPost(ctx context.Context, postID uint, content string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	err := c.do(ctx, http.MethodPut, postPath(postID), nil,
		models.ActionRequest{Action: string(models.ActionEdit), Content: &content}, &out)
	return out.Content, err
}

func (c *Client) DeletePost(ctx context.Context, postID uint) error {
	return c.do(ctx, http.MethodDelete, postPath(postID), nil, models.ActionRequest{Action: string(models.ActionDelete)}, nil)
}

func (c *Client) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	var out struct {
		Comments []models.CommentView `json:"comments"`
	}
	err := c.do(ctx, http.MethodGet, postPath(postID)+"/comments", nil, nil, &out)
	return out.Comments, err
}

func (c *Client) CreateComment(ctx context.Context, postID uint, content string) (models.CommentResult, error) {
	var out models.CommentResult
	err := c.do(ctx, http.MethodPost, postPath(postID)+"/comment", nil, models.ContentRequest{Content: &content}, &out)
	return out, err
}

func (c *Client) EditComment(ctx context.Context, commentID uint, content string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	err := c.do(ctx, http.MethodPut, commentPath(commentID), nil,
		models.ActionRequest{Action: string(models.ActionEdit), Content: &content}, &out)
	return out.Content, err
}

// DeleteComment removes a comment and returns the post's new comment count.
func (c *Client) DeleteComment(ctx context.Context, commentID uint) (models.CommentCountResult, error) {
	var out models.CommentCountResult
	err := c.do(ctx, http.MethodDelete, commentPath(commentID), nil, models.ActionRequest{Action: string(models.ActionDelete)}, &out)
	return out, err
}

func (c *Client) ToggleFollow(ctx context.Context, userID uint) (models.FollowState, error) {
	var out models.FollowState
	err := c.do(ctx, http.MethodPut, "/follow/"+strconv.FormatUint(uint64(userID), 10), nil, nil, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context, userID uint) (models.ProfileView, error) {
	var out models.ProfileView
	err := c.do(ctx, http.MethodGet, "/profile/"+strconv.FormatUint(uint64(userID), 10), nil, nil, &out)
	return out, err
}
