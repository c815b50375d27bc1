package interaction

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"network/internal/client"
	"network/internal/feed"
	"network/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreatePost(ctx context.Context, content string) (models.PostView, error) {
	args := m.Called(ctx, content)
	return args.Get(0).(models.PostView), args.Error(1)
}

func (m *MockAPI) ToggleLike(ctx context.Context, postID uint) (models.LikeState, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(models.LikeState), args.Error(1)
}

func (m *MockAPI) EditPost(ctx context.Context, postID uint, content string) (string, error) {
	args := m.Called(ctx, postID, content)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) DeletePost(ctx context.Context, postID uint) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *MockAPI) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]models.CommentView), args.Error(1)
}

func (m *MockAPI) CreateComment(ctx context.Context, postID uint, content string) (models.CommentResult, error) {
	args := m.Called(ctx, postID, content)
	return args.Get(0).(models.CommentResult), args.Error(1)
}

func (m *MockAPI) EditComment(ctx context.Context, commentID uint, content string) (string, error) {
	args := m.Called(ctx, commentID, content)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) DeleteComment(ctx context.Context, commentID uint) (models.CommentCountResult, error) {
	args := m.Called(ctx, commentID)
	return args.Get(0).(models.CommentCountResult), args.Error(1)
}

func (m *MockAPI) ToggleFollow(ctx context.Context, userID uint) (models.FollowState, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.FollowState), args.Error(1)
}

func (m *MockAPI) Profile(ctx context.Context, userID uint) (models.ProfileView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.ProfileView), args.Error(1)
}

// recordingSurface remembers the last state of every control.
type recordingSurface struct {
	mu       sync.Mutex
	enabled  map[string]bool
	errors   map[string]string
	disables int
}

func newSurface() *recordingSurface {
	return &recordingSurface{enabled: map[string]bool{}, errors: map[string]string{}}
}

func (s *recordingSurface) SetEnabled(key string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[key] = enabled
	if !enabled {
		s.disables++
	}
}

func (s *recordingSurface) ShowError(key, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[key] = message
}

func (s *recordingSurface) isEnabled(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[key]
}

func (s *recordingSurface) errorFor(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[key]
}

type staticSource struct {
	pages []models.FeedPage
	calls int
}

func (s *staticSource) FirstPage(context.Context, models.FeedFilter, uint) (models.FeedPage, error) {
	page := s.pages[min(s.calls, len(s.pages)-1)]
	s.calls++
	return page, nil
}

func (s *staticSource) NextPage(context.Context, models.FeedFilter, uint, models.Cursor) (models.FeedPage, error) {
	return models.FeedPage{}, nil
}

var ts = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func loadedSession(t *testing.T, posts ...models.PostView) (*feed.Session, *feed.MemoryView, *staticSource) {
	t.Helper()
	src := &staticSource{pages: []models.FeedPage{{Posts: posts}}}
	view := feed.NewMemoryView()
	s := feed.NewSession(src, view)
	require.NoError(t, s.LoadPosts(context.Background(), models.FilterAll, 0))
	return s, view, src
}

func setup(t *testing.T, posts ...models.PostView) (*Controller, *MockAPI, *recordingSurface, *feed.Session) {
	t.Helper()
	session, _, _ := loadedSession(t, posts...)
	api := new(MockAPI)
	surface := newSurface()
	return NewController(api, session, surface), api, surface, session
}

func samplePost(id uint) models.PostView {
	return models.PostView{ID: id, UserID: 2, Content: "hello", Timestamp: ts, LikeCount: 3, CommentCount: 1}
}

func TestToggleLike_ReconcilesWithServer(t *testing.T) {
	ctl, api, surface, session := setup(t, samplePost(1))
	api.On("ToggleLike", mock.Anything, uint(1)).Return(models.LikeState{Liked: true, LikeCount: 7}, nil).Once()

	require.NoError(t, ctl.ToggleLike(context.Background(), 1))

	post, _ := session.Post(1)
	assert.True(t, post.Liked)
	assert.Equal(t, int64(7), post.LikeCount, "server count wins over the optimistic one")
	assert.True(t, surface.isEnabled(LikeKey(1)))
	assert.Empty(t, surface.errorFor(LikeKey(1)))
	api.AssertExpectations(t)
}

func TestToggleLike_RollsBackOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"api error", &client.APIError{Status: http.StatusNotFound, Code: models.CodeNotFound, Message: "Post not found."}, "Post not found."},
		{"transport error", errors.New("connection refused"), GenericError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := samplePost(1)
			start.Liked = true
			ctl, api, surface, session := setup(t, start)

			var during models.PostView
			api.On("ToggleLike", mock.Anything, uint(1)).Run(func(mock.Arguments) {
				during, _ = session.Post(1)
				assert.False(t, surface.isEnabled(LikeKey(1)), "control disabled while in flight")
			}).Return(models.LikeState{}, tc.err).Once()

			err := ctl.ToggleLike(context.Background(), 1)
			require.ErrorIs(t, err, tc.err)

			assert.False(t, during.Liked)
			assert.Equal(t, int64(2), during.LikeCount)

			after, _ := session.Post(1)
			assert.Equal(t, start.Liked, after.Liked)
			assert.Equal(t, start.LikeCount, after.LikeCount)
			assert.Equal(t, tc.message, surface.errorFor(LikeKey(1)))
			assert.True(t, surface.isEnabled(LikeKey(1)))
		})
	}
}

func TestToggleLike_SecondClickWhileInFlightIsRejected(t *testing.T) {
	ctl, api, surface, session := setup(t, samplePost(1))

	started := make(chan struct{})
	release := make(chan struct{})
	api.On("ToggleLike", mock.Anything, uint(1)).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(models.LikeState{Liked: true, LikeCount: 4}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- ctl.ToggleLike(context.Background(), 1) }()
	<-started

	assert.ErrorIs(t, ctl.ToggleLike(context.Background(), 1), ErrInFlight)
	assert.ErrorIs(t, ctl.Dispatch(context.Background(), Command{Kind: KindLike, PostID: 1}), ErrInFlight)

	close(release)
	require.NoError(t, <-done)

	api.AssertNumberOfCalls(t, "ToggleLike", 1)
	assert.Equal(t, 1, surface.disables)
	post, _ := session.Post(1)
	assert.Equal(t, int64(4), post.LikeCount)

	// The key is free again.
	api.On("ToggleLike", mock.Anything, uint(1)).Return(models.LikeState{LikeCount: 3}, nil).Once()
	require.NoError(t, ctl.ToggleLike(context.Background(), 1))
}

func TestToggleLike_NewerCountFromEventSurvivesServerAnswer(t *testing.T) {
	ctl, api, _, session := setup(t, samplePost(1))

	// Another like commits after ours and its event lands first.
	api.On("ToggleLike", mock.Anything, uint(1)).Run(func(mock.Arguments) {
		session.ApplyCounters(models.LikeCounters(1, 5).WithVersion(9))
	}).Return(models.LikeState{Liked: true, LikeCount: 4, Version: 8}, nil).Once()

	require.NoError(t, ctl.ToggleLike(context.Background(), 1))

	post, _ := session.Post(1)
	assert.True(t, post.Liked)
	assert.Equal(t, int64(5), post.LikeCount)
	assert.Equal(t, int64(9), post.CounterVersion)

	// A stale event after the answer changes nothing either.
	assert.False(t, session.ApplyCounters(models.LikeCounters(1, 4).WithVersion(8)))
}

func TestToggleLike_UnknownPost(t *testing.T) {
	ctl, api, _, _ := setup(t, samplePost(1))
	assert.ErrorIs(t, ctl.ToggleLike(context.Background(), 99), ErrUnknownPost)
	api.AssertNotCalled(t, "ToggleLike", mock.Anything, mock.Anything)
}

func TestContentIsCheckedBeforeAnyRequest(t *testing.T) {
	ctl, api, surface, session := setup(t, samplePost(1))
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	err := ctl.CreateComment(context.Background(), 1, "   ")
	require.Error(t, err)
	assert.Equal(t, "Content cannot be empty.", surface.errorFor(CommentOnKey(1)))

	require.Error(t, ctl.CreateComment(context.Background(), 1, string(long)))
	assert.Equal(t, "Content exceeds 100 characters.", surface.errorFor(CommentOnKey(1)))

	require.Error(t, ctl.EditPost(context.Background(), 1, ""))
	require.Error(t, ctl.CreatePost(context.Background(), "<b></b>"))
	assert.Equal(t, "Content cannot be empty.", surface.errorFor(ComposeKey))

	assert.Empty(t, api.Calls)
	assert.Zero(t, surface.disables)
	post, _ := session.Post(1)
	assert.Equal(t, int64(1), post.CommentCount)
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()
	ctl, api, surface, session := setup(t, samplePost(1))
	comment := models.CommentView{ID: 40, UserID: 2, Content: "nice", Timestamp: ts}
	api.On("CreateComment", mock.Anything, uint(1), "nice").
		Return(models.CommentResult{Comment: comment, CommentCount: 5}, nil).Once()

	require.NoError(t, ctl.CreateComment(ctx, 1, "  nice "))
	post, _ := session.Post(1)
	assert.Equal(t, int64(5), post.CommentCount)
	assert.Equal(t, []models.CommentView{comment}, ctl.Comments().List(1))

	api.On("CreateComment", mock.Anything, uint(1), "again").
		Return(models.CommentResult{}, &client.APIError{Status: 500, Message: "Internal server error"}).Once()
	require.Error(t, ctl.CreateComment(ctx, 1, "again"))
	post, _ = session.Post(1)
	assert.Equal(t, int64(5), post.CommentCount)
	assert.Equal(t, "Internal server error", surface.errorFor(CommentOnKey(1)))
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	start := samplePost(1)
	start.CommentCount = 2
	ctl, api, _, session := setup(t, start)
	ctl.Comments().Load(1, []models.CommentView{{ID: 8, Content: "b"}, {ID: 7, Content: "a"}})

	api.On("DeleteComment", mock.Anything, uint(8)).Run(func(mock.Arguments) {
		assert.Len(t, ctl.Comments().List(1), 1, "hidden while in flight")
	}).Return(models.CommentCountResult{}, errors.New("timeout")).Once()
	require.Error(t, ctl.DeleteComment(ctx, 1, 8))
	assert.Len(t, ctl.Comments().List(1), 2)
	post, _ := session.Post(1)
	assert.Equal(t, int64(2), post.CommentCount)

	api.On("DeleteComment", mock.Anything, uint(8)).Return(models.CommentCountResult{CommentCount: 1}, nil).Once()
	require.NoError(t, ctl.DeleteComment(ctx, 1, 8))
	assert.Equal(t, []models.CommentView{{ID: 7, Content: "a"}}, ctl.Comments().List(1))
	post, _ = session.Post(1)
	assert.Equal(t, int64(1), post.CommentCount)
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	ctl, api, _, session := setup(t, samplePost(1))

	api.On("EditPost", mock.Anything, uint(1), "changed").Return("", &client.APIError{Status: 403, Message: "Forbidden"}).Once()
	require.Error(t, ctl.EditPost(ctx, 1, "changed"))
	post, _ := session.Post(1)
	assert.Equal(t, "hello", post.Content)

	api.On("EditPost", mock.Anything, uint(1), "changed").Return("changed", nil).Once()
	require.NoError(t, ctl.EditPost(ctx, 1, "changed"))
	post, _ = session.Post(1)
	assert.Equal(t, "changed", post.Content)
}

func TestEditComment(t *testing.T) {
	ctx := context.Background()
	ctl, api, _, _ := setup(t, samplePost(1))
	ctl.Comments().Load(1, []models.CommentView{{ID: 7, Content: "old"}})

	api.On("EditComment", mock.Anything, uint(7), "new").Return("", errors.New("offline")).Once()
	require.Error(t, ctl.EditComment(ctx, 7, "new"))
	got, _ := ctl.Comments().Get(7)
	assert.Equal(t, "old", got.Content)

	api.On("EditComment", mock.Anything, uint(7), "new").Return("new", nil).Once()
	require.NoError(t, ctl.EditComment(ctx, 7, "new"))
	got, _ = ctl.Comments().Get(7)
	assert.Equal(t, "new", got.Content)
}

func TestDeletePost_ConfirmedThenRemoved(t *testing.T) {
	ctx := context.Background()
	session, view, _ := loadedSession(t, samplePost(2), samplePost(1))
	api := new(MockAPI)
	answer := false
	ctl := NewController(api, session, newSurface(), WithConfirm(func(string) bool { return answer }))

	assert.ErrorIs(t, ctl.DeletePost(ctx, 2), ErrCancelled)
	api.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)

	answer = true
	api.On("DeletePost", mock.Anything, uint(2)).Run(func(mock.Arguments) {
		_, still := session.Post(2)
		assert.True(t, still, "post stays until the server confirms")
	}).Return(errors.New("offline")).Once()
	require.Error(t, ctl.DeletePost(ctx, 2))
	assert.Len(t, view.Posts(), 2)

	api.On("DeletePost", mock.Anything, uint(2)).Return(nil).Once()
	require.NoError(t, ctl.DeletePost(ctx, 2))
	_, still := session.Post(2)
	assert.False(t, still)
	assert.Len(t, view.Posts(), 1)
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	ctl, api, _, _ := setup(t)
	api.On("Profile", mock.Anything, uint(5)).Return(models.ProfileView{ID: 5, Followers: 3}, nil).Once()
	_, err := ctl.LoadProfile(ctx, 5)
	require.NoError(t, err)

	api.On("ToggleFollow", mock.Anything, uint(5)).Run(func(mock.Arguments) {
		p, _ := ctl.Profiles().Get(5)
		assert.True(t, p.Follow)
		assert.Equal(t, int64(4), p.Followers)
	}).Return(models.FollowState{}, errors.New("offline")).Once()
	require.Error(t, ctl.ToggleFollow(ctx, 5))
	p, _ := ctl.Profiles().Get(5)
	assert.Equal(t, models.ProfileView{ID: 5, Followers: 3}, p)

	api.On("ToggleFollow", mock.Anything, uint(5)).Return(models.FollowState{Follow: true, FollowersCount: 10}, nil).Once()
	require.NoError(t, ctl.ToggleFollow(ctx, 5))
	p, _ = ctl.Profiles().Get(5)
	assert.True(t, p.Follow)
	assert.Equal(t, int64(10), p.Followers)
}

func TestCreatePost_PrependsToFeed(t *testing.T) {
	ctl, api, _, session := setup(t, samplePost(1))
	created := models.PostView{ID: 9, UserID: 2, Content: "fresh", Timestamp: ts, UserIsAuthor: true}
	api.On("CreatePost", mock.Anything, "fresh").Return(created, nil).Once()

	require.NoError(t, ctl.CreatePost(context.Background(), "fresh"))
	posts := session.State().Posts
	require.Len(t, posts, 2)
	assert.Equal(t, uint(9), posts[0].ID)
}
