package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"network/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, nil)
	author, token := env.user(t, "author")

	status, raw := env.do(t, http.MethodPost, "/post", token, fiber.Map{"content": "  hello <b>world</b>  "})
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	body := decode[struct {
		PostData models.PostView `json:"postData"`
	}](t, raw)
	assert.Equal(t, author.ID, body.PostData.UserID)
	assert.True(t, body.PostData.UserIsAuthor)
	assert.Zero(t, body.PostData.LikeCount)
	assert.NotContains(t, body.PostData.Content, "<b>")

	var refreshed models.User
	require.NoError(t, env.db.First(&refreshed, author.ID).Error)
	assert.Equal(t, int64(1), refreshed.PostCount)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.user(t, "author")

	status, raw := env.do(t, http.MethodPost, "/post", "", fiber.Map{"content": "hi"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "User not authenticated.", errorOf(t, raw))

	status, raw = env.do(t, http.MethodPost, "/post", token, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing required field: content", errorOf(t, raw))

	status, _ = env.do(t, http.MethodPost, "/post", token, fiber.Map{"content": "   "})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/post", token, fiber.Map{"content": strings.Repeat("x", 251)})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdatePost_LikeToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	author, _ := env.user(t, "author")
	seedPosts(t, env, author, 1, time.Now().Add(-time.Minute))
	_, token := env.user(t, "fan")

	status, raw := env.do(t, http.MethodPut, "/post/1", token, fiber.Map{"action": "like"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.LikeState{Liked: true, LikeCount: 1, Version: 1}, decode[models.LikeState](t, raw))

	status, raw = env.do(t, http.MethodPut, "/post/1", token, fiber.Map{"action": "like"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.LikeState{Liked: false, LikeCount: 0, Version: 2}, decode[models.LikeState](t, raw))

	status, _ = env.do(t, http.MethodPut, "/post/99", token, fiber.Map{"action": "like"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdatePost_LikePublishesCounters(t *testing.T) {
	env := newTestEnv(t, nil)
	author, _ := env.user(t, "author")
	seedPosts(t, env, author, 1, time.Now().Add(-time.Minute))
	_, token := env.user(t, "fan")

	client, err := env.srv.hub.Register(0, nil)
	require.NoError(t, err)

	status, _ := env.do(t, http.MethodPut, "/post/1", token, fiber.Map{"action": "like"})
	require.Equal(t, fiber.StatusOK, status)

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), `"type":"post_reaction_updated"`)
		assert.Contains(t, string(msg), `"like_count":1`)
		assert.NotContains(t, string(msg), `"comment_count"`)
	case <-time.After(time.Second):
		t.Fatal("no counter event")
	}
}

func TestUpdatePost_Edit(t *testing.T) {
	env := newTestEnv(t, nil)
	author, authorToken := env.user(t, "author")
	seedPosts(t, env, author, 1, time.Now().Add(-time.Minute))
	_, otherToken := env.user(t, "other")

	status, raw := env.do(t, http.MethodPut, "/post/1", authorToken, fiber.Map{"action": "edit", "content": "updated"})
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"content":"updated"}`, string(raw))

	status, _ = env.do(t, http.MethodPut, "/post/1", otherToken, fiber.Map{"action": "edit", "content": "hijack"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, raw = env.do(t, http.MethodPut, "/post/1", authorToken, fiber.Map{"action": "edit"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing required field: content", errorOf(t, raw))

	status, raw = env.do(t, http.MethodPut, "/post/1", authorToken, fiber.Map{"action": "delete"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid action: delete", errorOf(t, raw))

	var post models.Post
	require.NoError(t, env.db.First(&post, 1).Error)
	assert.Equal(t, "updated", post.Content)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, nil)
	author, authorToken := env.user(t, "author")
	seedPosts(t, env, author, 1, time.Now().Add(-time.Minute))
	_, otherToken := env.user(t, "other")

	status, raw := env.do(t, http.MethodDelete, "/post/1", authorToken, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Missing required field: action", errorOf(t, raw))

	status, _ = env.do(t, http.MethodDelete, "/post/1", otherToken, fiber.Map{"action": "delete"})
	assert.Equal(t, fiber.StatusForbidden, status)

	client, err := env.srv.hub.Register(0, nil)
	require.NoError(t, err)

	status, _ = env.do(t, http.MethodDelete, "/post/1", authorToken, fiber.Map{"action": "delete"})
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"type":"post_deleted","payload":{"post_id":1}}`, string(<-client.Send))

	status, _ = env.do(t, http.MethodGet, "/post/1", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t, nil)
	author, token := env.user(t, "author")
	seedPosts(t, env, author, 1, time.Now().Add(-time.Minute))

	status, raw := env.do(t, http.MethodGet, "/post/1", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	view := decode[models.PostView](t, raw)
	assert.Equal(t, "author", view.User)
	assert.True(t, view.UserIsAuthor)

	status, _ = env.do(t, http.MethodGet, "/post/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
