package server

import (
	"net/http"
	"testing"

	"network/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollow_UpdatesProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	_, aliceToken := env.user(t, "alice")
	bob, _ := env.user(t, "bob")
	bobPath := "/profile/" + itoa(bob.ID)

	status, raw := env.do(t, http.MethodGet, bobPath, aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, decode[models.ProfileView](t, raw).Follow)

	status, raw = env.do(t, http.MethodPut, "/follow/"+itoa(bob.ID), aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.FollowState{Follow: true, FollowersCount: 1}, decode[models.FollowState](t, raw))

	_, raw = env.do(t, http.MethodGet, bobPath, aliceToken, nil)
	profile := decode[models.ProfileView](t, raw)
	assert.True(t, profile.Follow)
	assert.Equal(t, int64(1), profile.Followers)

	_, raw = env.do(t, http.MethodGet, bobPath, "", nil)
	assert.False(t, decode[models.ProfileView](t, raw).Follow, "anonymous viewers follow nobody")

	status, raw = env.do(t, http.MethodPut, "/follow/"+itoa(bob.ID), aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.FollowState{Follow: false, FollowersCount: 0}, decode[models.FollowState](t, raw))
}

func TestToggleFollow_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	alice, token := env.user(t, "alice")

	status, _ := env.do(t, http.MethodPut, "/follow/"+itoa(alice.ID), token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/follow/999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, raw := env.do(t, http.MethodPut, "/follow/abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID", errorOf(t, raw))

	status, _ = env.do(t, http.MethodPut, "/follow/"+itoa(alice.ID), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGetProfileEmail_OwnerOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	alice, aliceToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")
	path := "/profile/" + itoa(alice.ID) + "/email"

	status, raw := env.do(t, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"email":"alice@example.com"}`, string(raw))

	status, raw = env.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "You can only view your own email address.", errorOf(t, raw))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	_, aliceToken := env.user(t, "alice")
	env.user(t, "bob")

	status, raw := env.do(t, http.MethodPut, "/profile", aliceToken, fiber.Map{"username": "Bob"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Username or email already taken.", errorOf(t, raw))

	status, raw = env.do(t, http.MethodPut, "/profile", aliceToken, fiber.Map{
		"username":        "alice_two",
		"profile_picture": "https://example.com/a.png",
	})
	require.Equal(t, fiber.StatusOK, status, string(raw))
	updated := decode[models.User](t, raw)
	assert.Equal(t, "alice_two", updated.Username)
	assert.Equal(t, "https://example.com/a.png", updated.ProfilePicture)

	status, _ = env.do(t, http.MethodPut, "/profile", aliceToken, fiber.Map{"email": "not-an-email"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
