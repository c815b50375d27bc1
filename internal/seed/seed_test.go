package seed

import (
	"context"
	"testing"
	"unicode/utf8"

	"network/internal/database"
	"network/internal/models"
	"network/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func smallOptions() Options {
	return Options{
		Users:          6,
		PostsPerUser:   3,
		FollowsPerUser: 2,
		LikeChance:     0.5,
		MaxComments:    3,
		MaxDays:        10,
		SkipBcrypt:     true,
		Seed:           42,
	}
}

func count(t *testing.T, db *gorm.DB, model any) int {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return int(n)
}

func TestSeeder_CountersMatchRows(t *testing.T) {
	db := openDB(t)
	sum, err := NewSeeder(db, smallOptions()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 12, sum.Follows)
	assert.Equal(t, 18, sum.Posts)
	assert.Equal(t, sum.Users, count(t, db, &models.User{}))
	assert.Equal(t, sum.Follows, count(t, db, &models.Follow{}))
	assert.Equal(t, sum.Posts, count(t, db, &models.Post{}))
	assert.Equal(t, sum.Likes, count(t, db, &models.Like{}))
	assert.Equal(t, sum.Comments, count(t, db, &models.Comment{}))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		var likes, comments int64
		require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", p.ID).Count(&likes).Error)
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
		assert.Equal(t, likes, p.LikeCount, "post %d like_count", p.ID)
		assert.Equal(t, comments, p.CommentCount, "post %d comment_count", p.ID)
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Content), validation.PostMaxLength)
	}

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		var followers, following, authored int64
		require.NoError(t, db.Model(&models.Follow{}).Where("followee_id = ?", u.ID).Count(&followers).Error)
		require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = ?", u.ID).Count(&following).Error)
		require.NoError(t, db.Model(&models.Post{}).Where("user_id = ?", u.ID).Count(&authored).Error)
		assert.Equal(t, followers, u.FollowersCount, "user %d followers", u.ID)
		assert.Equal(t, following, u.FollowingCount, "user %d following", u.ID)
		assert.Equal(t, authored, u.PostCount, "user %d posts", u.ID)
		assert.NoError(t, validation.ValidateUsername(u.Username))
	}

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followee_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
}

func TestSeeder_Clear(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db, smallOptions())
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Clear(context.Background()))
	for _, model := range database.PersistentModels() {
		assert.Zero(t, count(t, db, model), "%T", model)
	}
}

func TestFactory_CommentFollowsItsPost(t *testing.T) {
	f := NewFactory(7, 5)
	author := &models.User{ID: 1}
	for range 20 {
		post := f.Post(author)
		post.ID = 3
		assert.False(t, post.CreatedAt.After(f.now))

		c := f.Comment(author, post)
		assert.Equal(t, uint(3), c.PostID)
		assert.False(t, c.CreatedAt.Before(post.CreatedAt))
		assert.False(t, c.CreatedAt.After(f.now))
		_, err := validation.Content(c.Content, validation.CommentMaxLength)
		assert.NoError(t, err)
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "héllo", clip("héllo wörld", 5))
}
