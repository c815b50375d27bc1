// Package seed fills a database with demo users, follows, posts, likes and
// comments. Every relationship goes through the repositories so the
// denormalized counters match the rows they summarize.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"network/internal/middleware"
	"network/internal/models"
	"network/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "Network-demo1!"

// Options configures a seeding run.
type Options struct {
	Users          int
	PostsPerUser   int
	FollowsPerUser int
	// LikeChance is the probability that a given user likes a given post.
	LikeChance  float64
	MaxComments int
	MaxDays     int
	// SkipBcrypt stores a cheap hash; only for tests.
	SkipBcrypt bool
	// Seed makes a run reproducible. Zero picks one from the clock.
	Seed int64
}

// DefaultOptions is a small but lively network.
func DefaultOptions() Options {
	return Options{
		Users:          30,
		PostsPerUser:   8,
		FollowsPerUser: 6,
		LikeChance:     0.2,
		MaxComments:    4,
		MaxDays:        60,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
}

type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	opts     Options
	factory  *Factory
	rnd      *rand.Rand
	logger   *slog.Logger
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
		opts:     opts,
		factory:  NewFactory(opts.Seed, opts.MaxDays),
		//nolint:gosec // seeding does not need a secure source
		rnd:    rand.New(rand.NewSource(opts.Seed)),
		logger: middleware.Logger,
	}
}

// Clear deletes every row, children first.
func (s *Seeder) Clear(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	s.logger.InfoContext(ctx, "seed: cleared existing data")
	return nil
}

// Run creates the whole network.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	users, err := s.seedUsers(ctx)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)

	if sum.Follows, err = s.seedFollows(ctx, users); err != nil {
		return sum, err
	}

	posts, err := s.seedPosts(ctx, users)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)

	if sum.Likes, err = s.seedLikes(ctx, users, posts); err != nil {
		return sum, err
	}
	if sum.Comments, err = s.seedComments(ctx, users, posts); err != nil {
		return sum, err
	}

	s.logger.InfoContext(ctx, "seed: done",
		"users", sum.Users, "follows", sum.Follows, "posts", sum.Posts,
		"likes", sum.Likes, "comments", sum.Comments)
	return sum, nil
}

func (s *Seeder) passwordHash() (string, error) {
	if s.opts.SkipBcrypt {
		return DemoPassword, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	return string(hash), nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]*models.User, error) {
	hash, err := s.passwordHash()
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, s.opts.Users)
	for i := range s.opts.Users {
		user := s.factory.User(i+1, hash)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		users = append(users, user)
	}
	s.logger.InfoContext(ctx, "seed: users created", "count", len(users))
	return users, nil
}

// seedFollows makes each user follow distinct others, never themselves.
func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	follows := 0
	for i, follower := range users {
		want := min(s.opts.FollowsPerUser, len(users)-1)
		for _, j := range s.rnd.Perm(len(users)) {
			if want == 0 {
				break
			}
			if j == i {
				continue
			}
			if _, err := s.follows.Toggle(ctx, follower.ID, users[j].ID); err != nil {
				return follows, fmt.Errorf("follow %d -> %d: %w", follower.ID, users[j].ID, err)
			}
			follows++
			want--
		}
	}
	return follows, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, author := range users {
		for range s.opts.PostsPerUser {
			post := s.factory.Post(author)
			if err := s.posts.Create(ctx, post); err != nil {
				return nil, fmt.Errorf("create post for %d: %w", author.ID, err)
			}
			posts = append(posts, post)
		}
	}
	s.logger.InfoContext(ctx, "seed: posts created", "count", len(posts))
	return posts, nil
}

func (s *Seeder) seedLikes(ctx context.Context, users []*models.User, posts []*models.Post) (int, error) {
	likes := 0
	for _, post := range posts {
		for _, user := range users {
			if !s.factory.Chance(s.opts.LikeChance) {
				continue
			}
			if _, err := s.posts.ToggleLike(ctx, user.ID, post.ID); err != nil {
				return likes, fmt.Errorf("like post %d: %w", post.ID, err)
			}
			likes++
		}
	}
	return likes, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post) (int, error) {
	if len(users) == 0 || s.opts.MaxComments <= 0 {
		return 0, nil
	}
	comments := 0
	for _, post := range posts {
		for range s.rnd.Intn(s.opts.MaxComments + 1) {
			author := users[s.factory.Pick(len(users))]
			if _, err := s.comments.Create(ctx, s.factory.Comment(author, post)); err != nil {
				return comments, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			comments++
		}
	}
	return comments, nil
}
