package seed

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"network/internal/database"
	"network/internal/models"
	"network/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds unsaved entities with plausible content. Persisting them is
// the Seeder's job, through the repositories.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     time.Time
}

// NewFactory returns a Factory whose output is reproducible for a given seed.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		faker:   gofakeit.New(seed),
		maxDays: maxDays,
		now:     database.Now(),
	}
}

// User builds an account; n keeps usernames unique within one run.
func (f *Factory) User(n int, passwordHash string) *models.User {
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, f.faker.Username())
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	username := fmt.Sprintf("%s_%d", base, n)
	return &models.User{
		Username:       username,
		Email:          strings.ToLower(username) + "@example.com",
		Password:       passwordHash,
		ProfilePicture: "https://i.pravatar.cc/150?u=" + f.faker.UUID(),
	}
}

// Post builds a post by author dated somewhere in the last maxDays.
func (f *Factory) Post(author *models.User) *models.Post {
	return &models.Post{
		UserID:    author.ID,
		Content:   clip(f.faker.Sentence(f.faker.Number(4, 30)), validation.PostMaxLength),
		CreatedAt: f.PastTime(),
	}
}

// Comment builds a comment dated after its post.
func (f *Factory) Comment(author *models.User, post *models.Post) *models.Comment {
	at := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if at.After(f.now) {
		at = f.now
	}
	return &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   clip(f.faker.Sentence(f.faker.Number(2, 12)), validation.CommentMaxLength),
		CreatedAt: at,
	}
}

// PastTime is a random instant within the last maxDays.
func (f *Factory) PastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}

func clip(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxLen]))
}
