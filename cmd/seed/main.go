// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"network/internal/config"
	"network/internal/database"
	"network/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of users to create")
	posts := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Accounts each user follows")
	likeChance := flag.Float64("like-chance", defaults.LikeChance, "Probability a user likes a post")
	comments := flag.Int("comments", defaults.MaxComments, "Maximum comments per post")
	days := flag.Int("days", defaults.MaxDays, "Spread post dates over this many days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = from clock)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d posts each, clean=%v\n", *users, *posts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		Users:          *users,
		PostsPerUser:   *posts,
		FollowsPerUser: *follows,
		LikeChance:     *likeChance,
		MaxComments:    *comments,
		MaxDays:        *days,
		Seed:           *randSeed,
	})

	if *shouldClean {
		if err := s.Clear(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d follows, %d posts, %d likes, %d comments",
		sum.Users, sum.Follows, sum.Posts, sum.Likes, sum.Comments)
	log.Printf("📧 All seeded users have the password: %s", seed.DemoPassword)
}
