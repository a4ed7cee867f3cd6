package seed

import (
	"fmt"
	"log"

	"pronet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// skillCatalog is the baseline skill set seeded users draw from.
var skillCatalog = []string{
	"Go", "TypeScript", "React", "PostgreSQL", "Redis", "Docker",
	"Kubernetes", "GraphQL", "Figma", "UI Design", "Technical Writing",
	"Python", "Terraform", "AWS", "Node.js", "Rust",
}

// Seed populates the database with a connected network of demo users,
// posts, conversations and freelance showcases.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers < 2 {
		opts.NumUsers = 2
	}
	log.Printf("Seeding %d users, %d posts (clean=%v)", opts.NumUsers, opts.NumPosts, opts.ShouldClean)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return fmt.Errorf("clear existing data: %w", err)
		}
	}

	f := NewFactory(db)

	users, err := seedUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("created %d users", len(users))

	if err := seedConnections(f, users); err != nil {
		return fmt.Errorf("seed connections: %w", err)
	}

	skills, err := seedSkills(f, users)
	if err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}
	log.Printf("created %d skills", len(skills))

	posts, err := seedEngagement(f, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := seedConversations(f, users); err != nil {
		return fmt.Errorf("seed conversations: %w", err)
	}

	if err := seedShowcases(f, users); err != nil {
		return fmt.Errorf("seed showcases: %w", err)
	}

	log.Printf("seeding complete; every user logs in with password %q", DefaultPassword)
	return nil
}

// ClearAll removes all seeded data, child tables first.
func ClearAll(db *gorm.DB) error {
	tables := []string{
		"feedback", "jobs_history", "user_skills", "skills", "projects",
		"message_attachments", "messages", "conversation_participants", "conversations",
		"comments", "likes", "posts", "connections", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func seedUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A fixed demo account for manual testing.
	demo, err := f.CreateUser(func(u *models.User) {
		u.FullName = "Demo User"
		u.Email = "demo@example.com"
		u.Headline = "Freelance Software Engineer"
	})
	if err != nil {
		return nil, err
	}
	users = append(users, demo)

	for i := 1; i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("skipping user: %v", err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// seedConnections builds a mesh: each user connects with a handful of others,
// most accepted, some left pending.
func seedConnections(f *Factory, users []*models.User) error {
	seen := make(map[string]bool)
	for i, user := range users {
		wanted := f.rng.Intn(5) + 2
		for n := 0; n < wanted; n++ {
			j := f.rng.Intn(len(users))
			if j == i {
				continue
			}
			key := models.ConnectionPairKey(user.ID, users[j].ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			status := models.ConnectionStatusAccepted
			if f.rng.Float32() < 0.2 {
				status = models.ConnectionStatusPending
			}
			if err := f.CreateConnection(user, users[j], status); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedSkills(f *Factory, users []*models.User) ([]*models.Skill, error) {
	skills := make([]*models.Skill, 0, len(skillCatalog))
	for _, name := range skillCatalog {
		skill, err := f.FindOrCreateSkill(name)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}

	for _, user := range users {
		wanted := f.rng.Intn(5) + 1
		for n := 0; n < wanted; n++ {
			if err := f.AttachSkill(user, skills[f.rng.Intn(len(skills))]); err != nil {
				return nil, err
			}
		}
	}
	return skills, nil
}

func seedEngagement(f *Factory, users []*models.User, numPosts int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	for _, post := range posts {
		for n := f.rng.Intn(4); n > 0; n-- {
			commenter := users[f.rng.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return nil, err
			}
		}
		for n := f.rng.Intn(len(users)/2 + 1); n > 0; n-- {
			liker := users[f.rng.Intn(len(users))]
			if liker.ID == post.UserID {
				continue
			}
			if err := f.CreateLike(liker, post); err != nil {
				return nil, err
			}
		}
	}
	return posts, nil
}

func seedConversations(f *Factory, users []*models.User) error {
	// A couple of threads per user, each with a short exchange. One thread
	// per user pair, matching what the API enforces.
	seen := make(map[string]bool)
	for i, user := range users {
		for n := 0; n < 2; n++ {
			j := f.rng.Intn(len(users))
			if j == i {
				continue
			}
			key := models.ConnectionPairKey(user.ID, users[j].ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			conv, err := f.CreateConversation(user, users[j])
			if err != nil {
				return err
			}
			turns := f.rng.Intn(6) + 2
			for m := 0; m < turns; m++ {
				sender := user
				if m%2 == 1 {
					sender = users[j]
				}
				if _, err := f.CreateMessage(conv, sender); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func seedShowcases(f *Factory, users []*models.User) error {
	for _, user := range users {
		for n := f.rng.Intn(3); n > 0; n-- {
			if _, err := f.CreateProject(user); err != nil {
				return err
			}
		}

		// About half the users carry a freelance job history with ratings.
		if f.rng.Float32() < 0.5 {
			continue
		}
		for n := f.rng.Intn(3) + 1; n > 0; n-- {
			client := users[f.rng.Intn(len(users))]
			if client.ID == user.ID {
				continue
			}
			job, err := f.CreateJob(user, client)
			if err != nil {
				return err
			}
			if f.rng.Float32() < 0.8 {
				if _, err := f.CreateFeedback(job, gofakeit.Number(3, 5)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
