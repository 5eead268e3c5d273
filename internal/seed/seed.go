package seed

import (
	"fmt"
	"log"

	"feedhub/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	SkipBcrypt  bool
	MaxDays     int
}

// Seeder orchestrates populating the database with generated data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes all seeded rows. Child tables go first so foreign keys
// never block the deletes.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []interface{}{
		&models.UserPost{},
		&models.Post{},
		&models.Asset{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
	}
	return nil
}

// Run populates the database with generated users and posts.
func (s *Seeder) Run() error {
	log.Printf("Seeding %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	if len(users) == 0 {
		return nil
	}

	// One asset record per user; their posts reference these refs so the
	// seeded feed looks like real upload-then-post traffic.
	assets := make([]*models.Asset, 0, len(users))
	for _, user := range users {
		asset, err := s.factory.CreateAsset(user)
		if err != nil {
			return fmt.Errorf("failed to create asset for user %d: %w", user.ID, err)
		}
		assets = append(assets, asset)
	}
	log.Printf("Created %d assets", len(assets))

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		idx := i % len(users)
		owner := users[idx]
		ref := assets[idx].Ref
		posts = append(posts, s.factory.BuildPost(owner, func(p *models.Post) {
			p.ImageRef = ref
		}))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return err
	}
	log.Printf("Created %d posts", len(posts))

	log.Printf("Seeding complete. All users have the password %q", DefaultPassword)
	return nil
}
