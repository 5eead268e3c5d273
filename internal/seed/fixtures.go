package seed

import (
	"fmt"
	"os"

	"feedhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Fixture is a declarative set of users and their posts, loaded from a
// YAML file. It gives demos a stable, recognizable dataset on top of the
// generated noise.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

// FixtureUser declares one account to create.
type FixtureUser struct {
	Username string        `yaml:"username"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Status   string        `yaml:"status"`
	Posts    []FixturePost `yaml:"posts"`
}

// FixturePost declares one post owned by the enclosing user.
type FixturePost struct {
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	ImageRef string `yaml:"image_ref"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &fx, nil
}

// ApplyFixture creates the fixture's users and posts. Fixture users keep
// their declared credentials; missing fields fall back to generated ones.
func (s *Seeder) ApplyFixture(fx *Fixture) error {
	for _, fu := range fx.Users {
		password := fu.Password
		if password == "" {
			password = DefaultPassword
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", fu.Username, err)
		}

		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = fu.Username
			u.Email = fu.Email
			u.Password = string(hashed)
			u.Status = fu.Status
		})
		if err != nil {
			return err
		}

		posts := make([]*models.Post, 0, len(fu.Posts))
		for _, fp := range fu.Posts {
			fp := fp
			posts = append(posts, s.factory.BuildPost(user, func(p *models.Post) {
				p.Title = fp.Title
				p.Content = fp.Content
				if fp.ImageRef != "" {
					p.ImageRef = fp.ImageRef
				}
			}))
		}
		if err := s.factory.CreatePostsBatch(posts); err != nil {
			return err
		}
	}
	return nil
}
