// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"feedhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every generated user gets.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db   *gorm.DB
	opts Options
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Status:   gofakeit.Sentence(6),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = DefaultPassword
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// BuildPost constructs a post for the given user without persisting it.
// Useful for batching.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:    gofakeit.Sentence(5),
		Content:  gofakeit.Paragraph(1, 3, 5, "\n"),
		ImageRef: syntheticRef(),
		UserID:   user.ID,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call and links
// each one into its creator's owned-post set.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if err := f.db.Create(&posts).Error; err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}

	links := make([]models.UserPost, 0, len(posts))
	for _, p := range posts {
		links = append(links, models.UserPost{UserID: p.UserID, PostID: p.ID})
	}
	if err := f.db.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link posts to owners: %w", err)
	}
	return nil
}

// CreateAsset persists a synthetic asset record for a user. The files are
// not written to disk; seeded refs resolve through the DB only.
func (f *Factory) CreateAsset(user *models.User) (*models.Asset, error) {
	ref := syntheticRef()
	asset := &models.Asset{
		Ref:              ref,
		UserID:           user.ID,
		OriginalFilename: gofakeit.Word() + ".png",
		MimeType:         "image/png",
		SizeBytes:        int64(gofakeit.Number(10_000, 2_000_000)),
		Width:            gofakeit.Number(320, 1920),
		Height:           gofakeit.Number(240, 1080),
		Path:             ref[:2] + "/" + ref + ".png",
		ThumbPath:        ref[:2] + "/" + ref + "_thumb.webp",
	}
	if err := f.db.Create(asset).Error; err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return asset, nil
}

// syntheticRef fabricates a content-style reference without any content
// behind it.
func syntheticRef() string {
	sum := sha256.Sum256([]byte(gofakeit.UUID()))
	return hex.EncodeToString(sum[:])
}
