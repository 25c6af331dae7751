package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account gets
const DefaultPassword = "password123"

// Seeder handles database seeding operations
type Seeder struct {
	db           *gorm.DB
	passwordHash string
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed returns an error only for invalid sources
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var groupSpecs = []struct {
	title string
	slug  string
}{
	{"Cats", "cats"},
	{"Travel notes", "travel"},
	{"Books", "books"},
	{"Cooking", "cooking"},
	{"Go programming", "golang"},
}

// SeedDev fills a development database with random users, groups, posts,
// comments and follows
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(30)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating groups...")
	groups, err := s.seedGroups()
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, groups, 200)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 400); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 5); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	return nil
}

// SeedTest creates a small fixed data set: five known accounts, the
// standard groups, and enough posts by alice to fill two pages
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username  string
		email     string
		firstName string
		lastName  string
	}{
		{"alice", "alice@example.com", "Alice", "Smith"},
		{"bob", "bob@example.com", "Bob", "Johnson"},
		{"charlie", "charlie@example.com", "Charlie", "Brown"},
		{"diana", "diana@example.com", "Diana", "Prince"},
		{"eve", "eve@example.com", "Eve", "Wilson"},
	}

	hash, err := s.hash()
	if err != nil {
		return err
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		user = models.User{
			Username:     spec.username,
			Email:        spec.email,
			FirstName:    spec.firstName,
			LastName:     spec.lastName,
			PasswordHash: hash,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	groups, err := s.seedGroups()
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	alice, bob := users[0], users[1]
	start := time.Now().UTC().Add(-24 * time.Hour)
	for i := 0; i < 13; i++ {
		post := models.Post{
			Text:      fmt.Sprintf("Test post %d", i+1),
			AuthorID:  alice.ID,
			GroupID:   &groups[0].ID,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return fmt.Errorf("failed to create test post: %w", err)
		}
	}

	follow := models.Follow{UserID: bob.ID, AuthorID: alice.ID}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
		return fmt.Errorf("failed to create test follow: %w", err)
	}

	logger.Log.Info("Seeded test data",
		zap.Int("users", len(users)),
		zap.Int("groups", len(groups)))
	return nil
}

// Clean removes all rows from every table (use with caution!)
func (s *Seeder) Clean() error {
	all := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	// Delete in reverse order of dependencies
	for _, model := range []interface{}{
		&models.PasswordReset{}, &models.Follow{}, &models.Comment{},
		&models.Post{}, &models.Group{}, &models.User{},
	} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", model, err)
		}
	}
	return nil
}

// hash computes the shared password hash once per seeder
func (s *Seeder) hash() (string, error) {
	if s.passwordHash != "" {
		return s.passwordHash, nil
	}
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	s.passwordHash = hash
	return hash, nil
}

// seedUsers creates users with realistic data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := s.hash()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		email := strings.ToLower(gofakeit.Email())

		// Ensure unique username/email
		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = strings.ToLower(gofakeit.Username())
			email = strings.ToLower(gofakeit.Email())
		}

		user := models.User{
			Username:     username,
			Email:        email,
			FirstName:    gofakeit.FirstName(),
			LastName:     gofakeit.LastName(),
			PasswordHash: hash,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created users", zap.Int("count", len(users)))
	return users, nil
}

// seedGroups creates the standard groups, reusing any that already exist
func (s *Seeder) seedGroups() ([]models.Group, error) {
	groups := make([]models.Group, 0, len(groupSpecs))
	for _, spec := range groupSpecs {
		group := models.Group{
			Title:       spec.title,
			Slug:        spec.slug,
			Description: gofakeit.HipsterSentence(),
		}
		err := s.db.Where(models.Group{Slug: spec.slug}).FirstOrCreate(&group).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create group %s: %w", spec.slug, err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// seedPosts spreads posts over the last 30 days; about a third have no group
func (s *Seeder) seedPosts(users []models.User, groups []models.Group, count int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		sentences := make([]string, rand.Intn(4)+1)
		for j := range sentences {
			sentences[j] = gofakeit.HipsterSentence()
		}

		post := models.Post{
			Text:      strings.Join(sentences, " "),
			AuthorID:  author.ID,
			CreatedAt: gofakeit.DateRange(now.AddDate(0, 0, -30), now),
		}
		if len(groups) > 0 && rand.Float32() < 0.66 {
			post.GroupID = &groups[rand.Intn(len(groups))].ID
		}

		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}

	logger.Log.Info("Created posts", zap.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	commentTemplates := []string{
		"Great post!",
		"Thanks for sharing",
		"Totally agree",
		"Where was this?",
		"Made my day",
	}

	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		// Mix of template comments and random sentences
		var text string
		if rand.Float32() < 0.5 {
			text = commentTemplates[rand.Intn(len(commentTemplates))]
		} else {
			text = gofakeit.HipsterSentence()
		}

		comment := models.Comment{
			PostID:    post.ID,
			AuthorID:  user.ID,
			Text:      text,
			CreatedAt: gofakeit.DateRange(post.CreatedAt, now),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}

	logger.Log.Info("Created comments", zap.Int("count", count))
	return nil
}

// seedFollows has each user follow up to maxPerUser other users
func (s *Seeder) seedFollows(users []models.User, maxPerUser int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for _, user := range users {
		for n := rand.Intn(maxPerUser + 1); n > 0; n-- {
			author := users[rand.Intn(len(users))]
			if author.ID == user.ID {
				continue
			}
			follow := models.Follow{UserID: user.ID, AuthorID: author.ID}
			result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
			if result.Error != nil {
				return fmt.Errorf("failed to create follow: %w", result.Error)
			}
			created += int(result.RowsAffected)
		}
	}

	logger.Log.Info("Created follows", zap.Int("count", created))
	return nil
}
