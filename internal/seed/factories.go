// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pronet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db           *gorm.DB
	rng          *rand.Rand
	passwordHash string
}

// NewFactory creates a Factory bound to the provided Gorm DB. The bcrypt
// hash is computed once; hashing per user dominates seeding time otherwise.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	hash, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	// #nosec G404: acceptable for seeding
	return &Factory{
		db:           db,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		passwordHash: string(hash),
	}
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := gofakeit.Name()
	user := &models.User{
		FullName:  name,
		Email:     fmt.Sprintf("%s%d@example.com", slugify(name), gofakeit.Number(100, 999)),
		Password:  f.passwordHash,
		Headline:  gofakeit.JobTitle(),
		Bio:       gofakeit.Paragraph(1, 3, 8, " "),
		Location:  fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/300?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample post for the given user, with
// a realistic created_at spread over the last 90 days. Roughly a third of
// posts carry a media URL.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Content:   gofakeit.Paragraph(1, 4, 10, "\n"),
		UserID:    user.ID,
		CreatedAt: f.pastTimestamp(90),
	}
	if f.rng.Float32() < 0.3 {
		post.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(gofakeit.Number(4, 14)),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.Where(models.Like{UserID: user.ID, PostID: post.ID}).FirstOrCreate(like).Error
}

// CreateConnection persists a connection between two users in the given state.
func (f *Factory) CreateConnection(requester, receiver *models.User, status models.ConnectionStatus) error {
	conn := &models.Connection{
		RequesterID: requester.ID,
		ReceiverID:  receiver.ID,
		Status:      status,
	}
	return f.db.Create(conn).Error
}

// CreateConversation persists a direct-message thread between two users.
func (f *Factory) CreateConversation(a, b *models.User) (*models.Conversation, error) {
	conv := &models.Conversation{CreatedBy: a.ID}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: a.ID},
			{ConversationID: conv.ID, UserID: b.ID},
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateMessage persists a message in the conversation from the sender.
func (f *Factory) CreateMessage(conv *models.Conversation, sender *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        gofakeit.Sentence(gofakeit.Number(3, 12)),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// FindOrCreateSkill resolves a skill by its case-insensitive name, creating
// the catalogue row when missing.
func (f *Factory) FindOrCreateSkill(name string) (*models.Skill, error) {
	skill := &models.Skill{}
	err := f.db.Where(models.Skill{NormalizedName: strings.ToLower(name)}).
		Attrs(models.Skill{Name: name}).
		FirstOrCreate(skill).Error
	if err != nil {
		return nil, err
	}
	return skill, nil
}

// AttachSkill links a user to a skill.
func (f *Factory) AttachSkill(user *models.User, skill *models.Skill) error {
	us := &models.UserSkill{UserID: user.ID, SkillID: skill.ID}
	return f.db.Where(models.UserSkill{UserID: user.ID, SkillID: skill.ID}).FirstOrCreate(us).Error
}

// CreateProject persists a portfolio project for the user.
func (f *Factory) CreateProject(user *models.User, overrides ...func(*models.Project)) (*models.Project, error) {
	project := &models.Project{
		UserID:      user.ID,
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		Link:        fmt.Sprintf("https://github.com/%s/%s", gofakeit.Username(), gofakeit.Word()),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/600/400", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(project)
	}

	if err := f.db.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// CreateJob persists a completed job on the freelancer's history with the
// given client.
func (f *Factory) CreateJob(freelancer, client *models.User) (*models.JobHistory, error) {
	job := &models.JobHistory{
		UserID:      freelancer.ID,
		ClientID:    client.ID,
		Title:       strings.TrimSuffix(gofakeit.Sentence(3), "."),
		Description: gofakeit.Paragraph(1, 2, 6, " "),
		CompletedAt: f.pastTimestamp(365),
	}
	if err := f.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// CreateFeedback persists the client's rating for a job.
func (f *Factory) CreateFeedback(job *models.JobHistory, rating int) (*models.Feedback, error) {
	feedback := &models.Feedback{
		JobID:   job.ID,
		Rating:  rating,
		Comment: gofakeit.Sentence(gofakeit.Number(5, 12)),
	}
	if err := f.db.Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (f *Factory) pastTimestamp(maxDays int) time.Time {
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "."))
}
