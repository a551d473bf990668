package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

// SignupInput is what a new mentee or mentor fills in. Email comes from the
// signed-in identity, never from the form.
type SignupInput struct {
	FirstName  string
	LastName   string
	Username   string
	Email      string
	Password   string
	MajorID    uint
	IsMentor   bool
	Experience []uint
}

// AccountService registers users and serves the signup catalogs.
type AccountService struct {
	db *gorm.DB
}

// NewAccountService creates an account service backed by db.
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// FindByEmail returns the user registered with email, or ErrNotFound.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("empty email: %w", ErrNotFound)
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user %s", email)
	}
	return &user, nil
}

// FindByLogin looks a user up by username or email.
func (s *AccountService) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user %s", login)
	}
	return &user, nil
}

// Authenticate checks a local password. Users that only sign in through an
// identity provider have no hash and never match.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("user %s: %w", login, ErrNotFound)
	}
	return user, nil
}

// Signup creates the user and, for mentors, their declared experience.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.FirstName = utils.SanitizePlain(in.FirstName)
	in.LastName = utils.SanitizePlain(in.LastName)
	in.Username = utils.SanitizePlain(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, ErrEmptyContent
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Email:     in.Email,
		MajorID:   in.MajorID,
		IsMentor:  in.IsMentor,
	}
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR LOWER(email) = LOWER(?)", in.Username, in.Email).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrUserExists
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if !in.IsMentor {
			return nil
		}
		tags := utils.UniqueUint(utils.WithoutUint(in.Experience, 0))
		if len(tags) == 0 {
			return nil
		}
		rows := make([]models.MentorExperience, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, models.MentorExperience{MentorID: user.ID, TagID: tag})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("signup %s: %w", in.Username, err)
	}
	return user, nil
}

// Majors returns the majors keyed by id, as the signup form expects.
func (s *AccountService) Majors(ctx context.Context) (map[uint]string, error) {
	var majors []models.Major
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&majors).Error; err != nil {
		return map[uint]string{}, err
	}
	out := make(map[uint]string, len(majors))
	for _, m := range majors {
		out[m.ID] = m.Name
	}
	return out, nil
}

// SubjectTags returns every tag a mentor can declare.
func (s *AccountService) SubjectTags(ctx context.Context) ([]models.SubjectTag, error) {
	tags := []models.SubjectTag{}
	err := s.db.WithContext(ctx).Order("id ASC").Find(&tags).Error
	return tags, err
}

// Experience returns the tags a mentor declared at signup.
func (s *AccountService) Experience(ctx context.Context, mentorID uint) ([]models.SubjectTag, error) {
	tags := []models.SubjectTag{}
	err := s.db.WithContext(ctx).
		Joins("JOIN mentor_experiences AS me ON me.tag_id = subject_tags.id").
		Where("me.mentor_id = ?", mentorID).
		Order("subject_tags.id ASC").
		Find(&tags).Error
	return tags, err
}

var (
	defaultMajors = []string{
		"Computer Science", "Computer Engineering", "Electrical Engineering",
		"Mathematics", "Physics", "Business", "Design", "Other",
	}
	defaultTags = []models.SubjectTag{
		{Name: "Interviews", Color: "#4285F4"},
		{Name: "Resume", Color: "#DB4437"},
		{Name: "Internships", Color: "#F4B400"},
		{Name: "Algorithms", Color: "#0F9D58"},
		{Name: "Web", Color: "#AB47BC"},
		{Name: "Career", Color: "#00ACC1"},
	}
)

// SeedCatalog inserts the default majors and subject tags, skipping existing names.
func (s *AccountService) SeedCatalog(ctx context.Context) error {
	majors := make([]models.Major, 0, len(defaultMajors))
	for _, name := range defaultMajors {
		majors = append(majors, models.Major{Name: name})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&majors).Error; err != nil {
		return fmt.Errorf("seed majors: %w", err)
	}
	tags := make([]models.SubjectTag, len(defaultTags))
	copy(tags, defaultTags)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error; err != nil {
		return fmt.Errorf("seed subject tags: %w", err)
	}
	return nil
}
