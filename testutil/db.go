package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/models"
)

var dbSeq int64

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:mintern_test_%d?mode=memory&cache=shared&_foreign_keys=1", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// UseTestConfig installs a config suitable for tests: no Redis, no SMTP, fixed
// secret, access log under the test's temp dir.
func UseTestConfig(t *testing.T, mutate ...func(*config.AppConfig)) config.AppConfig {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		RateLimitPerMinute: 10000,
		ApproverUsernames:  []string{"approver1", "approver2", "approver3"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	config.Set(cfg)
	return config.Get()
}

// CreateUser inserts a user with a predictable username and email.
func CreateUser(t *testing.T, db *gorm.DB, username string, mutate ...func(*models.User)) models.User {
	t.Helper()
	u := models.User{
		FirstName: username,
		LastName:  "Tester",
		Username:  username,
		Email:     username + "@example.com",
	}
	for _, m := range mutate {
		m(&u)
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateUsers inserts n users named user1..userN and returns them in id order.
func CreateUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	t.Helper()
	users := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, CreateUser(t, db, fmt.Sprintf("user%d", i)))
	}
	return users
}

// CreateQuestion inserts a question asked by askerID.
func CreateQuestion(t *testing.T, db *gorm.DB, askerID uint) models.Question {
	t.Helper()
	q := models.Question{Title: fmt.Sprintf("Question by %d", askerID), Body: "body", AskerID: askerID}
	require.NoError(t, db.Create(&q).Error)
	return q
}

// CreateAnswer inserts an answer to questionID written by authorID.
func CreateAnswer(t *testing.T, db *gorm.DB, questionID, authorID uint) models.Answer {
	t.Helper()
	a := models.Answer{QuestionID: questionID, Body: "answer", AuthorID: authorID}
	require.NoError(t, db.Create(&a).Error)
	return a
}
