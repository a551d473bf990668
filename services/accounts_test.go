package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/testutil"
)

func TestAccountService_Signup(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()
	require.NoError(t, svc.SeedCatalog(ctx))

	tags, err := svc.SubjectTags(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tags)

	t.Run("mentee", func(t *testing.T) {
		user, err := svc.Signup(ctx, SignupInput{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Username:  "ada",
			Email:     "ada@example.com",
			Password:  "s3cret-pass",
			MajorID:   1,
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.False(t, user.IsMentor)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

		found, err := svc.FindByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		authed, err := svc.Authenticate(ctx, "ada", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, user.ID, authed.ID)

		_, err = svc.Authenticate(ctx, "ada", "wrong")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("mentor with experience", func(t *testing.T) {
		user, err := svc.Signup(ctx, SignupInput{
			Username:   "grace",
			Email:      "grace@example.com",
			IsMentor:   true,
			Experience: []uint{tags[0].ID, tags[1].ID, tags[0].ID, 0},
		})
		require.NoError(t, err)
		assert.True(t, user.IsMentor)

		declared, err := svc.Experience(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, declared, 2)
		assert.Equal(t, tags[0].Name, declared[0].Name)

		_, err = svc.Authenticate(ctx, "grace", "")
		assert.True(t, errors.Is(err, ErrNotFound), "users without a password cannot log in locally")
	})

	t.Run("duplicates are refused", func(t *testing.T) {
		_, err := svc.Signup(ctx, SignupInput{Username: "ada", Email: "other@example.com"})
		assert.True(t, errors.Is(err, ErrUserExists))

		_, err = svc.Signup(ctx, SignupInput{Username: "other", Email: "Ada@Example.com"})
		assert.True(t, errors.Is(err, ErrUserExists))

		var users int64
		require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
		assert.Equal(t, int64(2), users)
	})

	t.Run("username is required", func(t *testing.T) {
		_, err := svc.Signup(ctx, SignupInput{Username: "<b></b>", Email: "x@example.com"})
		assert.True(t, errors.Is(err, ErrEmptyContent))
	})
}

func TestAccountService_SeedCatalogIsRepeatable(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	require.NoError(t, svc.SeedCatalog(ctx))
	require.NoError(t, svc.SeedCatalog(ctx))

	majors, err := svc.Majors(ctx)
	require.NoError(t, err)
	assert.Len(t, majors, len(defaultMajors))
	assert.Equal(t, "Computer Science", majors[1])

	tags, err := svc.SubjectTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, len(defaultTags))
}
