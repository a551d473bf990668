package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/testutil"
)

func newContentService(t *testing.T) (*ContentService, *gorm.DB) {
	t.Helper()
	testutil.UseTestConfig(t)
	db := testutil.NewTestDB(t)
	followers := NewFollowerRegistry(db)
	return NewContentService(db, followers, NewNotifier(db, followers)), db
}

func TestContentService_CreateQuestion(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	users := testutil.CreateUsers(t, db, 4)
	asker := users[3]

	question, err := svc.CreateQuestion(ctx, asker.ID, "T", "B")
	require.NoError(t, err)
	assert.NotZero(t, question.ID)

	var questions int64
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	assert.Equal(t, int64(1), questions)

	followers, err := svc.followers.ListFollowers(ctx, TargetQuestion, question.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{asker.ID}, followers)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Zero(t, notifications, "asking a question notifies nobody")

	list, err := svc.ListQuestions(ctx, asker.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "T", list[0].Title)
	assert.Equal(t, "B", list[0].Body)
	assert.Equal(t, asker.ID, list[0].AskerID)
	assert.Equal(t, asker.Username, list[0].AskerName)
	assert.Equal(t, int64(1), list[0].NumberOfFollowers)
	assert.Zero(t, list[0].NumberOfAnswers)
	assert.True(t, list[0].UserFollowsQuestion)

	anonymous, err := svc.ListQuestions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, anonymous, 1)
	assert.False(t, anonymous[0].UserFollowsQuestion)
}

func TestContentService_CreateQuestionValidation(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "asker")

	_, err := svc.CreateQuestion(ctx, user.ID, "   ", "body")
	assert.True(t, errors.Is(err, ErrEmptyContent))

	_, err = svc.CreateQuestion(ctx, user.ID, "title", "<script>alert(1)</script>")
	assert.True(t, errors.Is(err, ErrEmptyContent))

	_, err = svc.CreateQuestion(ctx, 0, "title", "body")
	assert.True(t, errors.Is(err, ErrNotFound))

	var questions int64
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	assert.Zero(t, questions)
}

func TestContentService_CreateAnswer(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	users := testutil.CreateUsers(t, db, 3)
	asker, follower, author := users[0], users[1], users[2]

	question, err := svc.CreateQuestion(ctx, asker.ID, "How do I prepare?", "Interviews soon")
	require.NoError(t, err)
	require.NoError(t, svc.followers.Follow(ctx, TargetQuestion, question.ID, follower.ID))

	answer, err := svc.CreateAnswer(ctx, author.ID, question.ID, "Practice every day")
	require.NoError(t, err)
	assert.Equal(t, question.ID, answer.QuestionID)

	following, err := svc.followers.IsFollowing(ctx, TargetAnswer, answer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	for _, u := range []models.User{asker, follower} {
		feed, err := svc.notifier.ListForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, feed, 1, "user %s", u.Username)
		assert.Equal(t, "You got an answer", feed[0].Message)
		assert.Equal(t, QuestionURL(question.ID), feed[0].URL)
	}
	feed, err := svc.notifier.ListForUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, feed)

	view, err := svc.GetQuestion(ctx, question.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.NumberOfAnswers)
	assert.Equal(t, int64(2), view.NumberOfFollowers)
	assert.False(t, view.UserFollowsQuestion)

	t.Run("missing question", func(t *testing.T) {
		_, err := svc.CreateAnswer(ctx, author.ID, 999, "lost")
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = svc.CreateAnswer(ctx, author.ID, 0, "lost")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestContentService_CreateComment(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	users := testutil.CreateUsers(t, db, 3)
	asker, answerer, commenter := users[0], users[1], users[2]

	question, err := svc.CreateQuestion(ctx, asker.ID, "Q", "body")
	require.NoError(t, err)
	answer, err := svc.CreateAnswer(ctx, answerer.ID, question.ID, "A")
	require.NoError(t, err)

	comment, err := svc.CreateComment(ctx, commenter.ID, answer.ID, "thanks")
	require.NoError(t, err)
	assert.Equal(t, answer.ID, comment.AnswerID)

	// commenting twice keeps a single follow row
	_, err = svc.CreateComment(ctx, commenter.ID, answer.ID, "again")
	require.NoError(t, err)
	var rows int64
	require.NoError(t, db.Model(&models.AnswerFollower{}).
		Where("answer_id = ? AND user_id = ?", answer.ID, commenter.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	feed, err := svc.notifier.ListForUser(ctx, answerer.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "Somebody commented your answer", feed[0].Message)
	assert.Equal(t, QuestionURL(question.ID), feed[0].URL)

	questionID, err := svc.QuestionIDOfAnswer(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, question.ID, questionID)

	_, err = svc.CreateComment(ctx, commenter.ID, 12345, "nowhere")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestContentService_ListAnswers(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	users := testutil.CreateUsers(t, db, 2)

	question, err := svc.CreateQuestion(ctx, users[0].ID, "Q", "body")
	require.NoError(t, err)
	first, err := svc.CreateAnswer(ctx, users[1].ID, question.ID, "first")
	require.NoError(t, err)
	second, err := svc.CreateAnswer(ctx, users[0].ID, question.ID, "second")
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, users[0].ID, first.ID, "c1")
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, users[1].ID, first.ID, "c2")
	require.NoError(t, err)

	answers, err := svc.ListAnswers(ctx, question.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, first.ID, answers[0].ID)
	assert.Equal(t, second.ID, answers[1].ID)
	assert.Equal(t, users[1].Username, answers[0].AuthorName)
	require.Len(t, answers[0].Comments, 2)
	assert.Equal(t, "c1", answers[0].Comments[0].Body)
	assert.Equal(t, "c2", answers[0].Comments[1].Body)
	assert.Empty(t, answers[1].Comments)

	none, err := svc.ListAnswers(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContentService_SearchQuestions(t *testing.T) {
	svc, db := newContentService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "searcher")

	_, err := svc.CreateQuestion(ctx, user.ID, "Resume review", "Can someone look at mine?")
	require.NoError(t, err)
	_, err = svc.CreateQuestion(ctx, user.ID, "Interview tips", "What about the resume gap?")
	require.NoError(t, err)
	_, err = svc.CreateQuestion(ctx, user.ID, "100% remote", "Is it possible?")
	require.NoError(t, err)

	found, err := svc.SearchQuestions(ctx, "resume", user.ID)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.SearchQuestions(ctx, "100%", user.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% remote", found[0].Title)

	found, err = svc.SearchQuestions(ctx, "nothing like this", user.ID)
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := svc.SearchQuestions(ctx, "  ", user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
