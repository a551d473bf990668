package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

// ContentService creates and reads questions, answers and comments.
//
// A create runs Validating, Inserting, RegisteringFollower and Notifying in that
// order. Errors while validating or inserting are returned and nothing else
// happens. Errors in the later steps are logged and swallowed, so the new
// content stays visible even when bookkeeping fails.
type ContentService struct {
	db        *gorm.DB
	followers *FollowerRegistry
	notifier  *Notifier
}

// NewContentService wires the content service to its collaborators.
func NewContentService(db *gorm.DB, followers *FollowerRegistry, notifier *Notifier) *ContentService {
	return &ContentService{db: db, followers: followers, notifier: notifier}
}

// CreateQuestion posts a question and makes the asker follow it.
func (s *ContentService) CreateQuestion(ctx context.Context, askerID uint, title, body string) (*models.Question, error) {
	title = utils.SanitizePlain(title)
	body = utils.Sanitize(body)
	if title == "" || body == "" {
		return nil, ErrEmptyContent
	}
	if err := s.requireUser(ctx, askerID); err != nil {
		return nil, err
	}

	question := &models.Question{Title: title, Body: body, AskerID: askerID}
	if err := s.db.WithContext(ctx).Create(question).Error; err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	utils.IncCounter(utils.ContentCreatedTotal, "question")

	if err := s.followers.Follow(ctx, TargetQuestion, question.ID, askerID); err != nil {
		utils.Logger.Error("asker follow failed", zap.String("op", "create_question"),
			zap.Uint("question_id", question.ID), zap.Uint("user_id", askerID), zap.Error(err))
	}
	utils.InvalidateByPrefix(ctx, utils.CacheQuestionsPrefix)
	return question, nil
}

// CreateAnswer posts an answer, makes the author follow it and notifies the question's followers.
func (s *ContentService) CreateAnswer(ctx context.Context, authorID, questionID uint, body string) (*models.Answer, error) {
	body = utils.Sanitize(body)
	if body == "" {
		return nil, ErrEmptyContent
	}
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	var question models.Question
	if err := s.db.WithContext(ctx).Select("id").First(&question, questionID).Error; err != nil {
		return nil, notFound(err, "question %d", questionID)
	}

	answer := &models.Answer{QuestionID: question.ID, Body: body, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(answer).Error; err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	utils.IncCounter(utils.ContentCreatedTotal, "answer")

	if err := s.followers.Follow(ctx, TargetAnswer, answer.ID, authorID); err != nil {
		utils.Logger.Error("author follow failed", zap.String("op", "create_answer"),
			zap.Uint("answer_id", answer.ID), zap.Uint("user_id", authorID), zap.Error(err))
	}
	if _, err := s.notifier.Notify(ctx, TargetQuestion, question.ID, EventNewAnswer, QuestionURL(question.ID)); err != nil {
		utils.Logger.Error("answer notification failed", zap.String("op", "create_answer"),
			zap.Uint("answer_id", answer.ID), zap.Uint("question_id", question.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(ctx, utils.CacheQuestionsPrefix)
	utils.InvalidateByPrefix(ctx, answersCacheKey(question.ID))
	return answer, nil
}

// CreateComment posts a comment under an answer, makes the author follow that
// answer and notifies its followers. The notification links to the question page.
func (s *ContentService) CreateComment(ctx context.Context, authorID, answerID uint, body string) (*models.Comment, error) {
	body = utils.Sanitize(body)
	if body == "" {
		return nil, ErrEmptyContent
	}
	if err := s.requireUser(ctx, authorID); err != nil {
		return nil, err
	}
	var answer models.Answer
	if err := s.db.WithContext(ctx).Select("id", "question_id").First(&answer, answerID).Error; err != nil {
		return nil, notFound(err, "answer %d", answerID)
	}

	comment := &models.Comment{AnswerID: answer.ID, Body: body, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	utils.IncCounter(utils.ContentCreatedTotal, "comment")

	if err := s.followers.Follow(ctx, TargetAnswer, answer.ID, authorID); err != nil {
		utils.Logger.Error("author follow failed", zap.String("op", "create_comment"),
			zap.Uint("answer_id", answer.ID), zap.Uint("user_id", authorID), zap.Error(err))
	}
	if _, err := s.notifier.Notify(ctx, TargetAnswer, answer.ID, EventNewComment, QuestionURL(answer.QuestionID)); err != nil {
		utils.Logger.Error("comment notification failed", zap.String("op", "create_comment"),
			zap.Uint("comment_id", comment.ID), zap.Uint("answer_id", answer.ID), zap.Error(err))
	}
	utils.InvalidateByPrefix(ctx, answersCacheKey(answer.QuestionID))
	return comment, nil
}

// QuestionIDOfAnswer returns the question an answer belongs to.
func (s *ContentService) QuestionIDOfAnswer(ctx context.Context, answerID uint) (uint, error) {
	var answer models.Answer
	if err := s.db.WithContext(ctx).Select("id", "question_id").First(&answer, answerID).Error; err != nil {
		return 0, notFound(err, "answer %d", answerID)
	}
	return answer.QuestionID, nil
}

// questionQuery selects questions with their computed counts. viewerID 0 follows nothing.
func (s *ContentService) questionQuery(ctx context.Context, viewerID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("questions AS q").
		Select(`q.id AS id, q.title AS title, q.body AS body, q.asker_id AS asker_id,
			q.created_at AS created_at,
			COALESCE(u.username, '') AS asker_name,
			(SELECT COUNT(*) FROM question_followers qf WHERE qf.question_id = q.id) AS number_of_followers,
			(SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS number_of_answers,
			(SELECT COUNT(*) FROM question_followers vf WHERE vf.question_id = q.id AND vf.user_id = ?) AS viewer_follows`, viewerID).
		Joins("LEFT JOIN users AS u ON u.id = q.asker_id").
		Order("q.created_at DESC, q.id DESC")
}

type questionRow struct {
	ID                uint
	Title             string
	Body              string
	AskerID           uint
	CreatedAt         time.Time
	AskerName         string
	NumberOfFollowers int64
	NumberOfAnswers   int64
	ViewerFollows     int64
}

func (r questionRow) view() QuestionView {
	return QuestionView{
		ID:                  r.ID,
		Title:               r.Title,
		Body:                r.Body,
		AskerID:             r.AskerID,
		AskerName:           r.AskerName,
		DateTime:            r.CreatedAt,
		NumberOfFollowers:   r.NumberOfFollowers,
		NumberOfAnswers:     r.NumberOfAnswers,
		UserFollowsQuestion: r.ViewerFollows > 0,
	}
}

func scanQuestions(q *gorm.DB) ([]QuestionView, error) {
	var rows []questionRow
	if err := q.Scan(&rows).Error; err != nil {
		return []QuestionView{}, err
	}
	views := make([]QuestionView, 0, len(rows))
	for _, r := range rows {
		views = append(views, r.view())
	}
	return views, nil
}

// ListQuestions returns every question, newest first.
func (s *ContentService) ListQuestions(ctx context.Context, viewerID uint) ([]QuestionView, error) {
	key := fmt.Sprintf("%sviewer=%d", utils.CacheQuestionsPrefix, viewerID)
	var cached []QuestionView
	if utils.CacheGetJSON(ctx, key, &cached) {
		return cached, nil
	}
	views, err := scanQuestions(s.questionQuery(ctx, viewerID))
	if err == nil {
		utils.CacheSetJSON(ctx, key, views, 0)
	}
	return views, err
}

// GetQuestion returns a single question, or ErrNotFound.
func (s *ContentService) GetQuestion(ctx context.Context, questionID, viewerID uint) (*QuestionView, error) {
	views, err := scanQuestions(s.questionQuery(ctx, viewerID).Where("q.id = ?", questionID))
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	return &views[0], nil
}

// SearchQuestions returns questions whose title or body contains text, newest first.
func (s *ContentService) SearchQuestions(ctx context.Context, text string, viewerID uint) ([]QuestionView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.ListQuestions(ctx, viewerID)
	}
	pattern := "%" + escapeLike(text) + "%"
	return scanQuestions(s.questionQuery(ctx, viewerID).
		Where("(q.title LIKE ? ESCAPE '!' OR q.body LIKE ? ESCAPE '!')", pattern, pattern))
}

type threadRow struct {
	ID         uint
	ParentID   uint
	Body       string
	AuthorID   uint
	AuthorName string
	CreatedAt  time.Time
}

// ListAnswers returns the answers of a question with their comments, both oldest first.
func (s *ContentService) ListAnswers(ctx context.Context, questionID uint) ([]AnswerView, error) {
	key := answersCacheKey(questionID)
	var cached []AnswerView
	if utils.CacheGetJSON(ctx, key, &cached) {
		return cached, nil
	}

	db := s.db.WithContext(ctx)
	var answers []threadRow
	if err := db.Table("answers AS a").
		Select("a.id AS id, a.question_id AS parent_id, a.body AS body, a.author_id AS author_id, COALESCE(u.username, '') AS author_name, a.created_at AS created_at").
		Joins("LEFT JOIN users AS u ON u.id = a.author_id").
		Where("a.question_id = ?", questionID).
		Order("a.created_at ASC, a.id ASC").
		Scan(&answers).Error; err != nil {
		return []AnswerView{}, err
	}

	views := make([]AnswerView, 0, len(answers))
	if len(answers) == 0 {
		return views, nil
	}
	index := make(map[uint]int, len(answers))
	ids := make([]uint, 0, len(answers))
	for i, a := range answers {
		index[a.ID] = i
		ids = append(ids, a.ID)
		views = append(views, AnswerView{
			ID:         a.ID,
			QuestionID: a.ParentID,
			Body:       a.Body,
			AuthorID:   a.AuthorID,
			AuthorName: a.AuthorName,
			DateTime:   a.CreatedAt,
			Comments:   []CommentView{},
		})
	}

	var comments []threadRow
	if err := db.Table("comments AS c").
		Select("c.id AS id, c.answer_id AS parent_id, c.body AS body, c.author_id AS author_id, COALESCE(u.username, '') AS author_name, c.created_at AS created_at").
		Joins("LEFT JOIN users AS u ON u.id = c.author_id").
		Where("c.answer_id IN ?", ids).
		Order("c.created_at ASC, c.id ASC").
		Scan(&comments).Error; err != nil {
		// answers without comments are still worth showing
		utils.Logger.Error("load comments failed", zap.String("op", "list_answers"),
			zap.Uint("question_id", questionID), zap.Error(err))
		return views, nil
	}
	for _, c := range comments {
		i, ok := index[c.ParentID]
		if !ok {
			continue
		}
		views[i].Comments = append(views[i].Comments, CommentView{
			ID:         c.ID,
			Body:       c.Body,
			AuthorID:   c.AuthorID,
			AuthorName: c.AuthorName,
			DateTime:   c.CreatedAt,
		})
	}
	utils.CacheSetJSON(ctx, key, views, 0)
	return views, nil
}

func (s *ContentService) requireUser(ctx context.Context, userID uint) error {
	if userID == 0 {
		return fmt.Errorf("user 0: %w", ErrNotFound)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func answersCacheKey(questionID uint) string {
	return fmt.Sprintf("%s%d", utils.CacheAnswersPrefix, questionID)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return err
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
