package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// QuestionController serves the question listing, search and posting.
type QuestionController struct {
	content *services.ContentService
}

// NewQuestionController creates a QuestionController.
func NewQuestionController(content *services.ContentService) *QuestionController {
	return &QuestionController{content: content}
}

// GetQuestions returns every question when id is absent or -1, otherwise a
// list holding only that question. Read failures yield an empty list.
func (q *QuestionController) GetQuestions(ctx *gin.Context) {
	viewer := viewerID(ctx)
	raw := param(ctx, "id")
	id := utils.TryParseInt(raw)

	if raw == "" || id == -1 {
		questions, err := q.content.ListQuestions(ctx.Request.Context(), viewer)
		if err != nil {
			utils.Logger.Error("list questions failed", zap.String("op", "get_questions"), zap.Error(err))
		}
		utils.Success(ctx, questions)
		return
	}

	questions := []services.QuestionView{}
	if id > 0 {
		question, err := q.content.GetQuestion(ctx.Request.Context(), uint(id), viewer)
		switch {
		case err == nil:
			questions = append(questions, *question)
		case !services.IsNotFound(err):
			utils.Logger.Error("get question failed", zap.String("op", "get_questions"),
				zap.Int("question_id", id), zap.Error(err))
		}
	}
	utils.Success(ctx, questions)
}

// CreateQuestion posts a question and sends the asker back to the forum.
func (q *QuestionController) CreateQuestion(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	title := firstParam(ctx, "question-title", "title")
	body := firstParam(ctx, "question-body", "body")

	if _, err := q.content.CreateQuestion(ctx.Request.Context(), userID, title, body); err != nil {
		utils.Logger.Warn("question not created", zap.String("op", "create_question"),
			zap.Uint("user_id", userID), zap.Error(err))
	}
	utils.Redirect(ctx, "/")
}

// Forum returns one page of all questions.
func (q *QuestionController) Forum(ctx *gin.Context) {
	questions, err := q.content.ListQuestions(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		utils.Logger.Error("list questions failed", zap.String("op", "forum"), zap.Error(err))
	}
	page := utils.TryParseInt(param(ctx, "page"))
	utils.Success(ctx, services.SplitPages(questions, page, config.Get().ForumPageSize))
}

// Search returns one page of questions matching inputString.
func (q *QuestionController) Search(ctx *gin.Context) {
	text := param(ctx, "inputString")
	questions, err := q.content.SearchQuestions(ctx.Request.Context(), text, viewerID(ctx))
	if err != nil {
		utils.Logger.Error("search questions failed", zap.String("op", "search_questions"), zap.Error(err))
	}
	page := utils.TryParseInt(param(ctx, "page"))
	utils.Success(ctx, services.SplitPages(questions, page, config.Get().ForumPageSize))
}
