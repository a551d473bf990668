package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// AnswerController serves answer threads and posts answers and comments.
type AnswerController struct {
	content *services.ContentService
}

// NewAnswerController creates an AnswerController.
func NewAnswerController(content *services.ContentService) *AnswerController {
	return &AnswerController{content: content}
}

// GetAnswers returns the answers of question id, each with its comments.
func (a *AnswerController) GetAnswers(ctx *gin.Context) {
	questionID := utils.TryParseUint(param(ctx, "id"))
	answers, err := a.content.ListAnswers(ctx.Request.Context(), questionID)
	if err != nil {
		utils.Logger.Error("list answers failed", zap.String("op", "get_answers"),
			zap.Uint("question_id", questionID), zap.Error(err))
	}
	utils.Success(ctx, answers)
}

// CreateAnswer posts an answer and returns to the question page.
func (a *AnswerController) CreateAnswer(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	questionID := utils.TryParseUint(firstParam(ctx, "question-id", "question_id"))
	body := firstParam(ctx, "answer-body", "body")

	if _, err := a.content.CreateAnswer(ctx.Request.Context(), userID, questionID, body); err != nil {
		utils.Logger.Warn("answer not created", zap.String("op", "create_answer"),
			zap.Uint("user_id", userID), zap.Uint("question_id", questionID), zap.Error(err))
	}
	utils.Redirect(ctx, services.QuestionURL(questionID))
}

// CreateComment posts a comment under an answer and returns to the question page.
// The question id comes from the answer itself; the form value is only a fallback.
func (a *AnswerController) CreateComment(ctx *gin.Context) {
	userID, _ := getUserID(ctx)
	answerID := utils.TryParseUint(param(ctx, "answer-id"))
	questionID := utils.TryParseUint(param(ctx, "question-id"))
	body := firstParam(ctx, "comment-body", "body")

	if _, err := a.content.CreateComment(ctx.Request.Context(), userID, answerID, body); err != nil {
		utils.Logger.Warn("comment not created", zap.String("op", "create_comment"),
			zap.Uint("user_id", userID), zap.Uint("answer_id", answerID), zap.Error(err))
	}
	if id, err := a.content.QuestionIDOfAnswer(ctx.Request.Context(), answerID); err == nil {
		questionID = id
	}
	utils.Redirect(ctx, services.QuestionURL(questionID))
}
