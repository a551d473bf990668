package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

// StatsController provides forum statistics such as counts and daily page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the forum.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	counts := gin.H{}
	for name, model := range map[string]interface{}{
		"user_count":     &models.User{},
		"mentor_count":   &models.MentorEvidence{},
		"question_count": &models.Question{},
		"answer_count":   &models.Answer{},
		"comment_count":  &models.Comment{},
	} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			// Fallback to 0 instead of failing the whole endpoint
			n = 0
		}
		counts[name] = n
	}

	// Daily views: sum of today's page views across all paths
	// Use string date equality to avoid timezone/type mismatches with DATE column
	var dailyViews int64
	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyViews).Error; err != nil {
		dailyViews = 0
	}
	counts["daily_view_count"] = dailyViews

	utils.Success(ctx, counts)
}

// GetQuestionStats returns page views, answers and followers for question id.
func (s *StatsController) GetQuestionStats(ctx *gin.Context) {
	id := utils.TryParseUint(ctx.Param("id"))
	db := s.db.WithContext(ctx.Request.Context())

	var pv int64
	if err := db.Model(&models.PageView{}).
		Where("path IN ?", []string{fmt.Sprintf("/question/%d", id), fmt.Sprintf("/answer/%d", id)}).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}

	var answers, followers int64
	if err := db.Model(&models.Answer{}).Where("question_id = ?", id).Count(&answers).Error; err != nil {
		answers = 0
	}
	if err := db.Model(&models.QuestionFollower{}).Where("question_id = ?", id).Count(&followers).Error; err != nil {
		followers = 0
	}

	utils.Success(ctx, gin.H{
		"pv":              pv,
		"answers_count":   answers,
		"followers_count": followers,
	})
}
