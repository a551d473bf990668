package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintern/forum/models"
	"github.com/mintern/forum/utils"
)

var pageViewSkip = []string{"/health", "/metrics", "/stats", "/check-login", "/static/"}

// PageViewRecorder records page views per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only record successful page views (2xx) for GET requests.
		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		for _, skip := range pageViewSkip {
			if strings.HasPrefix(path, skip) {
				return
			}
		}
		// one counter per thread, not per query string
		if path == "/question" || path == "/answer" {
			if id := utils.TryParseUint(c.Query("id")); id > 0 {
				path = fmt.Sprintf("%s/%d", path, id)
			}
		}

		// Use local midnight to align with DATE column
		now := time.Now().In(time.Local)
		localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert to avoid duplicate key errors under concurrency
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PageView{Date: localMidnight, Path: path, Count: 1}).Error
		if err != nil {
			utils.Sugar.Debugw("page view not recorded", "path", path, "error", err)
		}
	}
}
