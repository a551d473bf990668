package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/controllers"
	"github.com/mintern/forum/middleware"
	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Mintern-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.RequestTimeout())
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(utils.NewMetricsHandler()))

	followers := services.NewFollowerRegistry(db)
	notifier := services.NewNotifier(db, followers)
	if cfg.NotifyByEmail {
		notifier.WithMailer(utils.NewSMTPMailer(), cfg.SiteURL)
	}
	content := services.NewContentService(db, followers, notifier)
	mentors := services.NewMentorService(db, notifier, cfg.RequiredApprovals)
	accounts := services.NewAccountService(db)

	questionController := controllers.NewQuestionController(content)
	answerController := controllers.NewAnswerController(content)
	followerController := controllers.NewFollowerController(followers)
	notificationController := controllers.NewNotificationController(notifier, content)
	mentorController := controllers.NewMentorController(mentors)
	authController := controllers.NewAuthController(accounts)
	signupController := controllers.NewSignupController(accounts)
	statsController := controllers.NewStatsController(db)

	// Public reads; the caller's identity only personalizes the result
	public := r.Group("")
	public.Use(middleware.OptionalAuth())
	public.GET("/question", questionController.GetQuestions)
	public.GET("/forum", questionController.Forum)
	public.GET("/search-question", questionController.Search)
	public.GET("/answer", answerController.GetAnswers)
	public.GET("/mentor-approval", mentorController.GetApproval)
	public.GET("/authentication", authController.Authentication)
	public.GET("/login", authController.LoginStatus)
	public.GET("/check-login", authController.CheckLogin)
	public.GET("/signup", signupController.Majors)
	public.GET("/signup-mentor", signupController.SubjectTags)
	public.GET("/stats", statsController.GetStats)
	public.GET("/stats/question/:id", statsController.GetQuestionStats)

	authGroup := r.Group("")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/login/password", authController.Login)
	authGroup.POST("/logout", middleware.SignedIn(), authController.Logout)
	authGroup.POST("/signup", middleware.SignedIn(), signupController.SignupMentee)
	authGroup.POST("/signup-mentor", middleware.SignedIn(), signupController.SignupMentor)

	protected := r.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/question", questionController.CreateQuestion)
	protected.POST("/answer", answerController.CreateAnswer)
	protected.POST("/post-comment", answerController.CreateComment)
	protected.POST("/follower-system", followerController.Update)
	protected.GET("/notification", notificationController.List)
	protected.POST("/notification", notificationController.Create)
	protected.DELETE("/notification/:id", middleware.AdminRequired(), notificationController.Delete)
	protected.POST("/email", notificationController.Email)
	protected.POST("/mentor-evidence", mentorController.SubmitEvidence)
	protected.POST("/mentor-approval", mentorController.Review)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
