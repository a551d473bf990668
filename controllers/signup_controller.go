package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// SignupController registers mentees and mentors for the signed-in email.
type SignupController struct {
	accounts *services.AccountService
}

// NewSignupController creates a SignupController.
func NewSignupController(accounts *services.AccountService) *SignupController {
	return &SignupController{accounts: accounts}
}

// Majors returns the majors offered on the signup form, keyed by id.
func (s *SignupController) Majors(ctx *gin.Context) {
	majors, err := s.accounts.Majors(ctx.Request.Context())
	if err != nil {
		utils.Logger.Error("list majors failed", zap.Error(err))
	}
	utils.Success(ctx, majors)
}

// SubjectTags returns the experience tags offered to mentors.
func (s *SignupController) SubjectTags(ctx *gin.Context) {
	tags, err := s.accounts.SubjectTags(ctx.Request.Context())
	if err != nil {
		utils.Logger.Error("list subject tags failed", zap.Error(err))
	}
	utils.Success(ctx, tags)
}

// SignupMentee registers the caller as a mentee.
func (s *SignupController) SignupMentee(ctx *gin.Context) {
	s.signup(ctx, false, "/")
}

// SignupMentor registers the caller as a mentor and sends them to submit evidence.
func (s *SignupController) SignupMentor(ctx *gin.Context) {
	s.signup(ctx, true, "/verification.html")
}

func (s *SignupController) signup(ctx *gin.Context, mentor bool, next string) {
	email := currentEmail(ctx)
	if email == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "sign in before signing up")
		return
	}

	var experience []uint
	if mentor {
		for _, raw := range ctx.PostFormArray("experience") {
			experience = append(experience, utils.TryParseUint(raw))
		}
	}

	user, err := s.accounts.Signup(ctx.Request.Context(), services.SignupInput{
		FirstName:  param(ctx, "first-name"),
		LastName:   param(ctx, "last-name"),
		Username:   param(ctx, "username"),
		Email:      email,
		Password:   param(ctx, "password"),
		MajorID:    utils.TryParseUint(param(ctx, "major")),
		IsMentor:   mentor,
		Experience: experience,
	})
	switch {
	case errors.Is(err, services.ErrUserExists):
		utils.Error(ctx, http.StatusConflict, 40902, "username or email already registered")
		return
	case errors.Is(err, services.ErrEmptyContent):
		utils.Error(ctx, http.StatusBadRequest, 40064, "username is required")
		return
	case errors.Is(err, utils.ErrWeakPassword):
		utils.Error(ctx, http.StatusBadRequest, 40065, "password must have at least 8 characters")
		return
	case err != nil:
		utils.Logger.Error("signup failed", zap.Bool("mentor", mentor), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to register user")
		return
	}

	token, err := issueToken(ctx, user.ID, user.Username, user.Email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	ctx.Header("X-Mintern-Token", token)
	utils.Redirect(ctx, next)
}
