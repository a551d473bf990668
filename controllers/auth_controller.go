package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/middleware"
	"github.com/mintern/forum/models"
	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

// AuthController handles authentication related endpoints including local and third-party providers.
type AuthController struct {
	accounts *services.AccountService
}

// NewAuthController creates a new AuthController.
func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{accounts: accounts}
}

// Authentication reports whether the caller is signed in and registered, and
// where the auth link should point: logout, signup or login.
func (a *AuthController) Authentication(ctx *gin.Context) {
	email := currentEmail(ctx)
	loggedIn := email != ""
	registered := false
	authURL := loginURL()

	if loggedIn {
		authURL = "/logout"
		if _, err := a.accounts.FindByEmail(ctx.Request.Context(), email); err == nil {
			registered = true
		} else {
			if !services.IsNotFound(err) {
				utils.Logger.Error("registration lookup failed", zap.String("op", "authentication"), zap.Error(err))
			}
			authURL = "/signup.html"
		}
	}

	utils.Success(ctx, gin.H{
		"isUserLoggedIn":    loggedIn,
		"email":             email,
		"isUserRegistered":  registered,
		"authenticationUrl": authURL,
	})
}

// LoginStatus returns the login state with a login or logout link.
func (a *AuthController) LoginStatus(ctx *gin.Context) {
	email := currentEmail(ctx)
	authURL := loginURL()
	if email != "" {
		authURL = "/logout"
	}
	utils.Success(ctx, gin.H{
		"loggedIn":          email != "",
		"authenticationUrl": authURL,
		"userEmail":         email,
	})
}

// CheckLogin tells pages whether to show logged-in controls.
func (a *AuthController) CheckLogin(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"loggedIn": currentEmail(ctx) != ""})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Login    string `json:"login" form:"login" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.accounts.Authenticate(ctx.Request.Context(), req.Login, req.Password)
	if err != nil {
		if !services.IsNotFound(err) {
			utils.Logger.Error("password login failed", zap.Error(err))
		}
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := issueToken(ctx, user.ID, user.Username, user.Email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(*user),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
	if claims, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if c, ok := claims.(*utils.Claims); ok && c.ExpiresAt != nil {
			expiresAt = c.ExpiresAt.Time
		}
	}

	utils.BlacklistToken(token, expiresAt)
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	cfg, err := oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for an email identity and
// issues a JWT. Emails without an account get a token with user id 0 so the
// caller can finish signup.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	cfg, err := oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	token, err := cfg.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	email, err := fetchOAuthEmail(ctx.Request.Context(), cfg, provider, token)
	if err != nil || email == "" {
		utils.Logger.Warn("oauth email lookup failed", zap.String("provider", provider), zap.Error(err))
		utils.Error(ctx, http.StatusBadGateway, 50205, "could not read email from provider")
		return
	}

	var (
		userID   uint
		username string
	)
	user, err := a.accounts.FindByEmail(ctx.Request.Context(), email)
	switch {
	case err == nil:
		userID, username = user.ID, user.Username
	case !services.IsNotFound(err):
		utils.Logger.Error("registration lookup failed", zap.String("op", "oauth_callback"), zap.Error(err))
	}

	jwtToken, err := issueToken(ctx, userID, username, email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	next := "/"
	if userID == 0 {
		next = "/signup.html"
	}
	utils.Success(ctx, gin.H{"token": jwtToken, "email": email, "isUserRegistered": userID != 0, "next": next})
}

func issueToken(ctx *gin.Context, userID uint, username, email string) (string, error) {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(userID, username, email, ttl)
	if err != nil {
		return "", err
	}
	ctx.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", false, true)
	return token, nil
}

// loginURL points at the first configured identity provider.
func loginURL() string {
	cfg := config.Get()
	switch {
	case cfg.GoogleClientID != "":
		return "/oauth/google/login"
	case cfg.GitHubClientID != "":
		return "/oauth/github/login"
	default:
		return "/login.html"
	}
}

func oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	base := strings.TrimRight(cfg.OAuthRedirectBase, "/")
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/oauth/github/callback", base),
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/oauth/google/callback", base),
			Scopes:       []string{"openid", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchOAuthEmail(ctx context.Context, cfg *oauth2.Config, provider string, token *oauth2.Token) (string, error) {
	client := cfg.Client(ctx, token)
	switch strings.ToLower(provider) {
	case "github":
		return fetchGitHubEmail(client)
	case "google":
		return fetchGoogleEmail(client)
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchGitHubEmail(client *http.Client) (string, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user/emails", nil)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github emails request failed: %s", resp.Status)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	return "", errors.New("github account has no verified primary email")
}

func fetchGoogleEmail(client *http.Client) (string, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if !payload.VerifiedEmail {
		return "", errors.New("google email not verified")
	}
	return payload.Email, nil
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"isMentor":       user.IsMentor,
		"mentorApproved": user.MentorApproved,
		"is_admin":       utils.IsAdminUsername(user.Username),
	}
}
