package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie   = "oauthstate"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateLifetime = 20 * time.Minute
)

type AuthHandler struct {
	auth          service.AuthService
	oauthConfig   *oauth2.Config // nil, если вход через Google не настроен
	userInfoURL   string
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthHandler(auth service.AuthService, cfg config.AuthConfig, secureCookies bool, logger *zap.Logger) *AuthHandler {
	h := &AuthHandler{
		auth:          auth,
		userInfoURL:   googleUserInfoURL,
		secureCookies: secureCookies,
		logger:        logger,
	}
	if cfg.GoogleEnabled() {
		h.oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return h
}

// Register godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterInput true "Registration data"
// @Success 201 {object} models.AuthTokens
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidRequest(c, err)
		return
	}

	tokens, err := h.auth.Register(c.Request.Context(), &input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tokens)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidRequest(c, err)
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), &input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// GoogleLogin отправляет пользователя на страницу согласия Google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Вход через Google не настроен"})
		return
	}

	state, err := newOAuthState()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(oauthStateLifetime),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state))
}

// GoogleCallback обменивает код на токен Google и выдаёт свой access-токен
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Вход через Google не настроен"})
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		h.logger.Warn("Invalid oauth state")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Некорректный параметр state"})
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.logger.Warn("Google code exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Не удалось подтвердить вход через Google"})
		return
	}

	profile, err := h.fetchProfile(c, token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	tokens, err := h.auth.LoginWithGoogle(ctx, profile)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) fetchProfile(c *gin.Context, token *oauth2.Token) (*service.GoogleProfile, error) {
	ctx := c.Request.Context()
	resp, err := h.oauthConfig.Client(ctx, token).Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var profile service.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return &profile, nil
}

// Me GET /api/v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func newOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
