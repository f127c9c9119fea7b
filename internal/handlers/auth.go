package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/config"
	"thumbnail-editor-backend/internal/middleware"
	"thumbnail-editor-backend/internal/models"
)

const devTokenTTL = 24 * time.Hour

// OTPAuthenticator is the one-time code flow of the identity provider.
type OTPAuthenticator interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.SessionResponse, error)
	SignOut(ctx context.Context, accessToken string) error
}

type AuthHandler struct {
	auth OTPAuthenticator
	cfg  *config.Config
	log  *zap.Logger
}

func NewAuthHandler(auth OTPAuthenticator, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg, log: log}
}

// SendOTP godoc
// @Summary     Email a sign-in code
// @Description Sends a one-time code to the address, creating the account on first use
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.OTPRequest true "Email address"
// @Success     200 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /auth/otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email is required"})
		return
	}

	if err := h.auth.SendOTP(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to send code", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "check your email for the sign-in code"})
}

// VerifyOTP godoc
// @Summary     Verify a sign-in code
// @Description Exchanges the emailed code for a session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.VerifyOTPRequest true "Email and code"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and token are required"})
		return
	}

	session, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid code", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// SignOut godoc
// @Summary     Sign out
// @Description Revokes the current session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MessageResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	// Tokens from the dev bypass were never issued by the provider.
	if c.GetString(middleware.UserIDKey) != middleware.DevUserID.String() {
		if err := h.auth.SignOut(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
			h.log.Warn("sign out failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "signed out"})
}

// Me godoc
// @Summary     Current user
// @Description Returns the user behind the access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UserResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{
		ID:    userID.String(),
		Email: c.GetString(middleware.UserEmailKey),
	})
}

// DevBypass godoc
// @Summary     Development sign-in
// @Description Issues a token for the synthetic development user without contacting the identity provider. Only served by development builds.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Success     200 {object} models.SessionResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /auth/dev-bypass [post]
func (h *AuthHandler) DevBypass(c *gin.Context) {
	if !middleware.DevBypassEnabled(h.cfg) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	token, expiresAt, err := middleware.IssueDevToken(h.cfg.SupabaseJWTSecret, devTokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Warn("development sign-in bypass used", zap.String("user_id", middleware.DevUserID.String()))
	c.JSON(http.StatusOK, models.SessionResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Unix(),
		User: models.UserResponse{
			ID:    middleware.DevUserID.String(),
			Email: middleware.DevUserEmail,
		},
	})
}
