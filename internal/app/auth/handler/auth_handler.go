package handler

import (
	"errors"
	"net/http"
	"strings"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/service"
	"furnibles/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// forgotPasswordMessage - единый ответ независимо от существования email
const forgotPasswordMessage = "If an account with this email exists, a password reset link has been sent"

type AuthHandler struct {
	authService service.AuthServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

// Register обрабатывает POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusConflict, entity.ErrorResponse{
				Error:   "Conflict",
				Message: "User with this email already exists",
			})
			return
		}
		internalError(c, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, entity.RegisterResponse{
		Message: "Registration successful, please verify your email",
		UserID:  user.ID.String(),
	})
}

// Login обрабатывает POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			unauthorized(c, "Invalid email or password")
		case errors.Is(err, service.ErrEmailNotVerified):
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			unauthorized(c, "Email is not verified")
		case errors.Is(err, service.ErrAccountInactive):
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			unauthorized(c, "Account is deactivated")
		default:
			internalError(c, "Failed to login")
		}
		return
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, resp)
}

// ChangePassword обрабатывает POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	var req entity.ChangePasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrPasswordMismatch) {
			badRequest(c, "Current password does not match")
			return
		}
		internalError(c, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Password changed successfully"})
}

// RefreshToken обрабатывает POST /auth/refresh.
// Требует валидный (не отозванный) токен, переиздаёт его с теми же claims.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	accessToken, err := h.authService.RefreshToken(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, entity.RefreshResponse{AccessToken: accessToken})
}

// GetProfile обрабатывает GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c, "Unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "Failed to get user info")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout обрабатывает POST /auth/logout.
// Всегда отвечает 200: отзыв токена best-effort.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		badRequest(c, "Authorization header required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		internalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Successfully logged out"})
}

// ForgotPassword обрабатывает POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req entity.ForgotPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// Ответ не зависит от результата: защита от перебора email
	_ = h.authService.ForgotPassword(c.Request.Context(), req.Email)

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: forgotPasswordMessage})
}

// ResetPassword обрабатывает POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req entity.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			badRequest(c, "Invalid or expired reset token")
			return
		}
		internalError(c, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Password has been reset"})
}

// VerifyEmail обрабатывает POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req entity.VerifyEmailRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidVerifyToken) {
			badRequest(c, "Invalid verification token")
			return
		}
		internalError(c, "Failed to verify email")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Email verified successfully"})
}

// ==================== Helpers ====================

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", false
	}

	return token, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{
		Error:   "Bad Request",
		Message: message,
	})
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
		Error:   "Internal Server Error",
		Message: message,
	})
}
