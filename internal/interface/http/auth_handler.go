package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/internal/application"
	"github.com/oksasatya/devconnector/internal/interface/middleware"
	"github.com/oksasatya/devconnector/pkg/response"
	"github.com/oksasatya/devconnector/pkg/validation"
)

// AuthHandler serves registration, login, the current-identity lookup and
// avatar upload.
type AuthHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewAuthHandler(users *application.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates an identity and returns a fresh token, so sign-up flows
// straight into an authenticated session.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Errors(c, http.StatusBadRequest, validation.ToFieldErrors(err)...)
		return
	}

	_, token, err := h.Users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Error(c, http.StatusBadRequest, "User already exists")
			return
		}
		h.Logger.WithError(err).Error("register failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Login exchanges credentials for a token. All credential failures share one
// body so callers cannot probe which emails exist.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Errors(c, http.StatusBadRequest, validation.ToFieldErrors(err)...)
		return
	}

	_, token, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error(c, http.StatusBadRequest, "Invalid Credentials")
			return
		}
		h.Logger.WithError(err).Error("login failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Current returns the identity behind the verified token. A token whose
// identity has since been deleted is treated as an invalid credential.
func (h *AuthHandler) Current(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Users.CurrentUser(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		h.Logger.WithError(err).Error("current user lookup failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UploadAvatar replaces the caller's avatar with an uploaded image.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)

	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Avatar file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.Logger.WithError(err).Error("avatar open failed")
		response.ServerError(c)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Users.UploadAvatar(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		h.Logger.WithError(err).Error("avatar upload failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}
