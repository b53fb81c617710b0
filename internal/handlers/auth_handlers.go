package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/middleware"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
)

type AuthHandler struct {
	users     repository.UserRepositoryInterface
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logrus.Entry
}

func NewAuthHandler(users repository.UserRepositoryInterface, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.WithField("component", "handlers.auth"),
	}
}

// Login authenticates a staff member
// @Summary Staff login
// @Description Authenticate with username and password, returns a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.WithError(err).Error("Login lookup failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Login failed"},
		})
		return
	}

	// Same response for unknown username, wrong password and disabled
	// account, so the endpoint does not leak which one it was.
	if user == nil || !user.Active || !repository.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password"},
		})
		return
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.WithError(err).Error("Token generation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Login failed"},
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"userId":   user.ID,
		"username": user.Username,
	}).Info("Staff member logged in")

	c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: user})
}

// Me returns the authenticated user
// @Summary Current user
// @Description Return the account associated with the bearer token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/me [get]
// @Security BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}
