package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/middleware"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
)

type StaffHandler struct {
	users  repository.UserRepositoryInterface
	logger *logrus.Entry
}

func NewStaffHandler(users repository.UserRepositoryInterface, logger *logrus.Logger) *StaffHandler {
	return &StaffHandler{
		users:  users,
		logger: logger.WithField("component", "handlers.staff"),
	}
}

// ListStaff returns all staff accounts
// @Summary List staff accounts
// @Tags staff
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /staff [get]
// @Security BearerAuth
func (h *StaffHandler) ListStaff(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list staff")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LIST_FAILED", Message: "Failed to list staff"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": users})
}

// CreateStaff creates a new staff account
// @Summary Create a staff account
// @Tags staff
// @Accept json
// @Produce json
// @Param staff body models.CreateStaffRequest true "Account data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /staff [post]
// @Security BearerAuth
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req models.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ROLE", Message: "Role must be admin or staff"},
		})
		return
	}

	hash, err := repository.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Password hashing failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Failed to create account"},
		})
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		Active:       true,
	}

	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		if repository.IsDuplicateUsername(err) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "USERNAME_TAKEN", Message: "Username is already in use"},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to create staff account")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "CREATE_FAILED", Message: "Failed to create account"},
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"userId":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("Staff account created")

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// ToggleStaff flips the active flag on a staff account
// @Summary Activate or deactivate a staff account
// @Tags staff
// @Produce json
// @Param id path int true "Staff ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/{id}/toggle [patch]
// @Security BearerAuth
func (h *StaffHandler) ToggleStaff(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	id, target, ok := h.lookupTarget(c)
	if !ok {
		return
	}

	// Deactivation guards: admins cannot deactivate themselves, and the
	// last active admin can never be deactivated.
	if target.Active {
		if target.ID == actor.ID {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "SELF_DEACTIVATION", Message: "You cannot deactivate your own account"},
			})
			return
		}
		if target.IsAdmin() {
			admins, err := h.users.CountAdmins(c.Request.Context())
			if err != nil {
				h.logger.WithError(err).Error("Admin count failed")
				c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Success: false,
					Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Failed to update account"},
				})
				return
			}
			if admins <= 1 {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error:   models.Error{Code: "LAST_ADMIN", Message: "At least one active admin must remain"},
				})
				return
			}
		}
	}

	if err := h.users.SetActive(c.Request.Context(), id, !target.Active); err != nil {
		h.logger.WithError(err).Error("Failed to toggle staff account")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "UPDATE_FAILED", Message: "Failed to update account"},
		})
		return
	}

	target.Active = !target.Active
	c.JSON(http.StatusOK, gin.H{"user": target})
}

// ChangePassword resets a staff account's password
// @Summary Reset a staff password
// @Tags staff
// @Accept json
// @Produce json
// @Param id path int true "Staff ID"
// @Param password body models.ChangePasswordRequest true "New password"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/{id}/password [patch]
// @Security BearerAuth
func (h *StaffHandler) ChangePassword(c *gin.Context) {
	id, target, ok := h.lookupTarget(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	hash, err := repository.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Password hashing failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Failed to update password"},
		})
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), id, hash); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "UPDATE_FAILED", Message: "Failed to update password"},
		})
		return
	}

	h.logger.WithField("userId", target.ID).Info("Staff password updated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *StaffHandler) lookupTarget(c *gin.Context) (uint, *models.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Staff id must be numeric"},
		})
		return 0, nil, false
	}

	target, err := h.users.GetUserByID(c.Request.Context(), uint(id))
	if err != nil {
		h.logger.WithError(err).Error("Staff lookup failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INTERNAL_ERROR", Message: "Failed to load account"},
		})
		return 0, nil, false
	}
	if target == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NOT_FOUND", Message: "Staff account not found"},
		})
		return 0, nil, false
	}

	return uint(id), target, true
}
