package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/events"
	"coupon-issuance-service/internal/middleware"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
	"coupon-issuance-service/internal/service"
)

type CouponHandler struct {
	service         *service.CouponService
	repo            repository.CouponRepositoryInterface
	eventsPublisher *events.Publisher
	defaultPageSize int
	maxPageSize     int
	logger          *logrus.Entry
}

func NewCouponHandler(svc *service.CouponService, repo repository.CouponRepositoryInterface, eventsPublisher *events.Publisher, defaultPageSize, maxPageSize int, logger *logrus.Logger) *CouponHandler {
	return &CouponHandler{
		service:         svc,
		repo:            repo,
		eventsPublisher: eventsPublisher,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.WithField("component", "handlers.coupon"),
	}
}

// IssueCoupon issues a coupon and attempts WhatsApp delivery
// @Summary Issue a new coupon
// @Description Create a coupon for a customer and attempt delivery
// @Tags coupons
// @Accept json
// @Produce json
// @Param coupon body models.IssueCouponRequest true "Customer data"
// @Success 201 {object} models.IssueCouponResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /coupons [post]
// @Security BearerAuth
func (h *CouponHandler) IssueCoupon(c *gin.Context) {
	staff := middleware.CurrentUser(c)

	var req models.IssueCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	resp, err := h.service.Issue(c.Request.Context(), &req, staff)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_INPUT", Message: err.Error()},
			})
		case errors.Is(err, service.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "INVALID_PHONE", Message: err.Error()},
			})
		case errors.Is(err, service.ErrCodeConflict):
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CODE_CONFLICT", Message: err.Error()},
			})
		default:
			h.logger.WithError(err).Error("Coupon issuance failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "CREATE_FAILED", Message: "Failed to issue coupon"},
			})
		}
		return
	}

	h.eventsPublisher.PublishCouponIssued(resp.Coupon)

	c.JSON(http.StatusCreated, resp)
}

// ListCoupons returns a filtered, paginated coupon list
// @Summary List coupons
// @Description List issued coupons with optional filters
// @Tags coupons
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param branch query string false "Branch filter"
// @Param staff_id query string false "Issuing staff filter"
// @Param date query string false "Calendar day filter (YYYY-MM-DD)"
// @Param search query string false "Substring search over name, phone and code"
// @Success 200 {object} models.CouponListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /coupons [get]
// @Security BearerAuth
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if limit < 1 {
		limit = h.defaultPageSize
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	filters := &models.CouponFilters{
		Branch:   c.Query("branch"),
		StaffID:  c.Query("staff_id"),
		Date:     c.Query("date"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Search:   c.Query("search"),
	}

	coupons, total, err := h.repo.GetCouponList(c.Request.Context(), filters, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list coupons")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LIST_FAILED", Message: "Failed to list coupons"},
		})
		return
	}

	c.JSON(http.StatusOK, models.CouponListResponse{
		Coupons: coupons,
		Pagination: &models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ResendCoupon re-attempts delivery of an issued coupon
// @Summary Resend a coupon
// @Description Re-attempt WhatsApp delivery of the coupon's stored code
// @Tags coupons
// @Produce json
// @Param id path int true "Coupon ID"
// @Success 200 {object} models.ResendResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /coupons/{id}/resend [post]
// @Security BearerAuth
func (h *CouponHandler) ResendCoupon(c *gin.Context) {
	staff := middleware.CurrentUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Coupon id must be numeric"},
		})
		return
	}

	resp, err := h.service.Resend(c.Request.Context(), uint(id), staff.Name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NOT_FOUND", Message: "Coupon not found"},
			})
			return
		}
		h.logger.WithError(err).Error("Coupon resend failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "RESEND_FAILED", Message: "Failed to resend coupon"},
		})
		return
	}

	if h.eventsPublisher != nil {
		if coupon, err := h.repo.GetCouponByID(c.Request.Context(), uint(id)); err == nil && coupon != nil {
			h.eventsPublisher.PublishCouponResent(coupon)
		}
	}

	c.JSON(http.StatusOK, resp)
}
