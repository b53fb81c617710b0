package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/stats"
)

type StatsHandler struct {
	aggregator stats.Aggregator
	logger     *logrus.Entry
}

func NewStatsHandler(aggregator stats.Aggregator, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		aggregator: aggregator,
		logger:     logger.WithField("component", "handlers.stats"),
	}
}

// GetStats returns aggregate issuance statistics
// @Summary Issuance statistics
// @Description Totals, delivery split, and branch/staff breakdowns
// @Tags stats
// @Produce json
// @Param date query string false "Calendar day filter (YYYY-MM-DD)"
// @Success 200 {object} models.StatsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /stats [get]
// @Security BearerAuth
func (h *StatsHandler) GetStats(c *gin.Context) {
	summary, err := h.aggregator.Summary(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.logger.WithError(err).Error("Stats aggregation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "STATS_FAILED", Message: "Failed to compute statistics"},
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}
