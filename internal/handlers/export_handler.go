package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
)

type ExportHandler struct {
	repo   repository.CouponRepositoryInterface
	logger *logrus.Entry
}

func NewExportHandler(repo repository.CouponRepositoryInterface, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		repo:   repo,
		logger: logger.WithField("component", "handlers.export"),
	}
}

// ExportCoupons streams the filtered coupon list as an xlsx workbook
// @Summary Export coupons to Excel
// @Description Download the filtered coupon list as a spreadsheet
// @Tags coupons
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param branch query string false "Branch filter"
// @Param staff_id query string false "Issuing staff filter"
// @Param date query string false "Calendar day filter (YYYY-MM-DD)"
// @Param search query string false "Substring search over name, phone and code"
// @Success 200 {file} binary
// @Failure 500 {object} models.ErrorResponse
// @Router /coupons/export [get]
// @Security BearerAuth
func (h *ExportHandler) ExportCoupons(c *gin.Context) {
	filters := &models.CouponFilters{
		Branch:   c.Query("branch"),
		StaffID:  c.Query("staff_id"),
		Date:     c.Query("date"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Search:   c.Query("search"),
	}

	coupons, err := h.repo.GetCouponsForExport(c.Request.Context(), filters)
	if err != nil {
		h.logger.WithError(err).Error("Export query failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "EXPORT_FAILED", Message: "Failed to export coupons"},
		})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Coupons"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := []string{"ID", "Customer Name", "Mobile Number", "Branch", "Coupon Code", "Issued By", "WhatsApp Sent", "Error", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, coupon := range coupons {
		staffName := ""
		if coupon.Staff != nil {
			staffName = coupon.Staff.Name
		}
		errText := ""
		if coupon.WhatsappError != nil {
			errText = *coupon.WhatsappError
		}
		sent := "No"
		if coupon.WhatsappSent {
			sent = "Yes"
		}

		values := []interface{}{
			coupon.ID,
			coupon.CustomerName,
			coupon.MobileNumber,
			coupon.Branch,
			coupon.CouponCode,
			staffName,
			sent,
			errText,
			coupon.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	filename := fmt.Sprintf("coupons_export_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write workbook")
	}
}
