package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"coupon-issuance-service/internal/models"
)

// CouponRepositoryInterface defines the persistence operations used by the
// coupon service and handlers.
type CouponRepositoryInterface interface {
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	GetCouponByID(ctx context.Context, id uint) (*models.Coupon, error)
	UpdateDeliveryStatus(ctx context.Context, id uint, sent bool, errText *string) error
	GetCouponList(ctx context.Context, filters *models.CouponFilters, page, limit int) ([]models.Coupon, int64, error)
	GetCouponsForExport(ctx context.Context, filters *models.CouponFilters) ([]models.Coupon, error)
	GetStats(ctx context.Context, date string) (*models.StatsResponse, error)
}

type CouponRepository struct {
	db *gorm.DB
}

var _ CouponRepositoryInterface = (*CouponRepository)(nil)

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// IsDuplicateCode reports whether err is a unique-constraint violation on
// the coupon code column. The service treats this as retryable.
func IsDuplicateCode(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}

// CreateCoupon persists a new coupon record
func (r *CouponRepository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// GetCouponByID retrieves a coupon by ID
func (r *CouponRepository) GetCouponByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Preload("Staff").First(&coupon, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// UpdateDeliveryStatus overwrites the delivery outcome of a coupon. Only
// the status fields are touched; the record itself is immutable.
func (r *CouponRepository) UpdateDeliveryStatus(ctx context.Context, id uint, sent bool, errText *string) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"whatsapp_sent":  sent,
			"whatsapp_error": errText,
		}).Error
}

// GetCouponList retrieves a paginated list of coupons with filters
func (r *CouponRepository) GetCouponList(ctx context.Context, filters *models.CouponFilters, page, limit int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	for _, clause := range BuildCouponFilters(filters) {
		query = query.Where(clause.Expr, clause.Args...)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Staff").Offset(offset).Limit(limit).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// GetCouponsForExport retrieves all coupons matching the filters, without
// pagination, for spreadsheet export.
func (r *CouponRepository) GetCouponsForExport(ctx context.Context, filters *models.CouponFilters) ([]models.Coupon, error) {
	var coupons []models.Coupon

	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	for _, clause := range BuildCouponFilters(filters) {
		query = query.Where(clause.Expr, clause.Args...)
	}

	err := query.Preload("Staff").Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}

// GetStats computes aggregate issuance statistics, optionally scoped to a
// single calendar day.
func (r *CouponRepository) GetStats(ctx context.Context, date string) (*models.StatsResponse, error) {
	stats := &models.StatsResponse{}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Coupon{})
		if date != "" {
			q = q.Where("DATE(coupons.created_at) = ?", date)
		}
		return q
	}

	if err := base().Count(&stats.TotalCoupons).Error; err != nil {
		return nil, err
	}

	if err := base().Where("whatsapp_sent = ?", true).Count(&stats.WhatsappSent).Error; err != nil {
		return nil, err
	}
	stats.WhatsappFailed = stats.TotalCoupons - stats.WhatsappSent

	if err := base().
		Select("branch, COUNT(*) as count").
		Group("branch").
		Order("count DESC").
		Scan(&stats.ByBranch).Error; err != nil {
		return nil, err
	}

	if err := base().
		Select("users.name as name, COUNT(*) as count").
		Joins("JOIN users ON users.id = coupons.staff_id").
		Group("users.name").
		Order("count DESC").
		Scan(&stats.ByStaff).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
