package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coupon-issuance-service/internal/models"
)

func TestBuildCouponFiltersEmpty(t *testing.T) {
	assert.Empty(t, BuildCouponFilters(nil))
	assert.Empty(t, BuildCouponFilters(&models.CouponFilters{}))
}

func TestBuildCouponFiltersSingleFields(t *testing.T) {
	clauses := BuildCouponFilters(&models.CouponFilters{Branch: "Muscat"})
	assert.Len(t, clauses, 1)
	assert.Equal(t, "coupons.branch = ?", clauses[0].Expr)
	assert.Equal(t, []interface{}{"Muscat"}, clauses[0].Args)

	clauses = BuildCouponFilters(&models.CouponFilters{StaffID: "7"})
	assert.Len(t, clauses, 1)
	assert.Equal(t, "coupons.staff_id = ?", clauses[0].Expr)

	clauses = BuildCouponFilters(&models.CouponFilters{Date: "2026-08-01"})
	assert.Len(t, clauses, 1)
	assert.Equal(t, "DATE(coupons.created_at) = ?", clauses[0].Expr)
}

func TestBuildCouponFiltersDateRange(t *testing.T) {
	clauses := BuildCouponFilters(&models.CouponFilters{
		DateFrom: "2026-08-01",
		DateTo:   "2026-08-31",
	})
	assert.Len(t, clauses, 2)
	assert.Equal(t, "DATE(coupons.created_at) >= ?", clauses[0].Expr)
	assert.Equal(t, "DATE(coupons.created_at) <= ?", clauses[1].Expr)
}

func TestBuildCouponFiltersSearch(t *testing.T) {
	clauses := BuildCouponFilters(&models.CouponFilters{Search: "ahmed"})
	assert.Len(t, clauses, 1)
	assert.Contains(t, clauses[0].Expr, "customer_name ILIKE ?")
	assert.Contains(t, clauses[0].Expr, "mobile_number ILIKE ?")
	assert.Contains(t, clauses[0].Expr, "coupon_code ILIKE ?")
	assert.Equal(t, []interface{}{"%ahmed%", "%ahmed%", "%ahmed%"}, clauses[0].Args)
}

func TestBuildCouponFiltersCombination(t *testing.T) {
	clauses := BuildCouponFilters(&models.CouponFilters{
		Branch: "Salalah",
		Search: "CPN",
	})
	// branch and search narrow to the intersection: both clauses present,
	// AND-combined by the caller.
	assert.Len(t, clauses, 2)
	assert.Equal(t, "coupons.branch = ?", clauses[0].Expr)
	assert.Contains(t, clauses[1].Expr, "ILIKE")
}

func TestBuildCouponFiltersParameterized(t *testing.T) {
	// A hostile search value must end up in Args, never in the clause text.
	hostile := "'; DROP TABLE coupons; --"
	clauses := BuildCouponFilters(&models.CouponFilters{Search: hostile})
	assert.Len(t, clauses, 1)
	assert.NotContains(t, clauses[0].Expr, hostile)
	assert.Equal(t, "%"+hostile+"%", clauses[0].Args[0])
}
