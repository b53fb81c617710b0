package repository

import (
	"coupon-issuance-service/internal/models"
)

// FilterClause is a single parameterized predicate, applied with
// query.Where(Expr, Args...). Clauses are AND-combined by gorm.
type FilterClause struct {
	Expr string
	Args []interface{}
}

// BuildCouponFilters translates the optional filter fields into an ordered
// list of parameterized clauses. Absent fields contribute no clause, so an
// empty filter set matches all records. The same clause list is reused for
// counting, listing and exporting.
func BuildCouponFilters(f *models.CouponFilters) []FilterClause {
	clauses := []FilterClause{}
	if f == nil {
		return clauses
	}

	if f.Branch != "" {
		clauses = append(clauses, FilterClause{
			Expr: "coupons.branch = ?",
			Args: []interface{}{f.Branch},
		})
	}

	if f.StaffID != "" {
		clauses = append(clauses, FilterClause{
			Expr: "coupons.staff_id = ?",
			Args: []interface{}{f.StaffID},
		})
	}

	if f.Date != "" {
		clauses = append(clauses, FilterClause{
			Expr: "DATE(coupons.created_at) = ?",
			Args: []interface{}{f.Date},
		})
	}

	if f.DateFrom != "" {
		clauses = append(clauses, FilterClause{
			Expr: "DATE(coupons.created_at) >= ?",
			Args: []interface{}{f.DateFrom},
		})
	}

	if f.DateTo != "" {
		clauses = append(clauses, FilterClause{
			Expr: "DATE(coupons.created_at) <= ?",
			Args: []interface{}{f.DateTo},
		})
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		clauses = append(clauses, FilterClause{
			Expr: "(coupons.customer_name ILIKE ? OR coupons.mobile_number ILIKE ? OR coupons.coupon_code ILIKE ?)",
			Args: []interface{}{pattern, pattern, pattern},
		})
	}

	return clauses
}
