package models

import (
	"time"
)

// Coupon represents a single coupon issuance for a customer visit
type Coupon struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CustomerName  string    `json:"customer_name" gorm:"not null"`
	MobileNumber  string    `json:"mobile_number" gorm:"not null;index"`
	Branch        string    `json:"branch" gorm:"not null"`
	CouponCode    string    `json:"coupon_code" gorm:"not null;uniqueIndex"`
	StaffID       uint      `json:"staff_id" gorm:"not null;index"`
	WhatsappSent  bool      `json:"whatsapp_sent" gorm:"not null;default:false"`
	WhatsappError *string   `json:"whatsapp_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// Relationships
	Staff *User `json:"staff,omitempty" gorm:"foreignKey:StaffID"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// IssueCouponRequest represents a request to issue a new coupon
type IssueCouponRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
	MobileNumber string `json:"mobile_number" binding:"required"`
	Branch       string `json:"branch" binding:"required"`
}

// DeliveryStatus reports the outcome of the WhatsApp delivery attempt
// alongside the persisted coupon.
type DeliveryStatus struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

// IssueCouponResponse represents the response to a coupon issuance
type IssueCouponResponse struct {
	Coupon   *Coupon        `json:"coupon"`
	Whatsapp DeliveryStatus `json:"whatsapp"`
}

// ResendResponse represents the response to a resend attempt
type ResendResponse struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

// CouponFilters represents the optional filters for coupon queries.
// Absent fields contribute no clause.
type CouponFilters struct {
	Branch   string `json:"branch,omitempty"`
	StaffID  string `json:"staff_id,omitempty"`
	Date     string `json:"date,omitempty"`      // exact calendar day, YYYY-MM-DD
	DateFrom string `json:"date_from,omitempty"` // inclusive day bound
	DateTo   string `json:"date_to,omitempty"`   // inclusive day bound
	Search   string `json:"search,omitempty"`    // substring over name, phone, code
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"pages"`
}

// CouponListResponse represents a paginated coupon listing
type CouponListResponse struct {
	Coupons    []Coupon        `json:"coupons"`
	Pagination *PaginationInfo `json:"pagination"`
}

// BranchCount is a per-branch issuance count
type BranchCount struct {
	Branch string `json:"branch"`
	Count  int64  `json:"count"`
}

// StaffCount is a per-staff issuance count
type StaffCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// StatsResponse represents the aggregate stats payload
type StatsResponse struct {
	TotalCoupons   int64         `json:"totalCoupons"`
	WhatsappSent   int64         `json:"whatsappSent"`
	WhatsappFailed int64         `json:"whatsappFailed"`
	ByBranch       []BranchCount `json:"byBranch"`
	ByStaff        []StaffCount  `json:"byStaff"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
