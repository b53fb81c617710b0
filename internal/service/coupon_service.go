package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/delivery"
	"coupon-issuance-service/internal/metrics"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/phone"
	"coupon-issuance-service/internal/repository"
)

var (
	ErrInvalidInput = errors.New("customer name, mobile number and branch are required")
	ErrInvalidPhone = errors.New("mobile number is not a valid Omani number")
	// ErrCodeConflict is returned when code generation keeps colliding
	// with existing coupons after retries.
	ErrCodeConflict = errors.New("could not generate a unique coupon code")
	ErrNotFound     = errors.New("coupon not found")
)

// codeInsertRetries bounds retries on duplicate-code inserts. Collisions
// need two issuances in the same nanosecond with the same random suffix,
// so one retry would already be generous.
const codeInsertRetries = 3

// CouponService owns the issuance flow: validate, normalize the phone,
// generate and persist the code, then attempt delivery. Delivery failures
// are recorded on the coupon, never surfaced as issuance errors.
type CouponService struct {
	repo      repository.CouponRepositoryInterface
	generator *CodeGenerator
	gateway   delivery.Gateway
	channel   string
	logger    *logrus.Entry
}

func NewCouponService(repo repository.CouponRepositoryInterface, generator *CodeGenerator, gateway delivery.Gateway, channel string, logger *logrus.Logger) *CouponService {
	return &CouponService{
		repo:      repo,
		generator: generator,
		gateway:   gateway,
		channel:   channel,
		logger:    logger.WithField("component", "service.coupon"),
	}
}

// Issue creates a coupon for the customer and attempts delivery. The
// returned response always carries the persisted coupon; the delivery
// status reports whether the message went out.
func (s *CouponService) Issue(ctx context.Context, req *models.IssueCouponRequest, staff *models.User) (*models.IssueCouponResponse, error) {
	start := time.Now()
	result := "failure"
	defer func() {
		metrics.RecordIssueCouponDuration(result, time.Since(start).Seconds())
	}()

	name := strings.TrimSpace(req.CustomerName)
	branch := strings.TrimSpace(req.Branch)
	if name == "" || branch == "" || strings.TrimSpace(req.MobileNumber) == "" {
		return nil, ErrInvalidInput
	}

	local := phone.Normalize(req.MobileNumber)
	if !phone.IsValid(local) {
		return nil, ErrInvalidPhone
	}

	coupon, err := s.insertWithFreshCode(ctx, name, local, branch, staff.ID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"couponId":   coupon.ID,
		"couponCode": coupon.CouponCode,
		"branch":     branch,
		"staffId":    staff.ID,
	}).Info("Coupon issued")

	result = "success"
	status := s.deliver(ctx, coupon, staff.Name)
	return &models.IssueCouponResponse{Coupon: coupon, Whatsapp: status}, nil
}

// insertWithFreshCode generates a code and inserts the coupon, retrying
// with a new code when the store reports a uniqueness violation.
func (s *CouponService) insertWithFreshCode(ctx context.Context, name, local, branch string, staffID uint) (*models.Coupon, error) {
	for attempt := 0; attempt < codeInsertRetries; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return nil, err
		}

		coupon := &models.Coupon{
			CustomerName: name,
			MobileNumber: local,
			Branch:       branch,
			CouponCode:   code,
			StaffID:      staffID,
		}

		err = s.repo.CreateCoupon(ctx, coupon)
		if err == nil {
			return coupon, nil
		}
		if !repository.IsDuplicateCode(err) {
			return nil, err
		}
		s.logger.WithField("couponCode", code).Warn("Coupon code collision, regenerating")
	}
	return nil, ErrCodeConflict
}

// Resend re-attempts delivery of the coupon's stored code. Already-sent
// coupons are re-sent; the delivery status is overwritten either way.
func (s *CouponService) Resend(ctx context.Context, id uint, staffName string) (*models.ResendResponse, error) {
	coupon, err := s.repo.GetCouponByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrNotFound
	}

	status := s.deliver(ctx, coupon, staffName)
	return &models.ResendResponse{Success: status.Success, Error: status.Error}, nil
}

// deliver sends the coupon through the gateway and records the outcome.
// A failed status write is logged but does not change the reported
// delivery status.
func (s *CouponService) deliver(ctx context.Context, coupon *models.Coupon, staffName string) models.DeliveryStatus {
	outcome := s.gateway.Send(ctx, delivery.Message{
		PhoneLocal:   coupon.MobileNumber,
		CouponCode:   coupon.CouponCode,
		CustomerName: coupon.CustomerName,
		StaffName:    staffName,
		Branch:       coupon.Branch,
	})

	metrics.RecordDeliveryAttempt(s.channel, outcome.Success)

	var errText *string
	if !outcome.Success {
		errText = &outcome.Error
		s.logger.WithFields(logrus.Fields{
			"couponId": coupon.ID,
			"error":    outcome.Error,
		}).Warn("Coupon delivery failed")
	}

	if err := s.repo.UpdateDeliveryStatus(ctx, coupon.ID, outcome.Success, errText); err != nil {
		s.logger.WithError(err).WithField("couponId", coupon.ID).Error("Failed to record delivery status")
	}

	coupon.WhatsappSent = outcome.Success
	coupon.WhatsappError = errText

	return models.DeliveryStatus{Success: outcome.Success, Error: errText}
}
