package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"coupon-issuance-service/internal/delivery"
	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
	"coupon-issuance-service/internal/service"
)

// MockCouponRepository is a mock implementation of CouponRepositoryInterface
type MockCouponRepository struct {
	mock.Mock
}

var _ repository.CouponRepositoryInterface = (*MockCouponRepository)(nil)

func (m *MockCouponRepository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *MockCouponRepository) GetCouponByID(ctx context.Context, id uint) (*models.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponRepository) UpdateDeliveryStatus(ctx context.Context, id uint, sent bool, errText *string) error {
	args := m.Called(ctx, id, sent, errText)
	return args.Error(0)
}

func (m *MockCouponRepository) GetCouponList(ctx context.Context, filters *models.CouponFilters, page, limit int) ([]models.Coupon, int64, error) {
	args := m.Called(ctx, filters, page, limit)
	return args.Get(0).([]models.Coupon), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponRepository) GetCouponsForExport(ctx context.Context, filters *models.CouponFilters) ([]models.Coupon, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]models.Coupon), args.Error(1)
}

func (m *MockCouponRepository) GetStats(ctx context.Context, date string) (*models.StatsResponse, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatsResponse), args.Error(1)
}

type stubGateway struct {
	outcome delivery.Outcome
}

func (g stubGateway) Send(ctx context.Context, msg delivery.Message) delivery.Outcome {
	return g.outcome
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testStaff() *models.User {
	return &models.User{ID: 3, Username: "fatma", Name: "Fatma", Role: models.RoleStaff, Active: true}
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

func newCouponHandler(repo repository.CouponRepositoryInterface, gateway delivery.Gateway) *CouponHandler {
	svc := service.NewCouponService(repo, service.NewCodeGenerator("CPN"), gateway, "whatsapp", testLogger())
	return NewCouponHandler(svc, repo, nil, 50, 100, testLogger())
}

func authAs(user *models.User, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", user)
		c.Set("role", user.Role)
		handler(c)
	}
}

func TestIssueCouponSuccess(t *testing.T) {
	repo := new(MockCouponRepository)
	repo.On("CreateCoupon", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Coupon).ID = 1
	}).Return(nil)
	repo.On("UpdateDeliveryStatus", mock.Anything, uint(1), true, (*string)(nil)).Return(nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{delivery.Outcome{Success: true}})
	router.POST("/coupons", authAs(testStaff(), handler.IssueCoupon))

	body, _ := json.Marshal(models.IssueCouponRequest{
		CustomerName: "Ahmed",
		MobileNumber: "96879123456",
		Branch:       "Muscat",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/coupons", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.IssueCouponResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Whatsapp.Success)
	assert.Equal(t, "79123456", resp.Coupon.MobileNumber)
}

func TestIssueCouponInvalidPhone(t *testing.T) {
	router := setupTestRouter()
	handler := newCouponHandler(new(MockCouponRepository), stubGateway{})
	router.POST("/coupons", authAs(testStaff(), handler.IssueCoupon))

	body, _ := json.Marshal(models.IssueCouponRequest{
		CustomerName: "Ahmed",
		MobileNumber: "51234567",
		Branch:       "Muscat",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/coupons", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_PHONE", resp.Error.Code)
}

func TestIssueCouponDeliveryFailureStillCreated(t *testing.T) {
	repo := new(MockCouponRepository)
	repo.On("CreateCoupon", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Coupon).ID = 2
	}).Return(nil)
	repo.On("UpdateDeliveryStatus", mock.Anything, uint(2), false, mock.Anything).Return(nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{delivery.Outcome{Success: false, Error: "provider down"}})
	router.POST("/coupons", authAs(testStaff(), handler.IssueCoupon))

	body, _ := json.Marshal(models.IssueCouponRequest{
		CustomerName: "Ahmed",
		MobileNumber: "79123456",
		Branch:       "Muscat",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/coupons", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.IssueCouponResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Whatsapp.Success)
	assert.Equal(t, "provider down", *resp.Whatsapp.Error)
}

func TestListCouponsPagination(t *testing.T) {
	// 120 matching records, limit 50: page 3 holds the last 20 and the
	// pagination reports 3 pages.
	repo := new(MockCouponRepository)
	repo.On("GetCouponList", mock.Anything, mock.Anything, 3, 50).Return(make([]models.Coupon, 20), int64(120), nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{})
	router.GET("/coupons", authAs(testStaff(), handler.ListCoupons))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/coupons?page=3&limit=50", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CouponListResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Coupons, 20)
	assert.Equal(t, int64(120), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestListCouponsPassesFilters(t *testing.T) {
	repo := new(MockCouponRepository)
	repo.On("GetCouponList", mock.Anything, mock.MatchedBy(func(filters *models.CouponFilters) bool {
		return filters.Branch == "Muscat" && filters.Search == "ahmed"
	}), 1, 50).Return([]models.Coupon{}, int64(0), nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{})
	router.GET("/coupons", authAs(testStaff(), handler.ListCoupons))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/coupons?branch=Muscat&search=ahmed", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestResendCouponNotFound(t *testing.T) {
	repo := new(MockCouponRepository)
	repo.On("GetCouponByID", mock.Anything, uint(99)).Return(nil, nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{})
	router.POST("/coupons/:id/resend", authAs(testStaff(), handler.ResendCoupon))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/coupons/99/resend", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResendCouponFlipsFailedToSent(t *testing.T) {
	repo := new(MockCouponRepository)
	failed := "timeout"
	repo.On("GetCouponByID", mock.Anything, uint(7)).Return(&models.Coupon{
		ID: 7, CustomerName: "Ahmed", MobileNumber: "79123456",
		Branch: "Muscat", CouponCode: "CPN-ABC123", WhatsappSent: false, WhatsappError: &failed,
	}, nil)
	repo.On("UpdateDeliveryStatus", mock.Anything, uint(7), true, (*string)(nil)).Return(nil)

	router := setupTestRouter()
	handler := newCouponHandler(repo, stubGateway{delivery.Outcome{Success: true}})
	router.POST("/coupons/:id/resend", authAs(testStaff(), handler.ResendCoupon))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/coupons/7/resend", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ResendResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	repo.AssertCalled(t, "UpdateDeliveryStatus", mock.Anything, uint(7), true, (*string)(nil))
}
