package stats

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"coupon-issuance-service/internal/delivery"
)

type mockERPStatsAPI struct {
	mock.Mock
}

func (m *mockERPStatsAPI) CountContacts(ctx context.Context, search string) (int64, error) {
	args := m.Called(ctx, search)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockERPStatsAPI) ListNotes(ctx context.Context, search string) ([]delivery.ERPNote, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]delivery.ERPNote), args.Error(1)
}

func (m *mockERPStatsAPI) CampaignTag() string {
	return "RAMADAN26"
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestERPAggregatorSummary(t *testing.T) {
	api := new(mockERPStatsAPI)
	api.On("CountContacts", mock.Anything, "RAMADAN26").Return(int64(10), nil)
	api.On("CountContacts", mock.Anything, "RAMADAN26 | Muscat").Return(int64(6), nil)
	api.On("CountContacts", mock.Anything, "RAMADAN26 | Salalah").Return(int64(0), nil)
	api.On("CountContacts", mock.Anything, "RAMADAN26 | Sohar").Return(int64(4), nil)
	api.On("ListNotes", mock.Anything, delivery.AttributionPrefix).Return([]delivery.ERPNote{
		{ID: 1, Text: "Created by Fatma"},
		{ID: 2, Text: "Created by Fatma"},
		{ID: 3, Text: "Created by Said"},
		{ID: 4, Text: "Follow-up call scheduled"},
	}, nil)

	agg := NewERPAggregator(api, []string{"Muscat", "Salalah", "Sohar"}, testLogger())
	stats, err := agg.Summary(context.Background(), "")

	assert.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalCoupons)

	// Zero-count branches are dropped, the rest sorted by count descending.
	assert.Len(t, stats.ByBranch, 2)
	assert.Equal(t, "Muscat", stats.ByBranch[0].Branch)
	assert.Equal(t, int64(6), stats.ByBranch[0].Count)
	assert.Equal(t, "Sohar", stats.ByBranch[1].Branch)

	// Notes that do not match the attribution pattern are excluded.
	assert.Len(t, stats.ByStaff, 2)
	assert.Equal(t, "Fatma", stats.ByStaff[0].Name)
	assert.Equal(t, int64(2), stats.ByStaff[0].Count)
	assert.Equal(t, "Said", stats.ByStaff[1].Name)
	assert.Equal(t, int64(1), stats.ByStaff[1].Count)
}

func TestERPAggregatorCountFailure(t *testing.T) {
	api := new(mockERPStatsAPI)
	api.On("CountContacts", mock.Anything, "RAMADAN26").Return(int64(0), assert.AnError)

	agg := NewERPAggregator(api, []string{"Muscat"}, testLogger())
	stats, err := agg.Summary(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, stats)
}
