package stats

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/delivery"
	"coupon-issuance-service/internal/models"
)

// erpStatsAPI is the slice of the ERP client the aggregator needs.
type erpStatsAPI interface {
	CountContacts(ctx context.Context, search string) (int64, error)
	ListNotes(ctx context.Context, search string) ([]delivery.ERPNote, error)
	CampaignTag() string
}

// attributionPattern recovers the staff name from an audit note body.
// Notes that do not match are excluded from the breakdown; the ERP holds
// no staff-id column on contacts, so the note text is the only
// attribution channel.
var attributionPattern = regexp.MustCompile("^" + regexp.QuoteMeta(delivery.AttributionPrefix) + "(.+)$")

// ERPAggregator derives statistics from the ERP's contact and note
// records instead of the local database. Delivery sent/failed splits are
// not observable remotely and are reported as zero.
type ERPAggregator struct {
	api erpStatsAPI
	// branches bounds the per-branch count queries to the known branch
	// set; one count query is issued per branch.
	branches []string
	logger   *logrus.Entry
}

func NewERPAggregator(api erpStatsAPI, branches []string, logger *logrus.Logger) *ERPAggregator {
	return &ERPAggregator{
		api:      api,
		branches: branches,
		logger:   logger.WithField("component", "stats.erp"),
	}
}

func (a *ERPAggregator) Summary(ctx context.Context, date string) (*models.StatsResponse, error) {
	if date != "" {
		a.logger.WithField("date", date).Warn("Date filter is not supported by the ERP contact search; returning campaign totals")
	}

	tag := a.api.CampaignTag()

	total, err := a.api.CountContacts(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("count campaign contacts: %w", err)
	}

	stats := &models.StatsResponse{
		TotalCoupons: total,
		ByBranch:     []models.BranchCount{},
		ByStaff:      []models.StaffCount{},
	}

	for _, branch := range a.branches {
		count, err := a.api.CountContacts(ctx, fmt.Sprintf("%s | %s", tag, branch))
		if err != nil {
			return nil, fmt.Errorf("count branch %q contacts: %w", branch, err)
		}
		if count == 0 {
			continue
		}
		stats.ByBranch = append(stats.ByBranch, models.BranchCount{Branch: branch, Count: count})
	}
	sort.Slice(stats.ByBranch, func(i, j int) bool {
		return stats.ByBranch[i].Count > stats.ByBranch[j].Count
	})

	notes, err := a.api.ListNotes(ctx, delivery.AttributionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list attribution notes: %w", err)
	}

	byStaff := make(map[string]int64)
	for _, note := range notes {
		match := attributionPattern.FindStringSubmatch(note.Text)
		if match == nil {
			continue
		}
		byStaff[match[1]]++
	}
	for name, count := range byStaff {
		stats.ByStaff = append(stats.ByStaff, models.StaffCount{Name: name, Count: count})
	}
	sort.Slice(stats.ByStaff, func(i, j int) bool {
		if stats.ByStaff[i].Count != stats.ByStaff[j].Count {
			return stats.ByStaff[i].Count > stats.ByStaff[j].Count
		}
		return stats.ByStaff[i].Name < stats.ByStaff[j].Name
	})

	return stats, nil
}
