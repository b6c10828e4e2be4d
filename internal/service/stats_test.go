package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
)

// fakeStatsRepo 记录收到的 scope，便于断言角色可见域
type fakeStatsRepo struct {
	scopes   []domain.Scope
	expected decimal.Decimal
	open     int64
	won      int64
	lost     int64
	byStage  []domain.StageRevenue
	upcoming []domain.DealDigest
	sales    []domain.WonSale

	sinceArg time.Time
}

func (r *fakeStatsRepo) SumOpportunityValue(scope domain.Scope, statuses []string) (decimal.Decimal, error) {
	r.scopes = append(r.scopes, scope)
	return r.expected, nil
}

func (r *fakeStatsRepo) CountOpportunities(scope domain.Scope, status string) (int64, error) {
	r.scopes = append(r.scopes, scope)
	switch status {
	case domain.StatusOpen:
		return r.open, nil
	case domain.StatusWon:
		return r.won, nil
	default:
		return r.lost, nil
	}
}

func (r *fakeStatsRepo) RevenueByStage(scope domain.Scope) ([]domain.StageRevenue, error) {
	r.scopes = append(r.scopes, scope)
	return r.byStage, nil
}

func (r *fakeStatsRepo) UpcomingDeals(scope domain.Scope, from time.Time, limit int) ([]domain.DealDigest, error) {
	r.scopes = append(r.scopes, scope)
	return r.upcoming, nil
}

func (r *fakeStatsRepo) WonSalesSince(scope domain.Scope, since time.Time) ([]domain.WonSale, error) {
	r.scopes = append(r.scopes, scope)
	r.sinceArg = since
	return r.sales, nil
}

func newStatsFixture(stats *fakeStatsRepo) *StatsService {
	svc := NewStatsService(stats, newFakeCustomerRepo(), newFakeTaskRepo(), 6)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDashboardWinRate(t *testing.T) {
	stats := &fakeStatsRepo{won: 2, lost: 1}
	out, err := newStatsFixture(stats).Dashboard(manager, 0)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	// 2/3 → 66.7，保留一位小数
	if out.WinRate != 66.7 {
		t.Errorf("win_rate = %v, want 66.7", out.WinRate)
	}
}

func TestDashboardWinRateZeroWhenNoClosedDeals(t *testing.T) {
	out, err := newStatsFixture(&fakeStatsRepo{}).Dashboard(manager, 0)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if out.WinRate != 0 {
		t.Errorf("win_rate = %v, want 0 with no closed deals", out.WinRate)
	}
}

func TestDashboardScopesByRole(t *testing.T) {
	stats := &fakeStatsRepo{}
	if _, err := newStatsFixture(stats).Dashboard(rep, 0); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	for i, sc := range stats.scopes {
		if sc.OwnerID != rep.ID {
			t.Errorf("query %d: scope owner = %q, want %q", i, sc.OwnerID, rep.ID)
		}
	}

	stats = &fakeStatsRepo{}
	if _, err := newStatsFixture(stats).Dashboard(manager, 0); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	for i, sc := range stats.scopes {
		if !sc.All() {
			t.Errorf("query %d: manager scope should be unrestricted, got %q", i, sc.OwnerID)
		}
	}
}

func TestDashboardMonthsWindow(t *testing.T) {
	stats := &fakeStatsRepo{}
	svc := newStatsFixture(stats)

	if _, err := svc.Dashboard(manager, 3); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	want := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -90)
	if !stats.sinceArg.Equal(want) {
		t.Errorf("since = %v, want %v (3 months back)", stats.sinceArg, want)
	}

	// months<=0 回落到默认窗口
	if _, err := svc.Dashboard(manager, 0); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	want = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -180)
	if !stats.sinceArg.Equal(want) {
		t.Errorf("since = %v, want %v (default 6 months)", stats.sinceArg, want)
	}
}

func TestDashboardNeverReturnsNilSlices(t *testing.T) {
	out, err := newStatsFixture(&fakeStatsRepo{}).Dashboard(manager, 0)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if out.RevenueByStage == nil || out.UpcomingDeals == nil || out.MyTasks == nil || out.RepPerformance == nil {
		t.Errorf("dashboard slices must be empty, not nil: %+v", out)
	}
}

func TestGroupMonthly(t *testing.T) {
	rows := []domain.WonSale{
		{UpdatedAt: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(100)},
		{UpdatedAt: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(50)},
		{UpdatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Value: decimal.NewFromInt(10)},
	}
	out := groupMonthly(rows)
	if len(out) != 2 {
		t.Fatalf("groups = %d, want 2", len(out))
	}
	if out[0].Month != "05/2026" || !out[0].Sales.Equal(decimal.NewFromInt(10)) {
		t.Errorf("out[0] = %+v", out[0])
	}
	if out[1].Month != "07/2026" || !out[1].Sales.Equal(decimal.NewFromInt(150)) {
		t.Errorf("out[1] = %+v", out[1])
	}
}
