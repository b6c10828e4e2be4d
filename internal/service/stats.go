package service

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
)

// StatsService dashboard 只读统计。每次请求现算，不走缓存。
type StatsService struct {
	stats         domain.StatsRepository
	customers     domain.CustomerRepository
	tasks         domain.TaskRepository
	defaultMonths int
	now           func() time.Time
}

func NewStatsService(stats domain.StatsRepository, customers domain.CustomerRepository, tasks domain.TaskRepository, defaultMonths int) *StatsService {
	if defaultMonths <= 0 {
		defaultMonths = 6
	}
	return &StatsService{
		stats:         stats,
		customers:     customers,
		tasks:         tasks,
		defaultMonths: defaultMonths,
		now:           time.Now,
	}
}

func (s *StatsService) Dashboard(p domain.Principal, months int) (*domain.DashboardStats, error) {
	scope := domain.ScopeForUser(p)
	now := s.now()

	expected, err := s.stats.SumOpportunityValue(scope, []string{domain.StatusOpen, domain.StatusWon})
	if err != nil {
		return nil, err
	}
	open, err := s.stats.CountOpportunities(scope, domain.StatusOpen)
	if err != nil {
		return nil, err
	}
	won, err := s.stats.CountOpportunities(scope, domain.StatusWon)
	if err != nil {
		return nil, err
	}
	lost, err := s.stats.CountOpportunities(scope, domain.StatusLost)
	if err != nil {
		return nil, err
	}

	// 新客户数不随角色 scope 收窄（全局口径）
	newCustomers, err := s.customers.CountCreatedSince(now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	byStage, err := s.stats.RevenueByStage(scope)
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	upcoming, err := s.stats.UpcomingDeals(scope, today, 5)
	if err != nil {
		return nil, err
	}

	myTasks, err := s.tasks.PendingForUser(p.ID, 5)
	if err != nil {
		return nil, err
	}

	if months <= 0 {
		months = s.defaultMonths
	}
	// 回溯窗口按 30 天/月折算
	sales, err := s.stats.WonSalesSince(scope, now.AddDate(0, 0, -months*30))
	if err != nil {
		return nil, err
	}

	out := &domain.DashboardStats{
		ExpectedRevenue:   expected,
		OpenDealsCount:    open,
		NewCustomersCount: newCustomers,
		WinRate:           winRate(won, lost),
		RevenueByStage:    byStage,
		UpcomingDeals:     upcoming,
		MyTasks:           myTasks,
		RepPerformance:    groupMonthly(sales),
	}
	// JSON 里输出 [] 而不是 null
	if out.RevenueByStage == nil {
		out.RevenueByStage = []domain.StageRevenue{}
	}
	if out.UpcomingDeals == nil {
		out.UpcomingDeals = []domain.DealDigest{}
	}
	if out.MyTasks == nil {
		out.MyTasks = []domain.Task{}
	}
	return out, nil
}

// winRate won/(won+lost)×100，保留 1 位小数；分母为 0 时定义为 0
func winRate(won, lost int64) float64 {
	closed := won + lost
	if closed == 0 {
		return 0
	}
	return math.Round(float64(won)/float64(closed)*1000) / 10
}

// groupMonthly 按最后更新时间的自然月汇总，升序输出 MM/YYYY
func groupMonthly(rows []domain.WonSale) []domain.MonthlySales {
	totals := map[string]decimal.Decimal{}
	for _, r := range rows {
		key := r.UpdatedAt.Format("2006-01")
		totals[key] = totals[key].Add(r.Value)
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.MonthlySales, 0, len(keys))
	for _, k := range keys {
		t, _ := time.Parse("2006-01", k)
		out = append(out, domain.MonthlySales{
			Month: t.Format("01/2006"),
			Sales: totals[k],
		})
	}
	return out
}
