package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// dashboard 是只读统计，字段名是前端契约，保持 snake_case

type StageRevenue struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type DealDigest struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	ExpectedCloseDate time.Time       `json:"expected_close_date"`
	Value             decimal.Decimal `json:"value"`
}

type MonthlySales struct {
	Month string          `json:"month"` // MM/YYYY
	Sales decimal.Decimal `json:"sales"`
}

type DashboardStats struct {
	ExpectedRevenue   decimal.Decimal `json:"expected_revenue"`
	OpenDealsCount    int64           `json:"open_deals_count"`
	NewCustomersCount int64           `json:"new_customers_count"`
	WinRate           float64         `json:"win_rate"`
	RevenueByStage    []StageRevenue  `json:"revenue_by_stage"`
	UpcomingDeals     []DealDigest    `json:"upcoming_deals"`
	MyTasks           []Task          `json:"my_tasks"`
	RepPerformance    []MonthlySales  `json:"rep_performance"`
}

// WonSale WON 机会的 (最后更新时间, 金额)，月度聚合在服务层做，
// 避免依赖各数据库方言的月份截断函数
type WonSale struct {
	UpdatedAt time.Time
	Value     decimal.Decimal
}

type StatsRepository interface {
	SumOpportunityValue(scope Scope, statuses []string) (decimal.Decimal, error)
	CountOpportunities(scope Scope, status string) (int64, error)
	RevenueByStage(scope Scope) ([]StageRevenue, error)
	UpcomingDeals(scope Scope, from time.Time, limit int) ([]DealDigest, error)
	WonSalesSince(scope Scope, since time.Time) ([]WonSale, error)
}
