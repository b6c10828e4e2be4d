package repo

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

// StatsRepo dashboard 的聚合查询，只读
type StatsRepo struct{ db *gorm.DB }

func NewStatsRepo(db *gorm.DB) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) SumOpportunityValue(scope domain.Scope, statuses []string) (decimal.Decimal, error) {
	var out decimal.NullDecimal
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "owner_id")
	err := q.Select("SUM(value)").Where("status IN ?", statuses).Scan(&out).Error
	if err != nil || !out.Valid {
		return decimal.Zero, err
	}
	return out.Decimal, nil
}

func (r *StatsRepo) CountOpportunities(scope domain.Scope, status string) (int64, error) {
	var n int64
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "owner_id")
	err := q.Where("status = ?", status).Count(&n).Error
	return n, err
}

// RevenueByStage OPEN 机会按阶段名汇总，金额升序
func (r *StatsRepo) RevenueByStage(scope domain.Scope) ([]domain.StageRevenue, error) {
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "opportunities.owner_id")
	var rows []domain.StageRevenue
	err := q.
		Joins("JOIN pipeline_stages ON pipeline_stages.id = opportunities.stage_id").
		Where("opportunities.status = ?", domain.StatusOpen).
		Select("pipeline_stages.name AS name, SUM(opportunities.value) AS value").
		Group("pipeline_stages.name").
		Order("value asc").
		Scan(&rows).Error
	return rows, err
}

func (r *StatsRepo) UpcomingDeals(scope domain.Scope, from time.Time, limit int) ([]domain.DealDigest, error) {
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "owner_id")
	var rows []domain.DealDigest
	err := q.
		Where("status = ? AND expected_close_date >= ?", domain.StatusOpen, from).
		Select("id, title, expected_close_date, value").
		Order("expected_close_date asc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *StatsRepo) WonSalesSince(scope domain.Scope, since time.Time) ([]domain.WonSale, error) {
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "owner_id")
	var rows []domain.WonSale
	err := q.
		Where("status = ? AND updated_at >= ?", domain.StatusWon, since).
		Select("updated_at, value").
		Order("updated_at asc").
		Scan(&rows).Error
	return rows, err
}

var _ domain.StatsRepository = (*StatsRepo)(nil)
