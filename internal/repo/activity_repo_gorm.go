package repo

import (
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type ActivityRepo struct{ db *gorm.DB }

func NewActivityRepo(db *gorm.DB) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) Create(a *domain.Activity) error { return r.db.Create(a).Error }

// List REP 只能看到自己机会下的活动，scope 通过机会的 owner 生效
func (r *ActivityRepo) List(scope domain.Scope, f domain.ActivityFilter) ([]domain.Activity, int64, error) {
	q := r.db.Model(&domain.Activity{}).
		Joins("JOIN opportunities ON opportunities.id = activities.opportunity_id")
	q = applyScope(q, scope, "opportunities.owner_id")
	if f.OpportunityID != "" {
		q = q.Where("activities.opportunity_id = ?", f.OpportunityID)
	}
	if f.CustomerID != "" {
		q = q.Where("opportunities.customer_id = ?", f.CustomerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var as []domain.Activity
	err := q.Preload("User").
		Order("activities.created_at desc").
		Offset(f.Offset).Limit(f.Limit).
		Find(&as).Error
	if err != nil {
		return nil, 0, err
	}
	return as, total, nil
}
