package repo

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type ItemRepo struct{ db *gorm.DB }

func NewItemRepo(db *gorm.DB) *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) Create(it *domain.OpportunityItem) error { return r.db.Create(it).Error }

func (r *ItemRepo) FindByID(id string) (*domain.OpportunityItem, error) {
	var it domain.OpportunityItem
	err := r.db.First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &it, err
}

func (r *ItemRepo) ListByOpportunity(oppID string) ([]domain.OpportunityItem, error) {
	var its []domain.OpportunityItem
	err := r.db.Preload("Product").Where("opportunity_id = ?", oppID).
		Order("created_at asc").Find(&its).Error
	return its, err
}

func (r *ItemRepo) Save(it *domain.OpportunityItem) error {
	return r.db.Omit("Product").Save(it).Error
}

func (r *ItemRepo) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.OpportunityItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("opportunity item", id)
	}
	return nil
}

func (r *ItemRepo) SumByOpportunity(oppID string) (decimal.Decimal, error) {
	var out decimal.NullDecimal
	err := r.db.Model(&domain.OpportunityItem{}).
		Select("SUM(quantity * unit_price)").
		Where("opportunity_id = ?", oppID).
		Scan(&out).Error
	if err != nil || !out.Valid {
		return decimal.Zero, err
	}
	return out.Decimal, nil
}

func (r *ItemRepo) CountByProduct(productID string) (int64, error) {
	var n int64
	err := r.db.Model(&domain.OpportunityItem{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}
