package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type OpportunityRepo struct{ db *gorm.DB }

func NewOpportunityRepo(db *gorm.DB) *OpportunityRepo { return &OpportunityRepo{db: db} }

func (r *OpportunityRepo) Create(o *domain.Opportunity) error { return r.db.Create(o).Error }

func (r *OpportunityRepo) FindByID(id string) (*domain.Opportunity, error) {
	var o domain.Opportunity
	err := r.db.Preload("Stage").Preload("Customer").First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &o, err
}

func (r *OpportunityRepo) List(scope domain.Scope, f domain.OpportunityFilter) ([]domain.Opportunity, int64, error) {
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "opportunities.owner_id")
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("LEFT JOIN customers ON customers.id = opportunities.customer_id").
			Where("opportunities.title LIKE ? OR customers.name LIKE ?", like, like)
	}
	if f.Status != "" {
		q = q.Where("opportunities.status = ?", f.Status)
	}
	if f.StageID != "" {
		q = q.Where("opportunities.stage_id = ?", f.StageID)
	}
	if f.CustomerID != "" {
		q = q.Where("opportunities.customer_id = ?", f.CustomerID)
	}
	if f.OwnerID != "" {
		q = q.Where("opportunities.owner_id = ?", f.OwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var os []domain.Opportunity
	err := q.Preload("Stage").Preload("Customer").
		Order("opportunities.created_at desc").
		Offset(f.Offset).Limit(f.Limit).
		Find(&os).Error
	if err != nil {
		return nil, 0, err
	}
	return os, total, nil
}

func (r *OpportunityRepo) Save(o *domain.Opportunity) error {
	// Save 不带关联，避免把 Preload 进来的 Stage/Customer 再写一遍
	return r.db.Omit("Stage", "Customer", "Owner").Save(o).Error
}

// DeleteCascade 聚合根删除：一个事务里先删子记录再删机会本身
func (r *OpportunityRepo) DeleteCascade(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("opportunity_id = ?", id).Delete(&domain.OpportunityItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&domain.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Opportunity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("opportunity", id)
		}
		return nil
	})
}

func (r *OpportunityRepo) IDsByCustomer(customerID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.Opportunity{}).
		Where("customer_id = ?", customerID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *OpportunityRepo) ExportRows(scope domain.Scope) ([]domain.ExportRow, error) {
	var os []domain.Opportunity
	q := applyScope(r.db.Model(&domain.Opportunity{}), scope, "owner_id")
	if err := q.Preload("Stage").Preload("Customer").Preload("Owner").
		Order("created_at asc").Find(&os).Error; err != nil {
		return nil, err
	}
	rows := make([]domain.ExportRow, 0, len(os))
	for _, o := range os {
		row := domain.ExportRow{
			ID:        o.ID,
			Title:     o.Title,
			Value:     o.Value,
			CloseDate: o.ExpectedCloseDate,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
		}
		if o.Customer != nil {
			row.CustomerName = o.Customer.Name
		}
		if o.Stage != nil {
			row.StageName = o.Stage.Name
		}
		if o.Owner != nil {
			row.OwnerName = o.Owner.Username
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *OpportunityRepo) DueOn(day time.Time) ([]domain.Opportunity, error) {
	var os []domain.Opportunity
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	err := r.db.Preload("Owner").
		Where("status = ? AND expected_close_date >= ? AND expected_close_date < ?",
			domain.StatusOpen, start, start.AddDate(0, 0, 1)).
		Find(&os).Error
	return os, err
}
