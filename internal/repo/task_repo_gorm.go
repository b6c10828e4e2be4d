package repo

import (
	"errors"

	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type TaskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) *TaskRepo { return &TaskRepo{db: db} }

func (r *TaskRepo) Create(t *domain.Task) error { return r.db.Create(t).Error }

func (r *TaskRepo) FindByID(id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (r *TaskRepo) ListForUser(userID, opportunityID string, offset, limit int) ([]domain.Task, int64, error) {
	q := r.db.Model(&domain.Task{}).Where("assigned_to_id = ?", userID)
	if opportunityID != "" {
		q = q.Where("opportunity_id = ?", opportunityID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ts []domain.Task
	if err := q.Order("due_date asc").Offset(offset).Limit(limit).Find(&ts).Error; err != nil {
		return nil, 0, err
	}
	return ts, total, nil
}

func (r *TaskRepo) Save(t *domain.Task) error { return r.db.Save(t).Error }

func (r *TaskRepo) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("task", id)
	}
	return nil
}

func (r *TaskRepo) PendingForUser(userID string, limit int) ([]domain.Task, error) {
	var ts []domain.Task
	err := r.db.Where("assigned_to_id = ? AND completed = ?", userID, false).
		Order("due_date asc").Limit(limit).Find(&ts).Error
	return ts, err
}
