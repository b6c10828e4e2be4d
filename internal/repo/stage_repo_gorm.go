package repo

import (
	"errors"

	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type StageRepo struct{ db *gorm.DB }

func NewStageRepo(db *gorm.DB) *StageRepo { return &StageRepo{db: db} }

func (r *StageRepo) Create(s *domain.PipelineStage) error { return r.db.Create(s).Error }

func (r *StageRepo) FindByID(id string) (*domain.PipelineStage, error) {
	var s domain.PipelineStage
	err := r.db.First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *StageRepo) List() ([]domain.PipelineStage, error) {
	var ss []domain.PipelineStage
	err := r.db.Order("sort_order asc").Find(&ss).Error
	return ss, err
}

func (r *StageRepo) Update(s *domain.PipelineStage) error { return r.db.Save(s).Error }

// Delete 引用保护：还有机会挂在该阶段时拒绝删除
func (r *StageRepo) Delete(id string) error {
	var n int64
	if err := r.db.Model(&domain.Opportunity{}).Where("stage_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return domain.Referential("stage is referenced by %d opportunities", n)
	}
	res := r.db.Where("id = ?", id).Delete(&domain.PipelineStage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("stage", id)
	}
	return nil
}
