package domain

import "time"

// 阶段的生命周期分类，驱动机会状态自动推导
const (
	StageCategoryOpen = "OPEN"
	StageCategoryWon  = "WON"
	StageCategoryLost = "LOST"
)

func ValidStageCategory(c string) bool {
	return c == StageCategoryOpen || c == StageCategoryWon || c == StageCategoryLost
}

type PipelineStage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	Category  string    `gorm:"size:10;not null;default:OPEN" json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PipelineStage) TableName() string { return "pipeline_stages" }

type StageRepository interface {
	Create(s *PipelineStage) error
	FindByID(id string) (*PipelineStage, error)
	List() ([]PipelineStage, error)
	Update(s *PipelineStage) error
	// Delete 仍被机会引用时必须拒绝（ReferentialError）
	Delete(id string) error
}
