package domain

import "time"

// 任务优先级
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	OpportunityID string    `gorm:"size:36;not null;index" json:"opportunityId"`
	AssignedToID  string    `gorm:"size:36;not null;index" json:"assignedToId"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	DueDate       time.Time `gorm:"not null" json:"dueDate"`
	Completed     bool      `gorm:"not null;default:false" json:"completed"`
	Priority      string    `gorm:"size:10;not null;default:MEDIUM" json:"priority"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

type TaskRepository interface {
	Create(t *Task) error
	FindByID(id string) (*Task, error)
	// ListForUser 任务列表始终以 assignee 为 scope
	ListForUser(userID, opportunityID string, offset, limit int) ([]Task, int64, error)
	Save(t *Task) error
	Delete(id string) error
	// PendingForUser 未完成任务，按到期时间升序，给 dashboard 用
	PendingForUser(userID string, limit int) ([]Task, error)
}
