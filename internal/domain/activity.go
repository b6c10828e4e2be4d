package domain

import "time"

// 活动类型
const (
	ActivityCall    = "CALL"
	ActivityEmail   = "EMAIL"
	ActivityMeeting = "MEETING"
	ActivityNote    = "NOTE"
)

func ValidActivityType(t string) bool {
	return t == ActivityCall || t == ActivityEmail || t == ActivityMeeting || t == ActivityNote
}

// Activity 机会下的操作流水，追加写；业务上不改不删，只随聚合根级联
type Activity struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	OpportunityID string    `gorm:"size:36;not null;index" json:"opportunityId"`
	UserID        string    `gorm:"size:36;not null" json:"userId"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type          string    `gorm:"size:20;not null" json:"type"`
	Summary       string    `gorm:"type:text" json:"summary"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Activity) TableName() string { return "activities" }

type ActivityFilter struct {
	OpportunityID string
	CustomerID    string // 经机会关联到客户
	Offset        int
	Limit         int
}

type ActivityRepository interface {
	Create(a *Activity) error
	List(scope Scope, f ActivityFilter) ([]Activity, int64, error)
}
