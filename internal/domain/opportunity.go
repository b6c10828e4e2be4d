package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 机会状态
const (
	StatusOpen = "OPEN"
	StatusWon  = "WON"
	StatusLost = "LOST"
)

func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusWon || s == StatusLost
}

// Opportunity 聚合根：条目、活动、任务都随它级联删除
type Opportunity struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Value             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"value"`
	ExpectedCloseDate time.Time       `gorm:"type:date;not null" json:"expectedCloseDate"`
	Status            string          `gorm:"size:10;not null;default:OPEN" json:"status"`
	StageID           string          `gorm:"size:36;not null;index" json:"stageId"`
	Stage             *PipelineStage  `gorm:"foreignKey:StageID" json:"stage,omitempty"`
	OwnerID           string          `gorm:"size:36;not null;index" json:"ownerId"`
	Owner             *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CustomerID        string          `gorm:"size:36;not null;index" json:"customerId"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	LostReason        string          `gorm:"size:255" json:"lostReason,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (Opportunity) TableName() string { return "opportunities" }

// OpportunityItem 机会下的产品条目；单价在添加时从产品拷贝，之后只能显式修改
type OpportunityItem struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	OpportunityID string          `gorm:"size:36;not null;index" json:"opportunityId"`
	ProductID     string          `gorm:"size:36;not null;index" json:"productId"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unitPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (OpportunityItem) TableName() string { return "opportunity_items" }

// Total 派生值：数量 × 单价
func (i OpportunityItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OpportunityFilter struct {
	Search     string // 标题 / 客户名模糊
	Status     string
	StageID    string
	CustomerID string
	OwnerID    string
	Offset     int
	Limit      int
}

// ExportRow 导出 CSV 用的扁平行
type ExportRow struct {
	ID           string
	Title        string
	CustomerName string
	Value        decimal.Decimal
	CloseDate    time.Time
	StageName    string
	Status       string
	OwnerName    string
	CreatedAt    time.Time
}

type OpportunityRepository interface {
	Create(o *Opportunity) error
	FindByID(id string) (*Opportunity, error)
	List(scope Scope, f OpportunityFilter) ([]Opportunity, int64, error)
	Save(o *Opportunity) error
	// DeleteCascade 聚合根删除：同一事务内先删条目/活动/任务再删机会
	DeleteCascade(id string) error
	// IDsByCustomer 客户名下全部机会 ID，删客户时逐个级联
	IDsByCustomer(customerID string) ([]string, error)
	ExportRows(scope Scope) ([]ExportRow, error)
	// DueOn 指定日期到期且仍 OPEN 的机会（带 Owner），给提醒命令用
	DueOn(day time.Time) ([]Opportunity, error)
}

type ItemRepository interface {
	Create(it *OpportunityItem) error
	FindByID(id string) (*OpportunityItem, error)
	ListByOpportunity(oppID string) ([]OpportunityItem, error)
	Save(it *OpportunityItem) error
	Delete(id string) error
	// SumByOpportunity Σ(quantity × unit_price)，无条目时为 0
	SumByOpportunity(oppID string) (decimal.Decimal, error)
	CountByProduct(productID string) (int64, error)
}
