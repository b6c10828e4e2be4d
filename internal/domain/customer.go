package domain

import "time"

type Customer struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:191;index" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

type CustomerRepository interface {
	Create(c *Customer) error
	FindByID(id string) (*Customer, error)
	// GetOrCreateByEmail CSV 导入的去重语义：按 email 找到则返回 created=false，
	// 找不到则用 defaults 建一条
	GetOrCreateByEmail(email string, defaults *Customer) (c *Customer, created bool, err error)
	List(search string, offset, limit int) ([]Customer, int64, error)
	Update(c *Customer) error
	Delete(id string) error
	CountCreatedSince(t time.Time) (int64, error)
}
