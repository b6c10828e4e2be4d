package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Code      string          `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Price     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

type ProductRepository interface {
	Create(p *Product) error
	FindByID(id string) (*Product, error)
	List() ([]Product, error)
	Update(p *Product) error
	Delete(id string) error
}
