package repo

import (
	"errors"

	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(p *domain.Product) error { return r.db.Create(p).Error }

func (r *ProductRepo) FindByID(id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *ProductRepo) List() ([]domain.Product, error) {
	var ps []domain.Product
	err := r.db.Order("code asc").Find(&ps).Error
	return ps, err
}

func (r *ProductRepo) Update(p *domain.Product) error { return r.db.Save(p).Error }

func (r *ProductRepo) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}
