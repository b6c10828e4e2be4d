package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"crm-pipeline/internal/domain"
	"crm-pipeline/pkg/utils"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) Create(c *domain.Customer) error { return r.db.Create(c).Error }

func (r *CustomerRepo) FindByID(id string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *CustomerRepo) GetOrCreateByEmail(email string, defaults *domain.Customer) (*domain.Customer, bool, error) {
	if email != "" {
		var c domain.Customer
		err := r.db.First(&c, "email = ?", email).Error
		if err == nil {
			return &c, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}
	c := *defaults
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	c.Email = email
	if err := r.db.Create(&c).Error; err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (r *CustomerRepo) List(search string, offset, limit int) ([]domain.Customer, int64, error) {
	q := r.db.Model(&domain.Customer{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cs []domain.Customer
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&cs).Error; err != nil {
		return nil, 0, err
	}
	return cs, total, nil
}

func (r *CustomerRepo) Update(c *domain.Customer) error { return r.db.Save(c).Error }

func (r *CustomerRepo) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Customer{}).Error
}

func (r *CustomerRepo) CountCreatedSince(t time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Customer{}).Where("created_at >= ?", t).Count(&n).Error
	return n, err
}
