package service

import (
	"crm-pipeline/internal/domain"
)

// ProductService 产品删除带引用保护：仍被机会条目引用时拒绝
type ProductService struct {
	products domain.ProductRepository
	items    domain.ItemRepository
}

func NewProductService(products domain.ProductRepository, items domain.ItemRepository) *ProductService {
	return &ProductService{products: products, items: items}
}

func (s *ProductService) Delete(id string) error {
	p, err := s.products.FindByID(id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.NotFound("product", id)
	}
	n, err := s.items.CountByProduct(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Referential("product is referenced by %d opportunity items", n)
	}
	return s.products.Delete(id)
}
