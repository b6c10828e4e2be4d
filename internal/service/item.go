package service

import (
	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
	"crm-pipeline/pkg/utils"
)

// ItemService 机会条目台账。每次增/改/删之后都全量重算机会金额：
// value = Σ(quantity × unit_price)，不做增量更新。
type ItemService struct {
	items    domain.ItemRepository
	opps     domain.OpportunityRepository
	products domain.ProductRepository
}

func NewItemService(items domain.ItemRepository, opps domain.OpportunityRepository, products domain.ProductRepository) *ItemService {
	return &ItemService{items: items, opps: opps, products: products}
}

type ItemPatch struct {
	Quantity  *int
	UnitPrice *decimal.Decimal
}

func (s *ItemService) Add(oppID, productID string, quantity int, unitPrice *decimal.Decimal) (*domain.OpportunityItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "must be a positive integer")
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return nil, domain.Invalid("unitPrice", "must not be negative")
	}
	opp, err := s.opps.FindByID(oppID)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, domain.NotFound("opportunity", oppID)
	}
	prod, err := s.products.FindByID(productID)
	if err != nil {
		return nil, err
	}
	if prod == nil {
		return nil, domain.Referential("product %s does not exist", productID)
	}

	// 单价默认取产品目录价，之后不随产品价变动
	price := prod.Price
	if unitPrice != nil {
		price = *unitPrice
	}
	it := &domain.OpportunityItem{
		ID:            utils.NewID(),
		OpportunityID: opp.ID,
		ProductID:     prod.ID,
		Quantity:      quantity,
		UnitPrice:     price,
	}
	if err := s.items.Create(it); err != nil {
		return nil, err
	}
	if err := s.recompute(opp); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *ItemService) Update(itemID string, p ItemPatch) (*domain.OpportunityItem, error) {
	it, err := s.items.FindByID(itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, domain.NotFound("opportunity item", itemID)
	}
	if p.Quantity != nil {
		if *p.Quantity < 1 {
			return nil, domain.Invalid("quantity", "must be a positive integer")
		}
		it.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		if p.UnitPrice.IsNegative() {
			return nil, domain.Invalid("unitPrice", "must not be negative")
		}
		it.UnitPrice = *p.UnitPrice
	}
	if err := s.items.Save(it); err != nil {
		return nil, err
	}
	if err := s.recomputeByID(it.OpportunityID); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *ItemService) Remove(itemID string) error {
	it, err := s.items.FindByID(itemID)
	if err != nil {
		return err
	}
	if it == nil {
		return domain.NotFound("opportunity item", itemID)
	}
	if err := s.items.Delete(itemID); err != nil {
		return err
	}
	// 删掉最后一条后金额归零，而不是保留旧值
	return s.recomputeByID(it.OpportunityID)
}

func (s *ItemService) ListByOpportunity(oppID string) ([]domain.OpportunityItem, error) {
	return s.items.ListByOpportunity(oppID)
}

func (s *ItemService) recomputeByID(oppID string) error {
	opp, err := s.opps.FindByID(oppID)
	if err != nil {
		return err
	}
	if opp == nil {
		return domain.NotFound("opportunity", oppID)
	}
	return s.recompute(opp)
}

func (s *ItemService) recompute(opp *domain.Opportunity) error {
	total, err := s.items.SumByOpportunity(opp.ID)
	if err != nil {
		return err
	}
	opp.Value = total
	return s.opps.Save(opp)
}
