package service

import (
	"crm-pipeline/internal/domain"
)

// CustomerService 客户也是聚合根：删客户时名下机会连同各自的
// 条目/活动/任务一起级联删除，上层事务保证 all-or-nothing。
type CustomerService struct {
	customers domain.CustomerRepository
	opps      domain.OpportunityRepository
}

func NewCustomerService(customers domain.CustomerRepository, opps domain.OpportunityRepository) *CustomerService {
	return &CustomerService{customers: customers, opps: opps}
}

func (s *CustomerService) Delete(id string) error {
	c, err := s.customers.FindByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.NotFound("customer", id)
	}
	ids, err := s.opps.IDsByCustomer(id)
	if err != nil {
		return err
	}
	for _, oppID := range ids {
		if err := s.opps.DeleteCascade(oppID); err != nil {
			return err
		}
	}
	return s.customers.Delete(id)
}
