package service

import (
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
)

// 内存版仓储，服务层测试共用

type fakeOppRepo struct {
	byID     map[string]*domain.Opportunity
	cascaded []string // DeleteCascade 的调用顺序
}

func newFakeOppRepo() *fakeOppRepo {
	return &fakeOppRepo{byID: map[string]*domain.Opportunity{}}
}

func (r *fakeOppRepo) Create(o *domain.Opportunity) error {
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *fakeOppRepo) FindByID(id string) (*domain.Opportunity, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOppRepo) List(scope domain.Scope, f domain.OpportunityFilter) ([]domain.Opportunity, int64, error) {
	var out []domain.Opportunity
	for _, o := range r.byID {
		if !scope.All() && o.OwnerID != scope.OwnerID {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOppRepo) Save(o *domain.Opportunity) error {
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *fakeOppRepo) DeleteCascade(id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.NotFound("opportunity", id)
	}
	r.cascaded = append(r.cascaded, id)
	delete(r.byID, id)
	return nil
}

func (r *fakeOppRepo) IDsByCustomer(customerID string) ([]string, error) {
	var ids []string
	for _, o := range r.byID {
		if o.CustomerID == customerID {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

func (r *fakeOppRepo) ExportRows(scope domain.Scope) ([]domain.ExportRow, error) { return nil, nil }

func (r *fakeOppRepo) DueOn(day time.Time) ([]domain.Opportunity, error) { return nil, nil }

type fakeStageRepo struct {
	byID map[string]*domain.PipelineStage
}

func newFakeStageRepo(stages ...*domain.PipelineStage) *fakeStageRepo {
	r := &fakeStageRepo{byID: map[string]*domain.PipelineStage{}}
	for _, s := range stages {
		r.byID[s.ID] = s
	}
	return r
}

func (r *fakeStageRepo) Create(s *domain.PipelineStage) error { r.byID[s.ID] = s; return nil }
func (r *fakeStageRepo) FindByID(id string) (*domain.PipelineStage, error) {
	return r.byID[id], nil
}
func (r *fakeStageRepo) List() ([]domain.PipelineStage, error) {
	var out []domain.PipelineStage
	for _, s := range r.byID {
		out = append(out, *s)
	}
	return out, nil
}
func (r *fakeStageRepo) Update(s *domain.PipelineStage) error { r.byID[s.ID] = s; return nil }
func (r *fakeStageRepo) Delete(id string) error               { delete(r.byID, id); return nil }

type fakeActivityRepo struct {
	created []*domain.Activity
}

func (r *fakeActivityRepo) Create(a *domain.Activity) error {
	r.created = append(r.created, a)
	return nil
}

func (r *fakeActivityRepo) List(scope domain.Scope, f domain.ActivityFilter) ([]domain.Activity, int64, error) {
	return nil, 0, nil
}

type fakeItemRepo struct {
	byID map[string]*domain.OpportunityItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{byID: map[string]*domain.OpportunityItem{}}
}

func (r *fakeItemRepo) Create(it *domain.OpportunityItem) error {
	cp := *it
	r.byID[it.ID] = &cp
	return nil
}

func (r *fakeItemRepo) FindByID(id string) (*domain.OpportunityItem, error) {
	it, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) ListByOpportunity(oppID string) ([]domain.OpportunityItem, error) {
	var out []domain.OpportunityItem
	for _, it := range r.byID {
		if it.OpportunityID == oppID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) Save(it *domain.OpportunityItem) error {
	cp := *it
	r.byID[it.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Delete(id string) error { delete(r.byID, id); return nil }

func (r *fakeItemRepo) SumByOpportunity(oppID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, it := range r.byID {
		if it.OpportunityID == oppID {
			sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return sum, nil
}

func (r *fakeItemRepo) CountByProduct(productID string) (int64, error) {
	var n int64
	for _, it := range r.byID {
		if it.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type fakeProductRepo struct {
	byID map[string]*domain.Product
}

func newFakeProductRepo(ps ...*domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{byID: map[string]*domain.Product{}}
	for _, p := range ps {
		r.byID[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(p *domain.Product) error { r.byID[p.ID] = p; return nil }
func (r *fakeProductRepo) FindByID(id string) (*domain.Product, error) {
	return r.byID[id], nil
}
func (r *fakeProductRepo) List() ([]domain.Product, error) { return nil, nil }
func (r *fakeProductRepo) Update(p *domain.Product) error  { r.byID[p.ID] = p; return nil }
func (r *fakeProductRepo) Delete(id string) error          { delete(r.byID, id); return nil }

type fakeCustomerRepo struct {
	byID         map[string]*domain.Customer
	byEmail      map[string]*domain.Customer
	createdCount int64
}

func newFakeCustomerRepo(cs ...*domain.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{
		byID:    map[string]*domain.Customer{},
		byEmail: map[string]*domain.Customer{},
	}
	for _, c := range cs {
		_ = r.Create(c)
	}
	return r
}

func (r *fakeCustomerRepo) Create(c *domain.Customer) error {
	r.byID[c.ID] = c
	if c.Email != "" {
		r.byEmail[c.Email] = c
	}
	return nil
}

func (r *fakeCustomerRepo) FindByID(id string) (*domain.Customer, error) {
	return r.byID[id], nil
}

func (r *fakeCustomerRepo) GetOrCreateByEmail(email string, defaults *domain.Customer) (*domain.Customer, bool, error) {
	if email != "" {
		if c, ok := r.byEmail[email]; ok {
			return c, false, nil
		}
	}
	cp := *defaults
	cp.Email = email
	_ = r.Create(&cp)
	return &cp, true, nil
}

func (r *fakeCustomerRepo) List(search string, offset, limit int) ([]domain.Customer, int64, error) {
	return nil, 0, nil
}
func (r *fakeCustomerRepo) Update(c *domain.Customer) error { return r.Create(c) }
func (r *fakeCustomerRepo) Delete(id string) error {
	c := r.byID[id]
	delete(r.byID, id)
	if c != nil && c.Email != "" {
		delete(r.byEmail, c.Email)
	}
	return nil
}
func (r *fakeCustomerRepo) CountCreatedSince(t time.Time) (int64, error) {
	return r.createdCount, nil
}

type fakeTaskRepo struct {
	byID    map[string]*domain.Task
	pending []domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{byID: map[string]*domain.Task{}}
}

func (r *fakeTaskRepo) Create(t *domain.Task) error {
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(id string) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) ListForUser(userID, opportunityID string, offset, limit int) ([]domain.Task, int64, error) {
	var out []domain.Task
	for _, t := range r.byID {
		if t.AssignedToID != userID {
			continue
		}
		if opportunityID != "" && t.OpportunityID != opportunityID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTaskRepo) Save(t *domain.Task) error {
	cp := *t
	r.byID[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Delete(id string) error { delete(r.byID, id); return nil }

func (r *fakeTaskRepo) PendingForUser(userID string, limit int) ([]domain.Task, error) {
	return r.pending, nil
}

type fakeUserRepo struct {
	byID       map[string]*domain.User
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{
		byID:       map[string]*domain.User{},
		byUsername: map[string]*domain.User{},
		byEmail:    map[string]*domain.User{},
	}
	for _, u := range users {
		r.index(u)
	}
	return r
}

func (r *fakeUserRepo) index(u *domain.User) {
	r.byID[u.ID] = u
	r.byUsername[u.Username] = u
	if u.Email != "" {
		r.byEmail[u.Email] = u
	}
}

func (r *fakeUserRepo) Create(u *domain.User) error { r.index(u); return nil }
func (r *fakeUserRepo) FindByID(id string) (*domain.User, error) {
	return r.byID[id], nil
}
func (r *fakeUserRepo) FindByUsername(username string) (*domain.User, error) {
	return r.byUsername[username], nil
}
func (r *fakeUserRepo) FindByEmail(email string) (*domain.User, error) {
	return r.byEmail[email], nil
}
func (r *fakeUserRepo) List(offset, limit int) ([]domain.User, int64, error) {
	return nil, 0, nil
}
func (r *fakeUserRepo) Update(u *domain.User) error { r.index(u); return nil }
func (r *fakeUserRepo) Delete(id string) error      { delete(r.byID, id); return nil }

// fakeSender 收集发出的通知
type fakeSender struct {
	to      []string
	subject []string
	body    []string
}

func (s *fakeSender) Send(to, subject, body string) {
	s.to = append(s.to, to)
	s.subject = append(s.subject, subject)
	s.body = append(s.body, body)
}
