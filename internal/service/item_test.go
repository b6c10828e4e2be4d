package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
)

var widget = &domain.Product{ID: "p-widget", Name: "Widget", Code: "WID", Price: decimal.NewFromInt(100), Active: true}

func newItemFixture(t *testing.T) (*ItemService, *fakeOppRepo, *fakeItemRepo) {
	t.Helper()
	opps := newFakeOppRepo()
	items := newFakeItemRepo()
	svc := NewItemService(items, opps, newFakeProductRepo(widget))

	o := &domain.Opportunity{
		ID:                "opp-1",
		Title:             "Big deal",
		Value:             decimal.Zero,
		ExpectedCloseDate: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Status:            domain.StatusOpen,
		StageID:           "st-lead",
		OwnerID:           "u-rep",
		CustomerID:        "cust-1",
	}
	if err := opps.Create(o); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc, opps, items
}

func oppValue(t *testing.T, opps *fakeOppRepo, id string) decimal.Decimal {
	t.Helper()
	o, err := opps.FindByID(id)
	if err != nil || o == nil {
		t.Fatalf("FindByID(%s): %v %v", id, o, err)
	}
	return o.Value
}

func TestAddRecomputesOpportunityValue(t *testing.T) {
	svc, opps, _ := newItemFixture(t)

	price50 := decimal.NewFromInt(50)
	if _, err := svc.Add("opp-1", widget.ID, 2, nil); err != nil { // 2 × 目录价 100
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add("opp-1", widget.ID, 1, &price50); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v := oppValue(t, opps, "opp-1"); !v.Equal(decimal.NewFromInt(250)) {
		t.Errorf("value = %s, want 250", v)
	}
}

func TestAddDefaultsUnitPriceFromCatalog(t *testing.T) {
	svc, _, _ := newItemFixture(t)

	it, err := svc.Add("opp-1", widget.ID, 1, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !it.UnitPrice.Equal(widget.Price) {
		t.Errorf("unitPrice = %s, want catalog price %s", it.UnitPrice, widget.Price)
	}
}

func TestUpdateItemRecomputes(t *testing.T) {
	svc, opps, _ := newItemFixture(t)

	it, err := svc.Add("opp-1", widget.ID, 2, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	q := 5
	if _, err := svc.Update(it.ID, ItemPatch{Quantity: &q}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v := oppValue(t, opps, "opp-1"); !v.Equal(decimal.NewFromInt(500)) {
		t.Errorf("value = %s, want 500", v)
	}
}

func TestRemoveLastItemZeroesValue(t *testing.T) {
	svc, opps, _ := newItemFixture(t)

	it, err := svc.Add("opp-1", widget.ID, 3, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Remove(it.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if v := oppValue(t, opps, "opp-1"); !v.IsZero() {
		t.Errorf("value = %s, want 0 after last item removed", v)
	}
}

func TestAddValidation(t *testing.T) {
	svc, _, _ := newItemFixture(t)

	var valErr *domain.ValidationError
	if _, err := svc.Add("opp-1", widget.ID, 0, nil); !errors.As(err, &valErr) {
		t.Errorf("quantity 0: err = %v, want ValidationError", err)
	}
	neg := decimal.NewFromInt(-1)
	if _, err := svc.Add("opp-1", widget.ID, 1, &neg); !errors.As(err, &valErr) {
		t.Errorf("negative price: err = %v, want ValidationError", err)
	}

	var nf *domain.NotFoundError
	if _, err := svc.Add("opp-nope", widget.ID, 1, nil); !errors.As(err, &nf) {
		t.Errorf("missing opportunity: err = %v, want NotFoundError", err)
	}
	var refErr *domain.ReferentialError
	if _, err := svc.Add("opp-1", "p-nope", 1, nil); !errors.As(err, &refErr) {
		t.Errorf("missing product: err = %v, want ReferentialError", err)
	}
}
