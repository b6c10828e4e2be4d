package service

import (
	"errors"
	"testing"

	"crm-pipeline/internal/domain"
)

func TestProductDeleteRefusedWhileReferenced(t *testing.T) {
	products := newFakeProductRepo(&domain.Product{ID: "prod-1", Name: "Widget", Code: "WID"})
	items := newFakeItemRepo()
	if err := items.Create(&domain.OpportunityItem{ID: "it-1", OpportunityID: "opp-1", ProductID: "prod-1", Quantity: 2}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewProductService(products, items)

	var refErr *domain.ReferentialError
	if err := svc.Delete("prod-1"); !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialError", err)
	}
	if got, _ := products.FindByID("prod-1"); got == nil {
		t.Errorf("product removed despite live references")
	}

	// 引用清空后允许删除
	if err := items.Delete("it-1"); err != nil {
		t.Fatalf("clear reference: %v", err)
	}
	if err := svc.Delete("prod-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := products.FindByID("prod-1"); got != nil {
		t.Errorf("product still present after delete")
	}
}

func TestProductDeleteUnknownIsNotFound(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), newFakeItemRepo())

	var nf *domain.NotFoundError
	if err := svc.Delete("prod-nope"); !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
