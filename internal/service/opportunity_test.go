package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crm-pipeline/internal/domain"
)

var (
	stageLead = &domain.PipelineStage{ID: "st-lead", Name: "Lead", SortOrder: 1, Category: domain.StageCategoryOpen}
	stageWon  = &domain.PipelineStage{ID: "st-won", Name: "Closed Won", SortOrder: 5, Category: domain.StageCategoryWon}
	stageLost = &domain.PipelineStage{ID: "st-lost", Name: "Closed Lost", SortOrder: 6, Category: domain.StageCategoryLost}

	manager = domain.Principal{ID: "u-mgr", Username: "mgr", Role: domain.RoleManager}
	rep     = domain.Principal{ID: "u-rep", Username: "rep", Role: domain.RoleRep}
)

func newOppFixture(t *testing.T) (*OpportunityService, *fakeOppRepo, *fakeActivityRepo) {
	t.Helper()
	opps := newFakeOppRepo()
	acts := &fakeActivityRepo{}
	customers := newFakeCustomerRepo(&domain.Customer{ID: "cust-1", Name: "Acme"})
	svc := NewOpportunityService(opps, newFakeStageRepo(stageLead, stageWon, stageLost), customers, acts)
	return svc, opps, acts
}

func seedOpp(t *testing.T, opps *fakeOppRepo, owner string) *domain.Opportunity {
	t.Helper()
	o := &domain.Opportunity{
		ID:                "opp-1",
		Title:             "Big deal",
		Value:             decimal.NewFromInt(1000),
		ExpectedCloseDate: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Status:            domain.StatusOpen,
		StageID:           stageLead.ID,
		Stage:             stageLead,
		OwnerID:           owner,
		CustomerID:        "cust-1",
	}
	if err := opps.Create(o); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return o
}

func TestCreateDefaultsToOpenAndActorOwnership(t *testing.T) {
	svc, _, _ := newOppFixture(t)

	o, err := svc.Create(rep, CreateOpportunityInput{
		Title:             "New deal",
		Value:             decimal.NewFromInt(500),
		ExpectedCloseDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		StageID:           stageLead.ID,
		CustomerID:        "cust-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != domain.StatusOpen {
		t.Errorf("status = %q, want OPEN", o.Status)
	}
	if o.OwnerID != rep.ID {
		t.Errorf("owner = %q, want actor %q", o.OwnerID, rep.ID)
	}
}

func TestCreateRejectsUnknownStage(t *testing.T) {
	svc, _, _ := newOppFixture(t)

	_, err := svc.Create(rep, CreateOpportunityInput{
		Title:             "New deal",
		Value:             decimal.NewFromInt(500),
		ExpectedCloseDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		StageID:           "st-nope",
		CustomerID:        "cust-1",
	})
	var refErr *domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialError", err)
	}
}

func TestUpdateMovingToWonStageForcesStatus(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	o, err := svc.Update(manager, "opp-1", OpportunityPatch{StageID: strPtr(stageWon.ID)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if o.Status != domain.StatusWon {
		t.Errorf("status = %q, want WON", o.Status)
	}
	if len(acts.created) != 1 {
		t.Fatalf("activities = %d, want 1", len(acts.created))
	}
	// 审计只反映调用方的显式修改：只有 stage 变了，推导出的 WON 不入审计
	sum := acts.created[0].Summary
	if !strings.Contains(sum, "stage: Lead -> Closed Won") {
		t.Errorf("summary %q missing stage change", sum)
	}
	if strings.Contains(sum, "status:") {
		t.Errorf("summary %q must not include derived status change", sum)
	}
	if acts.created[0].Type != domain.ActivityNote {
		t.Errorf("activity type = %q, want NOTE", acts.created[0].Type)
	}
}

func TestUpdateExplicitStatusIsAuditedThenDerivationReverts(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	// 阶段仍是 OPEN 分类，手工把状态拨到 WON 会被推导拨回来
	o, err := svc.Update(manager, "opp-1", OpportunityPatch{Status: strPtr(domain.StatusWon)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if o.Status != domain.StatusOpen {
		t.Errorf("status = %q, want OPEN after derivation", o.Status)
	}
	if len(acts.created) != 1 {
		t.Fatalf("activities = %d, want 1", len(acts.created))
	}
	if sum := acts.created[0].Summary; !strings.Contains(sum, "status: OPEN -> WON") {
		t.Errorf("summary %q should record the explicit change", sum)
	}
}

func TestUpdateValueChangeAudited(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	v := decimal.NewFromInt(2500)
	if _, err := svc.Update(manager, "opp-1", OpportunityPatch{Value: &v}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(acts.created) != 1 {
		t.Fatalf("activities = %d, want 1", len(acts.created))
	}
	if sum := acts.created[0].Summary; !strings.Contains(sum, "value: 1000 -> 2500") {
		t.Errorf("summary = %q", sum)
	}
}

func TestUpdateTitleOnlyProducesNoAudit(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	o, err := svc.Update(manager, "opp-1", OpportunityPatch{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if o.Title != "Renamed" {
		t.Errorf("title = %q", o.Title)
	}
	if len(acts.created) != 0 {
		t.Errorf("activities = %d, want 0", len(acts.created))
	}
}

func TestUpdateUnknownStageAbortsWithoutSideEffects(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	_, err := svc.Update(manager, "opp-1", OpportunityPatch{StageID: strPtr("st-nope")})
	var refErr *domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialError", err)
	}
	if len(acts.created) != 0 {
		t.Errorf("activities = %d, want 0 after abort", len(acts.created))
	}
	got, _ := opps.FindByID("opp-1")
	if got.StageID != stageLead.ID || got.Status != domain.StatusOpen {
		t.Errorf("opportunity mutated after abort: stage=%q status=%q", got.StageID, got.Status)
	}
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	svc, _, _ := newOppFixture(t)

	_, err := svc.Create(rep, CreateOpportunityInput{
		Title:             "New deal",
		Value:             decimal.NewFromInt(500),
		ExpectedCloseDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		StageID:           stageLead.ID,
		CustomerID:        "cust-nope",
	})
	var refErr *domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialError", err)
	}
}

func TestUpdateUnknownCustomerAbortsWithoutSideEffects(t *testing.T) {
	svc, opps, acts := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	_, err := svc.Update(manager, "opp-1", OpportunityPatch{CustomerID: strPtr("cust-nope")})
	var refErr *domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialError", err)
	}
	if len(acts.created) != 0 {
		t.Errorf("activities = %d, want 0 after abort", len(acts.created))
	}
	got, _ := opps.FindByID("opp-1")
	if got.CustomerID != "cust-1" {
		t.Errorf("customer mutated after abort: %q", got.CustomerID)
	}
}

func TestDeleteCascadesThroughAggregate(t *testing.T) {
	svc, opps, _ := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	if err := svc.Delete(manager, "opp-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(opps.cascaded) != 1 || opps.cascaded[0] != "opp-1" {
		t.Errorf("cascaded = %v, want [opp-1]", opps.cascaded)
	}
	if got, _ := opps.FindByID("opp-1"); got != nil {
		t.Errorf("opportunity still present after delete")
	}
}

func TestDeleteOutOfScopeOrUnknownIsNotFound(t *testing.T) {
	svc, opps, _ := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	var nf *domain.NotFoundError
	if err := svc.Delete(rep, "opp-1"); !errors.As(err, &nf) {
		t.Fatalf("foreign delete err = %v, want NotFoundError", err)
	}
	if err := svc.Delete(manager, "opp-nope"); !errors.As(err, &nf) {
		t.Fatalf("unknown delete err = %v, want NotFoundError", err)
	}
	if len(opps.cascaded) != 0 {
		t.Errorf("cascaded = %v, want none", opps.cascaded)
	}
}

func TestRepCannotSeeForeignOpportunity(t *testing.T) {
	svc, opps, _ := newOppFixture(t)
	seedOpp(t, opps, manager.ID)

	_, err := svc.Update(rep, "opp-1", OpportunityPatch{Title: strPtr("mine now")})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError for out-of-scope record", err)
	}
	if _, err := svc.Get(rep, "opp-1"); !errors.As(err, &nf) {
		t.Fatalf("Get err = %v, want NotFoundError", err)
	}
	if _, err := svc.Get(manager, "opp-1"); err != nil {
		t.Fatalf("manager Get: %v", err)
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		category, status, want string
	}{
		{domain.StageCategoryWon, domain.StatusOpen, domain.StatusWon},
		{domain.StageCategoryWon, domain.StatusWon, ""},
		{domain.StageCategoryLost, domain.StatusOpen, domain.StatusLost},
		{domain.StageCategoryLost, domain.StatusLost, ""},
		{domain.StageCategoryOpen, domain.StatusWon, domain.StatusOpen},
		{domain.StageCategoryOpen, domain.StatusLost, domain.StatusOpen},
		{domain.StageCategoryOpen, domain.StatusOpen, ""},
	}
	for _, c := range cases {
		if got := deriveStatus(c.category, c.status); got != c.want {
			t.Errorf("deriveStatus(%s, %s) = %q, want %q", c.category, c.status, got, c.want)
		}
	}
}

func strPtr(s string) *string { return &s }
