package domain

import "testing"

func TestScopeForUser(t *testing.T) {
	repScope := ScopeForUser(Principal{ID: "u1", Role: RoleRep})
	if repScope.All() || repScope.OwnerID != "u1" {
		t.Errorf("rep scope = %+v, want owner-restricted", repScope)
	}
	for _, role := range []string{RoleManager, RoleAdmin} {
		if sc := ScopeForUser(Principal{ID: "u1", Role: role}); !sc.All() {
			t.Errorf("%s scope = %+v, want unrestricted", role, sc)
		}
	}
}

func TestValidators(t *testing.T) {
	if !ValidRole(RoleAdmin) || ValidRole("BOSS") {
		t.Errorf("ValidRole misbehaves")
	}
	if !ValidStatus(StatusWon) || ValidStatus("MAYBE") {
		t.Errorf("ValidStatus misbehaves")
	}
	if !ValidStageCategory(StageCategoryLost) || ValidStageCategory("STALE") {
		t.Errorf("ValidStageCategory misbehaves")
	}
	if !ValidActivityType(ActivityCall) || ValidActivityType("FAX") {
		t.Errorf("ValidActivityType misbehaves")
	}
	if !ValidPriority(PriorityHigh) || ValidPriority("URGENT") {
		t.Errorf("ValidPriority misbehaves")
	}
}
