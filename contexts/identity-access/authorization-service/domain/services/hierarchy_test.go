package services

import (
	"testing"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
)

func TestLevelOrdering(t *testing.T) {
	ordered := []entities.AccessLevel{
		entities.AccessLevelNone,
		entities.AccessLevelReadOnly,
		entities.AccessLevelReadWrite,
		entities.AccessLevelAdmin,
		entities.AccessLevelOwner,
	}
	for i, required := range ordered {
		for j, actual := range ordered {
			want := j >= i
			if got := LevelSufficient(actual, required); got != want {
				t.Fatalf("LevelSufficient(%s, %s) = %v, want %v", actual, required, got, want)
			}
		}
	}
}

func TestLevelMonotonicity(t *testing.T) {
	// If a level satisfies a requirement, every higher level must too.
	ordered := []entities.AccessLevel{
		entities.AccessLevelNone,
		entities.AccessLevelReadOnly,
		entities.AccessLevelReadWrite,
		entities.AccessLevelAdmin,
		entities.AccessLevelOwner,
	}
	for _, required := range ordered {
		satisfied := false
		for _, actual := range ordered {
			got := LevelSufficient(actual, required)
			if satisfied && !got {
				t.Fatalf("monotonicity broken: %s satisfies %s but a higher level does not", actual, required)
			}
			if got {
				satisfied = true
			}
		}
	}
}

func TestUnknownActualNeverSufficient(t *testing.T) {
	if LevelSufficient("SUPERUSER", entities.AccessLevelNone) {
		t.Fatal("unknown actual level must never be sufficient")
	}
	if TierSufficient("PLATINUM", entities.TierFree) {
		t.Fatal("unknown actual tier must never be sufficient")
	}
	if PlanSufficient("galactic", "startup") {
		t.Fatal("unknown actual plan must never be sufficient")
	}
}

func TestUnknownRequiredNeverSatisfiable(t *testing.T) {
	if LevelSufficient(entities.AccessLevelOwner, "SUPERUSER") {
		t.Fatal("unknown required level must deny even for OWNER")
	}
	if TierSufficient(entities.TierCustom, "PLATINUM") {
		t.Fatal("unknown required tier must deny even for CUSTOM")
	}
	if PlanSufficient("custom", "galactic") {
		t.Fatal("unknown required plan must deny even for custom")
	}
}

func TestTierOrdering(t *testing.T) {
	if !TierSufficient(entities.TierPro, entities.TierPro) {
		t.Fatal("PRO must satisfy PRO")
	}
	if TierSufficient(entities.TierFree, entities.TierPro) {
		t.Fatal("FREE must not satisfy PRO")
	}
	if !TierSufficient(entities.TierEnterprise, entities.TierPro) {
		t.Fatal("ENTERPRISE must satisfy PRO")
	}
}

func TestPlanLookupIsCaseInsensitive(t *testing.T) {
	if !PlanSufficient("Enterprise", "growth") {
		t.Fatal("plan comparison must be case-insensitive")
	}
	if !PlanSufficient(" GROWTH ", "startup") {
		t.Fatal("plan comparison must trim and fold case")
	}
}
