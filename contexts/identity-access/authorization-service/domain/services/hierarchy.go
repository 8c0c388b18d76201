package services

import (
	"math"
	"strings"

	"aegis/contexts/identity-access/authorization-service/domain/entities"
)

// Rank tables for the three capability hierarchies. Unknown values fail
// closed: an unrecognized actual ranks below everything, an unrecognized
// requirement ranks above everything, so misconfiguration always denies.

const (
	unknownActual   = -1
	unknownRequired = math.MaxInt
)

var accessLevelRanks = map[entities.AccessLevel]int{
	entities.AccessLevelNone:      0,
	entities.AccessLevelReadOnly:  1,
	entities.AccessLevelReadWrite: 2,
	entities.AccessLevelAdmin:     3,
	entities.AccessLevelOwner:     4,
}

var subscriptionTierRanks = map[entities.SubscriptionTier]int{
	entities.TierFree:       0,
	entities.TierPro:        1,
	entities.TierEnterprise: 2,
	entities.TierCustom:     3,
}

var organizationPlanRanks = map[string]int{
	"startup":    0,
	"growth":     1,
	"enterprise": 2,
	"custom":     3,
}

// AccessLevelRank returns the rank of a level as an actual capability.
func AccessLevelRank(level entities.AccessLevel) int {
	if rank, ok := accessLevelRanks[level]; ok {
		return rank
	}
	return unknownActual
}

// LevelSufficient reports whether actual satisfies the required access level.
func LevelSufficient(actual, required entities.AccessLevel) bool {
	actualRank, ok := accessLevelRanks[actual]
	if !ok {
		return false
	}
	requiredRank, ok := accessLevelRanks[required]
	if !ok {
		requiredRank = unknownRequired
	}
	return actualRank >= requiredRank
}

// TierSufficient reports whether a subscription tier satisfies the required tier.
func TierSufficient(actual, required entities.SubscriptionTier) bool {
	actualRank, ok := subscriptionTierRanks[actual]
	if !ok {
		return false
	}
	requiredRank, ok := subscriptionTierRanks[required]
	if !ok {
		requiredRank = unknownRequired
	}
	return actualRank >= requiredRank
}

// PlanSufficient reports whether an organization plan satisfies the required
// plan. Plan names are compared case-insensitively.
func PlanSufficient(actual, required string) bool {
	actualRank, ok := organizationPlanRanks[strings.ToLower(strings.TrimSpace(actual))]
	if !ok {
		return false
	}
	requiredRank, ok := organizationPlanRanks[strings.ToLower(strings.TrimSpace(required))]
	if !ok {
		requiredRank = unknownRequired
	}
	return actualRank >= requiredRank
}

// ValidAccessLevel reports whether the level is one of the known ranks.
func ValidAccessLevel(level entities.AccessLevel) bool {
	_, ok := accessLevelRanks[level]
	return ok
}

// ValidSource reports whether the source is a recognized provenance tag.
func ValidSource(source entities.PermissionSource) bool {
	switch source {
	case entities.SourceSubscription, entities.SourceOrganization,
		entities.SourceAdminGrant, entities.SourceSystemDefault:
		return true
	default:
		return false
	}
}
