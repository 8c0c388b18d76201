package commands

import (
	"context"
	"log/slog"
	"strings"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "aegis/contexts/identity-access/authorization-service/domain/errors"
	"aegis/contexts/identity-access/authorization-service/domain/services"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// ConfigureResourcePermissionCommand is the administrative upsert input for
// one resource configuration row.
type ConfigureResourcePermissionCommand struct {
	ResourceType string
	ResourceName string
	RequiredTier entities.SubscriptionTier
	AccessLevel  entities.AccessLevel
	Category     string
	Description  string
	Enabled      bool
}

// ConfigureResourcePermissionUseCase creates or updates the single active
// configuration row for a resource key.
type ConfigureResourcePermissionUseCase struct {
	Store  ports.PermissionStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u ConfigureResourcePermissionUseCase) Execute(ctx context.Context, cmd ConfigureResourcePermissionCommand) error {
	if strings.TrimSpace(cmd.ResourceType) == "" || strings.TrimSpace(cmd.ResourceName) == "" {
		return domainerrors.ErrInvalidResourceKey
	}
	if !services.ValidAccessLevel(cmd.AccessLevel) {
		return domainerrors.ErrInvalidAccessLevel
	}

	logger := application.ResolveLogger(u.Logger)
	now := applicationNow(u.Clock)

	permission := entities.ResourcePermission{
		ResourceType: cmd.ResourceType,
		ResourceName: cmd.ResourceName,
		RequiredTier: cmd.RequiredTier,
		AccessLevel:  cmd.AccessLevel,
		Category:     cmd.Category,
		Description:  cmd.Description,
		Enabled:      cmd.Enabled,
		UpdatedAt:    now,
	}

	_, found, err := u.Store.GetResourcePermission(ctx, cmd.ResourceType, cmd.ResourceName)
	if err != nil {
		return err
	}
	if found {
		err = u.Store.UpdateResourcePermission(ctx, permission)
	} else {
		permission.CreatedAt = now
		err = u.Store.CreateResourcePermission(ctx, permission)
	}
	if err != nil {
		logger.Error("resource permission configuration failed",
			"event", "authz_resource_config_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("resource permission configured",
		"event", "authz_resource_configured",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"resource_type", cmd.ResourceType,
		"resource_name", cmd.ResourceName,
		"required_tier", string(cmd.RequiredTier),
		"access_level", string(cmd.AccessLevel),
		"enabled", cmd.Enabled,
	)
	return nil
}

// ConfigureOrganizationPermissionCommand is the administrative upsert input
// for one org-level unlock.
type ConfigureOrganizationPermissionCommand struct {
	OrganizationID string
	ResourceType   string
	ResourceName   string
	AccessLevel    entities.AccessLevel
	RequiredPlan   string
	Enabled        bool
}

// ConfigureOrganizationPermissionUseCase creates or replaces the single
// active unlock for an (organization, resource) key.
type ConfigureOrganizationPermissionUseCase struct {
	Store  ports.PermissionStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u ConfigureOrganizationPermissionUseCase) Execute(ctx context.Context, cmd ConfigureOrganizationPermissionCommand) error {
	if strings.TrimSpace(cmd.OrganizationID) == "" {
		return domainerrors.ErrOrganizationNotFound
	}
	if strings.TrimSpace(cmd.ResourceType) == "" || strings.TrimSpace(cmd.ResourceName) == "" {
		return domainerrors.ErrInvalidResourceKey
	}
	if !services.ValidAccessLevel(cmd.AccessLevel) {
		return domainerrors.ErrInvalidAccessLevel
	}

	logger := application.ResolveLogger(u.Logger)
	now := applicationNow(u.Clock)

	err := u.Store.UpsertOrganizationPermission(ctx, entities.OrganizationPermission{
		OrganizationID: cmd.OrganizationID,
		ResourceType:   cmd.ResourceType,
		ResourceName:   cmd.ResourceName,
		AccessLevel:    cmd.AccessLevel,
		RequiredPlan:   cmd.RequiredPlan,
		Enabled:        cmd.Enabled,
		UpdatedAt:      now,
	})
	if err != nil {
		logger.Error("organization permission configuration failed",
			"event", "authz_org_config_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"organization_id", cmd.OrganizationID,
			"resource_type", cmd.ResourceType,
			"resource_name", cmd.ResourceName,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("organization permission configured",
		"event", "authz_org_configured",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"organization_id", cmd.OrganizationID,
		"resource_type", cmd.ResourceType,
		"resource_name", cmd.ResourceName,
		"access_level", string(cmd.AccessLevel),
		"required_plan", cmd.RequiredPlan,
	)
	return nil
}
