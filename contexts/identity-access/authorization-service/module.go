package authorization

import (
	"log/slog"
	"time"

	"aegis/contexts/identity-access/authorization-service/application/commands"
	"aegis/contexts/identity-access/authorization-service/application/queries"
	"aegis/contexts/identity-access/authorization-service/application/workers"
	"aegis/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime
// wiring.
type Module struct {
	CheckAccess       queries.CheckAccessUseCase
	PermissionSummary queries.PermissionSummaryUseCase
	ServiceStatistics queries.ServiceStatisticsUseCase

	GrantPermission    commands.GrantPermissionUseCase
	RevokePermission   commands.RevokePermissionUseCase
	Bulk               commands.BulkCoordinator
	ConfigureResource  commands.ConfigureResourcePermissionUseCase
	ConfigureOrgUnlock commands.ConfigureOrganizationPermissionUseCase

	Lifecycle     workers.LifecycleConsumer
	ExpirySweeper workers.ExpirySweeper
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Store       ports.PermissionStore
	Publisher   ports.EventPublisher
	Dedup       ports.EventDedupStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator

	EnforceExpiry bool
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// NewModule wires use cases and workers using explicit ports.
func NewModule(deps Dependencies) Module {
	grant := commands.GrantPermissionUseCase{
		Store:       deps.Store,
		Publisher:   deps.Publisher,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	revoke := commands.RevokePermissionUseCase{
		Store:     deps.Store,
		Publisher: deps.Publisher,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		CheckAccess: queries.CheckAccessUseCase{
			Store:         deps.Store,
			Publisher:     deps.Publisher,
			Clock:         deps.Clock,
			EnforceExpiry: deps.EnforceExpiry,
			Logger:        deps.Logger,
		},
		PermissionSummary: queries.PermissionSummaryUseCase{
			Store:  deps.Store,
			Logger: deps.Logger,
		},
		ServiceStatistics: queries.ServiceStatisticsUseCase{
			Store:  deps.Store,
			Logger: deps.Logger,
		},
		GrantPermission:  grant,
		RevokePermission: revoke,
		Bulk: commands.BulkCoordinator{
			Grant:  grant,
			Revoke: revoke,
			Logger: deps.Logger,
		},
		ConfigureResource: commands.ConfigureResourcePermissionUseCase{
			Store:  deps.Store,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		ConfigureOrgUnlock: commands.ConfigureOrganizationPermissionUseCase{
			Store:  deps.Store,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		Lifecycle: workers.LifecycleConsumer{
			Store:    deps.Store,
			Grant:    grant,
			Revoke:   revoke,
			Dedup:    deps.Dedup,
			Clock:    deps.Clock,
			DedupTTL: deps.DedupTTL,
			Logger:   deps.Logger,
		},
		ExpirySweeper: workers.ExpirySweeper{
			Store:  deps.Store,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}
