package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "aegis/contexts/identity-access/authorization-service/application"
	"aegis/contexts/identity-access/authorization-service/domain/entities"
)

// BulkOperation is one grant or revoke inside a bulk request. Grant-only
// fields are ignored by BulkRevoke.
type BulkOperation struct {
	OperationID    string
	UserID         string
	ResourceType   string
	ResourceName   string
	AccessLevel    entities.AccessLevel
	Source         entities.PermissionSource
	ActorID        string
	OrganizationID string
	ExpiresAt      *time.Time
	Reason         string
}

// BulkCoordinator applies a sequence of operations independently. Each
// operation runs to completion before the next starts; a failure or panic
// in one is captured into its result and never aborts the batch. There is
// no cross-operation transaction or rollback.
type BulkCoordinator struct {
	Grant  GrantPermissionUseCase
	Revoke RevokePermissionUseCase
	Logger *slog.Logger
}

func (c BulkCoordinator) BulkGrant(ctx context.Context, operations []BulkOperation) []entities.BatchOperationResult {
	return c.run(ctx, "grant", operations, func(ctx context.Context, op BulkOperation) (bool, error) {
		return c.Grant.Execute(ctx, GrantPermissionCommand{
			UserID:         op.UserID,
			ResourceType:   op.ResourceType,
			ResourceName:   op.ResourceName,
			AccessLevel:    op.AccessLevel,
			Source:         op.Source,
			GrantedBy:      op.ActorID,
			OrganizationID: op.OrganizationID,
			ExpiresAt:      op.ExpiresAt,
			Reason:         op.Reason,
		})
	})
}

func (c BulkCoordinator) BulkRevoke(ctx context.Context, operations []BulkOperation) []entities.BatchOperationResult {
	return c.run(ctx, "revoke", operations, func(ctx context.Context, op BulkOperation) (bool, error) {
		return c.Revoke.Execute(ctx, RevokePermissionCommand{
			UserID:       op.UserID,
			ResourceType: op.ResourceType,
			ResourceName: op.ResourceName,
			RevokedBy:    op.ActorID,
			Reason:       op.Reason,
		})
	})
}

func (c BulkCoordinator) run(
	ctx context.Context,
	operationType string,
	operations []BulkOperation,
	apply func(context.Context, BulkOperation) (bool, error),
) []entities.BatchOperationResult {
	logger := application.ResolveLogger(c.Logger)
	logger.Info("bulk operation started",
		"event", "authz_bulk_started",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"operation_type", operationType,
		"operation_count", len(operations),
	)

	results := make([]entities.BatchOperationResult, 0, len(operations))
	failures := 0
	for _, op := range operations {
		result := entities.BatchOperationResult{
			OperationID:   op.OperationID,
			OperationType: operationType,
			UserID:        op.UserID,
			ResourceType:  op.ResourceType,
			ResourceName:  op.ResourceName,
		}
		ok, err := c.applyIsolated(ctx, op, apply)
		switch {
		case err != nil:
			result.ErrorText = err.Error()
		case !ok:
			result.ErrorText = operationType + " operation failed"
		default:
			result.Success = true
		}
		if !result.Success {
			failures++
			logger.Warn("bulk operation item failed",
				"event", "authz_bulk_item_failed",
				"module", "identity-access/authorization-service",
				"layer", "application",
				"operation_type", operationType,
				"operation_id", op.OperationID,
				"user_id", op.UserID,
				"resource_type", op.ResourceType,
				"resource_name", op.ResourceName,
				"error", result.ErrorText,
			)
		}
		results = append(results, result)
	}

	logger.Info("bulk operation completed",
		"event", "authz_bulk_completed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"operation_type", operationType,
		"operation_count", len(operations),
		"failure_count", failures,
	)
	return results
}

// applyIsolated shields the batch from a panicking operation.
func (c BulkCoordinator) applyIsolated(
	ctx context.Context,
	op BulkOperation,
	apply func(context.Context, BulkOperation) (bool, error),
) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return apply(ctx, op)
}
