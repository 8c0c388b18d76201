package errors

import "errors"

var (
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidResourceKey   = errors.New("invalid resource key")
	ErrInvalidAccessLevel   = errors.New("invalid access level")
	ErrInvalidSource        = errors.New("invalid permission source")
	ErrExpiryNotInFuture    = errors.New("expiry must be in the future")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserInactive         = errors.New("user inactive")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationInactive = errors.New("organization inactive")
	ErrPermissionNotFound   = errors.New("permission not found")
	ErrInsufficientAccess   = errors.New("insufficient access")
	ErrStoreFailure         = errors.New("permission store failure")
	ErrConflict             = errors.New("conflicting permission record")
)
