// Package authorization resolves whether a principal may access a resource
// at a required capability level and manages the lifecycle of permission
// grants.
//
// Resolution walks a fixed priority cascade: admin-granted permission,
// organization permission, subscription permission, then any remaining
// user-specific grant; when no branch grants, the result is a
// system-default deny. Every check, grant, and revoke writes one audit
// entry regardless of outcome, and the engine is fail-closed: store
// failures surface to callers as structured denials, never as faults.
package authorization
