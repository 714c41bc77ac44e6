package service

import "context"

// Credentials identifies the client asking for a Session, as supplied
// by the IPC transport (D-Bus: the caller's unique bus name and the
// apparmor/unix credentials of the process behind it).
type Credentials struct {
	BusName string
	UnixPID int
	UnixUID int
}

// PermissionManager decides whether a client may create a Session for a
// given set of Criteria - e.g. whether it may use satellite-based
// positioning, or see wifi/cell-derived position at all.  Implementations
// typically consult a trust store or prompt the user; CreateSessionForCriteria
// refuses the request outright if PermissionManager says no.
type PermissionManager interface {
	CheckPermission(ctx context.Context, creds Credentials) error
}

// AlwaysGrant is a PermissionManager that grants every request - used
// in tests and for configurations with no access control.
type AlwaysGrant struct{}

// CheckPermission implements PermissionManager.
func (AlwaysGrant) CheckPermission(context.Context, Credentials) error { return nil }

// AlwaysDeny is a PermissionManager that rejects every request.
type AlwaysDeny struct {
	Reason error
}

// CheckPermission implements PermissionManager.
func (d AlwaysDeny) CheckPermission(context.Context, Credentials) error {
	if d.Reason != nil {
		return d.Reason
	}
	return ErrPermissionDenied
}

var _ PermissionManager = AlwaysGrant{}
var _ PermissionManager = AlwaysDeny{}
