// Package service implements Service: the daemon's single entry point
// for clients, sitting between the IPC surface (package ipc) and the
// Engine.  It owns the Engine, exposes the daemon's configuration as
// observable properties, and turns a client's requested Criteria into a
// tracked Session after checking permission.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ubports/location-service-sub002/engine"
	"github.com/ubports/location-service-sub002/session"
	"github.com/ubports/location-service-sub002/units"
)

// ErrPermissionDenied is returned by CreateSessionForCriteria when the
// PermissionManager refuses the request.
var ErrPermissionDenied = errors.New("service: permission denied")

// ErrNoProviderSatisfiesCriteria is returned when the Engine's selection
// policy can't find any Provider able to meet the requested Criteria.
var ErrNoProviderSatisfiesCriteria = errors.New("service: no provider satisfies the requested criteria")

// Service is the daemon's top-level object.  Service is safe for
// concurrent use.
type Service struct {
	engine     *engine.Engine
	permission PermissionManager

	mutex    sync.Mutex
	sessions map[*session.Session]struct{}
}

// New creates a Service wrapping e, consulting permission before
// granting a Session.
func New(e *engine.Engine, permission PermissionManager) *Service {
	return &Service{
		engine:     e,
		permission: permission,
		sessions:   make(map[*session.Session]struct{}),
	}
}

// CreateSessionForCriteria checks creds against the PermissionManager,
// asks the Engine to select a Provider able to satisfy criteria, and
// wraps it in a tracked Session.  The returned Session is owned by the
// caller, who must Close it when done; Service keeps its own reference
// only so it can report how many Sessions are currently open.
func (s *Service) CreateSessionForCriteria(ctx context.Context, creds Credentials, criteria units.Criteria) (*session.Session, error) {
	if err := s.permission.CheckPermission(ctx, creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	p, ok := s.engine.SelectProvider(criteria)
	if !ok {
		return nil, ErrNoProviderSatisfiesCriteria
	}

	sess := session.New(p)
	s.track(sess)
	return sess, nil
}

func (s *Service) track(sess *session.Session) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[sess] = struct{}{}
}

// Untrack removes sess from the Service's bookkeeping, without closing
// it - callers close the Session themselves and then call Untrack, or
// simply let it be garbage collected, since Untrack is purely for
// SessionCount.
func (s *Service) Untrack(sess *session.Session) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sess)
}

// SessionCount reports how many Sessions this Service is currently
// tracking.
func (s *Service) SessionCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sessions)
}

// Engine exposes the underlying Engine so the IPC layer can read and
// mutate Configuration and reference position without Service having to
// re-expose every field as its own method.
func (s *Service) Engine() *engine.Engine { return s.engine }
