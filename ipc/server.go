// Package ipc exposes Service over D-Bus, the transport the daemon
// actually ships with: package com.ubuntu.location.Service at object
// path /com/ubuntu/location/Service, and one additional object per live
// Session at /com/ubuntu/location/Service/Session<N>.
//
// Clients call CreateSessionForCriteria on the Service object to get
// back a Session object path, then call the Start*/Stop* methods on
// that path and listen for its PositionChanged/HeadingChanged/
// VelocityChanged signals.
package ipc

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/ubports/location-service-sub002/provider"
	"github.com/ubports/location-service-sub002/service"
	"github.com/ubports/location-service-sub002/session"
	"github.com/ubports/location-service-sub002/units"
)

const (
	// BusName is the well-known name the daemon requests on the system
	// bus.
	BusName = "com.ubuntu.location.Service"

	servicePath  = dbus.ObjectPath("/com/ubuntu/location/Service")
	serviceIface = "com.ubuntu.location.Service"
	sessionIface = "com.ubuntu.location.Service.Session"

	propertiesIface = "org.freedesktop.DBus.Properties"
)

// Server exports a Service over D-Bus.
type Server struct {
	conn   *dbus.Conn
	svc    *service.Service
	logger *log.Logger

	mutex    sync.Mutex
	nextID   int
	sessions map[dbus.ObjectPath]*sessionExport
}

// NewServer wraps svc and exports it on conn.  Callers still need to
// call conn.RequestName(BusName, ...) themselves - Server only exports
// objects, it does not claim the bus name, so cmd/locationd can decide
// what to do if the name is already taken.
func NewServer(conn *dbus.Conn, svc *service.Service, logger *log.Logger) (*Server, error) {
	s := &Server{
		conn:     conn,
		svc:      svc,
		logger:   logger,
		sessions: make(map[dbus.ObjectPath]*sessionExport),
	}

	if err := conn.Export(serviceHandler{s}, servicePath, serviceIface); err != nil {
		return nil, fmt.Errorf("ipc: exporting %s: %w", serviceIface, err)
	}
	if err := conn.Export(propertiesHandler{s}, servicePath, propertiesIface); err != nil {
		return nil, fmt.Errorf("ipc: exporting %s: %w", propertiesIface, err)
	}

	node := &introspect.Node{
		Name: string(servicePath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			introspectPropertiesInterface(),
			serviceIntrospection(),
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), servicePath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("ipc: exporting introspection: %w", err)
	}

	return s, nil
}

func (s *Server) logPrintf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// state computes the aggregate "State" property from the Engine's
// current providers: "active" if any provider is Active, "enabled" if
// any is at least Enabled, "disabled" otherwise.
func (s *Server) state() provider.State {
	state := provider.Disabled
	for _, p := range s.svc.Engine().Providers() {
		if p.State() > state {
			state = p.State()
		}
	}
	return state
}

// propertiesHandler implements org.freedesktop.DBus.Properties for the
// Service object: the daemon's configuration switches and its
// aggregate State, read and written straight through to the Engine.
type propertiesHandler struct{ s *Server }

func (h propertiesHandler) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	if iface != "" && iface != serviceIface {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", nil)
	}
	cfg := h.s.svc.Engine().Configuration()
	switch name {
	case "State":
		return dbus.MakeVariant(h.s.state().String()), nil
	case "DoesSatelliteBasedPositioning":
		return dbus.MakeVariant(cfg.DoesSatelliteBasedPositioning), nil
	case "DoesReportCellAndWifiIds":
		return dbus.MakeVariant(cfg.DoesReportCellAndWifiIds), nil
	case "IsOnline":
		return dbus.MakeVariant(cfg.IsOnline), nil
	default:
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty", nil)
	}
}

func (h propertiesHandler) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != "" && iface != serviceIface {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", nil)
	}
	cfg := h.s.svc.Engine().Configuration()
	return map[string]dbus.Variant{
		"State":                         dbus.MakeVariant(h.s.state().String()),
		"DoesSatelliteBasedPositioning": dbus.MakeVariant(cfg.DoesSatelliteBasedPositioning),
		"DoesReportCellAndWifiIds":      dbus.MakeVariant(cfg.DoesReportCellAndWifiIds),
		"IsOnline":                      dbus.MakeVariant(cfg.IsOnline),
	}, nil
}

func (h propertiesHandler) Set(iface, name string, value dbus.Variant) *dbus.Error {
	if iface != "" && iface != serviceIface {
		return dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", nil)
	}
	v, ok := value.Value().(bool)
	if name != "State" && !ok {
		return dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{"value must be a boolean"})
	}

	e := h.s.svc.Engine()
	switch name {
	case "State":
		return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", nil)
	case "DoesSatelliteBasedPositioning":
		e.SetDoesSatelliteBasedPositioning(v)
	case "DoesReportCellAndWifiIds":
		e.SetDoesReportCellAndWifiIds(v)
	case "IsOnline":
		e.SetIsOnline(v)
	default:
		return dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty", nil)
	}

	changed := map[string]dbus.Variant{name: value}
	if err := h.s.conn.Emit(servicePath, propertiesIface+".PropertiesChanged", serviceIface, changed, []string{}); err != nil {
		h.s.logPrintf("ipc: emitting PropertiesChanged: %v", err)
	}
	return nil
}

// serviceHandler adapts Server's CreateSessionForCriteria to the shape
// D-Bus method export expects: every exported method takes its
// declared arguments and returns its declared results followed by a
// *dbus.Error.
type serviceHandler struct{ s *Server }

// CreateSessionForCriteria is exported as the method of the same name
// on serviceIface.  criteria is a string->variant map; recognised keys
// are "position", "altitude", "velocity" and "heading", each mapping to
// the requested accuracy ceiling in metres (or metres/second for
// velocity); a missing key means that dimension isn't requested.
func (h serviceHandler) CreateSessionForCriteria(criteria map[string]dbus.Variant, sender dbus.Sender) (dbus.ObjectPath, *dbus.Error) {
	parsed, err := criteriaFromVariantMap(criteria)
	if err != nil {
		return "", dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{err.Error()})
	}

	creds := service.Credentials{BusName: string(sender)}
	sess, err := h.s.svc.CreateSessionForCriteria(context.Background(), creds, parsed)
	if err != nil {
		return "", dbus.NewError("com.ubuntu.location.Service.Error.CreateSessionFailed", []interface{}{err.Error()})
	}

	return h.s.exportSession(sess), nil
}

func criteriaFromVariantMap(m map[string]dbus.Variant) (units.Criteria, error) {
	c := units.NewCriteria()
	dims := map[string]units.Dimension{
		"position": units.DimensionPosition,
		"altitude": units.DimensionAltitude,
		"velocity": units.DimensionVelocity,
		"heading":  units.DimensionHeading,
	}
	for key, dim := range dims {
		v, ok := m[key]
		if !ok {
			continue
		}
		ceiling, ok := v.Value().(float64)
		if !ok {
			return units.Criteria{}, fmt.Errorf("ipc: criteria key %q must be a double", key)
		}
		c = c.Require(dim, ceiling)
	}
	return c, nil
}

// exportSession allocates a new object path for sess, exports its
// methods and signal-emitting pump, and tracks it so Server can clean
// up when the session closes.
func (s *Server) exportSession(sess *session.Session) dbus.ObjectPath {
	s.mutex.Lock()
	s.nextID++
	path := dbus.ObjectPath(fmt.Sprintf("%s/Session%d", servicePath, s.nextID))
	s.mutex.Unlock()

	export := newSessionExport(s.conn, path, sess, s.logger)

	s.mutex.Lock()
	s.sessions[path] = export
	s.mutex.Unlock()

	go func() {
		<-export.done
		s.mutex.Lock()
		delete(s.sessions, path)
		s.mutex.Unlock()
	}()

	return path
}

// SessionCount reports how many Session objects are currently exported.
func (s *Server) SessionCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sessions)
}

func serviceIntrospection() introspect.Interface {
	return introspect.Interface{
		Name: serviceIface,
		Methods: []introspect.Method{
			{
				Name: "CreateSessionForCriteria",
				Args: []introspect.Arg{
					{Name: "criteria", Type: "a{sv}", Direction: "in"},
					{Name: "session", Type: "o", Direction: "out"},
				},
			},
		},
		Properties: []introspect.Property{
			{Name: "State", Type: "s", Access: "read"},
			{Name: "DoesSatelliteBasedPositioning", Type: "b", Access: "readwrite"},
			{Name: "DoesReportCellAndWifiIds", Type: "b", Access: "readwrite"},
			{Name: "IsOnline", Type: "b", Access: "readwrite"},
		},
	}
}

func introspectPropertiesInterface() introspect.Interface {
	return introspect.Interface{
		Name: propertiesIface,
		Methods: []introspect.Method{
			{
				Name: "Get",
				Args: []introspect.Arg{
					{Name: "interface", Type: "s", Direction: "in"},
					{Name: "name", Type: "s", Direction: "in"},
					{Name: "value", Type: "v", Direction: "out"},
				},
			},
			{
				Name: "GetAll",
				Args: []introspect.Arg{
					{Name: "interface", Type: "s", Direction: "in"},
					{Name: "values", Type: "a{sv}", Direction: "out"},
				},
			},
			{
				Name: "Set",
				Args: []introspect.Arg{
					{Name: "interface", Type: "s", Direction: "in"},
					{Name: "name", Type: "s", Direction: "in"},
					{Name: "value", Type: "v", Direction: "in"},
				},
			},
		},
		Signals: []introspect.Signal{
			{
				Name: "PropertiesChanged",
				Args: []introspect.Arg{
					{Name: "interface", Type: "s"},
					{Name: "changed_properties", Type: "a{sv}"},
					{Name: "invalidated_properties", Type: "as"},
				},
			},
		},
	}
}
