package ipc

import (
	"log"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/ubports/location-service-sub002/session"
	"github.com/ubports/location-service-sub002/units"
)

// sessionExport exports one session.Session as a D-Bus object and pumps
// its three update channels out as signals for as long as the session
// is open.
type sessionExport struct {
	sess   *session.Session
	conn   *dbus.Conn
	path   dbus.ObjectPath
	logger *log.Logger

	done chan struct{}
}

func newSessionExport(conn *dbus.Conn, path dbus.ObjectPath, sess *session.Session, logger *log.Logger) *sessionExport {
	e := &sessionExport{
		sess:   sess,
		conn:   conn,
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := conn.Export(sessionHandler{e}, path, sessionIface); err != nil {
		e.logPrintf("ipc: exporting session %s: %v", path, err)
	}
	node := &introspect.Node{
		Name:       string(path),
		Interfaces: []introspect.Interface{introspect.IntrospectData, sessionIntrospection()},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		e.logPrintf("ipc: exporting session introspection %s: %v", path, err)
	}

	go e.pump()
	return e
}

func (e *sessionExport) logPrintf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// pump forwards the Session's three update channels onto D-Bus signals
// until all three channels close, which happens when the Session is
// closed - at that point pump unexports the object and signals done so
// Server can stop tracking it.
func (e *sessionExport) pump() {
	defer close(e.done)
	defer e.conn.Export(nil, e.path, sessionIface)

	positions := e.sess.Positions()
	headings := e.sess.Headings()
	velocities := e.sess.Velocities()

	for positions != nil || headings != nil || velocities != nil {
		select {
		case v, ok := <-positions:
			if !ok {
				positions = nil
				continue
			}
			e.emitPositionChanged(v)
		case v, ok := <-headings:
			if !ok {
				headings = nil
				continue
			}
			e.emitHeadingChanged(v)
		case v, ok := <-velocities:
			if !ok {
				velocities = nil
				continue
			}
			e.emitVelocityChanged(v)
		}
	}
}

func (e *sessionExport) emitPositionChanged(update units.PositionUpdate) {
	pos := update.Value
	var hasHorizontal, hasVertical bool
	var horizontal, vertical float64
	if pos.HasAccuracy() {
		acc := pos.Accuracy()
		if acc.HasHorizontal() {
			hasHorizontal, horizontal = true, acc.Horizontal()
		}
		if acc.HasVertical() {
			hasVertical, vertical = true, acc.Vertical()
		}
	}
	var hasAltitude bool
	var altitude float64
	if pos.HasAltitude() {
		hasAltitude, altitude = true, float64(pos.Altitude())
	}

	err := e.conn.Emit(e.path, sessionIface+".PositionChanged",
		float64(pos.Latitude), float64(pos.Longitude),
		hasAltitude, altitude,
		hasHorizontal, horizontal,
		hasVertical, vertical,
		update.Timestamp.UnixNano())
	if err != nil {
		e.logPrintf("ipc: emitting PositionChanged on %s: %v", e.path, err)
	}
}

func (e *sessionExport) emitHeadingChanged(update units.HeadingUpdate) {
	err := e.conn.Emit(e.path, sessionIface+".HeadingChanged",
		float64(update.Value), update.Timestamp.UnixNano())
	if err != nil {
		e.logPrintf("ipc: emitting HeadingChanged on %s: %v", e.path, err)
	}
}

func (e *sessionExport) emitVelocityChanged(update units.VelocityUpdate) {
	err := e.conn.Emit(e.path, sessionIface+".VelocityChanged",
		float64(update.Value), update.Timestamp.UnixNano())
	if err != nil {
		e.logPrintf("ipc: emitting VelocityChanged on %s: %v", e.path, err)
	}
}

// sessionHandler adapts sessionExport's Session to the exported D-Bus
// method set.
type sessionHandler struct{ e *sessionExport }

func (h sessionHandler) StartPositionUpdates() *dbus.Error { return toDBusError(h.e.sess.StartPositionUpdates()) }
func (h sessionHandler) StopPositionUpdates() *dbus.Error  { return toDBusError(h.e.sess.StopPositionUpdates()) }
func (h sessionHandler) StartHeadingUpdates() *dbus.Error  { return toDBusError(h.e.sess.StartHeadingUpdates()) }
func (h sessionHandler) StopHeadingUpdates() *dbus.Error   { return toDBusError(h.e.sess.StopHeadingUpdates()) }
func (h sessionHandler) StartVelocityUpdates() *dbus.Error { return toDBusError(h.e.sess.StartVelocityUpdates()) }
func (h sessionHandler) StopVelocityUpdates() *dbus.Error  { return toDBusError(h.e.sess.StopVelocityUpdates()) }

func (h sessionHandler) Close() *dbus.Error { return toDBusError(h.e.sess.Close()) }

func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.NewError("com.ubuntu.location.Service.Session.Error.Failed", []interface{}{err.Error()})
}

func sessionIntrospection() introspect.Interface {
	noArgMethod := func(name string) introspect.Method {
		return introspect.Method{Name: name}
	}
	return introspect.Interface{
		Name: sessionIface,
		Methods: []introspect.Method{
			noArgMethod("StartPositionUpdates"),
			noArgMethod("StopPositionUpdates"),
			noArgMethod("StartHeadingUpdates"),
			noArgMethod("StopHeadingUpdates"),
			noArgMethod("StartVelocityUpdates"),
			noArgMethod("StopVelocityUpdates"),
			noArgMethod("Close"),
		},
		Signals: []introspect.Signal{
			{
				Name: "PositionChanged",
				Args: []introspect.Arg{
					{Name: "latitude", Type: "d"},
					{Name: "longitude", Type: "d"},
					{Name: "has_altitude", Type: "b"},
					{Name: "altitude", Type: "d"},
					{Name: "has_horizontal_accuracy", Type: "b"},
					{Name: "horizontal_accuracy", Type: "d"},
					{Name: "has_vertical_accuracy", Type: "b"},
					{Name: "vertical_accuracy", Type: "d"},
					{Name: "timestamp_unix_nanos", Type: "x"},
				},
			},
			{
				Name: "HeadingChanged",
				Args: []introspect.Arg{
					{Name: "degrees", Type: "d"},
					{Name: "timestamp_unix_nanos", Type: "x"},
				},
			},
			{
				Name: "VelocityChanged",
				Args: []introspect.Arg{
					{Name: "metres_per_second", Type: "d"},
					{Name: "timestamp_unix_nanos", Type: "x"},
				},
			},
		},
	}
}
