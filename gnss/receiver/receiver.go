package receiver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ubports/location-service-sub002/gnss/nmea"
	"github.com/ubports/location-service-sub002/gnss/sirf"
	"github.com/ubports/location-service-sub002/gnss/streamio"
	"github.com/ubports/location-service-sub002/gnss/ubx"
	"github.com/ubports/location-service-sub002/units"
)

// Monitor is notified of every frame a Receiver successfully decodes
// and every error it recovers from, for tracing and diagnostics.  A nil
// Monitor is fine - Receiver checks before calling it.
type Monitor interface {
	OnFrameDecoded(protocol Protocol, raw []byte)
	OnDecodeError(protocol Protocol, err error)
}

// Receiver drives one physical GNSS receiver: it owns the serial port,
// runs the byte-level scanner for the configured Protocol, and
// publishes decoded samples on Updates.  If the port is lost it retries
// opening it, rather than giving up, since a GNSS receiver is commonly
// a USB device that can be unplugged and replugged.
type Receiver struct {
	config  Config
	logger  *slog.Logger
	monitor Monitor

	Updates Updates

	port     dataPort
	writeMu  chan struct{} // 1-buffered, used as a non-reentrant mutex
}

// New creates a Receiver.  logger defaults to slog.Default() if nil.
func New(config Config, logger *slog.Logger, monitor Monitor) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	writeMu := make(chan struct{}, 1)
	writeMu <- struct{}{}
	return &Receiver{
		config:  config.withDefaults(),
		logger:  logger,
		monitor: monitor,
		Updates: newUpdates(),
		writeMu: writeMu,
	}
}

// Run drives the receiver until ctx is cancelled: open the port, read
// and decode frames until the port fails, then wait ReconnectDelay and
// try again.  A decode error - a bad checksum, a truncated frame - is
// logged and the scanner keeps running; it never halts the receiver.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		port, err := openPort(r.config)
		if err != nil {
			r.logger.Warn("gnss receiver: failed to open port", "device", r.config.Device, "error", err)
			if !sleepOrDone(ctx, r.config.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		<-r.writeMu
		r.port = port
		r.writeMu <- struct{}{}
		r.logger.Info("gnss receiver: opened port", "device", r.config.Device, "protocol", r.config.Protocol)

		err = r.readUntilError(ctx, port)
		<-r.writeMu
		port.Close()
		r.port = nil
		r.writeMu <- struct{}{}

		if errors.Is(err, context.Canceled) {
			return err
		}
		r.logger.Warn("gnss receiver: connection lost, reconnecting", "device", r.config.Device, "error", err)
		if !sleepOrDone(ctx, r.config.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// readUntilError copies bytes from port into a scanner appropriate for
// the configured protocol until the port returns an error or ctx is
// cancelled.
func (r *Receiver) readUntilError(ctx context.Context, port dataPort) error {
	byteCh := make(chan byte, 4096)
	readErr := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			if ctx.Err() != nil {
				close(byteCh)
				readErr <- ctx.Err()
				return
			}
			n, err := port.Read(buf)
			if err != nil {
				readErr <- err
				close(byteCh)
				return
			}
			for i := 0; i < n; i++ {
				select {
				case byteCh <- buf[i]:
				case <-ctx.Done():
					close(byteCh)
					readErr <- ctx.Err()
					return
				}
			}
			if n == 0 {
				// A read timeout: nothing arrived in this window. Not
				// an error, just means the scanner keeps waiting.
				continue
			}
		}
	}()

	source := streamio.New(byteCh)
	decodeErr := make(chan error, 1)
	go func() {
		decodeErr <- r.decodeLoop(ctx, source)
	}()

	select {
	case err := <-readErr:
		return err
	case err := <-decodeErr:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Receiver) decodeLoop(ctx context.Context, source *streamio.ByteStream) error {
	for {
		var err error
		switch r.config.Protocol {
		case ProtocolUBX:
			err = r.decodeUBX(ctx, source)
		case ProtocolSiRF:
			err = r.decodeSiRF(ctx, source)
		default:
			err = r.decodeNMEA(ctx, source)
		}
		if ctx.Err() != nil || errors.Is(err, streamio.ErrClosed) || errors.Is(err, streamio.ErrNilSource) {
			return err
		}
		// A checksum or framing error: the scanner has already reset,
		// and any byte it pushed back is still held by source.
		r.logDecodeError(r.config.Protocol, err)
	}
}

func (r *Receiver) decodeNMEA(ctx context.Context, source *streamio.ByteStream) error {
	scanner := nmea.NewScanner(source)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		body, err := scanner.Next()
		if err != nil {
			return err
		}
		sentence, err := nmea.Decode(body)
		if err != nil {
			r.logDecodeError(ProtocolNMEA, err)
			continue
		}
		r.notifyFrame(ProtocolNMEA, body)
		r.applyNMEA(sentence)
	}
}

func (r *Receiver) decodeUBX(ctx context.Context, source *streamio.ByteStream) error {
	scanner := ubx.NewScanner(source)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame, err := scanner.Next()
		if err != nil {
			return err
		}
		r.notifyFrame(ProtocolUBX, frame.Payload)
		if err := r.applyUBX(frame); err != nil {
			r.logDecodeError(ProtocolUBX, err)
		}
	}
}

func (r *Receiver) decodeSiRF(ctx context.Context, source *streamio.ByteStream) error {
	scanner := sirf.NewScanner(source)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame, err := scanner.Next()
		if err != nil {
			return err
		}
		r.notifyFrame(ProtocolSiRF, frame.Payload)
		if err := r.applySiRF(frame); err != nil {
			r.logDecodeError(ProtocolSiRF, err)
		}
	}
}

func (r *Receiver) notifyFrame(p Protocol, raw []byte) {
	if r.monitor != nil {
		r.monitor.OnFrameDecoded(p, raw)
	}
}

func (r *Receiver) logDecodeError(p Protocol, err error) {
	r.logger.Debug("gnss receiver: decode error, continuing", "protocol", p, "error", err)
	if r.monitor != nil {
		r.monitor.OnDecodeError(p, err)
	}
}

func (r *Receiver) applyNMEA(s nmea.Sentence) {
	now := time.Now()
	switch v := s.(type) {
	case *nmea.GGA:
		lat, errLat := units.NewLatitude(v.Latitude)
		lon, errLon := units.NewLongitude(v.Longitude)
		if errLat != nil || errLon != nil {
			return
		}
		pos, err := units.NewPositionWithAltitude(lat, lon, units.Altitude(v.Altitude))
		if err != nil {
			return
		}
		r.Updates.publishPosition(units.NewUpdate(pos, now))
	case *nmea.RMC:
		if !v.Valid {
			return
		}
		lat, errLat := units.NewLatitude(v.Latitude)
		lon, errLon := units.NewLongitude(v.Longitude)
		if errLat == nil && errLon == nil {
			if pos, err := units.NewPosition(lat, lon); err == nil {
				r.Updates.publishPosition(units.NewUpdate(pos, now))
			}
		}
		if speed, err := units.NewVelocity(v.SpeedKnots * 0.514444); err == nil {
			r.Updates.publishVelocity(units.NewUpdate(speed, now))
		}
		if heading, err := units.NewHeading(normalizeDegrees(v.TrackDegrees)); err == nil {
			r.Updates.publishHeading(units.NewUpdate(heading, now))
		}
	case *nmea.VTG:
		if heading, err := units.NewHeading(normalizeDegrees(v.TrackDegreesTrue)); err == nil {
			r.Updates.publishHeading(units.NewUpdate(heading, now))
		}
		if speed, err := units.NewVelocity(v.SpeedKPH / 3.6); err == nil {
			r.Updates.publishVelocity(units.NewUpdate(speed, now))
		}
	case *nmea.GSV:
		svs := make([]units.SpaceVehicle, 0, len(v.Satellites))
		for _, sat := range v.Satellites {
			svs = append(svs, units.SpaceVehicle{
				Key:           units.SpaceVehicleKey{GNSSID: talkerGNSSID(v.Talker()), SatelliteID: sat.PRN},
				SignalToNoise: float64(sat.SNR),
				Elevation:     float64(sat.ElevationDegrees),
				Azimuth:       float64(sat.AzimuthDegrees),
				UsedInFix:     sat.SNR > 0,
			})
		}
		if len(svs) > 0 {
			r.Updates.publishSpaceVehicles(svs)
		}
	}
}

func (r *Receiver) applyUBX(f ubx.Frame) error {
	now := time.Now()
	switch {
	case f.Class == ubx.ClassNAV && f.ID == ubx.NAVPVT:
		pvt, err := ubx.DecodeNavPVT(f.Payload)
		if err != nil {
			return err
		}
		if pvt.GNSSFixOK {
			pos, err := units.NewPosition(pvt.Latitude, pvt.Longitude)
			if err == nil {
				pos = pos.WithAltitude(pvt.HeightMSL).WithAccuracy(units.NewAccuracy(pvt.HorizontalAcc, pvt.VerticalAcc))
				r.Updates.publishPosition(units.NewUpdate(pos, now))
			}
		}
		r.Updates.publishHeading(units.NewUpdate(pvt.HeadingMotion, now))
		r.Updates.publishVelocity(units.NewUpdate(pvt.GroundSpeed, now))

	case f.Class == ubx.ClassNAV && f.ID == ubx.NAVSAT:
		entries, err := ubx.DecodeNavSat(f.Payload)
		if err != nil {
			return err
		}
		svs := make([]units.SpaceVehicle, 0, len(entries))
		for _, e := range entries {
			svs = append(svs, units.SpaceVehicle{
				Key:           units.SpaceVehicleKey{GNSSID: ubxGNSSID(e.GNSSID), SatelliteID: int(e.SvID)},
				SignalToNoise: float64(e.CNO),
				Elevation:     float64(e.Elevation),
				Azimuth:       float64(e.Azimuth),
				UsedInFix:     e.UsedInFix,
			})
		}
		r.Updates.publishSpaceVehicles(svs)
	}
	return nil
}

func (r *Receiver) applySiRF(f sirf.Frame) error {
	if f.ID != sirf.MsgGeodeticNavigationData {
		return nil
	}
	nav, err := sirf.DecodeGeodeticNavigationData(f.Payload)
	if err != nil {
		return err
	}
	pos, err := units.NewPosition(nav.Latitude, nav.Longitude)
	if err == nil {
		pos = pos.WithAltitude(nav.AltitudeMSL).WithAccuracy(units.NewHorizontalAccuracy(nav.HorizontalError))
		r.Updates.publishPosition(units.NewUpdate(pos, nav.Time))
	}
	r.Updates.publishHeading(units.NewUpdate(nav.Heading, nav.Time))
	r.Updates.publishVelocity(units.NewUpdate(nav.Speed, nav.Time))
	return nil
}

// Send writes a pre-encoded command frame to the receiver - a UBX
// CFG-* message, a SiRF configuration message, an NMEA PMTK-style
// sentence.  It is safe to call concurrently with Run.
func (r *Receiver) Send(frame []byte) error {
	<-r.writeMu
	defer func() { r.writeMu <- struct{}{} }()

	if r.port == nil {
		return errors.New("receiver: no open port")
	}
	_, err := r.port.Write(frame)
	return err
}

func normalizeDegrees(d float64) float64 {
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

func talkerGNSSID(talker string) units.GNSSID {
	switch talker {
	case "GP":
		return units.GNSSGPS
	case "GL":
		return units.GNSSGLONASS
	case "GA":
		return units.GNSSGalileo
	case "GB":
		return units.GNSSBeiDou
	case "GQ":
		return units.GNSSQZSS
	default:
		return units.GNSSUnknown
	}
}

func ubxGNSSID(id byte) units.GNSSID {
	switch id {
	case 0:
		return units.GNSSGPS
	case 1:
		return units.GNSSSBAS
	case 2:
		return units.GNSSGalileo
	case 3:
		return units.GNSSBeiDou
	case 5:
		return units.GNSSQZSS
	case 6:
		return units.GNSSGLONASS
	default:
		return units.GNSSUnknown
	}
}
