// Package config persists the daemon's settings - which serial device
// and protocol to read the GNSS receiver on, and the engine's
// configuration switches - in an INI file, and hands back typed values
// the rest of the daemon can use directly.
//
// The format is gopkg.in/ini.v1 rather than JSON, but the shape of the
// package follows the same pattern as the JSON config file used
// elsewhere in the positioning stack: a list of candidate paths is
// tried in turn, the first one that exists wins, and if none exist a
// default Settings is returned so the daemon can still start and later
// persist whatever the user configures through the IPC surface.
package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/ini.v1"

	"github.com/ubports/location-service-sub002/engine"
	"github.com/ubports/location-service-sub002/gnss/receiver"
)

const (
	sectionReceiver = "receiver"
	sectionEngine   = "engine"

	keyDevice                  = "device"
	keyBaudRate                = "baud_rate"
	keyProtocol                = "protocol"
	keyReadTimeoutMilliseconds = "read_timeout_milliseconds"
	keyReconnectDelaySeconds   = "reconnect_delay_seconds"

	keySatelliteBasedPositioning = "satellite_based_positioning"
	keyReportCellAndWifiIds      = "report_cell_and_wifi_ids"
	keyIsOnline                  = "is_online"
)

// protocolNames maps receiver.Protocol values to and from the strings
// stored in the INI file, so the file reads naturally rather than as a
// magic number.
var protocolNames = map[receiver.Protocol]string{
	receiver.ProtocolNMEA: "nmea",
	receiver.ProtocolUBX:  "ubx",
	receiver.ProtocolSiRF: "sirf",
}

var protocolByName = func() map[string]receiver.Protocol {
	m := make(map[string]receiver.Protocol, len(protocolNames))
	for p, name := range protocolNames {
		m[name] = p
	}
	return m
}()

// Settings wraps an in-memory INI document backing the daemon's
// configuration.  Settings is safe for concurrent use; every accessor
// takes the lock, so readers never see a half-written Sync.
type Settings struct {
	mutex sync.Mutex
	file  *ini.File
	path  string

	logger *log.Logger
}

// Load tries each of paths in turn and loads the first one that exists.
// If none exist, Load returns a Settings populated with defaults whose
// path is paths[0] - calling Sync later creates that file.  Load fails
// only if a candidate file exists but can't be parsed.
func Load(paths []string, logger *log.Logger) (*Settings, error) {
	for _, p := range paths {
		f, err := ini.Load(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("config: cannot parse %s: %w", p, err)
		}
		logPrintf(logger, "config: loaded settings from %s", p)
		return &Settings{file: f, path: p, logger: logger}, nil
	}

	fallback := ""
	if len(paths) > 0 {
		fallback = paths[0]
	}
	logPrintf(logger, "config: no existing settings file found, starting from defaults (will write to %s)", fallback)
	return &Settings{file: ini.Empty(), path: fallback, logger: logger}, nil
}

func logPrintf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// Sync writes the current settings back to the path Load found or was
// given as a fallback.  Callers should arrange to call Sync on every
// settings change that should survive a restart, and again on exit so
// that a clean shutdown never loses a pending change.
func (s *Settings) Sync() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.path == "" {
		return fmt.Errorf("config: no path to write settings to")
	}
	return s.file.SaveTo(s.path)
}

// ReceiverConfig builds a receiver.Config from the persisted settings,
// falling back to receiver.Config's own zero-value defaults for
// anything not yet set.
func (s *Settings) ReceiverConfig() receiver.Config {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sec := s.file.Section(sectionReceiver)
	cfg := receiver.Config{
		Device:                  sec.Key(keyDevice).String(),
		BaudRate:                sec.Key(keyBaudRate).MustInt(0),
		ReadTimeoutMilliseconds: sec.Key(keyReadTimeoutMilliseconds).MustInt(0),
	}
	if seconds := sec.Key(keyReconnectDelaySeconds).MustInt(0); seconds > 0 {
		cfg.ReconnectDelay = time.Duration(seconds) * time.Second
	}
	if p, ok := protocolByName[sec.Key(keyProtocol).String()]; ok {
		cfg.Protocol = p
	}
	return cfg
}

// SetReceiverDevice persists the serial device path the GNSS receiver
// is attached to.
func (s *Settings) SetReceiverDevice(device string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.file.Section(sectionReceiver).Key(keyDevice).SetValue(device)
}

// SetReceiverBaudRate persists the serial baud rate.
func (s *Settings) SetReceiverBaudRate(baud int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.file.Section(sectionReceiver).Key(keyBaudRate).SetValue(fmt.Sprintf("%d", baud))
}

// SetReceiverProtocol persists which wire protocol the receiver speaks.
func (s *Settings) SetReceiverProtocol(p receiver.Protocol) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	name, ok := protocolNames[p]
	if !ok {
		name = protocolNames[receiver.ProtocolNMEA]
	}
	s.file.Section(sectionReceiver).Key(keyProtocol).SetValue(name)
}

// SetReconnectDelay persists how long the receiver driver should wait
// before retrying a lost connection.
func (s *Settings) SetReconnectDelay(d time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	seconds := int(d / time.Second)
	s.file.Section(sectionReceiver).Key(keyReconnectDelaySeconds).SetValue(fmt.Sprintf("%d", seconds))
}

// EngineConfiguration builds an engine.Configuration from the persisted
// settings.
func (s *Settings) EngineConfiguration() engine.Configuration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sec := s.file.Section(sectionEngine)
	return engine.Configuration{
		DoesSatelliteBasedPositioning: sec.Key(keySatelliteBasedPositioning).MustBool(true),
		DoesReportCellAndWifiIds:      sec.Key(keyReportCellAndWifiIds).MustBool(false),
		IsOnline:                      sec.Key(keyIsOnline).MustBool(true),
	}
}

// SetDoesSatelliteBasedPositioning persists the switch of the same name.
func (s *Settings) SetDoesSatelliteBasedPositioning(v bool) {
	s.setEngineBool(keySatelliteBasedPositioning, v)
}

// SetDoesReportCellAndWifiIds persists the switch of the same name.
func (s *Settings) SetDoesReportCellAndWifiIds(v bool) {
	s.setEngineBool(keyReportCellAndWifiIds, v)
}

// SetIsOnline persists the switch of the same name.
func (s *Settings) SetIsOnline(v bool) {
	s.setEngineBool(keyIsOnline, v)
}

func (s *Settings) setEngineBool(key string, v bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.file.Section(sectionEngine).Key(key).SetValue(fmt.Sprintf("%t", v))
}
