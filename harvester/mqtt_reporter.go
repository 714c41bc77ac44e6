package harvester

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTReporter publishes every Report as retained JSON on a single MQTT
// topic, so any number of external collectors (a crowdsource uploader,
// a local dashboard) can subscribe without the Harvester knowing they
// exist. It is one concrete Reporter; Harvester itself only depends on
// the Reporter interface.
type MQTTReporter struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *log.Logger
}

// mqttReport is the wire shape published on the topic: plain strings
// and numbers, independent of this module's internal unit types.
type mqttReport struct {
	TimestampUnixNano int64           `json:"timestamp_unix_nanos"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	WifiAPs           []mqttWifiAP    `json:"wifi_aps,omitempty"`
	Cells             []mqttCellTower `json:"cells,omitempty"`
}

type mqttWifiAP struct {
	BSSID             string `json:"bssid"`
	SignalStrengthDBM int    `json:"signal_strength_dbm"`
}

type mqttCellTower struct {
	MobileCountryCode int `json:"mcc"`
	MobileNetworkCode int `json:"mnc"`
	LocationAreaCode  int `json:"lac"`
	CellID            int `json:"cell_id"`
	SignalStrengthDBM int `json:"signal_strength_dbm"`
}

// NewMQTTReporter connects to brokerURL immediately so that a
// misconfigured broker is reported at startup rather than on the first
// report.
func NewMQTTReporter(brokerURL, clientID, topic string, logger *log.Logger) (*MQTTReporter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectRetry(true).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return &MQTTReporter{client: client, topic: topic, qos: 0, logger: logger}, nil
}

// Report implements Reporter. Publish failures are logged, never
// returned - Harvester has no caller to surface them to.
func (r *MQTTReporter) Report(report Report) {
	wifiAPs := make([]mqttWifiAP, len(report.WifiAPs))
	for i, ap := range report.WifiAPs {
		wifiAPs[i] = mqttWifiAP{BSSID: ap.BSSID, SignalStrengthDBM: ap.SignalStrengthDBM}
	}
	cells := make([]mqttCellTower, len(report.Cells))
	for i, c := range report.Cells {
		cells[i] = mqttCellTower{
			MobileCountryCode: c.MobileCountryCode,
			MobileNetworkCode: c.MobileNetworkCode,
			LocationAreaCode:  c.LocationAreaCode,
			CellID:            c.CellID,
			SignalStrengthDBM: c.SignalStrengthDBM,
		}
	}

	payload, err := json.Marshal(mqttReport{
		TimestampUnixNano: report.Timestamp.UnixNano(),
		Latitude:          float64(report.Position.Value.Latitude),
		Longitude:         float64(report.Position.Value.Longitude),
		WifiAPs:           wifiAPs,
		Cells:             cells,
	})
	if err != nil {
		r.logf("harvester: marshaling report for MQTT: %v", err)
		return
	}

	token := r.client.Publish(r.topic, r.qos, true, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		r.logf("harvester: publishing report to %s: %v", r.topic, token.Error())
	}
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// publishes to drain.
func (r *MQTTReporter) Close() {
	r.client.Disconnect(250)
}

func (r *MQTTReporter) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

var _ Reporter = (*MQTTReporter)(nil)
