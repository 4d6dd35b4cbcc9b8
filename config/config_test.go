package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/hadevice"
	"github.com/nlowe/hadevice/hass"
)

const minimal = `
mqtt:
  broker: mqtt://localhost:1883
location_id: loc1
devices:
  - name: Garage
    category: sensor
    entities:
      battery:
        component: sensor
        unit_of_measurement: "%"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, ProtocolV5, cfg.MQTT.Protocol)
	assert.Equal(t, DefaultKeepAlive, cfg.MQTT.KeepAlive)
	assert.Equal(t, "ring", cfg.RootTopic)
	assert.Equal(t, "homeassistant", cfg.DiscoveryPrefix)
	assert.Equal(t, DefaultStateFile, cfg.StateFile)
	assert.Equal(t, hadevice.DefaultDelays, cfg.Delays)

	assert.Equal(t, hadevice.Config{RootTopic: "ring", DiscoveryPrefix: "homeassistant"}, cfg.Device())
}

func TestLoadFull(t *testing.T) {
	t.Setenv("HADEVICE_TEST_PASSWORD", "hunter2")

	cfg, err := Load(writeConfig(t, `
log_level: debug
mqtt:
  broker: mqtts://broker.example:8883
  client_id: bridge
  username: bridge
  password: ${HADEVICE_TEST_PASSWORD}
  protocol: v3
  keep_alive: 45s
root_topic: vendor
discovery_prefix: ha
disarm_code: "1234"
location_id: home
state_file: /var/lib/hadevice/state.db
delays:
  discovery: 500ms
  online_before: 0s
  online_after: 250ms
devices:
  - name: Alarm
    id: abc123
    category: alarm
    manufacturer: Acme
    model: Base Station
    entities:
      siren:
        component: switch
        icon: mdi:alarm-light
      alarm:
        component: alarm_control_panel
      info:
        component: sensor
        unique_id: legacy_info
      volume:
        component: number
        min: 0
        max: 10
      light:
        component: light
        brightness_scale: 100
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, MQTT{
		Broker:    "mqtts://broker.example:8883",
		ClientID:  "bridge",
		Username:  "bridge",
		Password:  "hunter2",
		Protocol:  ProtocolV3,
		KeepAlive: 45 * time.Second,
	}, cfg.MQTT)
	assert.Equal(t, hadevice.Config{RootTopic: "vendor", DiscoveryPrefix: "ha", DisarmCode: "1234"}, cfg.Device())
	assert.Equal(t, "home", cfg.LocationID)
	assert.Equal(t, "/var/lib/hadevice/state.db", cfg.StateFile)
	assert.Equal(t, hadevice.Delays{Discovery: 500 * time.Millisecond, OnlineAfter: 250 * time.Millisecond}, cfg.Delays)

	require.Len(t, cfg.Devices, 1)
	d := cfg.Devices[0]
	assert.Equal(t, "abc123", d.ID)
	assert.Equal(t, hadevice.Info{
		Name:     "Alarm",
		Category: "alarm",
		Metadata: hadevice.Metadata{Manufacturer: "Acme", Model: "Base Station"},
	}, d.Info())

	var names []string
	for _, e := range d.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"siren", "alarm", "info", "volume", "light"}, names, "entities keep file order")

	assert.Equal(t, hass.ComponentSwitch, d.Entities[0].Entity.Component)
	assert.Equal(t, "mdi:alarm-light", d.Entities[0].Entity.Icon)
	assert.Equal(t, "legacy_info", d.Entities[2].Entity.UniqueID)
	require.NotNil(t, d.Entities[3].Entity.Min)
	assert.Equal(t, 0.0, *d.Entities[3].Entity.Min)
	assert.Equal(t, 10.0, *d.Entities[3].Entity.Max)
	require.NotNil(t, d.Entities[4].Entity.BrightnessScale)
	assert.Equal(t, 100, *d.Entities[4].Entity.BrightnessScale)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseInvalid(t *testing.T) {
	for _, tt := range []struct {
		name    string
		yaml    string
		message string
	}{
		{name: "malformed", yaml: "mqtt: [", message: "invalid config"},
		{name: "missing broker", yaml: "location_id: loc1\ndevices: [{name: a, category: b, entities: {x: {component: sensor}}}]", message: "mqtt.broker is required"},
		{name: "missing location", yaml: "mqtt: {broker: \"mqtt://x\"}\ndevices: [{name: a, category: b, entities: {x: {component: sensor}}}]", message: "location_id is required"},
		{name: "bad protocol", yaml: "mqtt: {broker: \"mqtt://x\", protocol: v4}\nlocation_id: l\ndevices: [{name: a, category: b, entities: {x: {component: sensor}}}]", message: "mqtt.protocol"},
		{name: "bad log level", yaml: "log_level: loud\nmqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{name: a, category: b, entities: {x: {component: sensor}}}]", message: "log_level"},
		{name: "no devices", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l", message: "at least one device is required"},
		{name: "device without name", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{category: b, entities: {x: {component: sensor}}}]", message: "devices[0]: name is required"},
		{name: "device without category", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{name: a, entities: {x: {component: sensor}}}]", message: "devices[0]: category is required"},
		{name: "device without entities", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{name: a, category: b}]", message: "devices[0]: at least one entity is required"},
		{name: "unknown component", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{name: a, category: b, entities: {x: {component: vacuum}}}]", message: `unknown component "vacuum"`},
		{name: "entities not a mapping", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndevices: [{name: a, category: b, entities: [x]}]", message: "entities must be a mapping"},
		{name: "negative delay", yaml: "mqtt: {broker: \"mqtt://x\"}\nlocation_id: l\ndelays: {discovery: -1s}\ndevices: [{name: a, category: b, entities: {x: {component: sensor}}}]", message: "delays must not be negative"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
