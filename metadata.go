package hadevice

import (
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nlowe/hadevice/discovery"
)

// Connection maps a device to the outside world. For example:
//
//	Connection{
//	    Kind: "mac",
//	    Value: "02:5b:26:a8:dc:12",
//	}
//
// It implements fmt.Stringer and slog.LogValuer
type Connection struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

func (c Connection) String() string {
	return fmt.Sprintf("[%q,%q]", c.Kind, c.Value)
}

func (c Connection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", c.Kind),
		slog.String("value", c.Value),
	)
}

func (c Connection) MarshalJSONTo(e *jsontext.Encoder) error {
	return errors.Join(
		e.WriteToken(jsontext.BeginArray),
		e.WriteToken(jsontext.String(c.Kind)),
		e.WriteToken(jsontext.String(c.Value)),
		e.WriteToken(jsontext.EndArray),
	)
}

// Metadata is the Home Assistant device registry block sent as the `device` field of every discovery payload. Every
// entity of a Device shares the same Metadata so Home Assistant groups them under one device page.
//
// See https://www.home-assistant.io/integrations/mqtt/#device-discovery-payload
type Metadata struct {
	// A list of IDs that uniquely identify the device. Defaults to the device id.
	Identifiers []string `yaml:"identifiers"`

	// The name of the device. Defaults to the device's display name.
	Name string `yaml:"name"`

	Manufacturer    string `yaml:"manufacturer"`
	Model           string `yaml:"model"`
	SoftwareVersion string `yaml:"sw_version"`
	HardwareVersion string `yaml:"hw_version"`

	// Suggest an area if the device isn't in one yet
	SuggestedArea string `yaml:"suggested_area"`

	// Identifier of a device that routes messages between this device and Home Assistant, such as a hub.
	ViaDevice string `yaml:"via_device"`

	// A link to the webpage that can manage the configuration of this device.
	ConfigurationURL *url.URL `yaml:"-"`

	Connections []Connection `yaml:"connections"`
}

func (m Metadata) withDefaults(deviceID, name string) Metadata {
	if len(m.Identifiers) == 0 {
		m.Identifiers = []string{deviceID}
	}

	if m.Name == "" {
		m.Name = name
	}

	return m
}

func (m Metadata) MarshalJSONTo(e *jsontext.Encoder) error {
	return errors.Join(
		e.WriteToken(jsontext.BeginObject),

		discovery.MaybeMarshalStdSlice(e, discovery.FieldDeviceIdentifiers, m.Identifiers),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceName, m.Name),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceManufacturer, m.Manufacturer),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceModel, m.Model),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceSoftwareVersion, m.SoftwareVersion),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceHardwareVersion, m.HardwareVersion),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceSuggestedArea, m.SuggestedArea),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceViaDevice, m.ViaDevice),
		discovery.MaybeMarshalStd(e, discovery.FieldDeviceConfigURL, m.ConfigurationURL),
		discovery.MaybeMarshalStdSlice(e, discovery.FieldDeviceConnections, m.Connections),

		e.WriteToken(jsontext.EndObject),
	)
}
