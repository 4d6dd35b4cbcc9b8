package hadevice

import (
	"encoding/json/jsontext"
	"errors"
	"strings"
	"unicode"

	"github.com/nlowe/hadevice/discovery"
	"github.com/nlowe/hadevice/hass"
	"github.com/nlowe/hadevice/mqtt"
)

// Fan speed range advertised for every fan entity.
const (
	FanSpeedRangeMin = 11
	FanSpeedRangeMax = 100
)

// FanPresetModes returns the preset modes advertised for every fan entity.
func FanPresetModes() []string {
	return []string{"low", "medium", "high"}
}

// AlarmCode holds the code fields for an alarm control panel. Arming never requires the code; disarming always does.
type AlarmCode struct {
	Code string
}

// Brightness holds the brightness topics for an entity that declares a brightness scale.
type Brightness struct {
	StateTopic   string
	CommandTopic string
	Scale        int
}

// FanSpeed holds the percentage and preset mode topics for a fan entity.
type FanSpeed struct {
	PercentageStateTopic   string
	PercentageCommandTopic string
	PresetModeStateTopic   string
	PresetModeCommandTopic string
}

// DiscoveryContext is the device-level information BuildDiscoveryMessage needs.
type DiscoveryContext struct {
	DeviceID          string
	DeviceName        string
	DeviceTopic       string
	AvailabilityTopic string
	DisarmCode        string
	Metadata          Metadata
}

// DiscoveryMessage is the Home Assistant discovery payload for a single Entity. It implements json.MarshalerTo. Fields
// left empty (or nil) are omitted from the payload.
type DiscoveryMessage struct {
	Component hass.Component

	Name              string
	UniqueID          string
	AvailabilityTopic string
	Availability      hass.CustomAvailability

	// Exactly one of StateTopic and ImageTopic is set.
	StateTopic string
	ImageTopic string

	CommandTopic      string
	DeviceClass       string
	UnitOfMeasurement string
	StateClass        hass.StateClass
	ValueTemplate     string
	Min               *float64
	Max               *float64
	AttributesTopic   string
	Icon              string

	AlarmCode  *AlarmCode
	Brightness *Brightness
	Fan        *FanSpeed

	Device Metadata
}

// BuildDiscoveryMessage assembles the discovery payload for the entity called name. It has no side effects.
func BuildDiscoveryMessage(c DiscoveryContext, name string, e *Entity) DiscoveryMessage {
	entityTopic := mqtt.JoinTopic(c.DeviceTopic, name)
	traits := e.Component.Traits()

	var stateTopic string
	switch {
	case e.ParentStateTopic != "":
		stateTopic = mqtt.JoinTopic(c.DeviceTopic, e.ParentStateTopic)
	case traits.Image:
		stateTopic = mqtt.JoinTopic(entityTopic, "image")
	default:
		stateTopic = mqtt.JoinTopic(entityTopic, "state")
	}

	m := DiscoveryMessage{
		Component:         e.Component,
		Name:              displayName(c.DeviceName, name, e),
		UniqueID:          e.UniqueID,
		AvailabilityTopic: c.AvailabilityTopic,
		Availability:      hass.DefaultAvailability,
		DeviceClass:       e.DeviceClass,
		UnitOfMeasurement: e.UnitOfMeasurement,
		StateClass:        e.StateClass,
		ValueTemplate:     e.ValueTemplate,
		Min:               e.Min,
		Max:               e.Max,
		Icon:              e.Icon,
		Device:            c.Metadata,
	}

	if m.UniqueID == "" {
		m.UniqueID = c.DeviceID + "_" + name
	}

	if traits.Image {
		m.ImageTopic = stateTopic
	} else {
		m.StateTopic = stateTopic
	}

	if traits.Commandable {
		m.CommandTopic = mqtt.JoinTopic(entityTopic, "command")
	}

	switch {
	case e.Attributes:
		m.AttributesTopic = mqtt.JoinTopic(entityTopic, "attributes")
	case name == InfoEntityName:
		m.AttributesTopic = stateTopic
	}

	if m.Icon == "" && name == InfoEntityName {
		m.Icon = InfoIcon
	}

	if traits.AlarmPanel && c.DisarmCode != "" {
		m.AlarmCode = &AlarmCode{Code: c.DisarmCode}
	}

	if e.BrightnessScale != nil {
		m.Brightness = &Brightness{
			StateTopic:   mqtt.JoinTopic(entityTopic, "brightness_state"),
			CommandTopic: mqtt.JoinTopic(entityTopic, "brightness_command"),
			Scale:        *e.BrightnessScale,
		}
	}

	if traits.Fan {
		m.Fan = &FanSpeed{
			PercentageStateTopic:   mqtt.JoinTopic(entityTopic, "percent_speed_state"),
			PercentageCommandTopic: mqtt.JoinTopic(entityTopic, "percent_speed_command"),
			PresetModeStateTopic:   mqtt.JoinTopic(entityTopic, "speed_state"),
			PresetModeCommandTopic: mqtt.JoinTopic(entityTopic, "speed_command"),
		}
	}

	return m
}

// displayName picks the explicit name, the bare device name for legacy entities, or "{device} {Entity Name}".
func displayName(deviceName, entityName string, e *Entity) string {
	switch {
	case e.Name != "":
		return e.Name
	case e.ID != "":
		return deviceName
	default:
		return deviceName + " " + titleCase(strings.ReplaceAll(entityName, "_", " "))
	}
}

// titleCase upper-cases the first character of every whitespace separated word, leaving the rest untouched.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	wordStart := true
	for _, r := range s {
		if wordStart && !unicode.IsSpace(r) {
			r = unicode.ToUpper(r)
		}

		wordStart = unicode.IsSpace(r)
		b.WriteRune(r)
	}

	return b.String()
}

// ConfigTopic returns the topic this message is published to under the provided discovery prefix.
func (m DiscoveryMessage) ConfigTopic(prefix, locationID string) string {
	return discovery.ConfigTopic(prefix, m.Component, locationID, m.UniqueID)
}

// Topics returns the topics this message advertises.
func (m DiscoveryMessage) Topics() Topics {
	t := Topics{
		State:      m.StateTopic,
		Command:    m.CommandTopic,
		Attributes: m.AttributesTopic,
	}

	if t.State == "" {
		t.State = m.ImageTopic
	}

	if m.Brightness != nil {
		t.BrightnessState = m.Brightness.StateTopic
		t.BrightnessCommand = m.Brightness.CommandTopic
	}

	if m.Fan != nil {
		t.PercentageState = m.Fan.PercentageStateTopic
		t.PercentageCommand = m.Fan.PercentageCommandTopic
		t.PresetModeState = m.Fan.PresetModeStateTopic
		t.PresetModeCommand = m.Fan.PresetModeCommandTopic
	}

	return t
}

func (m DiscoveryMessage) MarshalJSONTo(e *jsontext.Encoder) error {
	return errors.Join(
		e.WriteToken(jsontext.BeginObject),

		discovery.MarshalAlways(e, discovery.FieldName, m.Name),
		discovery.MarshalStdComparable("unique_id", e, discovery.FieldUniqueID, m.UniqueID),
		discovery.MarshalRequiredTopic("availability", e, discovery.FieldAvailabilityTopic, m.AvailabilityTopic),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldPayloadAvailable, m.Availability.Available),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldPayloadNotAvailable, m.Availability.Unavailable),
		discovery.MaybeMarshalTopic(e, discovery.FieldTopic, m.ImageTopic),
		discovery.MaybeMarshalTopic(e, discovery.FieldStateTopic, m.StateTopic),
		discovery.MaybeMarshalTopic(e, discovery.FieldCommandTopic, m.CommandTopic),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldDeviceClass, m.DeviceClass),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldUnitOfMeasurement, m.UnitOfMeasurement),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldStateClass, m.StateClass),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldValueTemplate, m.ValueTemplate),
		discovery.MaybeMarshalStd(e, discovery.FieldMin, m.Min),
		discovery.MaybeMarshalStd(e, discovery.FieldMax, m.Max),
		discovery.MaybeMarshalTopic(e, discovery.FieldAttributesTopic, m.AttributesTopic),
		discovery.MaybeMarshalStdComparable(e, discovery.FieldIcon, m.Icon),

		m.marshalAlarmCode(e),
		m.marshalBrightness(e),
		m.marshalFan(e),

		discovery.MarshalAlways(e, discovery.FieldDevice, m.Device),

		e.WriteToken(jsontext.EndObject),
	)
}

func (m DiscoveryMessage) marshalAlarmCode(e *jsontext.Encoder) error {
	if m.AlarmCode == nil {
		return nil
	}

	return errors.Join(
		discovery.MarshalAlways(e, discovery.FieldCode, m.AlarmCode.Code),
		discovery.MarshalAlways(e, discovery.FieldCodeArmRequired, false),
		discovery.MarshalAlways(e, discovery.FieldCodeDisarmRequired, true),
	)
}

func (m DiscoveryMessage) marshalBrightness(e *jsontext.Encoder) error {
	if m.Brightness == nil {
		return nil
	}

	return errors.Join(
		discovery.MarshalRequiredTopic("brightness", e, discovery.FieldBrightnessStateTopic, m.Brightness.StateTopic),
		discovery.MarshalRequiredTopic("brightness", e, discovery.FieldBrightnessCommandTopic, m.Brightness.CommandTopic),
		discovery.MarshalAlways(e, discovery.FieldBrightnessScale, m.Brightness.Scale),
	)
}

func (m DiscoveryMessage) marshalFan(e *jsontext.Encoder) error {
	if m.Fan == nil {
		return nil
	}

	return errors.Join(
		discovery.MarshalRequiredTopic("fan", e, discovery.FieldPercentageStateTopic, m.Fan.PercentageStateTopic),
		discovery.MarshalRequiredTopic("fan", e, discovery.FieldPercentageCommandTopic, m.Fan.PercentageCommandTopic),
		discovery.MarshalRequiredTopic("fan", e, discovery.FieldPresetModeStateTopic, m.Fan.PresetModeStateTopic),
		discovery.MarshalRequiredTopic("fan", e, discovery.FieldPresetModeCommandTopic, m.Fan.PresetModeCommandTopic),
		discovery.MarshalAlways(e, discovery.FieldPresetModes, FanPresetModes()),
		discovery.MarshalAlways(e, discovery.FieldSpeedRangeMin, FanSpeedRangeMin),
		discovery.MarshalAlways(e, discovery.FieldSpeedRangeMax, FanSpeedRangeMax),
	)
}
