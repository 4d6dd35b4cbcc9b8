package hadevice

import (
	"github.com/nlowe/hadevice/hass"
)

// InfoEntityName is the reserved entity name for a device's diagnostic "info" sensor. Unless overridden, it publishes
// its attributes to its own state topic and uses InfoIcon.
const (
	InfoEntityName = "info"
	InfoIcon       = "mdi:information-outline"
)

// Entity declares one facet of a Device (a sensor reading, a switch, a camera feed, ...). Only Component is required;
// empty strings and nil pointers are left out of the discovery payload.
//
// An Entity starts Unresolved. The first successful Device.PublishDiscovery records its Topics and it becomes Resolved
// for the lifetime of the process.
type Entity struct {
	Component hass.Component `yaml:"component"`

	DeviceClass       string          `yaml:"device_class"`
	UnitOfMeasurement string          `yaml:"unit_of_measurement"`
	StateClass        hass.StateClass `yaml:"state_class"`
	ValueTemplate     string          `yaml:"value_template"`
	Min               *float64        `yaml:"min"`
	Max               *float64        `yaml:"max"`
	Icon              string          `yaml:"icon"`

	// Attributes publishes a json_attributes_topic at {entity topic}/attributes.
	Attributes bool `yaml:"attributes"`

	// BrightnessScale adds brightness state and command topics with the provided scale.
	BrightnessScale *int `yaml:"brightness_scale"`

	// UniqueID overrides the generated {device id}_{entity name} unique id.
	UniqueID string `yaml:"unique_id"`
	// Name overrides the generated display name.
	Name string `yaml:"name"`
	// ID marks an entity that predates per-entity naming. Its display name is the device's name with no suffix.
	ID string `yaml:"id"`

	// ParentStateTopic shares another entity's state. It is relative to the device topic, e.g. "motion/state".
	ParentStateTopic string `yaml:"parent_state_topic"`

	resolved *Topics
}

// Topics returns the topics recorded when this entity was first discovered. The second return value is false while the
// entity is Unresolved.
func (e *Entity) Topics() (Topics, bool) {
	if e == nil || e.resolved == nil {
		return Topics{}, false
	}

	return *e.resolved, true
}

// Resolved reports whether discovery has recorded topics for this entity.
func (e *Entity) Resolved() bool {
	return e != nil && e.resolved != nil
}

func (e *Entity) resolve(t Topics) {
	e.resolved = &t
}

// Topics holds the MQTT topics generated for an Entity. Empty fields were not generated for the entity's component.
type Topics struct {
	// State is the entity's state_topic, or its image topic for cameras.
	State      string
	Command    string
	Attributes string

	BrightnessState   string
	BrightnessCommand string

	PercentageState   string
	PercentageCommand string
	PresetModeState   string
	PresetModeCommand string
}

// CommandTopics returns every non-empty command topic in a fixed order.
func (t Topics) CommandTopics() []string {
	var result []string
	for _, topic := range []string{t.Command, t.BrightnessCommand, t.PercentageCommand, t.PresetModeCommand} {
		if topic != "" {
			result = append(result, topic)
		}
	}

	return result
}

// StateTopics returns every non-empty state topic in a fixed order, starting with State.
func (t Topics) StateTopics() []string {
	var result []string
	for _, topic := range []string{t.State, t.BrightnessState, t.PercentageState, t.PresetModeState} {
		if topic != "" {
			result = append(result, topic)
		}
	}

	return result
}
