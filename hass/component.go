package hass

import "slices"

// Component is the Home Assistant MQTT platform an entity is discovered as. It is the {component} level of the
// discovery topic.
type Component string

const (
	ComponentAlarmControlPanel Component = "alarm_control_panel"
	ComponentBinarySensor      Component = "binary_sensor"
	ComponentButton            Component = "button"
	ComponentCamera            Component = "camera"
	ComponentFan               Component = "fan"
	ComponentLight             Component = "light"
	ComponentLock              Component = "lock"
	ComponentNumber            Component = "number"
	ComponentSelect            Component = "select"
	ComponentSensor            Component = "sensor"
	ComponentSiren             Component = "siren"
	ComponentSwitch            Component = "switch"
)

var components = []Component{
	ComponentAlarmControlPanel,
	ComponentBinarySensor,
	ComponentButton,
	ComponentCamera,
	ComponentFan,
	ComponentLight,
	ComponentLock,
	ComponentNumber,
	ComponentSelect,
	ComponentSensor,
	ComponentSiren,
	ComponentSwitch,
}

// Known reports whether c is one of the components declared in this package.
func (c Component) Known() bool {
	return slices.Contains(components, c)
}

// Traits describes the topic layout a Component needs in its discovery payload.
type Traits struct {
	// Commandable components are sent a command_topic and subscribed to it.
	Commandable bool
	// Image components publish to `topic` ending in /image instead of `state_topic`.
	Image bool
	// Fan components carry the percentage and preset mode topic block.
	Fan bool
	// AlarmPanel components carry the disarm code fields when a code is configured.
	AlarmPanel bool
}

// Traits returns the topic layout for c. Components not listed below are plain read-only state publishers.
func (c Component) Traits() Traits {
	switch c {
	case ComponentSwitch, ComponentNumber, ComponentLight, ComponentLock:
		return Traits{Commandable: true}
	case ComponentFan:
		return Traits{Commandable: true, Fan: true}
	case ComponentAlarmControlPanel:
		return Traits{Commandable: true, AlarmPanel: true}
	case ComponentCamera:
		return Traits{Image: true}
	default:
		return Traits{}
	}
}
