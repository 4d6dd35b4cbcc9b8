package discovery

import (
	"github.com/nlowe/hadevice/hass"
	"github.com/nlowe/hadevice/mqtt"
)

const (
	// DefaultPrefix is the MQTT Topic Prefix that Home Assistant looks for discovery payloads under
	DefaultPrefix = "homeassistant"
	// StatusTopic is the MQTT Topic that Home Assistant publishes hass.Availability state to for itself.
	StatusTopic = "status"
	// ConfigTopicSuffix is the final level of every discovery topic.
	ConfigTopicSuffix = "config"
)

// ConfigTopic returns the discovery topic for a single entity: {prefix}/{component}/{nodeID}/{objectID}/config. An
// empty prefix uses DefaultPrefix.
func ConfigTopic(prefix string, component hass.Component, nodeID, objectID string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return mqtt.JoinTopic(prefix, string(component), nodeID, objectID, ConfigTopicSuffix)
}

// HomeAssistantAvailability constructs a mqtt.RemoteValue that monitors Home Assistant's availability topic. Watch it
// to be notified when Home Assistant restarts and discovery needs to be sent again.
//
// See https://www.home-assistant.io/integrations/mqtt/#birth-and-last-will-messages.
func HomeAssistantAvailability(discoveryPrefix string) *mqtt.RemoteValue[hass.Availability] {
	if discoveryPrefix == "" {
		discoveryPrefix = DefaultPrefix
	}

	return mqtt.NewRemoteValueWithOptions(
		mqtt.JoinTopic(discoveryPrefix, StatusTopic),
		hass.AvailabilityUnmarshaler,
		mqtt.ReadOptions{QoS: mqtt.QOSAtLeastOnce},
	)
}
