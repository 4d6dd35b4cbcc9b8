// Package discovery contains constants and utilities for constructing Home Assistant MQTT Discovery payloads. Field
// constants use the unabbreviated names so payloads stay readable by tools that do not expand Home Assistant's
// abbreviations.
//
// See https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery for the payload format.
package discovery
