// Package config loads the YAML configuration for the hadevice bridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nlowe/hadevice"
	"github.com/nlowe/hadevice/discovery"
	"github.com/nlowe/hadevice/log"
)

// ErrInvalidConfig is wrapped by every validation error returned from Load.
var ErrInvalidConfig = errors.New("invalid config")

// Protocol selects the MQTT transport.
type Protocol string

const (
	ProtocolV5 Protocol = "v5"
	ProtocolV3 Protocol = "v3"
)

const (
	DefaultLogLevel  = "info"
	DefaultStateFile = "hadevice.db"
	DefaultKeepAlive = 20 * time.Second
)

// MQTT holds broker connection settings.
type MQTT struct {
	// Broker is a URL such as mqtt://localhost:1883.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Protocol  Protocol      `yaml:"protocol"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

// Device declares one device and its entities.
type Device struct {
	Name string `yaml:"name"`
	// ID is the device identifier. When empty one is minted and persisted in the state file.
	ID           string   `yaml:"id"`
	Category     string   `yaml:"category"`
	Manufacturer string   `yaml:"manufacturer"`
	Model        string   `yaml:"model"`
	Entities     Entities `yaml:"entities"`
}

// Info returns the hadevice.Info for d.
func (d Device) Info() hadevice.Info {
	return hadevice.Info{
		Name:     d.Name,
		Category: d.Category,
		Metadata: hadevice.Metadata{
			Manufacturer: d.Manufacturer,
			Model:        d.Model,
		},
	}
}

// NamedEntity is an entry of Entities.
type NamedEntity struct {
	Name   string
	Entity *hadevice.Entity
}

// Entities is a YAML mapping of entity name to entity that keeps the order entities are written in.
type Entities []NamedEntity

func (e *Entities) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: entities must be a mapping", value.Line)
	}

	result := make(Entities, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}

		entity := &hadevice.Entity{}
		if err := value.Content[i+1].Decode(entity); err != nil {
			return fmt.Errorf("entity %s: %w", name, err)
		}

		result = append(result, NamedEntity{Name: name, Entity: entity})
	}

	*e = result
	return nil
}

// Config is the root of the configuration file.
type Config struct {
	LogLevel string `yaml:"log_level"`
	MQTT     MQTT   `yaml:"mqtt"`

	RootTopic       string `yaml:"root_topic"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	DisarmCode      string `yaml:"disarm_code"`
	LocationID      string `yaml:"location_id"`

	// StateFile is the bbolt database used to persist minted device ids.
	StateFile string `yaml:"state_file"`

	Delays  hadevice.Delays `yaml:"delays"`
	Devices []Device        `yaml:"devices"`
}

// Default returns a Config with every default applied and no devices.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		MQTT: MQTT{
			Protocol:  ProtocolV5,
			KeepAlive: DefaultKeepAlive,
		},
		RootTopic:       hadevice.DefaultRootTopic,
		DiscoveryPrefix: discovery.DefaultPrefix,
		StateFile:       DefaultStateFile,
		Delays:          hadevice.DefaultDelays,
	}
}

// Load reads the YAML file at path, expands ${VAR} references from the environment, fills in defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes and validates an already expanded YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults restores defaults for keys that were present but left empty.
func (c *Config) applyDefaults() {
	d := Default()

	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	if c.MQTT.Protocol == "" {
		c.MQTT.Protocol = d.MQTT.Protocol
	}

	if c.MQTT.KeepAlive <= 0 {
		c.MQTT.KeepAlive = d.MQTT.KeepAlive
	}

	if c.RootTopic == "" {
		c.RootTopic = d.RootTopic
	}

	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = d.DiscoveryPrefix
	}

	if c.StateFile == "" {
		c.StateFile = d.StateFile
	}
}

// Validate reports every problem with c. Each error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		invalid("log_level: %v", err)
	}

	if c.MQTT.Broker == "" {
		invalid("mqtt.broker is required")
	}

	if c.MQTT.Protocol != ProtocolV5 && c.MQTT.Protocol != ProtocolV3 {
		invalid("mqtt.protocol must be %q or %q, got %q", ProtocolV5, ProtocolV3, c.MQTT.Protocol)
	}

	if c.LocationID == "" {
		invalid("location_id is required")
	}

	if c.Delays.Discovery < 0 || c.Delays.OnlineBefore < 0 || c.Delays.OnlineAfter < 0 {
		invalid("delays must not be negative")
	}

	if len(c.Devices) == 0 {
		invalid("at least one device is required")
	}

	for i, d := range c.Devices {
		if d.Name == "" {
			invalid("devices[%d]: name is required", i)
		}

		if d.Category == "" {
			invalid("devices[%d]: category is required", i)
		}

		if len(d.Entities) == 0 {
			invalid("devices[%d]: at least one entity is required", i)
		}

		for _, e := range d.Entities {
			if !e.Entity.Component.Known() {
				invalid("devices[%d].entities.%s: unknown component %q", i, e.Name, e.Entity.Component)
			}
		}
	}

	return errors.Join(errs...)
}

// Device returns the settings shared by every hadevice.Device.
func (c *Config) Device() hadevice.Config {
	return hadevice.Config{
		RootTopic:       c.RootTopic,
		DiscoveryPrefix: c.DiscoveryPrefix,
		DisarmCode:      c.DisarmCode,
	}
}
