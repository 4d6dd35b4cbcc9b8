package hadevice

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/nlowe/hadevice/discovery"
	"github.com/nlowe/hadevice/hass"
	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

var (
	// ErrUnknownEntity is returned when an operation names an entity that was never added to the Device.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrEntityNotResolved is returned when publishing state for an entity before its discovery was published.
	ErrEntityNotResolved = errors.New("entity has not been discovered yet")
	// ErrNoAttributesTopic is returned by Device.PublishEntityAttributes for entities without a json_attributes_topic.
	ErrNoAttributesTopic = errors.New("entity has no attributes topic")
)

// DefaultRootTopic is the root of every device topic when Config.RootTopic is empty.
const DefaultRootTopic = "ring"

// Info is the vendor's description of a device.
type Info struct {
	// Name is the display name used to build entity names.
	Name string
	// Category groups devices in the topic tree, e.g. "alarm", "camera", "lighting".
	Category string
	// Metadata is sent as the `device` block of every discovery payload.
	Metadata Metadata
}

// Config holds settings shared by every Device in a process.
type Config struct {
	// RootTopic prefixes every device topic. Defaults to DefaultRootTopic.
	RootTopic string
	// DiscoveryPrefix is the topic Home Assistant listens to for discovery. Defaults to discovery.DefaultPrefix.
	DiscoveryPrefix string
	// DisarmCode, when set, is advertised to alarm control panels as the code required to disarm.
	DisarmCode string
}

// Device publishes a set of entities to Home Assistant using MQTT discovery and tracks the device's availability. A
// Device is meant to be driven by a single goroutine; command callbacks from the transport may run concurrently.
type Device struct {
	id         string
	locationID string
	info       Info
	config     Config
	delays     Delays
	sleep      SleepFunc

	w        mqtt.Writer
	s        mqtt.Subscriber
	commands CommandHandler

	deviceTopic       string
	availabilityTopic string

	mu           sync.Mutex
	availability hass.Availability
	names        []string
	entities     map[string]*Entity
	subscribed   map[string]struct{}

	// subscribeMu is held across Subscribe so a command topic is subscribed at most once.
	subscribeMu sync.Mutex

	log *slog.Logger
}

// Option customizes a Device constructed with NewDevice.
type Option func(*Device)

// WithDelays replaces DefaultDelays.
func WithDelays(delays Delays) Option {
	return func(d *Device) {
		d.delays = delays
	}
}

// WithSleep replaces the function used to wait between publishes.
func WithSleep(sleep SleepFunc) Option {
	return func(d *Device) {
		d.sleep = sleep
	}
}

// WithCommandHandler routes messages received on the device's command topics to h.
func WithCommandHandler(h CommandHandler) Option {
	return func(d *Device) {
		d.commands = h
	}
}

// NewDevice constructs a Device with the topic {root}/{locationID}/{category}/{deviceID}. Entities are published on c
// and command topics are subscribed on c. The Device starts in the hass.AvailabilityInit state.
func NewDevice(info Info, deviceID, locationID string, config Config, c mqtt.Client, opts ...Option) *Device {
	if config.RootTopic == "" {
		config.RootTopic = DefaultRootTopic
	}

	if config.DiscoveryPrefix == "" {
		config.DiscoveryPrefix = discovery.DefaultPrefix
	}

	info.Metadata = info.Metadata.withDefaults(deviceID, info.Name)

	deviceTopic := mqtt.JoinTopic(config.RootTopic, locationID, info.Category, deviceID)
	d := &Device{
		id:         deviceID,
		locationID: locationID,
		info:       info,
		config:     config,
		delays:     DefaultDelays,
		sleep:      Sleep,

		w: c,
		s: c,

		deviceTopic:       deviceTopic,
		availabilityTopic: mqtt.JoinTopic(deviceTopic, "status"),

		availability: hass.AvailabilityInit,
		entities:     map[string]*Entity{},
		subscribed:   map[string]struct{}{},

		log: log.ForComponent("device").With(
			slog.String("device_id", deviceID),
			slog.String("location_id", locationID),
		),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ID returns the device identifier.
func (d *Device) ID() string {
	return d.id
}

// LocationID returns the location the device belongs to.
func (d *Device) LocationID() string {
	return d.locationID
}

// Info returns the Info the device was constructed with, including defaulted Metadata.
func (d *Device) Info() Info {
	return d.info
}

// Topic returns the base topic for all of the device's entities.
func (d *Device) Topic() string {
	return d.deviceTopic
}

// AvailabilityTopic returns the topic the device's availability is published to.
func (d *Device) AvailabilityTopic() string {
	return d.availabilityTopic
}

// Availability returns the device's current availability state.
func (d *Device) Availability() hass.Availability {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.availability
}

// AddEntity declares an entity. Entities are discovered in the order they are added. Adding an entity with a name that
// is already in use replaces the previous declaration in place.
func (d *Device) AddEntity(name string, e *Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entities[name]; !ok {
		d.names = append(d.names, name)
	}

	d.entities[name] = e
}

// Entity returns the entity declared with name.
func (d *Device) Entity(name string) (*Entity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entities[name]
	return e, ok
}

// EntityNames returns the names of every declared entity in the order they were added.
func (d *Device) EntityNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.names)
}

// Topics returns the resolved topics for the named entity. The second return value is false if the entity is unknown
// or has not been discovered yet.
func (d *Device) Topics(name string) (Topics, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.entities[name].Topics()
}

func (d *Device) discoveryContext() DiscoveryContext {
	return DiscoveryContext{
		DeviceID:          d.id,
		DeviceName:        d.info.Name,
		DeviceTopic:       d.deviceTopic,
		AvailabilityTopic: d.availabilityTopic,
		DisarmCode:        d.config.DisarmCode,
		Metadata:          d.info.Metadata,
	}
}

// PublishDiscovery publishes a discovery payload for every entity, then waits Delays.Discovery so Home Assistant can
// register the entities before any state arrives.
//
// The first time an entity is discovered its topics are recorded and its command topics are subscribed. Later calls
// republish the payload without subscribing again. An entity whose subscription fails is not published and stays
// Unresolved so the next call retries it. Errors for individual entities are joined and the grace delay is skipped.
// Concurrent calls never subscribe a command topic twice.
func (d *Device) PublishDiscovery(ctx context.Context) error {
	var errs []error
	for _, name := range d.EntityNames() {
		if err := d.publishEntityDiscovery(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("discovery for %s: %w", name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	return d.sleep(ctx, d.delays.Discovery)
}

func (d *Device) publishEntityDiscovery(ctx context.Context, name string) error {
	d.mu.Lock()
	e, ok := d.entities[name]
	if !ok {
		d.mu.Unlock()
		return ErrUnknownEntity
	}

	msg := BuildDiscoveryMessage(d.discoveryContext(), name, e)
	resolved := e.Resolved()
	d.mu.Unlock()

	if !resolved {
		topics := msg.Topics()
		if err := d.subscribeCommands(ctx, topics.CommandTopics()); err != nil {
			return err
		}

		d.mu.Lock()
		e.resolve(topics)
		d.mu.Unlock()

		d.log.With(slog.String("entity", name), slog.Any("topics", topics.StateTopics())).Debug("Resolved entity topics")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal discovery payload: %w", err)
	}

	configTopic := msg.ConfigTopic(d.config.DiscoveryPrefix, d.locationID)
	d.log.With(slog.String("entity", name), log.Topic(configTopic)).Debug("Publishing discovery")
	d.log.Log(ctx, log.LevelTrace, "Discovery payload", log.Topic(configTopic), log.Payload(payload))

	return d.w.WriteTopic(ctx, configTopic, mqtt.AtLeastOnce, payload)
}

// subscribeCommands subscribes to every topic not already subscribed by this Device. It is safe to call concurrently.
func (d *Device) subscribeCommands(ctx context.Context, topics []string) error {
	d.subscribeMu.Lock()
	defer d.subscribeMu.Unlock()

	d.mu.Lock()
	var pending []mqtt.Subscription
	for _, topic := range topics {
		if _, ok := d.subscribed[topic]; !ok {
			pending = append(pending, mqtt.CommandSubscription(topic))
		}
	}
	d.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	d.log.With(slog.Any("subscriptions", pending)).Debug("Subscribing to command topics")
	if err := d.s.Subscribe(ctx, d, pending...); err != nil {
		return fmt.Errorf("subscribe to command topics: %w", err)
	}

	d.mu.Lock()
	for _, s := range pending {
		d.subscribed[s.Topic] = struct{}{}
	}
	d.mu.Unlock()

	return nil
}

// PublishMQTT writes message to topic with QoS 1. When debug is set the write is logged at debug level. Write errors
// are returned unchanged.
func (d *Device) PublishMQTT(ctx context.Context, topic, message string, debug bool) error {
	if debug {
		d.log.With(log.Topic(topic), slog.String("message", message)).Debug("Publishing")
	}

	return d.w.WriteTopic(ctx, topic, mqtt.AtLeastOnce, []byte(message))
}

// PublishAvailabilityState publishes the current availability state to the availability topic.
func (d *Device) PublishAvailabilityState(ctx context.Context, debug bool) error {
	payload, err := hass.AvailabilityMarshaler(d.Availability())
	if err != nil {
		return err
	}

	return d.PublishMQTT(ctx, d.availabilityTopic, string(payload), debug)
}

// Online marks the device available and publishes it. The publish is bracketed by Delays.OnlineBefore and
// Delays.OnlineAfter. Republishing an unchanged state is not logged.
func (d *Device) Online(ctx context.Context) error {
	debug := d.Availability() != hass.Available

	if err := d.sleep(ctx, d.delays.OnlineBefore); err != nil {
		return err
	}

	d.setAvailability(hass.Available)
	if err := d.PublishAvailabilityState(ctx, debug); err != nil {
		return err
	}

	return d.sleep(ctx, d.delays.OnlineAfter)
}

// Offline marks the device unavailable and publishes it immediately. Republishing an unchanged state is not logged.
func (d *Device) Offline(ctx context.Context) error {
	debug := d.Availability() != hass.Unavailable

	d.setAvailability(hass.Unavailable)
	return d.PublishAvailabilityState(ctx, debug)
}

func (d *Device) setAvailability(a hass.Availability) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.availability = a
}

// PublishEntityState publishes message to the entity's resolved state topic.
func (d *Device) PublishEntityState(ctx context.Context, name, message string) error {
	topics, err := d.resolvedTopics(name)
	if err != nil {
		return err
	}

	return d.PublishMQTT(ctx, topics.State, message, true)
}

// PublishEntityAttributes publishes attrs as json to the entity's resolved json_attributes_topic.
func (d *Device) PublishEntityAttributes(ctx context.Context, name string, attrs any) error {
	topics, err := d.resolvedTopics(name)
	if err != nil {
		return err
	}

	if topics.Attributes == "" {
		return fmt.Errorf("%s: %w", name, ErrNoAttributesTopic)
	}

	payload, err := mqtt.JsonValueMarshaler[any]()(attrs)
	if err != nil {
		return fmt.Errorf("marshal attributes for %s: %w", name, err)
	}

	return d.PublishMQTT(ctx, topics.Attributes, string(payload), true)
}

func (d *Device) resolvedTopics(name string) (Topics, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entities[name]
	if !ok {
		return Topics{}, fmt.Errorf("%s: %w", name, ErrUnknownEntity)
	}

	topics, ok := e.Topics()
	if !ok {
		return Topics{}, fmt.Errorf("%s: %w", name, ErrEntityNotResolved)
	}

	return topics, nil
}
