package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlowe/hadevice"
	"github.com/nlowe/hadevice/config"
	"github.com/nlowe/hadevice/discovery"
	"github.com/nlowe/hadevice/hass"
	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

// deviceIDs assigns ids to devices that do not configure one.
type deviceIDs interface {
	DeviceID(locationID, category, name string) (string, error)
}

// resolveDeviceIDs returns the id of every configured device in order.
func resolveDeviceIDs(cfg *config.Config, ids deviceIDs) ([]string, error) {
	result := make([]string, len(cfg.Devices))
	for i, d := range cfg.Devices {
		if d.ID != "" {
			result[i] = d.ID
			continue
		}

		id, err := ids.DeviceID(cfg.LocationID, d.Category, d.Name)
		if err != nil {
			return nil, err
		}

		result[i] = id
	}

	return result, nil
}

// workers runs work started from transport callbacks until it is closed.
type workers struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Go runs f in a new goroutine unless the workers were closed, reporting whether f was started.
func (w *workers) Go(f func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	w.wg.Go(f)
	return true
}

// Wait blocks until every started goroutine returns.
func (w *workers) Wait() {
	w.wg.Wait()
}

// Close stops accepting work and waits for the goroutines already started.
func (w *workers) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
}

// bridge owns every configured Device.
type bridge struct {
	ctx context.Context

	discoveryPrefix string
	devices         []*hadevice.Device

	// publishMu serializes discovery runs started by Home Assistant restarts.
	publishMu sync.Mutex
	workers   workers

	log *slog.Logger
}

// newBridge constructs a Device for every configured device. ctx bounds work started from transport callbacks.
func newBridge(ctx context.Context, cfg *config.Config, ids []string, c mqtt.Client, opts ...hadevice.Option) *bridge {
	b := &bridge{
		ctx:             ctx,
		discoveryPrefix: cfg.DiscoveryPrefix,
		log:             log.ForComponent("bridge"),
	}

	for i, dc := range cfg.Devices {
		m := &mirror{
			ctx:     ctx,
			workers: &b.workers,
			log:     log.ForComponent("mirror").With(slog.String("device_id", ids[i])),
		}

		deviceOpts := append([]hadevice.Option{
			hadevice.WithDelays(cfg.Delays),
			hadevice.WithCommandHandler(m),
		}, opts...)

		d := hadevice.NewDevice(dc.Info(), ids[i], cfg.LocationID, cfg.Device(), c, deviceOpts...)
		for _, e := range dc.Entities {
			d.AddEntity(e.Name, e.Entity)
		}

		m.device = d
		b.devices = append(b.devices, d)
	}

	return b
}

// watchHomeAssistant republishes every device each time Home Assistant reports itself online.
func (b *bridge) watchHomeAssistant(ctx context.Context, s mqtt.Subscriber) error {
	status := discovery.HomeAssistantAvailability(b.discoveryPrefix)
	status.Watch(func(a hass.Availability) {
		if a != hass.Available {
			b.log.With(slog.Any("availability", a)).Info("Home Assistant went away")
			return
		}

		started := b.workers.Go(func() {
			b.log.Info("Home Assistant is online, republishing devices")
			if err := b.publish(b.ctx); err != nil {
				b.log.With(log.Error(err)).Error("Failed to republish devices")
			}
		})
		if !started {
			b.log.Debug("Shutting down, not republishing devices")
		}
	})

	if err := s.Subscribe(ctx, status, status.Subscription()); err != nil {
		return fmt.Errorf("subscribe to home assistant status: %w", err)
	}

	return nil
}

// publish sends discovery for every device and marks each one online. A device that fails is skipped and reported.
func (b *bridge) publish(ctx context.Context) error {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	var errs []error
	for _, d := range b.devices {
		if err := d.PublishDiscovery(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", d.ID(), err))
			continue
		}

		if err := d.Online(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", d.ID(), err))
		}
	}

	return errors.Join(errs...)
}

// shutdown stops accepting work from callbacks, waits for work already in flight, then marks every device offline.
// Messages that arrive afterwards are dropped. Cancel the context passed to newBridge first so that work stops early.
func (b *bridge) shutdown(ctx context.Context) error {
	b.workers.Close()

	var errs []error
	for _, d := range b.devices {
		if err := d.Offline(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", d.ID(), err))
		}
	}

	return errors.Join(errs...)
}

func (b *bridge) wait() {
	b.workers.Wait()
}
