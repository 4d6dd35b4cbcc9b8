package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nlowe/hadevice"
	"github.com/nlowe/hadevice/hass"
	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

// Command kinds, the last level of a command topic.
const (
	kindCommand           = "command"
	kindBrightnessCommand = "brightness_command"
	kindPercentageCommand = "percent_speed_command"
	kindPresetModeCommand = "speed_command"
)

const mirrorTimeout = 5 * time.Second

var (
	errUnsupportedCommand = errors.New("unsupported command")
	errInvalidPayload     = errors.New("invalid payload")
)

var (
	lockStates = map[string]string{
		"LOCK":   "LOCKED",
		"UNLOCK": "UNLOCKED",
	}

	alarmStates = map[string]string{
		"DISARM":            "disarmed",
		"ARM_HOME":          "armed_home",
		"ARM_AWAY":          "armed_away",
		"ARM_NIGHT":         "armed_night",
		"ARM_VACATION":      "armed_vacation",
		"ARM_CUSTOM_BYPASS": "armed_custom_bypass",
		"TRIGGER":           "triggered",
	}
)

// mirrorState returns the state topic and payload that acknowledge cmd for an entity of the given component.
func mirrorState(component hass.Component, topics hadevice.Topics, cmd hadevice.Command) (string, string, error) {
	payload := strings.TrimSpace(string(cmd.Payload))

	var (
		topic string
		state string
		err   error
	)

	switch cmd.Kind {
	case kindCommand:
		topic = topics.State
		state, err = mirrorCommand(component, payload)
	case kindBrightnessCommand:
		topic = topics.BrightnessState
		state, err = payload, checkNumber(payload)
	case kindPercentageCommand:
		topic = topics.PercentageState
		state, err = payload, checkPercentage(payload)
	case kindPresetModeCommand:
		topic = topics.PresetModeState
		state = strings.ToLower(payload)
		if !slices.Contains(hadevice.FanPresetModes(), state) {
			err = fmt.Errorf("%w: unknown preset mode %q", errInvalidPayload, payload)
		}
	default:
		return "", "", fmt.Errorf("%w: %s", errUnsupportedCommand, cmd.Kind)
	}

	if err != nil {
		return "", "", err
	}

	if topic == "" {
		return "", "", fmt.Errorf("%w: %s has no state topic for %s", errUnsupportedCommand, cmd.Entity, cmd.Kind)
	}

	return topic, state, nil
}

func mirrorCommand(component hass.Component, payload string) (string, error) {
	switch component {
	case hass.ComponentSwitch, hass.ComponentLight, hass.ComponentFan:
		ps, err := hass.PowerStateUnmarshaler([]byte(payload))
		if err != nil {
			return "", fmt.Errorf("%w: %w", errInvalidPayload, err)
		}

		state, err := hass.PowerStateMarshaler(ps)
		return string(state), err
	case hass.ComponentLock:
		return lookupState(lockStates, payload)
	case hass.ComponentAlarmControlPanel:
		return lookupState(alarmStates, payload)
	case hass.ComponentNumber:
		return payload, checkNumber(payload)
	default:
		return payload, nil
	}
}

func lookupState(states map[string]string, payload string) (string, error) {
	if state, ok := states[strings.ToUpper(payload)]; ok {
		return state, nil
	}

	return "", fmt.Errorf("%w: %q", errInvalidPayload, payload)
}

func checkNumber(payload string) error {
	if _, err := strconv.ParseFloat(payload, 64); err != nil {
		return fmt.Errorf("%w: %q is not a number", errInvalidPayload, payload)
	}

	return nil
}

func checkPercentage(payload string) error {
	v, err := mqtt.UintUnmarshaler([]byte(payload))
	if err != nil || v > 100 {
		return fmt.Errorf("%w: %q is not a percentage", errInvalidPayload, payload)
	}

	return nil
}

// mirror acknowledges commands by publishing them back to the matching state topic, the way a device that accepted the
// command would.
type mirror struct {
	ctx     context.Context
	device  *hadevice.Device
	workers *workers
	log     *slog.Logger
}

func (m *mirror) HandleCommand(_ mqtt.Writer, cmd hadevice.Command) {
	e, ok := m.device.Entity(cmd.Entity)
	if !ok {
		return
	}

	topics, ok := e.Topics()
	if !ok {
		return
	}

	topic, state, err := mirrorState(e.Component, topics, cmd)
	if err != nil {
		m.log.With(slog.Any("command", cmd), log.Error(err)).Warn("Ignoring command")
		return
	}

	// Publishing waits for the broker to acknowledge, which must not happen on the transport's goroutine.
	started := m.workers.Go(func() {
		ctx, cancel := context.WithTimeout(m.ctx, mirrorTimeout)
		defer cancel()

		if err := m.device.PublishMQTT(ctx, topic, state, true); err != nil {
			m.log.With(log.Topic(topic), log.Error(err)).Error("Failed to publish state")
		}
	})
	if !started {
		m.log.With(slog.Any("command", cmd)).Debug("Shutting down, dropping command")
	}
}
