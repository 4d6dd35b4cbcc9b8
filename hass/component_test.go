package hass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTraits(t *testing.T) {
	for _, tt := range []struct {
		component Component
		want      Traits
	}{
		{component: ComponentSwitch, want: Traits{Commandable: true}},
		{component: ComponentNumber, want: Traits{Commandable: true}},
		{component: ComponentLight, want: Traits{Commandable: true}},
		{component: ComponentLock, want: Traits{Commandable: true}},
		{component: ComponentFan, want: Traits{Commandable: true, Fan: true}},
		{component: ComponentAlarmControlPanel, want: Traits{Commandable: true, AlarmPanel: true}},
		{component: ComponentCamera, want: Traits{Image: true}},
		{component: ComponentSensor, want: Traits{}},
		{component: ComponentBinarySensor, want: Traits{}},
		{component: ComponentSelect, want: Traits{}},
		{component: ComponentSiren, want: Traits{}},
		{component: Component("vacuum"), want: Traits{}},
	} {
		t.Run(string(tt.component), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.component.Traits())
		})
	}
}

func TestComponentKnown(t *testing.T) {
	assert.True(t, ComponentSensor.Known())
	assert.True(t, ComponentAlarmControlPanel.Known())
	assert.False(t, Component("vacuum").Known())
	assert.False(t, Component("").Known())
}

func TestPowerStateUnmarshaler(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want PowerState
	}{
		{in: "ON", want: PowerStateOn},
		{in: "off", want: PowerStateOff},
		{in: " On\n", want: PowerStateOn},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PowerStateUnmarshaler([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PowerStateUnmarshaler([]byte("toggle"))
	require.ErrorIs(t, err, ErrInvalidPowerState)
}
