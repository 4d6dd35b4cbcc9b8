package hass

// StateClass describes how Home Assistant should build long-term statistics for a sensor.
type StateClass string

const (
	// StateClassMeasurement indicates the state represents a measurement in present time, such as the current
	// temperature or remaining battery capacity.
	StateClassMeasurement StateClass = "measurement"

	// StateClassMeasurementAngle indicates a present-time measurement of an angle in degrees.
	StateClassMeasurementAngle StateClass = "measurement_angle"

	// StateClassTotal indicates a total amount that can both increase and decrease, e.g. a net energy meter.
	StateClassTotal StateClass = "total"

	// StateClassTotalIncreasing indicates a monotonically increasing total which periodically restarts counting from
	// 0, e.g. a daily amount of consumed gas.
	StateClassTotalIncreasing StateClass = "total_increasing"
)
