package discovery

// Fields shared by every component.
const (
	FieldName                = "name"
	FieldUniqueID            = "unique_id"
	FieldAvailabilityTopic   = "availability_topic"
	FieldPayloadAvailable    = "payload_available"
	FieldPayloadNotAvailable = "payload_not_available"
	FieldDevice              = "device"
	FieldIcon                = "icon"
	FieldDeviceClass         = "device_class"
	FieldValueTemplate       = "value_template"
	FieldAttributesTopic     = "json_attributes_topic"

	FieldStateTopic   = "state_topic"
	FieldCommandTopic = "command_topic"
	// FieldTopic replaces FieldStateTopic for components that publish images.
	FieldTopic = "topic"
)

// Sensor and number fields.
const (
	FieldUnitOfMeasurement = "unit_of_measurement"
	FieldStateClass        = "state_class"
	FieldMin               = "min"
	FieldMax               = "max"
)

// Alarm control panel fields.
const (
	FieldCode               = "code"
	FieldCodeArmRequired    = "code_arm_required"
	FieldCodeDisarmRequired = "code_disarm_required"
)

// Light fields.
const (
	FieldBrightnessStateTopic   = "brightness_state_topic"
	FieldBrightnessCommandTopic = "brightness_command_topic"
	FieldBrightnessScale        = "brightness_scale"
)

// Fan fields.
const (
	FieldPercentageStateTopic   = "percentage_state_topic"
	FieldPercentageCommandTopic = "percentage_command_topic"
	FieldPresetModeStateTopic   = "preset_mode_state_topic"
	FieldPresetModeCommandTopic = "preset_mode_command_topic"
	FieldPresetModes            = "preset_modes"
	FieldSpeedRangeMin          = "speed_range_min"
	FieldSpeedRangeMax          = "speed_range_max"
)

// Device metadata fields. These use Home Assistant's abbreviated forms.
const (
	FieldDeviceIdentifiers     = "ids"
	FieldDeviceName            = "name"
	FieldDeviceManufacturer    = "mf"
	FieldDeviceModel           = "mdl"
	FieldDeviceSoftwareVersion = "sw"
	FieldDeviceHardwareVersion = "hw"
	FieldDeviceSuggestedArea   = "sa"
	FieldDeviceViaDevice       = "via_device"
	FieldDeviceConfigURL       = "cu"
	FieldDeviceConnections     = "cns"
)
