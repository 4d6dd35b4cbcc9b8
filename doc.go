// Package hadevice represents a physical or virtual device as a set of MQTT topics that Home Assistant discovers
// automatically.
//
// A Device owns a topic tree of the form {root}/{location}/{category}/{device id}. Each Entity declared on the device
// gets a discovery payload published under the Home Assistant discovery prefix, a state topic below the device topic,
// and, for interactive components, command topics the Device subscribes to. Availability is published to
// {device topic}/status as "online" or "offline".
//
//	d := hadevice.NewDevice(hadevice.Info{Name: "Garage", Category: "sensor"}, "abc123", "loc1", hadevice.Config{}, client)
//	d.AddEntity("battery", &hadevice.Entity{Component: hass.ComponentSensor, UnitOfMeasurement: "%"})
//
//	if err := d.PublishDiscovery(ctx); err != nil {
//	    return err
//	}
//
//	return d.Online(ctx)
package hadevice
