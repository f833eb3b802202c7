package motion

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Device is an MPU6050 on a bus that Open owns.
type Device struct {
	*MPU6050
	bus i2c.BusCloser
}

// Open initializes the host drivers and wakes an MPU6050 on the named bus.
// An empty name selects the first bus found.
func Open(busName string, addr uint16) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	m, err := NewMPU6050(bus, addr)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return &Device{MPU6050: m, bus: bus}, nil
}

// Close releases the bus.
func (d *Device) Close() error {
	return d.bus.Close()
}
