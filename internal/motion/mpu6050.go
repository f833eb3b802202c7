package motion

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddr is the MPU-6050 address with AD0 grounded.
const DefaultAddr = 0x68

type register uint8

const (
	regPowerManagement register = 0x6B
	regAccelXHigh      register = 0x3B
)

const wakeUp = 0x00

// MPU6050 reads the accelerometer of an InvenSense MPU-6050.
type MPU6050 struct {
	dev       i2c.Dev
	Threshold int16
}

// NewMPU6050 wakes the chip at addr on bus.
func NewMPU6050(bus i2c.Bus, addr uint16) (*MPU6050, error) {
	m := &MPU6050{dev: i2c.Dev{Bus: bus, Addr: addr}, Threshold: Threshold}
	if err := m.writeRegister(regPowerManagement, wakeUp); err != nil {
		return nil, fmt.Errorf("wake mpu6050: %w", err)
	}
	return m, nil
}

// Read returns the X, Y and Z accelerometer values.
func (m *MPU6050) Read() (Reading, error) {
	var buf [6]byte
	if err := m.dev.Tx([]byte{byte(regAccelXHigh)}, buf[:]); err != nil {
		return Reading{}, fmt.Errorf("read accelerometer: %w", err)
	}
	return Reading{
		X: int16(binary.BigEndian.Uint16(buf[0:2])),
		Y: int16(binary.BigEndian.Uint16(buf[2:4])),
		Z: int16(binary.BigEndian.Uint16(buf[4:6])),
	}, nil
}

// Moving implements Sensor.
func (m *MPU6050) Moving() (bool, error) {
	r, err := m.Read()
	if err != nil {
		return false, err
	}
	return r.Exceeds(m.Threshold), nil
}

func (m *MPU6050) writeRegister(r register, data ...byte) error {
	w := append([]byte{byte(r)}, data...)
	if err := m.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("tx: %w", err)
	}
	return nil
}
