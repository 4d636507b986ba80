// Package aht20 drives the Aosong AHT20 temperature/humidity sensor over
// any drivers.I2C, including the mcu/hal I2C master wrapper.
//
// A measurement has two phases:
//
//	d.Trigger()           // start a conversion
//	err := d.Collect(&s)  // errcode.Busy while the conversion runs
//
// Read does both with bounded polling. Results are fixed point, in the same
// units the SHTC3 driver reports: m°C and hundredths of %RH.
package aht20

import (
	"time"

	"tinygo.org/x/drivers"

	"mcukit/errcode"
)

const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

// Config is optional; zero fields take defaults.
type Config struct {
	Address uint16
	// PollInterval is the wait between Collect attempts in Read. Default 15ms.
	PollInterval time.Duration
	// CollectTimeout bounds Read. Default 250ms.
	CollectTimeout time.Duration
	// Sleep replaces time.Sleep, for tests and RTOS delays.
	Sleep func(time.Duration)
}

func (c *Config) defaults() {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 250 * time.Millisecond
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

type Device struct {
	bus drivers.I2C
	cfg Config
	buf [7]byte
}

// Sample is one raw 20-bit reading pair.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// MilliCelsius is T = raw/2^20 * 200 - 50, in m°C.
func (s Sample) MilliCelsius() int32 {
	return int32((int64(s.RawTemp)*200000)>>20) - 50000
}

// RHx100 is RH = raw/2^20 * 100, in hundredths of a percent.
func (s Sample) RHx100() int32 {
	return int32((int64(s.RawHumidity) * 10000) >> 20)
}

// New does not touch the bus.
func New(bus drivers.I2C, cfg Config) *Device {
	cfg.defaults()
	return &Device{bus: bus, cfg: cfg}
}

func (d *Device) Address() uint16 { return d.cfg.Address }

// Configure calibrates the sensor unless it already reports calibrated.
func (d *Device) Configure() error {
	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	d.cfg.Sleep(10 * time.Millisecond)
	return nil
}

// Reset soft-resets the sensor. It needs about 20ms before the next command.
func (d *Device) Reset() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdSoftReset}, nil)
}

func (d *Device) Status() (byte, error) {
	var st [1]byte
	if err := d.bus.Tx(d.cfg.Address, []byte{cmdStatus}, st[:]); err != nil {
		return 0, err
	}
	return st[0], nil
}

func (d *Device) Trigger() error {
	return d.bus.Tx(d.cfg.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads the last conversion. errcode.Busy means not finished yet.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.cfg.Address, nil, data); err != nil {
		return err
	}
	if data[0]&statusCalibrated == 0 || data[0]&statusBusy != 0 {
		return errcode.Busy
	}
	out.RawHumidity = uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4
	out.RawTemp = uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5])
	return nil
}

// Read triggers a conversion and polls until it completes.
func (d *Device) Read() (Sample, error) {
	var s Sample
	if err := d.Trigger(); err != nil {
		return s, err
	}
	for waited := time.Duration(0); ; waited += d.cfg.PollInterval {
		err := d.Collect(&s)
		if err != errcode.Busy {
			return s, err
		}
		if waited >= d.cfg.CollectTimeout {
			return s, errcode.Timeout
		}
		d.cfg.Sleep(d.cfg.PollInterval)
	}
}
