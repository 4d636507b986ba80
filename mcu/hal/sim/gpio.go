package sim

import (
	"mcukit/mcu"
	"mcukit/mcu/hal"
)

type pinKey struct {
	port hal.GPIOPort
	pin  uint16
}

type pinState struct {
	level mcu.IoState
}

func (d *Driver) pin(port hal.GPIOPort, pin uint16) *pinState {
	k := pinKey{port, pin}
	p := d.pins[k]
	if p == nil {
		p = &pinState{}
		d.pins[k] = p
	}
	return p
}

// DrivePin sets an input level from outside. A level change raises the
// rising or falling EXTI callback.
func (d *Driver) DrivePin(port hal.GPIOPort, pin uint16, level mcu.IoState) {
	d.mu.Lock()
	p := d.pin(port, pin)
	prev := p.level
	p.level = level
	d.mu.Unlock()
	switch {
	case prev == level:
	case level == mcu.IoSet:
		d.raise(func(c *hal.Chip) { c.GPIOEXTIRisingCallback(pin) })
	default:
		d.raise(func(c *hal.Chip) { c.GPIOEXTIFallingCallback(pin) })
	}
}

// PulseEXTI raises the legacy HAL_GPIO_EXTI_Callback for pin.
func (d *Driver) PulseEXTI(pin uint16) {
	d.raise(func(c *hal.Chip) { c.GPIOEXTICallback(pin) })
}

func (d *Driver) GPIOReadPin(port hal.GPIOPort, pin uint16) mcu.IoState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pin(port, pin).level
}

func (d *Driver) GPIOWritePin(port hal.GPIOPort, pin uint16, s mcu.IoState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pin(port, pin).level = s
}

func (d *Driver) GPIOTogglePin(port hal.GPIOPort, pin uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.pin(port, pin)
	p.level ^= 1
}

func (d *Driver) IWDGRefresh(h hal.IWDGHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("IWDGRefresh"); ok {
		return st
	}
	d.iwdg[h]++
	return hal.StatusOK
}

// Refreshes counts watchdog refreshes on h.
func (d *Driver) Refreshes(h hal.IWDGHandle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.iwdg[h]
}
