package hal

import (
	"math/bits"

	"mcukit/errcode"
	"mcukit/mcu"
)

// Io is one GPIO pin. It is a small value; copies address the same pin and
// share the chip's pin event table.
type Io struct {
	chip *Chip
	port GPIOPort
	pin  uint16
}

var _ mcu.Io = Io{}

// Io returns the wrapper for one pin. pin is a GPIO_PIN_x mask with exactly
// one bit set.
func (c *Chip) Io(port GPIOPort, pin uint16) (Io, error) {
	if port == 0 || bits.OnesCount16(pin) != 1 {
		return Io{}, errcode.Param
	}
	return Io{chip: c, port: port, pin: pin}, nil
}

func (io Io) Port() GPIOPort { return io.port }
func (io Io) Pin() uint16    { return io.pin }

func (io Io) slot() *mcu.AgentSlot[mcu.IoEventAgent] {
	return &io.chip.pins[bits.TrailingZeros16(io.pin)]
}

// SetEventAgent claims the pin's EXTI line. The line is shared by the same
// pin number on every port; the last caller wins.
func (io Io) SetEventAgent(agent mcu.IoEventAgent) { io.slot().Set(agent) }
func (io Io) CleanEventAgent()                     { io.slot().Clear() }

func (io Io) State() mcu.IoState { return io.chip.drv.GPIOReadPin(io.port, io.pin) }

func (io Io) SetState(s mcu.IoState) { io.chip.drv.GPIOWritePin(io.port, io.pin, s) }
func (io Io) Toggle()                { io.chip.drv.GPIOTogglePin(io.port, io.pin) }

// WatchDog is the independent watchdog.
type WatchDog struct {
	chip *Chip
	h    IWDGHandle
}

var _ mcu.WatchDog = (*WatchDog)(nil)

func (c *Chip) WatchDog(h IWDGHandle) (*WatchDog, error) {
	if h == 0 {
		return nil, errcode.Param
	}
	return &WatchDog{chip: c, h: h}, nil
}

func (w *WatchDog) Refresh() error { return w.chip.drv.IWDGRefresh(w.h).Err() }

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) gpioEvent(pin uint16) {
	if pin == 0 {
		return
	}
	if ag, ok := c.pins[bits.TrailingZeros16(pin)].Load(); ok {
		ag.OnIoStateChange()
	}
}

// GPIOEXTICallback is HAL_GPIO_EXTI_Callback.
func (c *Chip) GPIOEXTICallback(pin uint16) { c.gpioEvent(pin) }

// GPIOEXTIRisingCallback is HAL_GPIO_EXTI_Rising_Callback.
func (c *Chip) GPIOEXTIRisingCallback(pin uint16) { c.gpioEvent(pin) }

// GPIOEXTIFallingCallback is HAL_GPIO_EXTI_Falling_Callback.
func (c *Chip) GPIOEXTIFallingCallback(pin uint16) { c.gpioEvent(pin) }
