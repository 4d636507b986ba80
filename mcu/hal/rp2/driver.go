//go:build rp2040

// Package rp2 is a hal.Driver for the RP2040 under TinyGo.
//
// UART goes through tinygo-uartx so receives are interrupt driven; I2C
// master and memory transfers use machine.I2C0/1; GPIO uses SIO pins 0-15.
// Completions that the vendor HAL would report from an interrupt are
// delivered from a goroutine through the package-level hal callbacks, so
// hal.Init must have run before any async call.
package rp2

import (
	"machine"
	"time"

	"mcukit/mcu"
	"mcukit/mcu/hal"
)

// Peripheral base addresses, used as handles.
const (
	UART0 hal.UARTHandle = 0x4003_4000
	UART1 hal.UARTHandle = 0x4003_8000
	I2C0  hal.I2CHandle  = 0x4004_4000
	I2C1  hal.I2CHandle  = 0x4004_8000
	SIO   hal.GPIOPort   = 0xD000_0000
	WDT   hal.IWDGHandle = 0x4005_8000
)

// Board is what this driver can back.
var Board = hal.Board{Name: "rp2040", UART: 2, I2C: 2}

type Driver struct {
	start time.Time
	uarts [2]*uartPort
	i2cs  [2]*machine.I2C
}

var _ hal.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		start: time.Now(),
		uarts: [2]*uartPort{newUartPort(UART0), newUartPort(UART1)},
		i2cs:  [2]*machine.I2C{machine.I2C0, machine.I2C1},
	}
}

func (d *Driver) GetTick() uint32 { return uint32(time.Since(d.start) / time.Millisecond) }

// ---- I2C ----

func (d *Driver) i2c(h hal.I2CHandle) *machine.I2C {
	switch h {
	case I2C0:
		return d.i2cs[0]
	case I2C1:
		return d.i2cs[1]
	}
	return nil
}

// ConfigureI2C sets up bus h. Zero values select the machine defaults.
func (d *Driver) ConfigureI2C(h hal.I2CHandle, cfg machine.I2CConfig) error {
	bus := d.i2c(h)
	if bus == nil {
		return hal.StatusError.Err()
	}
	return bus.Configure(cfg)
}

func (d *Driver) i2cTx(h hal.I2CHandle, addr uint16, w, r []byte) hal.Status {
	bus := d.i2c(h)
	if bus == nil {
		return hal.StatusError
	}
	if err := bus.Tx(addr>>1, w, r); err != nil {
		return hal.StatusError
	}
	return hal.StatusOK
}

func (d *Driver) I2CMasterTransmit(h hal.I2CHandle, addr uint16, data []byte, _ uint32) hal.Status {
	return d.i2cTx(h, addr, data, nil)
}

func (d *Driver) I2CMasterReceive(h hal.I2CHandle, addr uint16, data []byte, _ uint32) hal.Status {
	return d.i2cTx(h, addr, nil, data)
}

func memAddr(maddr uint16, width mcu.I2cMemWidth) []byte {
	if width == mcu.I2cMemWidth16 {
		return []byte{byte(maddr >> 8), byte(maddr)}
	}
	return []byte{byte(maddr)}
}

func (d *Driver) I2CMemWrite(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, _ uint32) hal.Status {
	return d.i2cTx(h, addr, append(memAddr(maddr, width), data...), nil)
}

func (d *Driver) I2CMemRead(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, _ uint32) hal.Status {
	return d.i2cTx(h, addr, memAddr(maddr, width), data)
}

// Async I2C completes on a goroutine.
func (d *Driver) i2cAsync(h hal.I2CHandle, run func() hal.Status, done func(hal.I2CHandle)) hal.Status {
	if d.i2c(h) == nil {
		return hal.StatusError
	}
	go func() {
		if run() != hal.StatusOK {
			hal.I2CErrorCallback(h)
			return
		}
		done(h)
	}()
	return hal.StatusOK
}

func (d *Driver) I2CMasterTransmitDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	return d.i2cAsync(h, func() hal.Status { return d.i2cTx(h, addr, data, nil) }, hal.I2CMasterTxCpltCallback)
}

func (d *Driver) I2CMasterReceiveDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	return d.i2cAsync(h, func() hal.Status { return d.i2cTx(h, addr, nil, data) }, hal.I2CMasterRxCpltCallback)
}

func (d *Driver) I2CMemWriteDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	return d.i2cAsync(h, func() hal.Status { return d.I2CMemWrite(h, addr, maddr, width, data, 0) }, hal.I2CMemTxCpltCallback)
}

func (d *Driver) I2CMemReadDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	return d.i2cAsync(h, func() hal.Status { return d.I2CMemRead(h, addr, maddr, width, data, 0) }, hal.I2CMemRxCpltCallback)
}

// The RP2040 target role is not wired up.
func (d *Driver) I2CSlaveTransmit(hal.I2CHandle, []byte, uint32) hal.Status { return hal.StatusError }
func (d *Driver) I2CSlaveReceive(hal.I2CHandle, []byte, uint32) hal.Status  { return hal.StatusError }
func (d *Driver) I2CSlaveTransmitDMA(hal.I2CHandle, []byte) hal.Status      { return hal.StatusError }
func (d *Driver) I2CSlaveReceiveDMA(hal.I2CHandle, []byte) hal.Status       { return hal.StatusError }
func (d *Driver) I2CEnableListenIT(hal.I2CHandle) hal.Status                { return hal.StatusError }

func (d *Driver) I2CGetMode(h hal.I2CHandle) hal.I2CMode {
	if d.i2c(h) == nil {
		return hal.I2CModeNone
	}
	return hal.I2CModeMaster
}

// ---- GPIO / watchdog ----

func pinOf(mask uint16) machine.Pin {
	for i := 0; i < 16; i++ {
		if mask == 1<<i {
			return machine.Pin(i)
		}
	}
	return machine.NoPin
}

// ConfigurePin sets the mode of SIO pin mask. Input pins with edge set
// report through the EXTI callbacks.
func (d *Driver) ConfigurePin(mask uint16, mode machine.PinMode, edge machine.PinChange) error {
	p := pinOf(mask)
	if p == machine.NoPin {
		return hal.StatusError.Err()
	}
	p.Configure(machine.PinConfig{Mode: mode})
	if edge == 0 {
		return nil
	}
	return p.SetInterrupt(edge, func(p machine.Pin) {
		if p.Get() {
			hal.GPIOEXTIRisingCallback(mask)
		} else {
			hal.GPIOEXTIFallingCallback(mask)
		}
	})
}

func (d *Driver) GPIOReadPin(_ hal.GPIOPort, pin uint16) mcu.IoState {
	if pinOf(pin).Get() {
		return mcu.IoSet
	}
	return mcu.IoReset
}

func (d *Driver) GPIOWritePin(_ hal.GPIOPort, pin uint16, s mcu.IoState) {
	pinOf(pin).Set(s == mcu.IoSet)
}

func (d *Driver) GPIOTogglePin(_ hal.GPIOPort, pin uint16) {
	p := pinOf(pin)
	p.Set(!p.Get())
}

func (d *Driver) IWDGRefresh(h hal.IWDGHandle) hal.Status {
	if h != WDT {
		return hal.StatusError
	}
	machine.Watchdog.Update()
	return hal.StatusOK
}

// ---- not present on this build ----

func (d *Driver) ADCStart(hal.ADCHandle) hal.Status                     { return hal.StatusError }
func (d *Driver) ADCPollForConversion(hal.ADCHandle, uint32) hal.Status { return hal.StatusError }
func (d *Driver) ADCGetValue(hal.ADCHandle) uint32                      { return 0 }
func (d *Driver) ADCStartIT(hal.ADCHandle) hal.Status                   { return hal.StatusError }
func (d *Driver) ADCStartDMA(hal.ADCHandle, []uint32) hal.Status        { return hal.StatusError }
func (d *Driver) ADCStopDMA(hal.ADCHandle) hal.Status                   { return hal.StatusError }

func (d *Driver) SPITransmit(hal.SPIHandle, []byte, uint32) hal.Status                { return hal.StatusError }
func (d *Driver) SPIReceive(hal.SPIHandle, []byte, uint32) hal.Status                 { return hal.StatusError }
func (d *Driver) SPITransmitReceive(hal.SPIHandle, []byte, []byte, uint32) hal.Status { return hal.StatusError }
func (d *Driver) SPITransmitDMA(hal.SPIHandle, []byte) hal.Status                     { return hal.StatusError }
func (d *Driver) SPIReceiveDMA(hal.SPIHandle, []byte) hal.Status                      { return hal.StatusError }
func (d *Driver) SPITransmitReceiveDMA(hal.SPIHandle, []byte, []byte) hal.Status      { return hal.StatusError }
func (d *Driver) SPIAbortIT(hal.SPIHandle) hal.Status                                 { return hal.StatusError }

func (d *Driver) CANStart(hal.CANHandle) hal.Status                                           { return hal.StatusError }
func (d *Driver) CANStop(hal.CANHandle) hal.Status                                            { return hal.StatusError }
func (d *Driver) CANAddTxMessage(hal.CANHandle, *mcu.CanHeader, *[8]byte, *uint32) hal.Status { return hal.StatusError }
func (d *Driver) CANAbortTxRequest(hal.CANHandle, uint32) hal.Status                          { return hal.StatusError }
func (d *Driver) CANIsTxMessagePending(hal.CANHandle, uint32) uint32                          { return 0 }
func (d *Driver) CANGetRxMessage(hal.CANHandle, uint32, *mcu.CanHeader, *[8]byte) hal.Status  { return hal.StatusError }
