//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package native

import (
	"unsafe"

	"mcukit/mcu"
	"mcukit/mcu/hal"
)

// DMA pin groups. Transmit and receive may overlap on one handle.
const (
	dmaADC byte = iota
	dmaUARTTx
	dmaUARTRx
	dmaSPI
	dmaI2C
)

// ---- ADC ----

func (l *Library) ADCStart(h hal.ADCHandle) hal.Status {
	return hal.Status(l.fn.adcStart(uintptr(h)))
}

func (l *Library) ADCPollForConversion(h hal.ADCHandle, timeout uint32) hal.Status {
	return hal.Status(l.fn.adcPoll(uintptr(h), timeout))
}

func (l *Library) ADCGetValue(h hal.ADCHandle) uint32 { return l.fn.adcGetValue(uintptr(h)) }

func (l *Library) ADCStartIT(h hal.ADCHandle) hal.Status {
	return hal.Status(l.fn.adcStartIT(uintptr(h)))
}

func (l *Library) ADCStartDMA(h hal.ADCHandle, buf []uint32) hal.Status {
	if len(buf) == 0 {
		return hal.StatusError
	}
	p := unsafe.SliceData(buf)
	l.pin(dmaADC, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.adcStartDMA(uintptr(h), p, uint32(len(buf))))
}

func (l *Library) ADCStopDMA(h hal.ADCHandle) hal.Status {
	st := hal.Status(l.fn.adcStopDMA(uintptr(h)))
	if st == hal.StatusOK {
		l.unpin(dmaADC, uintptr(h))
	}
	return st
}

// ---- UART ----

func (l *Library) UARTTransmit(h hal.UARTHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.uartTx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) UARTReceive(h hal.UARTHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.uartRx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) UARTReceiveToIdle(h hal.UARTHandle, data []byte, timeout uint32) (uint16, hal.Status) {
	var n uint16
	st := hal.Status(l.fn.uartRxToIdle(uintptr(h), first(data), size(data), &n, timeout))
	return n, st
}

func (l *Library) UARTTransmitDMA(h hal.UARTHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaUARTTx, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.uartTxDMA(uintptr(h), p, size(data)))
}

func (l *Library) UARTReceiveDMA(h hal.UARTHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaUARTRx, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.uartRxDMA(uintptr(h), p, size(data)))
}

func (l *Library) UARTReceiveToIdleDMA(h hal.UARTHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaUARTRx, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.uartRxToIdleDMA(uintptr(h), p, size(data)))
}

func (l *Library) UARTAbort(h hal.UARTHandle) hal.Status {
	st := hal.Status(l.fn.uartAbort(uintptr(h)))
	if st == hal.StatusOK {
		l.unpin(dmaUARTTx, uintptr(h))
		l.unpin(dmaUARTRx, uintptr(h))
	}
	return st
}

// ---- SPI ----

func (l *Library) SPITransmit(h hal.SPIHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.spiTx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) SPIReceive(h hal.SPIHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.spiRx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) SPITransmitReceive(h hal.SPIHandle, tx, rx []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.spiTxRx(uintptr(h), first(tx), first(rx), size(tx), timeout))
}

func (l *Library) SPITransmitDMA(h hal.SPIHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaSPI, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.spiTxDMA(uintptr(h), p, size(data)))
}

func (l *Library) SPIReceiveDMA(h hal.SPIHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaSPI, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.spiRxDMA(uintptr(h), p, size(data)))
}

func (l *Library) SPITransmitReceiveDMA(h hal.SPIHandle, tx, rx []byte) hal.Status {
	ptx, prx := first(tx), first(rx)
	l.pin(dmaSPI, uintptr(h), unsafe.Pointer(ptx), unsafe.Pointer(prx))
	return hal.Status(l.fn.spiTxRxDMA(uintptr(h), ptx, prx, size(tx)))
}

func (l *Library) SPIAbortIT(h hal.SPIHandle) hal.Status {
	return hal.Status(l.fn.spiAbortIT(uintptr(h)))
}

// ---- I2C ----

func (l *Library) I2CMasterTransmit(h hal.I2CHandle, addr uint16, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cMasterTx(uintptr(h), addr, first(data), size(data), timeout))
}

func (l *Library) I2CMasterReceive(h hal.I2CHandle, addr uint16, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cMasterRx(uintptr(h), addr, first(data), size(data), timeout))
}

func (l *Library) I2CMasterTransmitDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cMasterTxDMA(uintptr(h), addr, p, size(data)))
}

func (l *Library) I2CMasterReceiveDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cMasterRxDMA(uintptr(h), addr, p, size(data)))
}

func (l *Library) I2CSlaveTransmit(h hal.I2CHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cSlaveTx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) I2CSlaveReceive(h hal.I2CHandle, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cSlaveRx(uintptr(h), first(data), size(data), timeout))
}

func (l *Library) I2CSlaveTransmitDMA(h hal.I2CHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cSlaveTxDMA(uintptr(h), p, size(data)))
}

func (l *Library) I2CSlaveReceiveDMA(h hal.I2CHandle, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cSlaveRxDMA(uintptr(h), p, size(data)))
}

func (l *Library) I2CEnableListenIT(h hal.I2CHandle) hal.Status {
	return hal.Status(l.fn.i2cListenIT(uintptr(h)))
}

func (l *Library) I2CMemWrite(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cMemWrite(uintptr(h), addr, maddr, uint16(width), first(data), size(data), timeout))
}

func (l *Library) I2CMemRead(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) hal.Status {
	return hal.Status(l.fn.i2cMemRead(uintptr(h), addr, maddr, uint16(width), first(data), size(data), timeout))
}

func (l *Library) I2CMemWriteDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cMemWriteDMA(uintptr(h), addr, maddr, uint16(width), p, size(data)))
}

func (l *Library) I2CMemReadDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	p := first(data)
	l.pin(dmaI2C, uintptr(h), unsafe.Pointer(p))
	return hal.Status(l.fn.i2cMemReadDMA(uintptr(h), addr, maddr, uint16(width), p, size(data)))
}

func (l *Library) I2CGetMode(h hal.I2CHandle) hal.I2CMode {
	return hal.I2CMode(l.fn.i2cGetMode(uintptr(h)))
}

// ---- CAN ----

func (l *Library) CANStart(h hal.CANHandle) hal.Status {
	return hal.Status(l.fn.canStart(uintptr(h)))
}

func (l *Library) CANStop(h hal.CANHandle) hal.Status {
	return hal.Status(l.fn.canStop(uintptr(h)))
}

func (l *Library) CANAddTxMessage(h hal.CANHandle, hdr *mcu.CanHeader, data *[8]byte, mailbox *uint32) hal.Status {
	c := canTxHeader{StdID: hdr.StdID, ExtID: hdr.ExtID, IDE: hdr.IDE, RTR: hdr.RTR, DLC: hdr.DLC}
	return hal.Status(l.fn.canAddTx(uintptr(h), &c, &data[0], mailbox))
}

func (l *Library) CANAbortTxRequest(h hal.CANHandle, mailboxes uint32) hal.Status {
	return hal.Status(l.fn.canAbortTx(uintptr(h), mailboxes))
}

func (l *Library) CANIsTxMessagePending(h hal.CANHandle, mailboxes uint32) uint32 {
	return l.fn.canTxPending(uintptr(h), mailboxes)
}

func (l *Library) CANGetRxMessage(h hal.CANHandle, fifo uint32, hdr *mcu.CanHeader, data *[8]byte) hal.Status {
	var c canRxHeader
	st := hal.Status(l.fn.canGetRx(uintptr(h), fifo, &c, &data[0]))
	if st == hal.StatusOK {
		*hdr = mcu.CanHeader{StdID: c.StdID, ExtID: c.ExtID, IDE: c.IDE, RTR: c.RTR, DLC: c.DLC}
	}
	return st
}

// ---- GPIO / IWDG / tick ----

func (l *Library) GPIOReadPin(port hal.GPIOPort, pin uint16) mcu.IoState {
	if l.fn.gpioRead(uintptr(port), pin) != 0 {
		return mcu.IoSet
	}
	return mcu.IoReset
}

func (l *Library) GPIOWritePin(port hal.GPIOPort, pin uint16, s mcu.IoState) {
	l.fn.gpioWrite(uintptr(port), pin, uint32(s))
}

func (l *Library) GPIOTogglePin(port hal.GPIOPort, pin uint16) {
	l.fn.gpioToggle(uintptr(port), pin)
}

func (l *Library) IWDGRefresh(h hal.IWDGHandle) hal.Status {
	return hal.Status(l.fn.iwdgRefresh(uintptr(h)))
}

func (l *Library) GetTick() uint32 { return l.fn.getTick() }
