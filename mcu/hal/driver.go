package hal

import "mcukit/mcu"

// Raw vendor handles. Underneath they are the addresses of the vendor
// *_HandleTypeDef structs; Go code only compares them.
type (
	ADCHandle  uintptr
	UARTHandle uintptr
	SPIHandle  uintptr
	I2CHandle  uintptr
	CANHandle  uintptr
	IWDGHandle uintptr
	GPIOPort   uintptr
)

// I2CMode is HAL_I2C_ModeTypeDef: what the peripheral is doing right now.
type I2CMode uint32

const (
	I2CModeNone   I2CMode = 0x00
	I2CModeMaster I2CMode = 0x10
	I2CModeSlave  I2CMode = 0x20
	I2CModeMem    I2CMode = 0x40
)

// CAN receive FIFOs.
const (
	CANRxFIFO0 uint32 = 0
	CANRxFIFO1 uint32 = 1
)

// ADCDriver wraps HAL_ADC_*.
type ADCDriver interface {
	ADCStart(h ADCHandle) Status
	ADCPollForConversion(h ADCHandle, timeout uint32) Status
	ADCGetValue(h ADCHandle) uint32
	ADCStartIT(h ADCHandle) Status
	ADCStartDMA(h ADCHandle, buf []uint32) Status
	ADCStopDMA(h ADCHandle) Status
}

// UARTDriver wraps HAL_UART_* and HAL_UARTEx_*.
type UARTDriver interface {
	UARTTransmit(h UARTHandle, data []byte, timeout uint32) Status
	UARTReceive(h UARTHandle, data []byte, timeout uint32) Status
	UARTReceiveToIdle(h UARTHandle, data []byte, timeout uint32) (uint16, Status)
	UARTTransmitDMA(h UARTHandle, data []byte) Status
	UARTReceiveDMA(h UARTHandle, data []byte) Status
	UARTReceiveToIdleDMA(h UARTHandle, data []byte) Status
	UARTAbort(h UARTHandle) Status
}

// SPIDriver wraps HAL_SPI_*.
type SPIDriver interface {
	SPITransmit(h SPIHandle, data []byte, timeout uint32) Status
	SPIReceive(h SPIHandle, data []byte, timeout uint32) Status
	SPITransmitReceive(h SPIHandle, tx, rx []byte, timeout uint32) Status
	SPITransmitDMA(h SPIHandle, data []byte) Status
	SPIReceiveDMA(h SPIHandle, data []byte) Status
	SPITransmitReceiveDMA(h SPIHandle, tx, rx []byte) Status
	SPIAbortIT(h SPIHandle) Status
}

// I2CDriver wraps HAL_I2C_*. Addresses are the vendor's left-aligned 8-bit
// form; memory address width is I2C_MEMADD_SIZE_8BIT/16BIT.
type I2CDriver interface {
	I2CMasterTransmit(h I2CHandle, addr uint16, data []byte, timeout uint32) Status
	I2CMasterReceive(h I2CHandle, addr uint16, data []byte, timeout uint32) Status
	I2CMasterTransmitDMA(h I2CHandle, addr uint16, data []byte) Status
	I2CMasterReceiveDMA(h I2CHandle, addr uint16, data []byte) Status

	I2CSlaveTransmit(h I2CHandle, data []byte, timeout uint32) Status
	I2CSlaveReceive(h I2CHandle, data []byte, timeout uint32) Status
	I2CSlaveTransmitDMA(h I2CHandle, data []byte) Status
	I2CSlaveReceiveDMA(h I2CHandle, data []byte) Status
	I2CEnableListenIT(h I2CHandle) Status

	I2CMemWrite(h I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) Status
	I2CMemRead(h I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) Status
	I2CMemWriteDMA(h I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) Status
	I2CMemReadDMA(h I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) Status

	// I2CGetMode is HAL_I2C_GetMode.
	I2CGetMode(h I2CHandle) I2CMode
}

// CANDriver wraps HAL_CAN_*.
type CANDriver interface {
	CANStart(h CANHandle) Status
	CANStop(h CANHandle) Status
	CANAddTxMessage(h CANHandle, hdr *mcu.CanHeader, data *[8]byte, mailbox *uint32) Status
	CANAbortTxRequest(h CANHandle, mailboxes uint32) Status
	// CANIsTxMessagePending returns non-zero while a mailbox is still queued.
	CANIsTxMessagePending(h CANHandle, mailboxes uint32) uint32
	CANGetRxMessage(h CANHandle, fifo uint32, hdr *mcu.CanHeader, data *[8]byte) Status
}

// GPIODriver wraps HAL_GPIO_*. pin is a one-hot GPIO_PIN_x mask.
type GPIODriver interface {
	GPIOReadPin(port GPIOPort, pin uint16) mcu.IoState
	GPIOWritePin(port GPIOPort, pin uint16, s mcu.IoState)
	GPIOTogglePin(port GPIOPort, pin uint16)
}

type IWDGDriver interface {
	IWDGRefresh(h IWDGHandle) Status
}

// TickDriver is HAL_GetTick: a free-running millisecond counter.
type TickDriver interface {
	GetTick() uint32
}

// Driver is the full vendor HAL surface a Chip needs.
type Driver interface {
	ADCDriver
	UARTDriver
	SPIDriver
	I2CDriver
	CANDriver
	GPIODriver
	IWDGDriver
	TickDriver
}
