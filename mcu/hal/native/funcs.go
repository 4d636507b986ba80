//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package native

import (
	"unsafe"

	"mcukit/x/dl"
)

// C layouts of CAN_TxHeaderTypeDef and CAN_RxHeaderTypeDef.
type canTxHeader struct {
	StdID, ExtID, IDE, RTR, DLC uint32
	TransmitGlobalTime          uint32
}

type canRxHeader struct {
	StdID, ExtID, IDE, RTR, DLC uint32
	Timestamp                   uint32
	FilterMatchIndex            uint32
}

// vendorFuncs holds one Go func per C entry point. HAL_StatusTypeDef and
// the other vendor enums travel as uint32.
type vendorFuncs struct {
	adcStart    func(h uintptr) uint32
	adcPoll     func(h uintptr, timeout uint32) uint32
	adcGetValue func(h uintptr) uint32
	adcStartIT  func(h uintptr) uint32
	adcStartDMA func(h uintptr, buf *uint32, n uint32) uint32
	adcStopDMA  func(h uintptr) uint32

	uartTx          func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	uartRx          func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	uartRxToIdle    func(h uintptr, data *byte, n uint16, got *uint16, timeout uint32) uint32
	uartTxDMA       func(h uintptr, data *byte, n uint16) uint32
	uartRxDMA       func(h uintptr, data *byte, n uint16) uint32
	uartRxToIdleDMA func(h uintptr, data *byte, n uint16) uint32
	uartAbort       func(h uintptr) uint32

	spiTx      func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	spiRx      func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	spiTxRx    func(h uintptr, tx, rx *byte, n uint16, timeout uint32) uint32
	spiTxDMA   func(h uintptr, data *byte, n uint16) uint32
	spiRxDMA   func(h uintptr, data *byte, n uint16) uint32
	spiTxRxDMA func(h uintptr, tx, rx *byte, n uint16) uint32
	spiAbortIT func(h uintptr) uint32

	i2cMasterTx    func(h uintptr, addr uint16, data *byte, n uint16, timeout uint32) uint32
	i2cMasterRx    func(h uintptr, addr uint16, data *byte, n uint16, timeout uint32) uint32
	i2cMasterTxDMA func(h uintptr, addr uint16, data *byte, n uint16) uint32
	i2cMasterRxDMA func(h uintptr, addr uint16, data *byte, n uint16) uint32
	i2cSlaveTx     func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	i2cSlaveRx     func(h uintptr, data *byte, n uint16, timeout uint32) uint32
	i2cSlaveTxDMA  func(h uintptr, data *byte, n uint16) uint32
	i2cSlaveRxDMA  func(h uintptr, data *byte, n uint16) uint32
	i2cListenIT    func(h uintptr) uint32
	i2cMemWrite    func(h uintptr, addr, maddr, width uint16, data *byte, n uint16, timeout uint32) uint32
	i2cMemRead     func(h uintptr, addr, maddr, width uint16, data *byte, n uint16, timeout uint32) uint32
	i2cMemWriteDMA func(h uintptr, addr, maddr, width uint16, data *byte, n uint16) uint32
	i2cMemReadDMA  func(h uintptr, addr, maddr, width uint16, data *byte, n uint16) uint32
	i2cGetMode     func(h uintptr) uint32

	canStart     func(h uintptr) uint32
	canStop      func(h uintptr) uint32
	canAddTx     func(h uintptr, hdr *canTxHeader, data *byte, mailbox *uint32) uint32
	canAbortTx   func(h uintptr, mailboxes uint32) uint32
	canTxPending func(h uintptr, mailboxes uint32) uint32
	canGetRx     func(h uintptr, fifo uint32, hdr *canRxHeader, data *byte) uint32

	gpioRead   func(port uintptr, pin uint16) uint32
	gpioWrite  func(port uintptr, pin uint16, state uint32)
	gpioToggle func(port uintptr, pin uint16)

	iwdgRefresh func(h uintptr) uint32
	getTick     func() uint32

	bindCallback func(name string, fn uintptr) int32
}

func (f *vendorFuncs) table() []dl.Symbol {
	return []dl.Symbol{
		{Name: "HAL_ADC_Start", Fptr: &f.adcStart},
		{Name: "HAL_ADC_PollForConversion", Fptr: &f.adcPoll},
		{Name: "HAL_ADC_GetValue", Fptr: &f.adcGetValue},
		{Name: "HAL_ADC_Start_IT", Fptr: &f.adcStartIT},
		{Name: "HAL_ADC_Start_DMA", Fptr: &f.adcStartDMA},
		{Name: "HAL_ADC_Stop_DMA", Fptr: &f.adcStopDMA},

		{Name: "HAL_UART_Transmit", Fptr: &f.uartTx},
		{Name: "HAL_UART_Receive", Fptr: &f.uartRx},
		{Name: "HAL_UARTEx_ReceiveToIdle", Fptr: &f.uartRxToIdle},
		{Name: "HAL_UART_Transmit_DMA", Fptr: &f.uartTxDMA},
		{Name: "HAL_UART_Receive_DMA", Fptr: &f.uartRxDMA},
		{Name: "HAL_UARTEx_ReceiveToIdle_DMA", Fptr: &f.uartRxToIdleDMA},
		{Name: "HAL_UART_Abort", Fptr: &f.uartAbort},

		{Name: "HAL_SPI_Transmit", Fptr: &f.spiTx},
		{Name: "HAL_SPI_Receive", Fptr: &f.spiRx},
		{Name: "HAL_SPI_TransmitReceive", Fptr: &f.spiTxRx},
		{Name: "HAL_SPI_Transmit_DMA", Fptr: &f.spiTxDMA},
		{Name: "HAL_SPI_Receive_DMA", Fptr: &f.spiRxDMA},
		{Name: "HAL_SPI_TransmitReceive_DMA", Fptr: &f.spiTxRxDMA},
		{Name: "HAL_SPI_Abort_IT", Fptr: &f.spiAbortIT},

		{Name: "HAL_I2C_Master_Transmit", Fptr: &f.i2cMasterTx},
		{Name: "HAL_I2C_Master_Receive", Fptr: &f.i2cMasterRx},
		{Name: "HAL_I2C_Master_Transmit_DMA", Fptr: &f.i2cMasterTxDMA},
		{Name: "HAL_I2C_Master_Receive_DMA", Fptr: &f.i2cMasterRxDMA},
		{Name: "HAL_I2C_Slave_Transmit", Fptr: &f.i2cSlaveTx},
		{Name: "HAL_I2C_Slave_Receive", Fptr: &f.i2cSlaveRx},
		{Name: "HAL_I2C_Slave_Transmit_DMA", Fptr: &f.i2cSlaveTxDMA},
		{Name: "HAL_I2C_Slave_Receive_DMA", Fptr: &f.i2cSlaveRxDMA},
		{Name: "HAL_I2C_EnableListen_IT", Fptr: &f.i2cListenIT},
		{Name: "HAL_I2C_Mem_Write", Fptr: &f.i2cMemWrite},
		{Name: "HAL_I2C_Mem_Read", Fptr: &f.i2cMemRead},
		{Name: "HAL_I2C_Mem_Write_DMA", Fptr: &f.i2cMemWriteDMA},
		{Name: "HAL_I2C_Mem_Read_DMA", Fptr: &f.i2cMemReadDMA},
		{Name: "HAL_I2C_GetMode", Fptr: &f.i2cGetMode},

		{Name: "HAL_CAN_Start", Fptr: &f.canStart},
		{Name: "HAL_CAN_Stop", Fptr: &f.canStop},
		{Name: "HAL_CAN_AddTxMessage", Fptr: &f.canAddTx},
		{Name: "HAL_CAN_AbortTxRequest", Fptr: &f.canAbortTx},
		{Name: "HAL_CAN_IsTxMessagePending", Fptr: &f.canTxPending},
		{Name: "HAL_CAN_GetRxMessage", Fptr: &f.canGetRx},

		{Name: "HAL_GPIO_ReadPin", Fptr: &f.gpioRead},
		{Name: "HAL_GPIO_WritePin", Fptr: &f.gpioWrite},
		{Name: "HAL_GPIO_TogglePin", Fptr: &f.gpioToggle},

		{Name: "HAL_IWDG_Refresh", Fptr: &f.iwdgRefresh},
		{Name: "HAL_GetTick", Fptr: &f.getTick},

		{Name: "vhal_bind_callback", Fptr: &f.bindCallback},
	}
}

// first returns a pointer to b's first element, or nil for an empty slice.
func first(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return unsafe.SliceData(b)
}

// size clamps a buffer length to the vendor's 16-bit transfer count.
func size(b []byte) uint16 {
	if len(b) > 0xFFFF {
		return 0xFFFF
	}
	return uint16(len(b))
}
