package hal

// Package-level interrupt entry points. Each one forwards to the chip
// published by Init and drops the event before that.

func ADCConvCpltCallback(h ADCHandle) {
	if c := Active(); c != nil {
		c.ADCConvCpltCallback(h)
	}
}

func ADCLevelOutOfWindowCallback(h ADCHandle) {
	if c := Active(); c != nil {
		c.ADCLevelOutOfWindowCallback(h)
	}
}

func ADCErrorCallback(h ADCHandle) {
	if c := Active(); c != nil {
		c.ADCErrorCallback(h)
	}
}

func UARTTxCpltCallback(h UARTHandle) {
	if c := Active(); c != nil {
		c.UARTTxCpltCallback(h)
	}
}

func UARTRxCpltCallback(h UARTHandle) {
	if c := Active(); c != nil {
		c.UARTRxCpltCallback(h)
	}
}

func UARTExRxEventCallback(h UARTHandle, size uint16) {
	if c := Active(); c != nil {
		c.UARTExRxEventCallback(h, size)
	}
}

func UARTErrorCallback(h UARTHandle) {
	if c := Active(); c != nil {
		c.UARTErrorCallback(h)
	}
}

func UARTAbortCpltCallback(h UARTHandle) {
	if c := Active(); c != nil {
		c.UARTAbortCpltCallback(h)
	}
}

func SPITxCpltCallback(h SPIHandle) {
	if c := Active(); c != nil {
		c.SPITxCpltCallback(h)
	}
}

func SPIRxCpltCallback(h SPIHandle) {
	if c := Active(); c != nil {
		c.SPIRxCpltCallback(h)
	}
}

func SPITxRxCpltCallback(h SPIHandle) {
	if c := Active(); c != nil {
		c.SPITxRxCpltCallback(h)
	}
}

func SPIErrorCallback(h SPIHandle) {
	if c := Active(); c != nil {
		c.SPIErrorCallback(h)
	}
}

func SPIAbortCpltCallback(h SPIHandle) {
	if c := Active(); c != nil {
		c.SPIAbortCpltCallback(h)
	}
}

func I2CMasterTxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CMasterTxCpltCallback(h)
	}
}

func I2CMasterRxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CMasterRxCpltCallback(h)
	}
}

func I2CSlaveTxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CSlaveTxCpltCallback(h)
	}
}

func I2CSlaveRxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CSlaveRxCpltCallback(h)
	}
}

func I2CAddrCallback(h I2CHandle, dir uint8, addr uint16) {
	if c := Active(); c != nil {
		c.I2CAddrCallback(h, dir, addr)
	}
}

func I2CListenCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CListenCpltCallback(h)
	}
}

func I2CMemTxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CMemTxCpltCallback(h)
	}
}

func I2CMemRxCpltCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CMemRxCpltCallback(h)
	}
}

func I2CErrorCallback(h I2CHandle) {
	if c := Active(); c != nil {
		c.I2CErrorCallback(h)
	}
}

func CANRxFifo0MsgPendingCallback(h CANHandle) {
	if c := Active(); c != nil {
		c.CANRxFifo0MsgPendingCallback(h)
	}
}

func CANRxFifo1MsgPendingCallback(h CANHandle) {
	if c := Active(); c != nil {
		c.CANRxFifo1MsgPendingCallback(h)
	}
}

func CANErrorCallback(h CANHandle) {
	if c := Active(); c != nil {
		c.CANErrorCallback(h)
	}
}

func GPIOEXTICallback(pin uint16) {
	if c := Active(); c != nil {
		c.GPIOEXTICallback(pin)
	}
}

func GPIOEXTIRisingCallback(pin uint16) {
	if c := Active(); c != nil {
		c.GPIOEXTIRisingCallback(pin)
	}
}

func GPIOEXTIFallingCallback(pin uint16) {
	if c := Active(); c != nil {
		c.GPIOEXTIFallingCallback(pin)
	}
}

// Callback pairs a vendor callback symbol with a C-callable Go function.
// Fn only takes uintptr arguments so that FFI trampolines can wrap it.
type Callback struct {
	Name string
	Fn   any
}

// VendorCallbacks lists every callback a dynamically loaded vendor library
// should be pointed at.
func VendorCallbacks() []Callback {
	return []Callback{
		{"HAL_ADC_ConvCpltCallback", func(h uintptr) { ADCConvCpltCallback(ADCHandle(h)) }},
		{"HAL_ADC_LevelOutOfWindowCallback", func(h uintptr) { ADCLevelOutOfWindowCallback(ADCHandle(h)) }},
		{"HAL_ADC_ErrorCallback", func(h uintptr) { ADCErrorCallback(ADCHandle(h)) }},

		{"HAL_UART_TxCpltCallback", func(h uintptr) { UARTTxCpltCallback(UARTHandle(h)) }},
		{"HAL_UART_RxCpltCallback", func(h uintptr) { UARTRxCpltCallback(UARTHandle(h)) }},
		{"HAL_UARTEx_RxEventCallback", func(h, size uintptr) { UARTExRxEventCallback(UARTHandle(h), uint16(size)) }},
		{"HAL_UART_ErrorCallback", func(h uintptr) { UARTErrorCallback(UARTHandle(h)) }},
		{"HAL_UART_AbortCpltCallback", func(h uintptr) { UARTAbortCpltCallback(UARTHandle(h)) }},

		{"HAL_SPI_TxCpltCallback", func(h uintptr) { SPITxCpltCallback(SPIHandle(h)) }},
		{"HAL_SPI_RxCpltCallback", func(h uintptr) { SPIRxCpltCallback(SPIHandle(h)) }},
		{"HAL_SPI_TxRxCpltCallback", func(h uintptr) { SPITxRxCpltCallback(SPIHandle(h)) }},
		{"HAL_SPI_ErrorCallback", func(h uintptr) { SPIErrorCallback(SPIHandle(h)) }},
		{"HAL_SPI_AbortCpltCallback", func(h uintptr) { SPIAbortCpltCallback(SPIHandle(h)) }},

		{"HAL_I2C_MasterTxCpltCallback", func(h uintptr) { I2CMasterTxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_MasterRxCpltCallback", func(h uintptr) { I2CMasterRxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_SlaveTxCpltCallback", func(h uintptr) { I2CSlaveTxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_SlaveRxCpltCallback", func(h uintptr) { I2CSlaveRxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_AddrCallback", func(h, dir, addr uintptr) { I2CAddrCallback(I2CHandle(h), uint8(dir), uint16(addr)) }},
		{"HAL_I2C_ListenCpltCallback", func(h uintptr) { I2CListenCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_MemTxCpltCallback", func(h uintptr) { I2CMemTxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_MemRxCpltCallback", func(h uintptr) { I2CMemRxCpltCallback(I2CHandle(h)) }},
		{"HAL_I2C_ErrorCallback", func(h uintptr) { I2CErrorCallback(I2CHandle(h)) }},

		{"HAL_CAN_RxFifo0MsgPendingCallback", func(h uintptr) { CANRxFifo0MsgPendingCallback(CANHandle(h)) }},
		{"HAL_CAN_RxFifo1MsgPendingCallback", func(h uintptr) { CANRxFifo1MsgPendingCallback(CANHandle(h)) }},
		{"HAL_CAN_ErrorCallback", func(h uintptr) { CANErrorCallback(CANHandle(h)) }},

		{"HAL_GPIO_EXTI_Callback", func(pin uintptr) { GPIOEXTICallback(uint16(pin)) }},
		{"HAL_GPIO_EXTI_Rising_Callback", func(pin uintptr) { GPIOEXTIRisingCallback(uint16(pin)) }},
		{"HAL_GPIO_EXTI_Falling_Callback", func(pin uintptr) { GPIOEXTIFallingCallback(uint16(pin)) }},
	}
}
