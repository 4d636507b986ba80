//go:build tinygo && stm32

package hal

// Vendor callback symbols. The STM32 HAL declares these weak; linking this
// file replaces them with the Go shims.

//export HAL_ADC_ConvCpltCallback
func exportADCConvCpltCallback(h uintptr) { ADCConvCpltCallback(ADCHandle(h)) }

//export HAL_ADC_LevelOutOfWindowCallback
func exportADCLevelOutOfWindowCallback(h uintptr) { ADCLevelOutOfWindowCallback(ADCHandle(h)) }

//export HAL_ADC_ErrorCallback
func exportADCErrorCallback(h uintptr) { ADCErrorCallback(ADCHandle(h)) }

//export HAL_UART_TxCpltCallback
func exportUARTTxCpltCallback(h uintptr) { UARTTxCpltCallback(UARTHandle(h)) }

//export HAL_UART_RxCpltCallback
func exportUARTRxCpltCallback(h uintptr) { UARTRxCpltCallback(UARTHandle(h)) }

//export HAL_UARTEx_RxEventCallback
func exportUARTExRxEventCallback(h uintptr, size uint16) { UARTExRxEventCallback(UARTHandle(h), size) }

//export HAL_UART_ErrorCallback
func exportUARTErrorCallback(h uintptr) { UARTErrorCallback(UARTHandle(h)) }

//export HAL_UART_AbortCpltCallback
func exportUARTAbortCpltCallback(h uintptr) { UARTAbortCpltCallback(UARTHandle(h)) }

//export HAL_SPI_TxCpltCallback
func exportSPITxCpltCallback(h uintptr) { SPITxCpltCallback(SPIHandle(h)) }

//export HAL_SPI_RxCpltCallback
func exportSPIRxCpltCallback(h uintptr) { SPIRxCpltCallback(SPIHandle(h)) }

//export HAL_SPI_TxRxCpltCallback
func exportSPITxRxCpltCallback(h uintptr) { SPITxRxCpltCallback(SPIHandle(h)) }

//export HAL_SPI_ErrorCallback
func exportSPIErrorCallback(h uintptr) { SPIErrorCallback(SPIHandle(h)) }

//export HAL_SPI_AbortCpltCallback
func exportSPIAbortCpltCallback(h uintptr) { SPIAbortCpltCallback(SPIHandle(h)) }

//export HAL_I2C_MasterTxCpltCallback
func exportI2CMasterTxCpltCallback(h uintptr) { I2CMasterTxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_MasterRxCpltCallback
func exportI2CMasterRxCpltCallback(h uintptr) { I2CMasterRxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_SlaveTxCpltCallback
func exportI2CSlaveTxCpltCallback(h uintptr) { I2CSlaveTxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_SlaveRxCpltCallback
func exportI2CSlaveRxCpltCallback(h uintptr) { I2CSlaveRxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_AddrCallback
func exportI2CAddrCallback(h uintptr, dir uint8, addr uint16) { I2CAddrCallback(I2CHandle(h), dir, addr) }

//export HAL_I2C_ListenCpltCallback
func exportI2CListenCpltCallback(h uintptr) { I2CListenCpltCallback(I2CHandle(h)) }

//export HAL_I2C_MemTxCpltCallback
func exportI2CMemTxCpltCallback(h uintptr) { I2CMemTxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_MemRxCpltCallback
func exportI2CMemRxCpltCallback(h uintptr) { I2CMemRxCpltCallback(I2CHandle(h)) }

//export HAL_I2C_ErrorCallback
func exportI2CErrorCallback(h uintptr) { I2CErrorCallback(I2CHandle(h)) }

//export HAL_CAN_RxFifo0MsgPendingCallback
func exportCANRxFifo0MsgPendingCallback(h uintptr) { CANRxFifo0MsgPendingCallback(CANHandle(h)) }

//export HAL_CAN_RxFifo1MsgPendingCallback
func exportCANRxFifo1MsgPendingCallback(h uintptr) { CANRxFifo1MsgPendingCallback(CANHandle(h)) }

//export HAL_CAN_ErrorCallback
func exportCANErrorCallback(h uintptr) { CANErrorCallback(CANHandle(h)) }

//export HAL_GPIO_EXTI_Callback
func exportGPIOEXTICallback(pin uint16) { GPIOEXTICallback(pin) }

//export HAL_GPIO_EXTI_Rising_Callback
func exportGPIOEXTIRisingCallback(pin uint16) { GPIOEXTIRisingCallback(pin) }

//export HAL_GPIO_EXTI_Falling_Callback
func exportGPIOEXTIFallingCallback(pin uint16) { GPIOEXTIFallingCallback(pin) }
