package mcu

// Uart is the serial port capability. Timeouts are milliseconds;
// WaitForever blocks until the transfer ends.
type Uart interface {
	EventLauncher[UartEventAgent]

	// Transmit sends all of data.
	Transmit(data []byte, timeout uint32) error
	// Receive reads until the line goes idle or data is full and returns
	// the number of bytes received.
	Receive(data []byte, timeout uint32) (uint32, error)
	// ReceiveSize reads exactly len(data) bytes.
	ReceiveSize(data []byte, timeout uint32) error

	// AsyncTransmit hands data to DMA/IT; completion is OnUartTxComplete.
	AsyncTransmit(data []byte) error
	// AsyncReceive fills data until idle; completion is OnUartRxComplete.
	AsyncReceive(data []byte) error
	// AsyncReceiveSize fills all of data; completion is OnUartRxSizeComplete.
	AsyncReceiveSize(data []byte) error
	// Abort cancels async transfers. A completion event may still fire once.
	Abort() error
}

// UartEventAgent receives UART interrupts.
type UartEventAgent interface {
	OnUartTxComplete()
	// OnUartRxComplete reports how many bytes landed in the AsyncReceive
	// buffer; a full buffer reports len(buffer) and drops the rest.
	OnUartRxComplete(size uint32)
	OnUartRxSizeComplete()
	OnUartAbortComplete()
	OnUartError()
}

// UartEvents gives UartEventAgent implementations no-op defaults.
type UartEvents struct{}

func (UartEvents) OnUartTxComplete()       {}
func (UartEvents) OnUartRxComplete(uint32) {}
func (UartEvents) OnUartRxSizeComplete()   {}
func (UartEvents) OnUartAbortComplete()    {}
func (UartEvents) OnUartError()            {}
