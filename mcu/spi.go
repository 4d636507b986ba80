package mcu

type Spi interface {
	EventLauncher[SpiEventAgent]

	Transmit(data []byte, timeout uint32) error
	Receive(data []byte, timeout uint32) error
	// TransmitReceive clocks len(tx) bytes; rx must be at least as long.
	TransmitReceive(tx, rx []byte, timeout uint32) error

	AsyncTransmit(data []byte) error
	AsyncReceive(data []byte) error
	AsyncTransmitReceive(tx, rx []byte) error
	Abort() error
}

type SpiEventAgent interface {
	OnSpiTxComplete()
	OnSpiRxComplete()
	OnSpiTxRxComplete()
	OnSpiAbortComplete()
	OnSpiError()
}

// SpiEvents gives SpiEventAgent implementations no-op defaults.
type SpiEvents struct{}

func (SpiEvents) OnSpiTxComplete()    {}
func (SpiEvents) OnSpiRxComplete()    {}
func (SpiEvents) OnSpiTxRxComplete()  {}
func (SpiEvents) OnSpiAbortComplete() {}
func (SpiEvents) OnSpiError()         {}
