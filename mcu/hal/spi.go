package hal

import (
	"tinygo.org/x/drivers"

	"mcukit/errcode"
	"mcukit/mcu"
)

// spiBusTimeout is used by the drivers.SPI methods, which take no timeout.
const spiBusTimeout uint32 = 100

type Spi struct {
	mcu.NoChannel
	chip  *Chip
	h     SPIHandle
	agent mcu.AgentSlot[mcu.SpiEventAgent]
}

var (
	_ mcu.Spi     = (*Spi)(nil)
	_ drivers.SPI = (*Spi)(nil)
)

// AllocateSpi binds h. Binding the same handle twice returns the first
// wrapper.
func (c *Chip) AllocateSpi(h SPIHandle) (*Spi, error) {
	if h == 0 {
		return nil, errcode.Param
	}
	s, _, err := c.spis.Allocate(&Spi{chip: c, h: h})
	return s, err
}

func (s *Spi) HandleValue() uintptr { return uintptr(s.h) }
func (s *Spi) Handle() SPIHandle    { return s.h }

func (s *Spi) SetEventAgent(agent mcu.SpiEventAgent) { s.agent.Set(agent) }
func (s *Spi) CleanEventAgent()                      { s.agent.Clear() }

// Release drops the agent and frees the registry slot.
func (s *Spi) Release() error {
	s.agent.Clear()
	return s.chip.spis.Clean(mcu.KeyOf(s))
}

func (s *Spi) Transmit(data []byte, timeout uint32) error {
	return s.chip.drv.SPITransmit(s.h, data, timeout).Err()
}

func (s *Spi) Receive(data []byte, timeout uint32) error {
	return s.chip.drv.SPIReceive(s.h, data, timeout).Err()
}

func (s *Spi) TransmitReceive(tx, rx []byte, timeout uint32) error {
	if len(rx) < len(tx) {
		return errcode.Param
	}
	return s.chip.drv.SPITransmitReceive(s.h, tx, rx[:len(tx)], timeout).Err()
}

func (s *Spi) AsyncTransmit(data []byte) error { return s.chip.drv.SPITransmitDMA(s.h, data).Err() }
func (s *Spi) AsyncReceive(data []byte) error  { return s.chip.drv.SPIReceiveDMA(s.h, data).Err() }

func (s *Spi) AsyncTransmitReceive(tx, rx []byte) error {
	if len(rx) < len(tx) {
		return errcode.Param
	}
	return s.chip.drv.SPITransmitReceiveDMA(s.h, tx, rx[:len(tx)]).Err()
}

func (s *Spi) Abort() error { return s.chip.drv.SPIAbortIT(s.h).Err() }

// Tx implements drivers.SPI. Either side may be nil; when both are given
// they must be the same length.
func (s *Spi) Tx(w, r []byte) error {
	switch {
	case len(w) == 0 && len(r) == 0:
		return nil
	case len(r) == 0:
		return s.Transmit(w, spiBusTimeout)
	case len(w) == 0:
		return s.Receive(r, spiBusTimeout)
	case len(w) != len(r):
		return errcode.Param
	default:
		return s.TransmitReceive(w, r, spiBusTimeout)
	}
}

// Transfer implements drivers.SPI.
func (s *Spi) Transfer(b byte) (byte, error) {
	w := [1]byte{b}
	var r [1]byte
	err := s.TransmitReceive(w[:], r[:], spiBusTimeout)
	return r[0], err
}

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) spiAgent(h SPIHandle) (mcu.SpiEventAgent, bool) {
	s, err := c.spis.Search(mcu.Key{Handle: uintptr(h)})
	if err != nil {
		return nil, false
	}
	return s.agent.Load()
}

// SPITxCpltCallback is HAL_SPI_TxCpltCallback.
func (c *Chip) SPITxCpltCallback(h SPIHandle) {
	if ag, ok := c.spiAgent(h); ok {
		ag.OnSpiTxComplete()
	}
}

// SPIRxCpltCallback is HAL_SPI_RxCpltCallback.
func (c *Chip) SPIRxCpltCallback(h SPIHandle) {
	if ag, ok := c.spiAgent(h); ok {
		ag.OnSpiRxComplete()
	}
}

// SPITxRxCpltCallback is HAL_SPI_TxRxCpltCallback.
func (c *Chip) SPITxRxCpltCallback(h SPIHandle) {
	if ag, ok := c.spiAgent(h); ok {
		ag.OnSpiTxRxComplete()
	}
}

// SPIErrorCallback is HAL_SPI_ErrorCallback.
func (c *Chip) SPIErrorCallback(h SPIHandle) {
	if ag, ok := c.spiAgent(h); ok {
		ag.OnSpiError()
	}
}

// SPIAbortCpltCallback is HAL_SPI_AbortCpltCallback.
func (c *Chip) SPIAbortCpltCallback(h SPIHandle) {
	if ag, ok := c.spiAgent(h); ok {
		ag.OnSpiAbortComplete()
	}
}
