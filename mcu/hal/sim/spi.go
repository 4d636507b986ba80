package sim

import "mcukit/mcu/hal"

// spiState models a peripheral with MOSI looped back to MISO unless a
// response is queued.
type spiState struct {
	sent []byte
	miso []byte
}

func (d *Driver) spi(h hal.SPIHandle) *spiState {
	s := d.spis[h]
	if s == nil {
		s = &spiState{}
		d.spis[h] = s
	}
	return s
}

// QueueSPIResponse makes the next clocked-in bytes on h come from data.
func (d *Driver) QueueSPIResponse(h hal.SPIHandle, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.spi(h)
	s.miso = append(s.miso, data...)
}

// SPISent returns and clears what h clocked out.
func (d *Driver) SPISent(h hal.SPIHandle) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.spi(h)
	out := s.sent
	s.sent = nil
	return out
}

// RaiseSPIError fires HAL_SPI_ErrorCallback for h.
func (d *Driver) RaiseSPIError(h hal.SPIHandle) {
	d.raise(func(c *hal.Chip) { c.SPIErrorCallback(h) })
}

func (s *spiState) clock(tx, rx []byte) {
	s.sent = append(s.sent, tx...)
	for i := range rx {
		switch {
		case len(s.miso) > 0:
			rx[i] = s.miso[0]
			s.miso = s.miso[1:]
		case i < len(tx):
			rx[i] = tx[i]
		default:
			rx[i] = 0xFF
		}
	}
}

func (d *Driver) spiDo(op string, h hal.SPIHandle, tx, rx []byte, done func(*hal.Chip)) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail(op); ok {
		return st
	}
	d.spi(h).clock(tx, rx)
	if done != nil {
		d.raise(done)
	}
	return hal.StatusOK
}

func (d *Driver) SPITransmit(h hal.SPIHandle, data []byte, _ uint32) hal.Status {
	return d.spiDo("SPITransmit", h, data, nil, nil)
}

func (d *Driver) SPIReceive(h hal.SPIHandle, data []byte, _ uint32) hal.Status {
	return d.spiDo("SPIReceive", h, nil, data, nil)
}

func (d *Driver) SPITransmitReceive(h hal.SPIHandle, tx, rx []byte, _ uint32) hal.Status {
	return d.spiDo("SPITransmitReceive", h, tx, rx, nil)
}

func (d *Driver) SPITransmitDMA(h hal.SPIHandle, data []byte) hal.Status {
	return d.spiDo("SPITransmitDMA", h, data, nil, func(c *hal.Chip) { c.SPITxCpltCallback(h) })
}

func (d *Driver) SPIReceiveDMA(h hal.SPIHandle, data []byte) hal.Status {
	return d.spiDo("SPIReceiveDMA", h, nil, data, func(c *hal.Chip) { c.SPIRxCpltCallback(h) })
}

func (d *Driver) SPITransmitReceiveDMA(h hal.SPIHandle, tx, rx []byte) hal.Status {
	return d.spiDo("SPITransmitReceiveDMA", h, tx, rx, func(c *hal.Chip) { c.SPITxRxCpltCallback(h) })
}

func (d *Driver) SPIAbortIT(h hal.SPIHandle) hal.Status {
	return d.spiDo("SPIAbortIT", h, nil, nil, func(c *hal.Chip) { c.SPIAbortCpltCallback(h) })
}
