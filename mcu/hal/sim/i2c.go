package sim

import (
	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/mcu/hal"
)

// I2CTarget is a simulated device on a bus. w is what the master wrote, r
// what it wants to read; either may be empty. A non-nil error is a NACK.
type I2CTarget interface {
	Tx(w, r []byte) error
}

type i2cState struct {
	mode    hal.I2CMode
	targets map[uint16]I2CTarget // 7-bit address

	listening bool
	slaveIn   []byte // bytes a remote master has written to us
	slaveOut  []byte // bytes we transmitted as slave
	slavePend []byte // in-flight async slave receive
}

func (d *Driver) i2c(h hal.I2CHandle) *i2cState {
	s := d.i2cs[h]
	if s == nil {
		s = &i2cState{targets: map[uint16]I2CTarget{}}
		d.i2cs[h] = s
	}
	return s
}

// AttachI2C puts t on bus h at 7-bit address addr.
func (d *Driver) AttachI2C(h hal.I2CHandle, addr uint16, t I2CTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.i2c(h).targets[addr&0x7F] = t
}

// SelectI2CSlave plays a remote master addressing us. It reports false
// unless h is listening.
func (d *Driver) SelectI2CSlave(h hal.I2CHandle, dir mcu.I2cDirection, addr uint16) bool {
	d.mu.Lock()
	s := d.i2c(h)
	ok := s.listening
	if ok {
		s.mode = hal.I2CModeSlave
	}
	d.mu.Unlock()
	if ok {
		d.raise(func(c *hal.Chip) { c.I2CAddrCallback(h, uint8(dir), addr) })
	}
	return ok
}

// FeedI2CSlave queues bytes a remote master writes to us.
func (d *Driver) FeedI2CSlave(h hal.I2CHandle, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.i2c(h)
	s.slaveIn = append(s.slaveIn, data...)
	if s.slavePend != nil && len(s.slaveIn) >= len(s.slavePend) {
		d.completeSlaveRx(h, s)
	}
}

// I2CSlaveSent returns and clears what we transmitted as slave.
func (d *Driver) I2CSlaveSent(h hal.I2CHandle) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.i2c(h)
	out := s.slaveOut
	s.slaveOut = nil
	return out
}

// EndI2CListen stops listening and fires the listen-complete callback.
func (d *Driver) EndI2CListen(h hal.I2CHandle) {
	d.mu.Lock()
	d.i2c(h).listening = false
	d.mu.Unlock()
	d.raise(func(c *hal.Chip) { c.I2CListenCpltCallback(h) })
}

// RaiseI2CError fires HAL_I2C_ErrorCallback in mode m.
func (d *Driver) RaiseI2CError(h hal.I2CHandle, m hal.I2CMode) {
	d.mu.Lock()
	d.i2c(h).mode = m
	d.mu.Unlock()
	d.raise(func(c *hal.Chip) { c.I2CErrorCallback(h) })
}

func (d *Driver) I2CGetMode(h hal.I2CHandle) hal.I2CMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.i2c(h).mode
}

func (s *i2cState) target(addr uint16) (I2CTarget, bool) {
	t, ok := s.targets[(addr>>1)&0x7F]
	return t, ok
}

// master runs one transfer against the addressed target. Callers hold d.mu.
func (d *Driver) master(op string, h hal.I2CHandle, mode hal.I2CMode, addr uint16, w, r []byte) hal.Status {
	if st, ok := d.fail(op); ok {
		return st
	}
	s := d.i2c(h)
	s.mode = mode
	t, ok := s.target(addr)
	if !ok {
		return hal.StatusError
	}
	return hal.StatusOf(t.Tx(w, r))
}

// masterAsync is master plus completion; a NACK surfaces as the error
// callback, as it does with DMA transfers on hardware.
func (d *Driver) masterAsync(op string, h hal.I2CHandle, mode hal.I2CMode, addr uint16, w, r []byte, done func(*hal.Chip)) hal.Status {
	if st, ok := d.fail(op); ok {
		return st
	}
	s := d.i2c(h)
	s.mode = mode
	t, ok := s.target(addr)
	if !ok || t.Tx(w, r) != nil {
		d.raise(func(c *hal.Chip) { c.I2CErrorCallback(h) })
		return hal.StatusOK
	}
	d.raise(done)
	return hal.StatusOK
}

func regAddr(maddr uint16, width mcu.I2cMemWidth) []byte {
	if width == mcu.I2cMemWidth16 {
		return []byte{byte(maddr >> 8), byte(maddr)}
	}
	return []byte{byte(maddr)}
}

func (d *Driver) I2CMasterTransmit(h hal.I2CHandle, addr uint16, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master("I2CMasterTransmit", h, hal.I2CModeMaster, addr, data, nil)
}

func (d *Driver) I2CMasterReceive(h hal.I2CHandle, addr uint16, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master("I2CMasterReceive", h, hal.I2CModeMaster, addr, nil, data)
}

func (d *Driver) I2CMasterTransmitDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.masterAsync("I2CMasterTransmitDMA", h, hal.I2CModeMaster, addr, data, nil,
		func(c *hal.Chip) { c.I2CMasterTxCpltCallback(h) })
}

func (d *Driver) I2CMasterReceiveDMA(h hal.I2CHandle, addr uint16, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.masterAsync("I2CMasterReceiveDMA", h, hal.I2CModeMaster, addr, nil, data,
		func(c *hal.Chip) { c.I2CMasterRxCpltCallback(h) })
}

func (d *Driver) I2CMemWrite(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := append(regAddr(maddr, width), data...)
	return d.master("I2CMemWrite", h, hal.I2CModeMem, addr, w, nil)
}

func (d *Driver) I2CMemRead(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master("I2CMemRead", h, hal.I2CModeMem, addr, regAddr(maddr, width), data)
}

func (d *Driver) I2CMemWriteDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := append(regAddr(maddr, width), data...)
	return d.masterAsync("I2CMemWriteDMA", h, hal.I2CModeMem, addr, w, nil,
		func(c *hal.Chip) { c.I2CMemTxCpltCallback(h) })
}

func (d *Driver) I2CMemReadDMA(h hal.I2CHandle, addr, maddr uint16, width mcu.I2cMemWidth, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.masterAsync("I2CMemReadDMA", h, hal.I2CModeMem, addr, regAddr(maddr, width), data,
		func(c *hal.Chip) { c.I2CMemRxCpltCallback(h) })
}

func (d *Driver) I2CEnableListenIT(h hal.I2CHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("I2CEnableListenIT"); ok {
		return st
	}
	d.i2c(h).listening = true
	return hal.StatusOK
}

func (d *Driver) I2CSlaveTransmit(h hal.I2CHandle, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("I2CSlaveTransmit"); ok {
		return st
	}
	s := d.i2c(h)
	s.mode = hal.I2CModeSlave
	s.slaveOut = append(s.slaveOut, data...)
	return hal.StatusOK
}

func (d *Driver) I2CSlaveReceive(h hal.I2CHandle, data []byte, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("I2CSlaveReceive"); ok {
		return st
	}
	s := d.i2c(h)
	s.mode = hal.I2CModeSlave
	if len(s.slaveIn) < len(data) {
		return hal.StatusTimeout
	}
	n := copy(data, s.slaveIn)
	s.slaveIn = s.slaveIn[n:]
	return hal.StatusOK
}

func (d *Driver) I2CSlaveTransmitDMA(h hal.I2CHandle, data []byte) hal.Status {
	st := d.I2CSlaveTransmit(h, data, 0)
	if st == hal.StatusOK {
		d.raise(func(c *hal.Chip) { c.I2CSlaveTxCpltCallback(h) })
	}
	return st
}

func (d *Driver) I2CSlaveReceiveDMA(h hal.I2CHandle, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("I2CSlaveReceiveDMA"); ok {
		return st
	}
	s := d.i2c(h)
	if s.slavePend != nil {
		return hal.StatusBusy
	}
	s.mode = hal.I2CModeSlave
	s.slavePend = data
	if len(s.slaveIn) >= len(data) {
		d.completeSlaveRx(h, s)
	}
	return hal.StatusOK
}

// completeSlaveRx finishes the pending slave receive. Callers hold d.mu.
func (d *Driver) completeSlaveRx(h hal.I2CHandle, s *i2cState) {
	n := copy(s.slavePend, s.slaveIn)
	s.slaveIn = s.slaveIn[n:]
	s.slavePend = nil
	d.raise(func(c *hal.Chip) { c.I2CSlaveRxCpltCallback(h) })
}

// errNack is what simulated targets return for an unknown command.
var errNack error = &errcode.E{C: errcode.NotSupported, Op: "sim.i2c", Msg: "nack"}
