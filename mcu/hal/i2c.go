package hal

import (
	"tinygo.org/x/drivers"

	"mcukit/errcode"
	"mcukit/mcu"
)

// i2cBusTimeout is used by drivers.I2C.Tx, which takes no timeout.
const i2cBusTimeout uint32 = 100

// i2cBinding is the registry entry for one I2C handle. A handle is bound in
// exactly one role; the wrapper for that role hangs off the binding.
type i2cBinding struct {
	mcu.NoChannel
	h      I2CHandle
	mode   I2CMode
	mem    *I2cMem
	master *I2cMaster
	slave  *I2cSlave
}

func (b *i2cBinding) HandleValue() uintptr { return uintptr(b.h) }

func (c *Chip) allocateI2c(h I2CHandle, mode I2CMode) (*i2cBinding, error) {
	if h == 0 {
		return nil, errcode.Param
	}
	cand := &i2cBinding{h: h, mode: mode}
	switch mode {
	case I2CModeMem:
		cand.mem = &I2cMem{chip: c, h: h}
	case I2CModeMaster:
		cand.master = &I2cMaster{chip: c, h: h}
	case I2CModeSlave:
		cand.slave = &I2cSlave{chip: c, h: h}
	default:
		return nil, errcode.Param
	}
	b, _, err := c.i2cs.Allocate(cand)
	if err != nil {
		return nil, err
	}
	if b.mode != mode {
		return nil, errcode.InstanceInUse
	}
	return b, nil
}

func (c *Chip) releaseI2c(h I2CHandle) error {
	return c.i2cs.Clean(mcu.Key{Handle: uintptr(h)})
}

// AllocateI2cMem binds h for register access. A handle already bound as
// master or slave yields errcode.InstanceInUse.
func (c *Chip) AllocateI2cMem(h I2CHandle) (*I2cMem, error) {
	b, err := c.allocateI2c(h, I2CModeMem)
	if err != nil {
		return nil, err
	}
	return b.mem, nil
}

// AllocateI2cMaster binds h as bus master.
func (c *Chip) AllocateI2cMaster(h I2CHandle) (*I2cMaster, error) {
	b, err := c.allocateI2c(h, I2CModeMaster)
	if err != nil {
		return nil, err
	}
	return b.master, nil
}

// AllocateI2cSlave binds h as a slave.
func (c *Chip) AllocateI2cSlave(h I2CHandle) (*I2cSlave, error) {
	b, err := c.allocateI2c(h, I2CModeSlave)
	if err != nil {
		return nil, err
	}
	return b.slave, nil
}

// -----------------------------------------------------------------------------
// Memory access
// -----------------------------------------------------------------------------

type I2cMem struct {
	mcu.NoChannel
	chip  *Chip
	h     I2CHandle
	agent mcu.AgentSlot[mcu.I2cMemEventAgent]
}

var _ mcu.I2cMem = (*I2cMem)(nil)

func (m *I2cMem) HandleValue() uintptr { return uintptr(m.h) }

func (m *I2cMem) SetEventAgent(agent mcu.I2cMemEventAgent) { m.agent.Set(agent) }
func (m *I2cMem) CleanEventAgent()                         { m.agent.Clear() }

func (m *I2cMem) Release() error {
	m.agent.Clear()
	return m.chip.releaseI2c(m.h)
}

func (m *I2cMem) MemWrite(saddr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) error {
	return m.chip.drv.I2CMemWrite(m.h, saddr, maddr, width, data, timeout).Err()
}

func (m *I2cMem) MemRead(saddr, maddr uint16, width mcu.I2cMemWidth, data []byte, timeout uint32) error {
	return m.chip.drv.I2CMemRead(m.h, saddr, maddr, width, data, timeout).Err()
}

func (m *I2cMem) AsyncMemWrite(saddr, maddr uint16, width mcu.I2cMemWidth, data []byte) error {
	return m.chip.drv.I2CMemWriteDMA(m.h, saddr, maddr, width, data).Err()
}

func (m *I2cMem) AsyncMemRead(saddr, maddr uint16, width mcu.I2cMemWidth, data []byte) error {
	return m.chip.drv.I2CMemReadDMA(m.h, saddr, maddr, width, data).Err()
}

// -----------------------------------------------------------------------------
// Master
// -----------------------------------------------------------------------------

type I2cMaster struct {
	mcu.NoChannel
	chip  *Chip
	h     I2CHandle
	agent mcu.AgentSlot[mcu.I2cMasterEventAgent]
}

var (
	_ mcu.I2cMaster = (*I2cMaster)(nil)
	_ drivers.I2C   = (*I2cMaster)(nil)
)

func (m *I2cMaster) HandleValue() uintptr { return uintptr(m.h) }

func (m *I2cMaster) SetEventAgent(agent mcu.I2cMasterEventAgent) { m.agent.Set(agent) }
func (m *I2cMaster) CleanEventAgent()                            { m.agent.Clear() }

func (m *I2cMaster) Release() error {
	m.agent.Clear()
	return m.chip.releaseI2c(m.h)
}

func (m *I2cMaster) Transmit(saddr uint16, data []byte, timeout uint32) error {
	return m.chip.drv.I2CMasterTransmit(m.h, saddr, data, timeout).Err()
}

func (m *I2cMaster) Receive(saddr uint16, data []byte, timeout uint32) error {
	return m.chip.drv.I2CMasterReceive(m.h, saddr, data, timeout).Err()
}

func (m *I2cMaster) AsyncTransmit(saddr uint16, data []byte) error {
	return m.chip.drv.I2CMasterTransmitDMA(m.h, saddr, data).Err()
}

func (m *I2cMaster) AsyncReceive(saddr uint16, data []byte) error {
	return m.chip.drv.I2CMasterReceiveDMA(m.h, saddr, data).Err()
}

// Tx implements drivers.I2C. addr is the 7-bit address; the vendor call
// takes it shifted left by one.
func (m *I2cMaster) Tx(addr uint16, w, r []byte) error {
	saddr := addr << 1
	if len(w) > 0 {
		if err := m.Transmit(saddr, w, i2cBusTimeout); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return m.Receive(saddr, r, i2cBusTimeout)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Slave
// -----------------------------------------------------------------------------

type I2cSlave struct {
	mcu.NoChannel
	chip  *Chip
	h     I2CHandle
	agent mcu.AgentSlot[mcu.I2cSlaveEventAgent]
}

var _ mcu.I2cSlave = (*I2cSlave)(nil)

func (s *I2cSlave) HandleValue() uintptr { return uintptr(s.h) }

func (s *I2cSlave) SetEventAgent(agent mcu.I2cSlaveEventAgent) { s.agent.Set(agent) }
func (s *I2cSlave) CleanEventAgent()                           { s.agent.Clear() }

func (s *I2cSlave) Release() error {
	s.agent.Clear()
	return s.chip.releaseI2c(s.h)
}

func (s *I2cSlave) Listen() error { return s.chip.drv.I2CEnableListenIT(s.h).Err() }

func (s *I2cSlave) Transmit(data []byte, timeout uint32) error {
	return s.chip.drv.I2CSlaveTransmit(s.h, data, timeout).Err()
}

func (s *I2cSlave) Receive(data []byte, timeout uint32) error {
	return s.chip.drv.I2CSlaveReceive(s.h, data, timeout).Err()
}

func (s *I2cSlave) AsyncTransmit(data []byte) error {
	return s.chip.drv.I2CSlaveTransmitDMA(s.h, data).Err()
}

func (s *I2cSlave) AsyncReceive(data []byte) error {
	return s.chip.drv.I2CSlaveReceiveDMA(s.h, data).Err()
}

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) i2cLookup(h I2CHandle) *i2cBinding {
	b, err := c.i2cs.Search(mcu.Key{Handle: uintptr(h)})
	if err != nil {
		return nil
	}
	return b
}

func (c *Chip) i2cMasterAgent(h I2CHandle) (mcu.I2cMasterEventAgent, bool) {
	if b := c.i2cLookup(h); b != nil && b.master != nil {
		return b.master.agent.Load()
	}
	return nil, false
}

func (c *Chip) i2cSlaveAgent(h I2CHandle) (mcu.I2cSlaveEventAgent, bool) {
	if b := c.i2cLookup(h); b != nil && b.slave != nil {
		return b.slave.agent.Load()
	}
	return nil, false
}

func (c *Chip) i2cMemAgent(h I2CHandle) (mcu.I2cMemEventAgent, bool) {
	if b := c.i2cLookup(h); b != nil && b.mem != nil {
		return b.mem.agent.Load()
	}
	return nil, false
}

// I2CMasterTxCpltCallback is HAL_I2C_MasterTxCpltCallback.
func (c *Chip) I2CMasterTxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cMasterAgent(h); ok {
		ag.OnI2cMasterTxComplete()
	}
}

// I2CMasterRxCpltCallback is HAL_I2C_MasterRxCpltCallback.
func (c *Chip) I2CMasterRxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cMasterAgent(h); ok {
		ag.OnI2cMasterRxComplete()
	}
}

// I2CSlaveTxCpltCallback is HAL_I2C_SlaveTxCpltCallback.
func (c *Chip) I2CSlaveTxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cSlaveAgent(h); ok {
		ag.OnI2cSlaveTxComplete()
	}
}

// I2CSlaveRxCpltCallback is HAL_I2C_SlaveRxCpltCallback.
func (c *Chip) I2CSlaveRxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cSlaveAgent(h); ok {
		ag.OnI2cSlaveRxComplete()
	}
}

// I2CAddrCallback is HAL_I2C_AddrCallback: a master addressed us.
func (c *Chip) I2CAddrCallback(h I2CHandle, dir uint8, addr uint16) {
	if ag, ok := c.i2cSlaveAgent(h); ok {
		ag.OnI2cSlaveSelected(mcu.I2cDirection(dir), addr)
	}
}

// I2CListenCpltCallback is HAL_I2C_ListenCpltCallback.
func (c *Chip) I2CListenCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cSlaveAgent(h); ok {
		ag.OnI2cSlaveListenComplete()
	}
}

// I2CMemTxCpltCallback is HAL_I2C_MemTxCpltCallback.
func (c *Chip) I2CMemTxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cMemAgent(h); ok {
		ag.OnI2cMemWriteComplete()
	}
}

// I2CMemRxCpltCallback is HAL_I2C_MemRxCpltCallback.
func (c *Chip) I2CMemRxCpltCallback(h I2CHandle) {
	if ag, ok := c.i2cMemAgent(h); ok {
		ag.OnI2cMemReadComplete()
	}
}

// I2CErrorCallback is HAL_I2C_ErrorCallback. The vendor reports one error
// callback for all roles, so the peripheral's current mode picks the agent.
func (c *Chip) I2CErrorCallback(h I2CHandle) {
	switch c.drv.I2CGetMode(h) {
	case I2CModeMaster:
		if ag, ok := c.i2cMasterAgent(h); ok {
			ag.OnI2cMasterError()
		}
	case I2CModeSlave:
		if ag, ok := c.i2cSlaveAgent(h); ok {
			ag.OnI2cSlaveError()
		}
	case I2CModeMem:
		if ag, ok := c.i2cMemAgent(h); ok {
			ag.OnI2cMemError()
		}
	}
}
