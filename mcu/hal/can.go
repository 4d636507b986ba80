package hal

import (
	"sync/atomic"

	"mcukit/errcode"
	"mcukit/mcu"
)

// Can is one receive FIFO of a CAN peripheral. The FIFO index is the
// registry channel, so FIFO0 and FIFO1 of the same handle bind separately.
type Can struct {
	chip  *Chip
	h     CANHandle
	fifo  uint32
	agent mcu.AgentSlot[mcu.CanEventAgent]
	dst   atomic.Pointer[mcu.CanMessage]
}

var _ mcu.Can = (*Can)(nil)

// AllocateCan binds FIFO fifo of h.
func (c *Chip) AllocateCan(h CANHandle, fifo uint32) (*Can, error) {
	if h == 0 || fifo > CANRxFIFO1 {
		return nil, errcode.Param
	}
	cn, _, err := c.cans.Allocate(&Can{chip: c, h: h, fifo: fifo})
	return cn, err
}

func (cn *Can) HandleValue() uintptr { return uintptr(cn.h) }
func (cn *Can) ChannelValue() uint32 { return cn.fifo }
func (cn *Can) Handle() CANHandle    { return cn.h }

func (cn *Can) SetEventAgent(agent mcu.CanEventAgent) { cn.agent.Set(agent) }
func (cn *Can) CleanEventAgent()                      { cn.agent.Clear() }

// Release drops the agent and the pending receive destination and frees
// the registry slot.
func (cn *Can) Release() error {
	cn.agent.Clear()
	cn.dst.Store(nil)
	return cn.chip.cans.Clean(mcu.KeyOf(cn))
}

func (cn *Can) Activate() error   { return cn.chip.drv.CANStart(cn.h).Err() }
func (cn *Can) Deactivate() error { return cn.chip.drv.CANStop(cn.h).Err() }

// expired reports whether more than timeout ms passed since start. A zero
// timeout means a single attempt.
func (cn *Can) expired(start, timeout uint32) bool {
	return timeout == 0 || cn.chip.drv.GetTick()-start > timeout
}

// Transmit waits for a free mailbox, then for the frame to leave it. Either
// wait running out yields errcode.Busy; a frame stuck in its mailbox is
// aborted first.
func (cn *Can) Transmit(msg *mcu.CanMessage, timeout uint32) error {
	if msg == nil {
		return errcode.Param
	}
	d := cn.chip.drv
	var mailbox uint32

	start := d.GetTick()
	for d.CANAddTxMessage(cn.h, &msg.Header, &msg.Data, &mailbox) != StatusOK {
		if cn.expired(start, timeout) {
			return errcode.Busy
		}
	}

	start = d.GetTick()
	for d.CANIsTxMessagePending(cn.h, mailbox) != 0 {
		if cn.expired(start, timeout) {
			d.CANAbortTxRequest(cn.h, mailbox)
			return errcode.Busy
		}
	}
	return nil
}

// Receive pops one frame from the bound FIFO into msg.
func (cn *Can) Receive(msg *mcu.CanMessage, timeout uint32) error {
	if msg == nil {
		return errcode.Param
	}
	d := cn.chip.drv
	var hdr mcu.CanHeader

	start := d.GetTick()
	for d.CANGetRxMessage(cn.h, cn.fifo, &hdr, &msg.Data) != StatusOK {
		if cn.expired(start, timeout) {
			return errcode.Busy
		}
	}
	msg.Header = hdr
	return nil
}

func (cn *Can) AsyncTransmit(msg *mcu.CanMessage) error {
	if msg == nil {
		return errcode.Param
	}
	var mailbox uint32
	return cn.chip.drv.CANAddTxMessage(cn.h, &msg.Header, &msg.Data, &mailbox).Err()
}

// AsyncReceive records dst. Every later FIFO-pending interrupt pops one
// frame into it; dst must stay valid until AbortAsyncReceive or Release.
func (cn *Can) AsyncReceive(dst *mcu.CanMessage) { cn.dst.Store(dst) }

// AbortAsyncReceive forgets the destination; pending frames stay queued.
func (cn *Can) AbortAsyncReceive() { cn.dst.Store(nil) }

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) canRxPending(h CANHandle, fifo uint32) {
	cn, err := c.cans.Search(mcu.Key{Handle: uintptr(h), Channel: fifo})
	if err != nil {
		return
	}
	dst := cn.dst.Load()
	if dst == nil {
		return
	}
	if cn.Receive(dst, 0) != nil {
		return
	}
	if ag, ok := cn.agent.Load(); ok {
		ag.OnCanMessageReceive()
	}
}

// CANRxFifo0MsgPendingCallback is HAL_CAN_RxFifo0MsgPendingCallback.
func (c *Chip) CANRxFifo0MsgPendingCallback(h CANHandle) { c.canRxPending(h, CANRxFIFO0) }

// CANRxFifo1MsgPendingCallback is HAL_CAN_RxFifo1MsgPendingCallback.
func (c *Chip) CANRxFifo1MsgPendingCallback(h CANHandle) { c.canRxPending(h, CANRxFIFO1) }

// CANErrorCallback is HAL_CAN_ErrorCallback. Errors belong to the
// peripheral, so both FIFO bindings hear about it.
func (c *Chip) CANErrorCallback(h CANHandle) {
	for fifo := CANRxFIFO0; fifo <= CANRxFIFO1; fifo++ {
		cn, err := c.cans.Search(mcu.Key{Handle: uintptr(h), Channel: fifo})
		if err != nil {
			continue
		}
		if ag, ok := cn.agent.Load(); ok {
			ag.OnCanError()
		}
	}
}
