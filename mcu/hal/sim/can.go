package sim

import (
	"mcukit/mcu"
	"mcukit/mcu/hal"
)

type canState struct {
	started bool
	sent    []mcu.CanMessage
	fifo    [2][]mcu.CanMessage
	aborts  int

	txFull  bool // no free mailbox
	txStuck bool // queued frames never leave
}

func (d *Driver) can(h hal.CANHandle) *canState {
	s := d.cans[h]
	if s == nil {
		s = &canState{}
		d.cans[h] = s
	}
	return s
}

// InjectCAN queues msg on FIFO fifo of h and raises its pending callback.
func (d *Driver) InjectCAN(h hal.CANHandle, fifo uint32, msg mcu.CanMessage) {
	d.mu.Lock()
	s := d.can(h)
	s.fifo[fifo&1] = append(s.fifo[fifo&1], msg)
	d.mu.Unlock()
	if fifo&1 == hal.CANRxFIFO0 {
		d.raise(func(c *hal.Chip) { c.CANRxFifo0MsgPendingCallback(h) })
	} else {
		d.raise(func(c *hal.Chip) { c.CANRxFifo1MsgPendingCallback(h) })
	}
}

// CANPending is the fill level of one receive FIFO.
func (d *Driver) CANPending(h hal.CANHandle, fifo uint32) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.can(h).fifo[fifo&1])
}

// CANSent returns and clears the frames h transmitted.
func (d *Driver) CANSent(h hal.CANHandle) []mcu.CanMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.can(h)
	out := s.sent
	s.sent = nil
	return out
}

// CANAborts counts mailbox abort requests on h.
func (d *Driver) CANAborts(h hal.CANHandle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.can(h).aborts
}

// SetCANTxFull makes AddTxMessage report busy mailboxes.
func (d *Driver) SetCANTxFull(h hal.CANHandle, full bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.can(h).txFull = full
}

// SetCANTxStuck keeps accepted frames pending forever.
func (d *Driver) SetCANTxStuck(h hal.CANHandle, stuck bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.can(h).txStuck = stuck
}

// RaiseCANError fires HAL_CAN_ErrorCallback for h.
func (d *Driver) RaiseCANError(h hal.CANHandle) {
	d.raise(func(c *hal.Chip) { c.CANErrorCallback(h) })
}

func (d *Driver) CANStart(h hal.CANHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("CANStart"); ok {
		return st
	}
	d.can(h).started = true
	return hal.StatusOK
}

func (d *Driver) CANStop(h hal.CANHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("CANStop"); ok {
		return st
	}
	d.can(h).started = false
	return hal.StatusOK
}

func (d *Driver) CANAddTxMessage(h hal.CANHandle, hdr *mcu.CanHeader, data *[8]byte, mailbox *uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("CANAddTxMessage"); ok {
		return st
	}
	s := d.can(h)
	if !s.started {
		return hal.StatusError
	}
	if s.txFull {
		return hal.StatusBusy
	}
	s.sent = append(s.sent, mcu.CanMessage{Header: *hdr, Data: *data})
	*mailbox = 1
	return hal.StatusOK
}

func (d *Driver) CANAbortTxRequest(h hal.CANHandle, _ uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.can(h).aborts++
	return hal.StatusOK
}

func (d *Driver) CANIsTxMessagePending(h hal.CANHandle, _ uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.can(h).txStuck {
		return 1
	}
	return 0
}

func (d *Driver) CANGetRxMessage(h hal.CANHandle, fifo uint32, hdr *mcu.CanHeader, data *[8]byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("CANGetRxMessage"); ok {
		return st
	}
	q := &d.can(h).fifo[fifo&1]
	if len(*q) == 0 {
		return hal.StatusError
	}
	m := (*q)[0]
	*q = (*q)[1:]
	*hdr, *data = m.Header, m.Data
	return hal.StatusOK
}
