package sim

import (
	"bytes"
	"io"
	"time"

	"github.com/golang/glog"

	"mcukit/mcu"
	"mcukit/mcu/hal"
	"mcukit/x/shmring"
)

// uartRxDepth is the simulated receive FIFO, in bytes.
const uartRxDepth = 1024

type uartState struct {
	rx  *shmring.Ring
	out io.Writer
	buf bytes.Buffer

	// in-flight async receive
	pend   []byte
	toIdle bool
}

func (d *Driver) uart(h hal.UARTHandle) *uartState {
	u := d.uarts[h]
	if u == nil {
		u = &uartState{rx: shmring.New(uartRxDepth)}
		u.out = &u.buf
		d.uarts[h] = u
	}
	return u
}

// SetUARTOutput sends everything transmitted on h to w.
func (d *Driver) SetUARTOutput(h hal.UARTHandle, w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uart(h).out = w
}

// UARTOutput returns and clears what h transmitted since the last call,
// unless SetUARTOutput redirected it.
func (d *Driver) UARTOutput(h hal.UARTHandle) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.uart(h)
	out := append([]byte(nil), u.buf.Bytes()...)
	u.buf.Reset()
	return out
}

// InjectUART feeds bytes into h's receive line and returns how many fit.
// A pending async receive completes as soon as its condition is met.
func (d *Driver) InjectUART(h hal.UARTHandle, data []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.uart(h)
	n := u.rx.TryWriteFrom(data)
	if n < len(data) {
		glog.V(2).Infof("sim: uart %#x rx overrun, dropped %d bytes", uintptr(h), len(data)-n)
	}
	d.deliverUART(h, u)
	return n
}

// RaiseUARTError fires HAL_UART_ErrorCallback and cancels the pending
// receive, as a framing or overrun error does.
func (d *Driver) RaiseUARTError(h hal.UARTHandle) {
	d.mu.Lock()
	d.uart(h).pend = nil
	d.mu.Unlock()
	d.raise(func(c *hal.Chip) { c.UARTErrorCallback(h) })
}

// deliverUART completes the pending receive if it can. Callers hold d.mu.
func (d *Driver) deliverUART(h hal.UARTHandle, u *uartState) {
	if u.pend == nil {
		return
	}
	avail := u.rx.Available()
	if u.toIdle {
		if avail == 0 {
			return
		}
		n := u.rx.TryReadInto(u.pend)
		u.pend = nil
		d.raise(func(c *hal.Chip) { c.UARTExRxEventCallback(h, uint16(n)) })
		return
	}
	if avail < len(u.pend) {
		return
	}
	u.rx.TryReadInto(u.pend)
	u.pend = nil
	d.raise(func(c *hal.Chip) { c.UARTRxCpltCallback(h) })
}

func (d *Driver) UARTTransmit(h hal.UARTHandle, data []byte, timeout uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("UARTTransmit"); ok {
		return st
	}
	if _, err := d.uart(h).out.Write(data); err != nil {
		return hal.StatusError
	}
	return hal.StatusOK
}

func (d *Driver) UARTTransmitDMA(h hal.UARTHandle, data []byte) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("UARTTransmitDMA"); ok {
		return st
	}
	if _, err := d.uart(h).out.Write(data); err != nil {
		return hal.StatusError
	}
	d.raise(func(c *hal.Chip) { c.UARTTxCpltCallback(h) })
	return hal.StatusOK
}

// pollUART retries take until it reports done or timeout ms pass.
func (d *Driver) pollUART(op string, timeout uint32, take func() bool) hal.Status {
	start := d.clock()
	for {
		d.mu.Lock()
		if st, ok := d.fail(op); ok {
			d.mu.Unlock()
			return st
		}
		done := take()
		d.mu.Unlock()
		if done {
			return hal.StatusOK
		}
		if timeout != mcu.WaitForever && d.clock()-start >= timeout {
			return hal.StatusTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *Driver) UARTReceive(h hal.UARTHandle, data []byte, timeout uint32) hal.Status {
	return d.pollUART("UARTReceive", timeout, func() bool {
		u := d.uart(h)
		if u.rx.Available() < len(data) {
			return false
		}
		u.rx.TryReadInto(data)
		return true
	})
}

func (d *Driver) UARTReceiveToIdle(h hal.UARTHandle, data []byte, timeout uint32) (uint16, hal.Status) {
	var n int
	st := d.pollUART("UARTReceiveToIdle", timeout, func() bool {
		n = d.uart(h).rx.TryReadInto(data)
		return n > 0
	})
	return uint16(n), st
}

func (d *Driver) startRx(op string, h hal.UARTHandle, data []byte, toIdle bool) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail(op); ok {
		return st
	}
	u := d.uart(h)
	if u.pend != nil {
		return hal.StatusBusy
	}
	if len(data) == 0 {
		return hal.StatusError
	}
	u.pend, u.toIdle = data, toIdle
	d.deliverUART(h, u)
	return hal.StatusOK
}

func (d *Driver) UARTReceiveDMA(h hal.UARTHandle, data []byte) hal.Status {
	return d.startRx("UARTReceiveDMA", h, data, false)
}

func (d *Driver) UARTReceiveToIdleDMA(h hal.UARTHandle, data []byte) hal.Status {
	return d.startRx("UARTReceiveToIdleDMA", h, data, true)
}

// UARTAbort is the blocking HAL_UART_Abort: it cancels transfers and does
// not raise the abort-complete callback.
func (d *Driver) UARTAbort(h hal.UARTHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("UARTAbort"); ok {
		return st
	}
	d.uart(h).pend = nil
	return hal.StatusOK
}
