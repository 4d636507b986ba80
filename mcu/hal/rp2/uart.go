//go:build rp2040

package rp2

import (
	"context"
	"machine"
	"sync"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"mcukit/mcu"
	"mcukit/mcu/hal"
)

// uartPort runs at most one async receive at a time on its own goroutine.
type uartPort struct {
	h  hal.UARTHandle
	hw *uartx.UART

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newUartPort(h hal.UARTHandle) *uartPort {
	hw := uartx.UART0
	if h == UART1 {
		hw = uartx.UART1
	}
	return &uartPort{h: h, hw: hw}
}

func (d *Driver) uart(h hal.UARTHandle) *uartPort {
	switch h {
	case UART0:
		return d.uarts[0]
	case UART1:
		return d.uarts[1]
	}
	return nil
}

// ConfigureUART sets pins and baud rate. Zero values keep the uartx
// defaults.
func (d *Driver) ConfigureUART(h hal.UARTHandle, baud uint32, tx, rx machine.Pin) error {
	u := d.uart(h)
	if u == nil {
		return hal.StatusError.Err()
	}
	return u.hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx})
}

func withTimeout(timeout uint32) (context.Context, context.CancelFunc) {
	if timeout == mcu.WaitForever {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(timeout)*time.Millisecond)
}

func readStatus(err error) hal.Status {
	switch err {
	case nil:
		return hal.StatusOK
	case context.DeadlineExceeded:
		return hal.StatusTimeout
	default:
		return hal.StatusError
	}
}

// readFull reads until p is full or ctx ends.
func (u *uartPort) readFull(ctx context.Context, p []byte) (int, error) {
	got := 0
	for got < len(p) {
		n, err := u.hw.RecvSomeContext(ctx, p[got:])
		got += n
		if err != nil {
			return got, err
		}
	}
	return got, nil
}

func (d *Driver) UARTTransmit(h hal.UARTHandle, data []byte, _ uint32) hal.Status {
	u := d.uart(h)
	if u == nil {
		return hal.StatusError
	}
	if _, err := u.hw.Write(data); err != nil {
		return hal.StatusError
	}
	return hal.StatusOK
}

func (d *Driver) UARTReceive(h hal.UARTHandle, data []byte, timeout uint32) hal.Status {
	u := d.uart(h)
	if u == nil {
		return hal.StatusError
	}
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	_, err := u.readFull(ctx, data)
	return readStatus(err)
}

func (d *Driver) UARTReceiveToIdle(h hal.UARTHandle, data []byte, timeout uint32) (uint16, hal.Status) {
	u := d.uart(h)
	if u == nil {
		return 0, hal.StatusError
	}
	ctx, cancel := withTimeout(timeout)
	defer cancel()
	n, err := u.hw.RecvSomeContext(ctx, data)
	return uint16(n), readStatus(err)
}

// uartx transmits from its own ring under interrupts, so the copy is done
// when Write returns.
func (d *Driver) UARTTransmitDMA(h hal.UARTHandle, data []byte) hal.Status {
	st := d.UARTTransmit(h, data, 0)
	if st == hal.StatusOK {
		go hal.UARTTxCpltCallback(h)
	}
	return st
}

// startRx launches one receive goroutine. A second start while one is in
// flight is Busy, as on the vendor HAL.
func (d *Driver) startRx(h hal.UARTHandle, data []byte, toIdle bool) hal.Status {
	u := d.uart(h)
	if u == nil || len(data) == 0 {
		return hal.StatusError
	}
	u.mu.Lock()
	if u.cancel != nil {
		u.mu.Unlock()
		return hal.StatusBusy
	}
	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.mu.Unlock()

	go func() {
		var n int
		var err error
		if toIdle {
			n, err = u.hw.RecvSomeContext(ctx, data)
		} else {
			n, err = u.readFull(ctx, data)
		}
		u.mu.Lock()
		aborted := ctx.Err() != nil
		u.cancel = nil
		u.mu.Unlock()
		cancel()

		switch {
		case aborted:
		case err != nil:
			hal.UARTErrorCallback(h)
		case toIdle:
			hal.UARTExRxEventCallback(h, uint16(n))
		default:
			hal.UARTRxCpltCallback(h)
		}
	}()
	return hal.StatusOK
}

func (d *Driver) UARTReceiveDMA(h hal.UARTHandle, data []byte) hal.Status {
	return d.startRx(h, data, false)
}

func (d *Driver) UARTReceiveToIdleDMA(h hal.UARTHandle, data []byte) hal.Status {
	return d.startRx(h, data, true)
}

func (d *Driver) UARTAbort(h hal.UARTHandle) hal.Status {
	u := d.uart(h)
	if u == nil {
		return hal.StatusError
	}
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel()
	}
	u.mu.Unlock()
	return hal.StatusOK
}
