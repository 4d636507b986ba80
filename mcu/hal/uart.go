package hal

import (
	"mcukit/errcode"
	"mcukit/mcu"
)

type Uart struct {
	mcu.NoChannel
	chip  *Chip
	h     UARTHandle
	agent mcu.AgentSlot[mcu.UartEventAgent]
}

var _ mcu.Uart = (*Uart)(nil)

// AllocateUart binds h. Binding the same handle twice returns the first
// wrapper.
func (c *Chip) AllocateUart(h UARTHandle) (*Uart, error) {
	if h == 0 {
		return nil, errcode.Param
	}
	u, _, err := c.uarts.Allocate(&Uart{chip: c, h: h})
	return u, err
}

func (u *Uart) HandleValue() uintptr { return uintptr(u.h) }
func (u *Uart) Handle() UARTHandle   { return u.h }

func (u *Uart) SetEventAgent(agent mcu.UartEventAgent) { u.agent.Set(agent) }
func (u *Uart) CleanEventAgent()                       { u.agent.Clear() }

// Release drops the agent and frees the registry slot.
func (u *Uart) Release() error {
	u.agent.Clear()
	return u.chip.uarts.Clean(mcu.KeyOf(u))
}

func (u *Uart) Transmit(data []byte, timeout uint32) error {
	return u.chip.drv.UARTTransmit(u.h, data, timeout).Err()
}

func (u *Uart) Receive(data []byte, timeout uint32) (uint32, error) {
	n, st := u.chip.drv.UARTReceiveToIdle(u.h, data, timeout)
	return uint32(n), st.Err()
}

func (u *Uart) ReceiveSize(data []byte, timeout uint32) error {
	return u.chip.drv.UARTReceive(u.h, data, timeout).Err()
}

func (u *Uart) AsyncTransmit(data []byte) error {
	return u.chip.drv.UARTTransmitDMA(u.h, data).Err()
}

func (u *Uart) AsyncReceive(data []byte) error {
	return u.chip.drv.UARTReceiveToIdleDMA(u.h, data).Err()
}

func (u *Uart) AsyncReceiveSize(data []byte) error {
	return u.chip.drv.UARTReceiveDMA(u.h, data).Err()
}

func (u *Uart) Abort() error { return u.chip.drv.UARTAbort(u.h).Err() }

// Write makes a Uart usable as an io.Writer for log output.
func (u *Uart) Write(p []byte) (int, error) {
	if err := u.Transmit(p, mcu.WaitForever); err != nil {
		return 0, err
	}
	return len(p), nil
}

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) uartAgent(h UARTHandle) (mcu.UartEventAgent, bool) {
	u, err := c.uarts.Search(mcu.Key{Handle: uintptr(h)})
	if err != nil {
		return nil, false
	}
	return u.agent.Load()
}

// UARTTxCpltCallback is HAL_UART_TxCpltCallback.
func (c *Chip) UARTTxCpltCallback(h UARTHandle) {
	if ag, ok := c.uartAgent(h); ok {
		ag.OnUartTxComplete()
	}
}

// UARTRxCpltCallback is HAL_UART_RxCpltCallback: a fixed-size receive
// filled its buffer.
func (c *Chip) UARTRxCpltCallback(h UARTHandle) {
	if ag, ok := c.uartAgent(h); ok {
		ag.OnUartRxSizeComplete()
	}
}

// UARTExRxEventCallback is HAL_UARTEx_RxEventCallback: a receive-to-idle
// ended after size bytes.
func (c *Chip) UARTExRxEventCallback(h UARTHandle, size uint16) {
	if ag, ok := c.uartAgent(h); ok {
		ag.OnUartRxComplete(uint32(size))
	}
}

// UARTErrorCallback is HAL_UART_ErrorCallback.
func (c *Chip) UARTErrorCallback(h UARTHandle) {
	if ag, ok := c.uartAgent(h); ok {
		ag.OnUartError()
	}
}

// UARTAbortCpltCallback is HAL_UART_AbortCpltCallback.
func (c *Chip) UARTAbortCpltCallback(h UARTHandle) {
	if ag, ok := c.uartAgent(h); ok {
		ag.OnUartAbortComplete()
	}
}
