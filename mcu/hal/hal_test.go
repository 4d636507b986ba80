package hal_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/shtc3"

	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/mcu/hal"
	"mcukit/mcu/hal/sim"
)

var board = hal.Board{Name: "test", ADC: 2, UART: 2, SPI: 2, I2C: 2, CAN: 4}

// newChip returns an unpublished chip wired to a fresh simulator.
func newChip(t *testing.T) (*hal.Chip, *sim.Driver) {
	t.Helper()
	d := sim.New()
	t.Cleanup(d.Close)
	c, err := hal.NewChip(board, d)
	require.NoError(t, err)
	d.Attach(c)
	return c, d
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// ---- agents ----

type uartAgent struct {
	mcu.UartEvents
	tx chan struct{}
	rx chan uint32
}

func newUartAgent() *uartAgent {
	return &uartAgent{tx: make(chan struct{}, 4), rx: make(chan uint32, 4)}
}

func (a *uartAgent) OnUartTxComplete()         { a.tx <- struct{}{} }
func (a *uartAgent) OnUartRxComplete(n uint32) { a.rx <- n }

type adcAgent struct {
	mcu.AdcEvents
	values chan uint32
}

func (a *adcAgent) OnAdcConvertOnceComplete(v uint32) { a.values <- v }

type canAgent struct {
	mcu.CanEvents
	rx, errs chan struct{}
}

func newCanAgent() *canAgent {
	return &canAgent{rx: make(chan struct{}, 4), errs: make(chan struct{}, 4)}
}

func (a *canAgent) OnCanMessageReceive() { a.rx <- struct{}{} }
func (a *canAgent) OnCanError()          { a.errs <- struct{}{} }

type i2cAgents struct {
	mcu.I2cMasterEvents
	masterErr chan struct{}
}

func (a *i2cAgents) OnI2cMasterError() { a.masterErr <- struct{}{} }

// ---- tests ----

func TestNewChipValidates(t *testing.T) {
	d := sim.New()
	defer d.Close()

	_, err := hal.NewChip(board, nil)
	assert.Equal(t, errcode.Param, err)

	_, err = hal.NewChip(hal.Board{UART: hal.MaxPeripherals + 1}, d)
	assert.Equal(t, errcode.Param, err)

	_, err = hal.NewChip(hal.Board{ADC: -1}, d)
	assert.Equal(t, errcode.Param, err)
}

func TestInitPublishesOnce(t *testing.T) {
	hal.ResetActive()
	t.Cleanup(hal.ResetActive)
	d := sim.New()
	defer d.Close()

	// Events before Init are dropped without a chip.
	hal.UARTTxCpltCallback(0x1000)

	c, err := hal.Init(board, d)
	require.NoError(t, err)
	assert.True(t, hal.Active() == c)

	_, err = hal.Init(board, d)
	assert.Equal(t, errcode.InstanceDuplicate, err)

	u, err := c.AllocateUart(0x1000)
	require.NoError(t, err)
	a := newUartAgent()
	u.SetEventAgent(a)

	// Package-level entry points reach the published chip.
	hal.UARTTxCpltCallback(0x1000)
	wait(t, a.tx, "tx complete via package callback")
}

func TestUartEventRoundTrip(t *testing.T) {
	c, d := newChip(t)
	u, err := c.AllocateUart(0x4001_3800)
	require.NoError(t, err)

	a := newUartAgent()
	u.SetEventAgent(a)

	require.NoError(t, u.AsyncTransmit([]byte("ping")))
	wait(t, a.tx, "tx complete")
	assert.Equal(t, "ping", string(d.UARTOutput(0x4001_3800)))

	buf := make([]byte, 16)
	require.NoError(t, u.AsyncReceive(buf))
	d.InjectUART(0x4001_3800, []byte("pong\r\n"))
	select {
	case n := <-a.rx:
		assert.Equal(t, uint32(6), n)
		assert.Equal(t, "pong\r\n", string(buf[:n]))
	case <-time.After(2 * time.Second):
		t.Fatal("no rx event")
	}

	// After CleanEventAgent the shim finds the binding but has nobody to call.
	u.CleanEventAgent()
	require.NoError(t, u.AsyncTransmit([]byte("x")))
	d.Sync()
	assert.Len(t, a.tx, 0)
}

func TestAllocateIsIdempotentPerHandle(t *testing.T) {
	c, _ := newChip(t)
	u1, err := c.AllocateUart(0x10)
	require.NoError(t, err)
	u2, err := c.AllocateUart(0x10)
	require.NoError(t, err)
	assert.True(t, u1 == u2)

	_, err = c.AllocateUart(0x20)
	require.NoError(t, err)
	_, err = c.AllocateUart(0x30)
	assert.Equal(t, errcode.SlotsExhausted, err)

	require.NoError(t, u1.Release())
	_, err = c.AllocateUart(0x30)
	assert.NoError(t, err)

	_, err = c.AllocateUart(0)
	assert.Equal(t, errcode.Param, err)
}

func TestAdcConvertOnce(t *testing.T) {
	c, d := newChip(t)
	const h = hal.ADCHandle(0x1000)
	d.SetADCValue(h, 2048)

	a, err := c.AllocateAdc(h)
	require.NoError(t, err)

	v, err := a.ConvertOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(2048), v)

	agent := &adcAgent{values: make(chan uint32, 1)}
	a.SetEventAgent(agent)
	require.NoError(t, a.AsyncConvertOnce())
	select {
	case v := <-agent.values:
		assert.Equal(t, uint32(2048), v)
	case <-time.After(2 * time.Second):
		t.Fatal("no conversion event")
	}

	d.SetStatus("ADCPollForConversion", hal.StatusTimeout)
	_, err = a.ConvertOnce()
	assert.Equal(t, errcode.Timeout, err)
}

func TestAdcContinuous(t *testing.T) {
	c, d := newChip(t)
	d.SetADCValue(0x2000, 7)
	a, err := c.AllocateAdc(0x2000)
	require.NoError(t, err)

	buf := make([]uint32, 4)
	require.NoError(t, a.AsyncConvertContinuous(buf))
	assert.Equal(t, []uint32{7, 7, 7, 7}, buf)
	assert.Equal(t, errcode.Busy, a.AsyncConvertContinuous(buf))
	require.NoError(t, a.AsyncTerminateConversion())
	assert.Equal(t, errcode.Param, a.AsyncConvertContinuous(nil))
}

func TestGpioRoutesByPin(t *testing.T) {
	c, d := newChip(t)
	const port = hal.GPIOPort(0x4202_0000)
	const pin3, pin5 = uint16(1 << 3), uint16(1 << 5)

	io3, err := c.Io(port, pin3)
	require.NoError(t, err)
	io5, err := c.Io(port, pin5)
	require.NoError(t, err)

	var n3, n5 atomic.Int32
	io3.SetEventAgent(mcu.IoEventFunc(func() { n3.Add(1) }))
	io5.SetEventAgent(mcu.IoEventFunc(func() { n5.Add(1) }))

	c.GPIOEXTICallback(pin5)
	assert.Equal(t, int32(1), n5.Load())
	assert.Equal(t, int32(0), n3.Load())

	c.GPIOEXTICallback(pin3)
	assert.Equal(t, int32(1), n5.Load())
	assert.Equal(t, int32(1), n3.Load())

	// Same routing when the simulator raises the edge.
	d.DrivePin(port, pin5, mcu.IoSet)
	d.Sync()
	assert.Equal(t, int32(2), n5.Load())
	assert.Equal(t, int32(1), n3.Load())

	io5.CleanEventAgent()
	d.DrivePin(port, pin5, mcu.IoReset)
	d.Sync()
	assert.Equal(t, int32(2), n5.Load())
}

func TestNilAgentIsEmptySlot(t *testing.T) {
	c, _ := newChip(t)
	u, err := c.AllocateUart(0x1000)
	require.NoError(t, err)
	var none mcu.UartEventAgent
	u.SetEventAgent(none)
	assert.NotPanics(t, func() {
		c.UARTTxCpltCallback(0x1000)
		c.UARTExRxEventCallback(0x1000, 4)
	})

	io, err := c.Io(hal.GPIOPort(0x4202_0000), 1<<5)
	require.NoError(t, err)
	io.SetEventAgent(nil)
	assert.NotPanics(t, func() { c.GPIOEXTICallback(1 << 5) })

	// A real agent still replaces the empty slot.
	a := newUartAgent()
	u.SetEventAgent(a)
	c.UARTTxCpltCallback(0x1000)
	wait(t, a.tx, "tx complete")
}

func TestGpioOutput(t *testing.T) {
	c, _ := newChip(t)
	led, err := c.Io(0x4202_0800, 1<<7)
	require.NoError(t, err)
	assert.Equal(t, mcu.IoReset, led.State())
	led.SetState(mcu.IoSet)
	assert.Equal(t, mcu.IoSet, led.State())
	led.Toggle()
	assert.Equal(t, mcu.IoReset, led.State())
}

func TestCanAsyncReceive(t *testing.T) {
	c, d := newChip(t)
	const h = hal.CANHandle(0x4000_6400)

	can, err := c.AllocateCan(h, hal.CANRxFIFO0)
	require.NoError(t, err)
	require.NoError(t, can.Activate())
	a := newCanAgent()
	can.SetEventAgent(a)

	var dst mcu.CanMessage
	can.AsyncReceive(&dst)

	in := mcu.CanMessage{Header: mcu.CanHeader{StdID: 0x123, DLC: 2}, Data: [8]byte{0xAB, 0xCD}}
	d.InjectCAN(h, hal.CANRxFIFO0, in)
	wait(t, a.rx, "can receive")
	assert.Equal(t, in, dst)
	assert.Equal(t, 0, d.CANPending(h, hal.CANRxFIFO0))
}

func TestCanAsyncReceiveFailures(t *testing.T) {
	c, d := newChip(t)
	const h = hal.CANHandle(0x4000_6400)

	can, err := c.AllocateCan(h, hal.CANRxFIFO1)
	require.NoError(t, err)
	a := newCanAgent()
	can.SetEventAgent(a)

	// No destination: no notification, frame stays queued.
	d.InjectCAN(h, hal.CANRxFIFO1, mcu.CanMessage{Header: mcu.CanHeader{StdID: 1}})
	d.Sync()
	assert.Len(t, a.rx, 0)
	assert.Equal(t, 1, d.CANPending(h, hal.CANRxFIFO1))

	// Vendor read fails: no notification.
	var dst mcu.CanMessage
	can.AsyncReceive(&dst)
	d.SetStatus("CANGetRxMessage", hal.StatusError)
	d.InjectCAN(h, hal.CANRxFIFO1, mcu.CanMessage{Header: mcu.CanHeader{StdID: 2}})
	d.Sync()
	assert.Len(t, a.rx, 0)

	// FIFO0 traffic is not ours.
	d.SetStatus("CANGetRxMessage", hal.StatusOK)
	d.InjectCAN(h, hal.CANRxFIFO0, mcu.CanMessage{Header: mcu.CanHeader{StdID: 3}})
	d.Sync()
	assert.Len(t, a.rx, 0)

	// Errors reach every binding of the handle.
	d.RaiseCANError(h)
	wait(t, a.errs, "can error")
}

func TestCanTransmit(t *testing.T) {
	c, d := newChip(t)
	const h = hal.CANHandle(0x4000_6800)
	can, err := c.AllocateCan(h, hal.CANRxFIFO0)
	require.NoError(t, err)
	require.NoError(t, can.Activate())

	msg := &mcu.CanMessage{Header: mcu.CanHeader{StdID: 0x7FF, DLC: 1}, Data: [8]byte{1}}
	require.NoError(t, can.Transmit(msg, 10))
	sent := d.CANSent(h)
	require.Len(t, sent, 1)
	assert.Equal(t, *msg, sent[0])

	d.SetCANTxStuck(h, true)
	assert.Equal(t, errcode.Busy, can.Transmit(msg, 5))
	assert.Equal(t, 1, d.CANAborts(h))

	d.SetCANTxStuck(h, false)
	d.SetCANTxFull(h, true)
	assert.Equal(t, errcode.Busy, can.Transmit(msg, 0))

	_, err = c.AllocateCan(h, 2)
	assert.Equal(t, errcode.Param, err)
}

func TestCanFifosBindSeparately(t *testing.T) {
	c, _ := newChip(t)
	f0, err := c.AllocateCan(0x10, hal.CANRxFIFO0)
	require.NoError(t, err)
	f1, err := c.AllocateCan(0x10, hal.CANRxFIFO1)
	require.NoError(t, err)
	assert.False(t, f0 == f1)
}

func TestI2cModeConflict(t *testing.T) {
	c, _ := newChip(t)
	m, err := c.AllocateI2cMaster(0x4000_5400)
	require.NoError(t, err)

	again, err := c.AllocateI2cMaster(0x4000_5400)
	require.NoError(t, err)
	assert.True(t, m == again)

	_, err = c.AllocateI2cMem(0x4000_5400)
	assert.Equal(t, errcode.InstanceInUse, err)
	_, err = c.AllocateI2cSlave(0x4000_5400)
	assert.Equal(t, errcode.InstanceInUse, err)

	require.NoError(t, m.Release())
	_, err = c.AllocateI2cMem(0x4000_5400)
	assert.NoError(t, err)
}

func TestI2cErrorDispatchByMode(t *testing.T) {
	c, d := newChip(t)
	const h = hal.I2CHandle(0x4000_5800)
	m, err := c.AllocateI2cMaster(h)
	require.NoError(t, err)
	a := &i2cAgents{masterErr: make(chan struct{}, 2)}
	m.SetEventAgent(a)

	d.RaiseI2CError(h, hal.I2CModeMem)
	d.RaiseI2CError(h, hal.I2CModeNone)
	d.Sync()
	assert.Len(t, a.masterErr, 0)

	d.RaiseI2CError(h, hal.I2CModeMaster)
	wait(t, a.masterErr, "master error")

	// A NACKed DMA transfer surfaces as a master error.
	require.NoError(t, m.AsyncTransmit(0x50<<1, []byte{1}))
	wait(t, a.masterErr, "nack")
}

func TestI2cMasterDrivesSHTC3(t *testing.T) {
	c, d := newChip(t)
	const h = hal.I2CHandle(0x4000_5C00)
	sensor := sim.NewSHTC3(23500, 4500)
	d.AttachI2C(h, sim.SHTC3Address, sensor)

	m, err := c.AllocateI2cMaster(h)
	require.NoError(t, err)

	dev := shtc3.New(m)
	require.NoError(t, dev.WakeUp())
	milliC, rh, err := dev.ReadTemperatureHumidity()
	require.NoError(t, err)
	assert.InDelta(t, 23500, float64(milliC), 50)
	assert.InDelta(t, 4500, float64(rh), 5)

	require.NoError(t, dev.Sleep())
	assert.True(t, sensor.Asleep())
}

func TestI2cMem(t *testing.T) {
	c, d := newChip(t)
	const h = hal.I2CHandle(0x4000_6000)
	sensor := sim.NewSHTC3(0, 0)
	d.AttachI2C(h, sim.SHTC3Address, sensor)

	mem, err := c.AllocateI2cMem(h)
	require.NoError(t, err)

	// Read-ID is a 16-bit "register" on this part.
	id := make([]byte, 3)
	require.NoError(t, mem.MemRead(sim.SHTC3Address<<1, 0xEFC8, mcu.I2cMemWidth16, id, 10))
	assert.Equal(t, []byte{0x08, 0x07}, id[:2])

	assert.Equal(t, errcode.Unknown, mem.MemRead(0x33<<1, 0, mcu.I2cMemWidth8, id, 10))
}

func TestSpiDriversInterface(t *testing.T) {
	c, d := newChip(t)
	const h = hal.SPIHandle(0x4001_3000)
	s, err := c.AllocateSpi(h)
	require.NoError(t, err)

	r := make([]byte, 3)
	require.NoError(t, s.Tx([]byte{1, 2, 3}, r))
	assert.Equal(t, []byte{1, 2, 3}, r, "loopback")

	d.QueueSPIResponse(h, []byte{0x42})
	b, err := s.Transfer(0x00)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)

	assert.Equal(t, errcode.Param, s.Tx([]byte{1}, make([]byte, 2)))
	assert.Equal(t, []byte{1, 2, 3, 0}, d.SPISent(h))
}

func TestWatchDogRefresh(t *testing.T) {
	c, d := newChip(t)
	wd, err := c.WatchDog(0x4000_3000)
	require.NoError(t, err)
	require.NoError(t, wd.Refresh())
	require.NoError(t, wd.Refresh())
	assert.Equal(t, 2, d.Refreshes(0x4000_3000))

	d.SetStatus("IWDGRefresh", hal.StatusError)
	assert.Equal(t, errcode.Unknown, wd.Refresh())
}

func TestShimMissIsSilent(t *testing.T) {
	c, _ := newChip(t)
	c.UARTTxCpltCallback(0xDEAD)
	c.UARTExRxEventCallback(0, 3)
	c.ADCConvCpltCallback(0xBEEF)
	c.SPIErrorCallback(0x1)
	c.I2CErrorCallback(0x1)
	c.CANRxFifo0MsgPendingCallback(0x1)
	c.CANErrorCallback(0x1)
	c.GPIOEXTICallback(0)
	c.GPIOEXTIFallingCallback(1 << 15)
}

func TestStatusMapping(t *testing.T) {
	assert.NoError(t, hal.StatusOK.Err())
	assert.Equal(t, errcode.Unknown, hal.StatusError.Err())
	assert.Equal(t, errcode.Busy, hal.StatusBusy.Err())
	assert.Equal(t, errcode.Timeout, hal.StatusTimeout.Err())
	assert.Equal(t, errcode.Unknown, hal.Status(9).Err())
	assert.Equal(t, "status(9)", hal.Status(9).String())

	assert.Equal(t, hal.StatusBusy, hal.StatusOf(errcode.Busy))
	assert.Equal(t, hal.StatusOK, hal.StatusOf(nil))
}
