// Package sim is an in-memory vendor HAL for host builds and tests.
//
// Peripherals spring into existence the first time a handle is used. Work
// that real hardware finishes later (DMA, IT transfers, external stimuli)
// completes on a single interrupt goroutine which calls the matching shim
// on the attached chip, so agents observe the same threading they would on
// a device: one interrupt at a time, concurrent with task code.
package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"mcukit/mcu/hal"
)

type Driver struct {
	mu     sync.Mutex
	clock  func() uint32
	forced map[string]hal.Status

	target *hal.Chip

	qmu    sync.Mutex
	queue  []irq
	kick   chan struct{}
	done   chan struct{}
	closed sync.Once

	adcs  map[hal.ADCHandle]*adcState
	uarts map[hal.UARTHandle]*uartState
	spis  map[hal.SPIHandle]*spiState
	i2cs  map[hal.I2CHandle]*i2cState
	cans  map[hal.CANHandle]*canState
	pins  map[pinKey]*pinState
	iwdg  map[hal.IWDGHandle]int
}

var _ hal.Driver = (*Driver)(nil)

type Option func(*Driver)

// WithClock replaces the millisecond tick source.
func WithClock(fn func() uint32) Option { return func(d *Driver) { d.clock = fn } }

// New starts a simulator. Close stops its interrupt goroutine.
func New(opts ...Option) *Driver {
	start := time.Now()
	d := &Driver{
		clock:  func() uint32 { return uint32(time.Since(start) / time.Millisecond) },
		forced: map[string]hal.Status{},
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		adcs:   map[hal.ADCHandle]*adcState{},
		uarts:  map[hal.UARTHandle]*uartState{},
		spis:   map[hal.SPIHandle]*spiState{},
		i2cs:   map[hal.I2CHandle]*i2cState{},
		cans:   map[hal.CANHandle]*canState{},
		pins:   map[pinKey]*pinState{},
		iwdg:   map[hal.IWDGHandle]int{},
	}
	for _, o := range opts {
		o(d)
	}
	go d.irqLoop()
	return d
}

// Attach routes interrupts to c instead of the chip published by hal.Init.
func (d *Driver) Attach(c *hal.Chip) {
	d.qmu.Lock()
	d.target = c
	d.qmu.Unlock()
}

// Close stops interrupt delivery. Queued interrupts are dropped.
func (d *Driver) Close() {
	d.closed.Do(func() { close(d.done) })
}

// SetStatus forces every later call of the named driver method (for example
// "ADCStart") to return st. hal.StatusOK clears the override.
func (d *Driver) SetStatus(op string, st hal.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st == hal.StatusOK {
		delete(d.forced, op)
		return
	}
	d.forced[op] = st
}

// fail returns the forced status for op. Callers hold d.mu.
func (d *Driver) fail(op string) (hal.Status, bool) {
	st, ok := d.forced[op]
	return st, ok
}

func (d *Driver) GetTick() uint32 { return d.clock() }

// -----------------------------------------------------------------------------
// Interrupt delivery
// -----------------------------------------------------------------------------

type irq struct {
	fn   func(*hal.Chip)
	sync chan struct{}
}

// raise queues fn for the interrupt goroutine. It never blocks, so it is
// safe from inside another interrupt.
func (d *Driver) raise(fn func(*hal.Chip)) { d.push(irq{fn: fn}) }

func (d *Driver) push(q irq) {
	d.qmu.Lock()
	d.queue = append(d.queue, q)
	d.qmu.Unlock()
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Driver) irqLoop() {
	for {
		select {
		case <-d.done:
			return
		case <-d.kick:
		}
		for {
			d.qmu.Lock()
			if len(d.queue) == 0 {
				d.qmu.Unlock()
				break
			}
			q := d.queue[0]
			d.queue[0] = irq{}
			d.queue = d.queue[1:]
			c := d.target
			d.qmu.Unlock()

			if q.sync != nil {
				close(q.sync)
				continue
			}
			if c == nil {
				c = hal.Active()
			}
			if c == nil {
				glog.V(3).Info("sim: interrupt dropped, no chip")
				continue
			}
			q.fn(c)
		}
	}
}

// Sync waits until every interrupt raised so far has been delivered.
func (d *Driver) Sync() {
	ch := make(chan struct{})
	d.push(irq{sync: ch})
	select {
	case <-ch:
	case <-d.done:
	case <-time.After(syncWait):
		glog.Warning("sim: Sync timed out")
	}
}

const syncWait = 2 * time.Second
