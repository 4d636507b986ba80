// Package hal binds the mcu contracts to a vendor HAL.
//
// A Chip owns one registry per peripheral kind plus the GPIO pin event
// table. Wrappers are bound with the Allocate* methods; the vendor's
// interrupt callbacks (see callbacks.go) find the wrapper through the
// registry and forward exactly one event to its agent.
package hal

import (
	"sync/atomic"

	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/mcu/registry"
)

// MaxPeripherals bounds every per-kind count on a Board.
const MaxPeripherals = 64

// Board is the per-kind peripheral count of one target.
type Board struct {
	Name string
	ADC  int
	UART int
	SPI  int
	I2C  int
	CAN  int
}

func (b Board) validate() error {
	for _, n := range [...]int{b.ADC, b.UART, b.SPI, b.I2C, b.CAN} {
		if n < 0 || n > MaxPeripherals {
			return errcode.Param
		}
	}
	return nil
}

type Chip struct {
	board Board
	drv   Driver

	adcs  *registry.Registry[*Adc]
	uarts *registry.Registry[*Uart]
	spis  *registry.Registry[*Spi]
	i2cs  *registry.Registry[*i2cBinding]
	cans  *registry.Registry[*Can]

	// EXTI lines are shared across ports, so pins are keyed by bit only.
	pins [16]mcu.AgentSlot[mcu.IoEventAgent]
}

// NewChip builds an unpublished chip. Most callers want Init.
func NewChip(b Board, d Driver) (*Chip, error) {
	if d == nil {
		return nil, errcode.Param
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &Chip{
		board: b,
		drv:   d,
		adcs:  registry.New[*Adc]("adc", b.ADC),
		uarts: registry.New[*Uart]("uart", b.UART),
		spis:  registry.New[*Spi]("spi", b.SPI),
		i2cs:  registry.New[*i2cBinding]("i2c", b.I2C),
		cans:  registry.New[*Can]("can", b.CAN),
	}, nil
}

var active atomic.Pointer[Chip]

// Init builds the chip and publishes it to the interrupt callbacks. It
// succeeds once per process; later calls return errcode.InstanceDuplicate.
func Init(b Board, d Driver) (*Chip, error) {
	c, err := NewChip(b, d)
	if err != nil {
		return nil, err
	}
	if !active.CompareAndSwap(nil, c) {
		return nil, errcode.InstanceDuplicate
	}
	return c, nil
}

// Active returns the published chip or nil before Init.
func Active() *Chip { return active.Load() }

func (c *Chip) Board() Board   { return c.board }
func (c *Chip) Driver() Driver { return c.drv }

// Tick is HAL_GetTick.
func (c *Chip) Tick() uint32 { return c.drv.GetTick() }
