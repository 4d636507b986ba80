// Package config describes a board: its peripheral counts and the settings
// of the console and alive services. Descriptions are JSON, embedded per
// board name.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/mcu/hal"
	"mcukit/rtos"
	"mcukit/services/logsink"
	"mcukit/x/mathx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key holding the board name
)

// EmbeddedConfigLookup resolves a board name to its JSON description.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Boards lists the embedded board names.
func Boards() []string {
	names := make([]string, 0, len(embeddedConfigs))
	for n := range embeddedConfigs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type Board struct {
	Name string `json:"name"`

	ADC  int `json:"adc"`
	UART int `json:"uart"`
	SPI  int `json:"spi"`
	I2C  int `json:"i2c"`
	CAN  int `json:"can"`

	Console   Console   `json:"console"`
	Alive     Alive     `json:"alive"`
	Heartbeat Heartbeat `json:"heartbeat"`
}

type Console struct {
	// UART is the zero-based index of the console port.
	UART     int    `json:"uart"`
	Buffer   int    `json:"buffer"`
	Prompt   string `json:"prompt"`
	Level    string `json:"level"`
	Priority string `json:"priority"`
	Banner   bool   `json:"banner"`
}

// Heartbeat is also published on config/heartbeat, where the heartbeat
// service picks up interval changes.
type Heartbeat struct {
	IntervalMS uint32 `json:"interval_ms"`
}

type Alive struct {
	Enabled bool   `json:"enabled"`
	CycleMS uint32 `json:"cycle_ms"`
	MaxMS   uint32 `json:"max_ms"`
}

// Console buffer bounds, in bytes.
const (
	MinConsoleBuffer = 16
	MaxConsoleBuffer = 1024
)

var priorities = map[string]rtos.Priority{
	"idle":      rtos.PriorityIdle,
	"base":      rtos.PriorityBase,
	"low":       rtos.PriorityLow,
	"normal":    rtos.PriorityNormal,
	"high":      rtos.PriorityHigh,
	"privilege": rtos.PriorityPrivilege,
	"realtime":  rtos.PriorityRealTime,
}

// Parse decodes and validates one board description. Unknown fields are
// rejected.
func Parse(raw []byte) (*Board, error) {
	b := &Board{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return nil, errcode.Wrap(errcode.Param, "config.Parse", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load parses the embedded description of the named board.
func Load(name string) (*Board, error) {
	raw, ok := EmbeddedConfigLookup(name)
	if !ok || len(raw) == 0 {
		return nil, &errcode.E{C: errcode.InstanceNotFound, Op: "config.Load", Msg: name}
	}
	b, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if b.Name == "" {
		b.Name = name
	}
	return b, nil
}

func (b *Board) validate() error {
	bad := func(msg string) error { return &errcode.E{C: errcode.Param, Op: "config.validate", Msg: msg} }
	counts := []struct {
		name string
		n    int
	}{{"adc", b.ADC}, {"uart", b.UART}, {"spi", b.SPI}, {"i2c", b.I2C}, {"can", b.CAN}}
	for _, c := range counts {
		if !mathx.Between(c.n, 1, hal.MaxPeripherals) {
			return bad(c.name + " count out of range")
		}
	}
	if b.Console.UART < 0 || b.Console.UART >= b.UART {
		return bad("console uart index out of range")
	}
	if b.Console.Buffer == 0 {
		b.Console.Buffer = 256
	}
	b.Console.Buffer = mathx.Clamp(b.Console.Buffer, MinConsoleBuffer, MaxConsoleBuffer)
	if b.Console.Level == "" {
		b.Console.Level = logsink.Info.String()
	}
	if _, ok := logsink.ParseLevel(b.Console.Level); !ok {
		return bad("console level " + b.Console.Level)
	}
	if b.Console.Priority == "" {
		b.Console.Priority = "normal"
	}
	if _, ok := priorities[b.Console.Priority]; !ok {
		return bad("console priority " + b.Console.Priority)
	}
	if b.Alive.Enabled && b.Alive.CycleMS == 0 {
		return bad("alive cycle_ms must be set")
	}
	return nil
}

// HAL is the peripheral count table for hal.Init.
func (b *Board) HAL() hal.Board {
	return hal.Board{Name: b.Name, ADC: b.ADC, UART: b.UART, SPI: b.SPI, I2C: b.I2C, CAN: b.CAN}
}

func (b *Board) LogLevel() logsink.Level {
	l, _ := logsink.ParseLevel(b.Console.Level)
	return l
}

func (b *Board) ConsolePriority() rtos.Priority { return priorities[b.Console.Priority] }

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// ConfigService publishes each top-level key of the board description as a
// retained message on config/<key>.
type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.Param, Op: "config.publish", Msg: "missing device in context"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.InstanceNotFound, Op: "config.publish", Msg: device}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.FormatFailure, "config.publish", err)
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the configuration of the board named in ctx.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logsink.Errorf(serviceName, "%v", err)
		}
	}()
}
