// Package console is a line-oriented command shell over a UART.
//
// Received bytes land in a fixed cache through an async receive-to-idle.
// The UART agent raises EvtCmdRx and the console task splits the line into
// words, matches the first word against the registered executors and runs
// the match with the remaining words as arguments. The console also prints
// log records, so it can be installed as the process log sink.
package console

import (
	"context"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/shlex"

	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/rtos"
	"mcukit/services/alive"
	"mcukit/services/logsink"
	"mcukit/x/mathx"
)

const tag = "console"

// Event flags raised by the UART agent.
const (
	EvtCmdRx   uint32 = 0x01
	EvtRxError uint32 = 0x02
)

const (
	MaxExecutors = 16

	DefaultBuffer = 256
	MinBuffer     = 16
	MaxBuffer     = 1024

	// pollMS bounds how long the task waits for a line before it looks at
	// its context and reports in to the alive watch.
	pollMS = 100
)

// Executor runs one named command.
type Executor interface {
	Name() string
	Execute(out io.Writer, args []string) error
}

// Helper is implemented by executors that describe themselves in help.
type Helper interface {
	Help() string
}

// Command adapts a function to Executor.
type Command struct {
	Cmd   string
	Usage string
	Run   func(out io.Writer, args []string) error
}

func (c Command) Name() string { return c.Cmd }
func (c Command) Help() string { return c.Usage }
func (c Command) Execute(out io.Writer, args []string) error {
	return c.Run(out, args)
}

type Config struct {
	// Buffer is the receive cache size, clamped to MinBuffer..MaxBuffer.
	Buffer int
	Prompt string
	Banner string
	// Watcher, when set, watches the console task under its name.
	Watcher alive.Watcher
}

type Console struct {
	mcu.UartEvents

	uart   mcu.Uart
	os     rtos.OS
	cfg    Config
	events rtos.Events

	cache  []byte
	rxSize atomic.Uint32

	execs *rtos.Guarded[[]Executor]
	out   *printer
}

var (
	_ mcu.UartEventAgent = (*Console)(nil)
	_ logsink.Sink       = (*Console)(nil)
)

// New binds a console to uart and installs it as the UART's event agent.
func New(os rtos.OS, uart mcu.Uart, cfg Config) (*Console, error) {
	if os == nil || uart == nil {
		return nil, errcode.Param
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = DefaultBuffer
	}
	cfg.Buffer = mathx.Clamp(cfg.Buffer, MinBuffer, MaxBuffer)

	ev, err := os.NewEvents()
	if err != nil {
		return nil, errcode.Wrap(errcode.InstanceCreateFailure, "console.New", err)
	}
	emu, err := os.NewMutex()
	if err != nil {
		return nil, errcode.Wrap(errcode.InstanceCreateFailure, "console.New", err)
	}
	pmu, err := os.NewMutex()
	if err != nil {
		return nil, errcode.Wrap(errcode.InstanceCreateFailure, "console.New", err)
	}
	c := &Console{
		uart:   uart,
		os:     os,
		cfg:    cfg,
		events: ev,
		cache:  make([]byte, cfg.Buffer),
		execs:  rtos.NewGuarded(emu, make([]Executor, 0, MaxExecutors)),
		out:    newPrinter(pmu, uart),
	}
	uart.SetEventAgent(c)
	return c, nil
}

// Accept registers e. Names are matched exactly; a later executor with a
// taken name is rejected with errcode.InstanceDuplicate.
func (c *Console) Accept(e Executor) error {
	if e == nil || e.Name() == "" {
		return errcode.Param
	}
	var err error
	c.execs.Do(func(list *[]Executor) {
		for _, x := range *list {
			if x.Name() == e.Name() {
				err = errcode.InstanceDuplicate
				return
			}
		}
		if len(*list) >= MaxExecutors {
			err = errcode.SlotsExhausted
			return
		}
		*list = append(*list, e)
	})
	return err
}

// Executors returns a copy of the registered list in registration order.
func (c *Console) Executors() []Executor {
	var out []Executor
	c.execs.Do(func(list *[]Executor) {
		out = append(out, (*list)...)
	})
	return out
}

func (c *Console) lookup(name string) Executor {
	var found Executor
	c.execs.Do(func(list *[]Executor) {
		for _, x := range *list {
			if x.Name() == name {
				found = x
				return
			}
		}
	})
	return found
}

// Dispatch runs one command line. Output goes to the console UART.
func (c *Console) Dispatch(line string) error {
	return c.dispatch(c.out, line)
}

func (c *Console) dispatch(out io.Writer, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return errcode.Wrap(errcode.FormatFailure, "console.Dispatch", err)
	}
	if len(words) == 0 {
		return errcode.FormatFailure
	}
	e := c.lookup(words[0])
	if e == nil {
		logsink.Warnf(tag, "Can't recognize the command %q", words[0])
		return errcode.InstanceNotFound
	}
	if err := e.Execute(out, words[1:]); err != nil {
		logsink.Warnf(tag, "%s: %v", words[0], err)
		return err
	}
	return nil
}

// Print writes a line to the console UART.
func (c *Console) Print(format string, args ...any) error {
	return c.out.printf(format, args...)
}

// Log prints a log record. It implements logsink.Sink.
func (c *Console) Log(level logsink.Level, tag, msg string) {
	_ = c.out.record(level, tag, msg)
}

// OnUartRxComplete runs in interrupt context.
func (c *Console) OnUartRxComplete(size uint32) {
	c.rxSize.Store(size)
	_ = c.events.Set(EvtCmdRx)
}

// OnUartError runs in interrupt context.
func (c *Console) OnUartError() {
	_ = c.events.Set(EvtRxError)
}

func (c *Console) receive() error {
	if err := c.uart.AsyncReceive(c.cache); err != nil {
		logsink.Errorf(tag, "receive: %v", err)
		return err
	}
	return nil
}

// Main is the console task body.
func (c *Console) Main(ctx context.Context) {
	var (
		h       alive.Handle
		watched bool
	)
	if c.cfg.Watcher != nil {
		var err error
		h, err = c.cfg.Watcher.Watch(tag)
		if err != nil {
			logsink.Errorf(tag, "watch: %v", err)
		}
		watched = err == nil
		defer func() {
			if watched {
				_ = c.cfg.Watcher.StopWatch(h)
			}
		}()
	}
	if c.cfg.Banner != "" {
		_ = c.out.printf("%s", c.cfg.Banner)
	}
	c.prompt()
	armed := c.receive() == nil

	for ctx.Err() == nil {
		if watched {
			c.cfg.Watcher.UpdateAliveState(h)
		}
		if !armed {
			if err := c.os.Delay(ctx, pollMS); err != nil {
				break
			}
			armed = c.receive() == nil
			continue
		}
		flags, err := c.events.Wait(EvtCmdRx|EvtRxError, pollMS)
		if err != nil {
			if errcode.Of(err) != errcode.Timeout {
				logsink.Errorf(tag, "wait: %v", err)
			}
			continue
		}
		if flags&EvtRxError != 0 {
			logsink.Warnf(tag, "receive error, restarting")
			_ = c.uart.Abort()
			armed = c.receive() == nil
			continue
		}
		if flags&EvtCmdRx != 0 {
			n := mathx.Min(int(c.rxSize.Load()), len(c.cache))
			line := strings.TrimSpace(string(c.cache[:n]))
			armed = c.receive() == nil
			if line != "" {
				_ = c.Dispatch(line)
			}
			c.prompt()
		}
	}
	_ = c.uart.Abort()
}

func (c *Console) prompt() {
	if c.cfg.Prompt != "" {
		_ = c.out.write([]byte(c.cfg.Prompt))
	}
}
