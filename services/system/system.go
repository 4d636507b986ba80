// Package system brings up the services of one board: the message bus,
// the config publisher, the alive watch and the console, with logs routed
// to the console and the bus.
package system

import (
	"context"
	"fmt"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/rtos"
	"mcukit/services/alive"
	"mcukit/services/config"
	"mcukit/services/console"
	"mcukit/services/heartbeat"
	"mcukit/services/logsink"
)

const (
	tag      = "system"
	queueLen = 8

	consoleStack = 2048
	aliveStack   = 1024
)

type Options struct {
	Board *config.Board
	OS    rtos.OS
	// Console is the UART the console runs on.
	Console mcu.Uart
	// WatchDog is required when the board enables the alive watch.
	WatchDog mcu.WatchDog
	Sensors  []console.Thermometer
	// Executors are added after the built-in commands.
	Executors []console.Executor
	// Sinks receive log records besides the console and the bus.
	Sinks []logsink.Sink
}

type System struct {
	Bus     *bus.Bus
	Console *console.Console
	// Alive is nil when the board disables the alive watch.
	Alive *alive.Service

	cancel context.CancelFunc
	tasks  []rtos.Task
	prev   logsink.Sink
}

// Start wires the services and activates their tasks. Stop undoes it.
func Start(ctx context.Context, o Options) (*System, error) {
	if o.Board == nil || o.OS == nil || o.Console == nil {
		return nil, errcode.Param
	}
	if o.Board.Alive.Enabled && o.WatchDog == nil {
		return nil, &errcode.E{C: errcode.Param, Op: "system.Start", Msg: "alive watch needs a watchdog"}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &System{Bus: bus.NewBus(queueLen), cancel: cancel, prev: logsink.Default()}
	if err := s.start(ctx, o); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

func (s *System) start(ctx context.Context, o Options) error {
	b := o.Board
	logsink.SetLevel(b.LogLevel())

	if b.Alive.Enabled {
		svc, err := alive.New(o.OS, o.WatchDog, alive.Config{CycleMS: b.Alive.CycleMS, MaxMS: b.Alive.MaxMS})
		if err != nil {
			return err
		}
		if err := alive.Initialize(svc); err != nil {
			return err
		}
		s.Alive = svc
	}

	cc := console.Config{Buffer: b.Console.Buffer, Prompt: b.Console.Prompt}
	if b.Console.Banner {
		cc.Banner = fmt.Sprintf("mcukit on %s", b.Name)
	}
	if s.Alive != nil {
		cc.Watcher = s.Alive
	}
	con, err := console.New(o.OS, o.Console, cc)
	if err != nil {
		return err
	}
	s.Console = con

	execs := []console.Executor{console.Help(con)}
	if s.Alive != nil {
		execs = append(execs, console.Alive())
	}
	if len(o.Sensors) > 0 {
		execs = append(execs, console.Env(o.Sensors...))
	}
	execs = append(execs, o.Executors...)
	for _, e := range execs {
		if err := con.Accept(e); err != nil {
			return &errcode.E{C: errcode.Of(err), Op: "system.Start", Msg: e.Name(), Err: err}
		}
	}

	sinks := logsink.Fanout{con, &logsink.Bus{Conn: s.Bus.NewConnection("log"), Tick: o.OS.Systick}}
	logsink.SetDefault(append(sinks, o.Sinks...))

	hb, err := heartbeat.New(o.OS, b.Heartbeat.IntervalMS)
	if err != nil {
		return err
	}
	if err := hb.Start(ctx, s.Bus.NewConnection("heartbeat")); err != nil {
		return err
	}

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, b.Name)
	config.NewConfigService().Start(cfgCtx, s.Bus.NewConnection("config"))

	if s.Alive != nil {
		go s.Alive.Serve(ctx, s.Bus.NewConnection("alive"))
		if err := s.spawn(ctx, o.OS, rtos.TaskAttr{Name: "alive", StackSize: aliveStack, Priority: rtos.PriorityHigh}, s.Alive); err != nil {
			return err
		}
	}
	if err := s.spawn(ctx, o.OS, rtos.TaskAttr{Name: "console", StackSize: consoleStack, Priority: b.ConsolePriority()}, con); err != nil {
		return err
	}
	logsink.Infof(tag, "%s up", b.Name)
	return nil
}

func (s *System) spawn(ctx context.Context, os rtos.OS, attr rtos.TaskAttr, main rtos.TaskMain) error {
	t, err := os.NewTask(attr, main)
	if err != nil {
		return err
	}
	if err := t.Activate(ctx); err != nil {
		return err
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// Stop deactivates the tasks in reverse order and restores the previous
// log sink. The alive instance stays published.
func (s *System) Stop() {
	s.cancel()
	for i := len(s.tasks) - 1; i >= 0; i-- {
		if err := s.tasks[i].Deactivate(); err != nil {
			logsink.Warnf(tag, "stop %s: %v", s.tasks[i].Name(), err)
		}
	}
	s.tasks = nil
	logsink.SetDefault(s.prev)
}
