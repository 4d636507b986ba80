package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"mcukit/bus"
	"mcukit/mcu/hal"
	"mcukit/mcu/hal/sim"
	"mcukit/services/alive"
	"mcukit/services/config"
	"mcukit/services/system"
)

const requestTimeout = time.Second

type sensors struct {
	shtc3 *sim.SHTC3
	aht20 *sim.AHT20
}

func newSensors(drv *sim.Driver) *sensors {
	s := &sensors{shtc3: sim.NewSHTC3(22500, 4000), aht20: sim.NewAHT20(22500, 4000)}
	drv.AttachI2C(i2cBus, sim.SHTC3Address, s.shtc3)
	drv.AttachI2C(i2cBus, sim.AHT20Address, s.aht20)
	return s
}

type shell struct {
	*ishell.Shell
	drv  *sim.Driver
	uart hal.UARTHandle
	sys  *system.System
	conn *bus.Connection
	env  *sensors
}

func newShell(cfg *config.Board, drv *sim.Driver, uart hal.UARTHandle, sys *system.System, env *sensors) *shell {
	s := &shell{
		Shell: ishell.New(),
		drv:   drv,
		uart:  uart,
		sys:   sys,
		conn:  sys.Bus.NewConnection("shell"),
		env:   env,
	}
	s.SetPrompt("")
	s.Println("board", cfg.Name, "- type console commands, .help for the simulator")
	s.NotFound(s.inject)
	// The console owns the bare names; the simulator's own commands are
	// dotted.
	for _, name := range []string{"help", "exit", "clear"} {
		s.DeleteCmd(name)
	}
	s.AddCmd(&ishell.Cmd{Name: ".help", Help: "simulator commands", Func: func(c *ishell.Context) { c.Println(c.HelpText()) }})
	s.AddCmd(&ishell.Cmd{Name: ".exit", Help: "stop the board", Func: func(c *ishell.Context) { c.Stop() }})
	s.AddCmd(&ishell.Cmd{Name: ".status", Help: "alive watch table over the bus", Func: s.status})
	s.AddCmd(&ishell.Cmd{Name: ".config", Help: "retained board config", Func: s.config})
	s.AddCmd(&ishell.Cmd{Name: ".boards", Help: "embedded board names", Func: s.boards})
	s.AddCmd(&ishell.Cmd{Name: ".wd", Help: "watchdog refresh count", Func: s.watchdog})
	s.AddCmd(&ishell.Cmd{Name: ".temp", Help: "MILLI_C RH_X100 set both sensors", Func: s.temp})
	s.AddCmd(&ishell.Cmd{Name: ".rxerr", Help: "raise a console UART error", Func: s.rxerr})
	return s
}

// inject feeds an unrecognised line to the console UART.
func (s *shell) inject(c *ishell.Context) {
	line := strings.Join(c.RawArgs, " ") + "\r\n"
	if n := s.drv.InjectUART(s.uart, []byte(line)); n < len(line) {
		c.Err(fmt.Errorf("uart overrun: %d of %d bytes", n, len(line)))
	}
}

func (s *shell) status(c *ishell.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(alive.TopicStatus, nil, false))
	if err != nil {
		c.Err(err)
		return
	}
	states, _ := reply.Payload.([]alive.State)
	for _, st := range states {
		c.Printf("%-12s enabled=%t alive=%t tick=%d\n", st.Name, st.Enabled, st.Alive, st.LastTick)
	}
}

func (s *shell) config(c *ishell.Context) {
	sub := s.conn.Subscribe(bus.T("config", "#"))
	defer s.conn.Unsubscribe(sub)
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case m := <-sub.Channel():
			c.Printf("%v = %v\n", m.Topic, m.Payload)
		case <-timeout:
			return
		}
	}
}

func (s *shell) boards(c *ishell.Context) {
	c.Println(strings.Join(config.Boards(), " "))
}

func (s *shell) watchdog(c *ishell.Context) {
	c.Println(s.drv.Refreshes(watchdog))
}

func (s *shell) temp(c *ishell.Context) {
	if len(c.Args) != 2 {
		c.Err(fmt.Errorf("usage: .temp MILLI_C RH_X100"))
		return
	}
	t, err := strconv.ParseInt(c.Args[0], 10, 32)
	if err != nil {
		c.Err(err)
		return
	}
	rh, err := strconv.ParseInt(c.Args[1], 10, 32)
	if err != nil {
		c.Err(err)
		return
	}
	s.env.shtc3.Set(int32(t), int32(rh))
	s.env.aht20.Set(int32(t), int32(rh))
}

func (s *shell) rxerr(c *ishell.Context) {
	s.drv.RaiseUARTError(s.uart)
}
