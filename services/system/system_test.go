package system_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/mcu/hal"
	"mcukit/mcu/hal/sim"
	"mcukit/rtos/gort"
	"mcukit/services/alive"
	"mcukit/services/config"
	"mcukit/services/console"
	"mcukit/services/heartbeat"
	"mcukit/services/logsink"
	"mcukit/services/system"
)

const (
	uart1 = hal.UARTHandle(0x40004800)
	i2c0  = hal.I2CHandle(0x40005400)
	iwdg  = hal.IWDGHandle(0x40003000)
)

type board struct {
	chip *hal.Chip
	sim  *sim.Driver
	uart *hal.Uart
	wd   *hal.WatchDog
	out  bytes.Buffer
}

func newBoard(t *testing.T, cfg *config.Board) *board {
	t.Helper()
	d := sim.New()
	t.Cleanup(d.Close)
	c, err := hal.NewChip(cfg.HAL(), d)
	require.NoError(t, err)
	d.Attach(c)
	u, err := c.AllocateUart(uart1)
	require.NoError(t, err)
	wd, err := c.WatchDog(iwdg)
	require.NoError(t, err)
	return &board{chip: c, sim: d, uart: u, wd: wd}
}

func (b *board) waitOutput(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(b.out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("console output %q never contained %q", b.out.String(), want)
		}
		time.Sleep(5 * time.Millisecond)
		b.out.Write(b.sim.UARTOutput(uart1))
	}
}

func loadSim(t *testing.T) *config.Board {
	t.Helper()
	cfg, err := config.Load("sim")
	require.NoError(t, err)
	return cfg
}

func TestStartValidates(t *testing.T) {
	_, err := system.Start(context.Background(), system.Options{})
	assert.Equal(t, errcode.Param, err)

	cfg := loadSim(t)
	b := newBoard(t, cfg)
	_, err = system.Start(context.Background(), system.Options{Board: cfg, OS: gort.New(), Console: b.uart})
	assert.Equal(t, errcode.Param, errcode.Of(err), "alive watch without a watchdog")
}

func TestStartWithoutAlive(t *testing.T) {
	cfg := loadSim(t)
	cfg.Alive.Enabled = false
	b := newBoard(t, cfg)

	before := logsink.Default()
	sys, err := system.Start(context.Background(), system.Options{Board: cfg, OS: gort.New(), Console: b.uart})
	require.NoError(t, err)
	assert.Nil(t, sys.Alive)

	b.waitOutput(t, "mcukit on sim")
	b.sim.InjectUART(uart1, []byte("help\r\n"))
	b.waitOutput(t, "help     list commands")
	assert.NotContains(t, b.out.String(), "alive ")

	beats := sys.Bus.NewConnection("ui").Subscribe(heartbeat.TopicBeat)
	select {
	case msg := <-beats.Channel():
		_, ok := msg.Payload.(heartbeat.Beat)
		assert.True(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("no heartbeat")
	}

	sys.Stop()
	assert.Equal(t, before, logsink.Default())
}

func TestFullBoard(t *testing.T) {
	cfg := loadSim(t)
	b := newBoard(t, cfg)
	m, err := b.chip.AllocateI2cMaster(i2c0)
	require.NoError(t, err)
	b.sim.AttachI2C(i2c0, sim.SHTC3Address, sim.NewSHTC3(21000, 5000))

	sys, err := system.Start(context.Background(), system.Options{
		Board:    cfg,
		OS:       gort.New(),
		Console:  b.uart,
		WatchDog: b.wd,
		Sensors:  []console.Thermometer{console.SHTC3(m)},
	})
	require.NoError(t, err)
	defer sys.Stop()
	require.NotNil(t, sys.Alive)
	assert.True(t, alive.Instance() == sys.Alive)

	ui := sys.Bus.NewConnection("ui")
	logs := ui.Subscribe(bus.T("log", "warn", "#"))
	cfgs := ui.Subscribe(bus.T("config", "name"))

	b.waitOutput(t, "sim> ")
	b.sim.InjectUART(uart1, []byte("env\r\n"))
	b.waitOutput(t, "shtc3: 2")

	b.sim.InjectUART(uart1, []byte("bogus\r\n"))
	b.waitOutput(t, "[ warn] console:")
	select {
	case msg := <-logs.Channel():
		rec, ok := msg.Payload.(logsink.Record)
		require.True(t, ok)
		assert.Equal(t, "console", rec.Tag)
		assert.Contains(t, rec.Msg, "bogus")
	case <-time.After(2 * time.Second):
		t.Fatal("no log record on the bus")
	}

	select {
	case msg := <-cfgs.Channel():
		assert.Equal(t, "sim", msg.Payload)
		assert.True(t, msg.Retained)
	case <-time.After(2 * time.Second):
		t.Fatal("config/name was not published")
	}

	var states []alive.State
	deadline := time.Now().Add(3 * time.Second)
	for len(states) == 0 && time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		reply, err := ui.RequestWait(ctx, ui.NewMessage(alive.TopicStatus, nil, false))
		cancel()
		if err == nil {
			states, _ = reply.Payload.([]alive.State)
		}
	}
	require.Len(t, states, 1)
	assert.Equal(t, "console", states[0].Name)

	deadline = time.Now().Add(3 * time.Second)
	for b.sim.Refreshes(iwdg) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, b.sim.Refreshes(iwdg) >= 2, "a healthy console keeps the watchdog fed")
}
