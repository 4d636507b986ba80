package console_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/errcode"
	"mcukit/mcu/hal"
	"mcukit/mcu/hal/sim"
	"mcukit/rtos/gort"
	"mcukit/services/alive"
	"mcukit/services/console"
	"mcukit/services/logsink"
)

const (
	uartH = hal.UARTHandle(0x40004400)
	i2cH  = hal.I2CHandle(0x40005400)
	iwdgH = hal.IWDGHandle(0x40003000)
)

var board = hal.Board{Name: "test", UART: 2, I2C: 1}

func TestMain(m *testing.M) {
	logsink.SetDefault(logsink.Discard)
	os.Exit(m.Run())
}

type rig struct {
	chip *hal.Chip
	sim  *sim.Driver
	uart *hal.Uart
	con  *console.Console
	seen bytes.Buffer
}

func newRig(t *testing.T, cfg console.Config) *rig {
	t.Helper()
	d := sim.New()
	t.Cleanup(d.Close)
	c, err := hal.NewChip(board, d)
	require.NoError(t, err)
	d.Attach(c)
	u, err := c.AllocateUart(uartH)
	require.NoError(t, err)
	con, err := console.New(gort.New(), u, cfg)
	require.NoError(t, err)
	return &rig{chip: c, sim: d, uart: u, con: con}
}

// waitOutput collects UART output until it contains want.
func (r *rig) waitOutput(t *testing.T, want string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.seen.Write(r.sim.UARTOutput(uartH))
		if s := r.seen.String(); strings.Contains(s, want) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("output %q never contained %q", r.seen.String(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (r *rig) watchdog(t *testing.T) *hal.WatchDog {
	t.Helper()
	wd, err := r.chip.WatchDog(iwdgH)
	require.NoError(t, err)
	return wd
}

func (r *rig) run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.con.Main(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("console task did not stop")
		}
	})
}

func echo() console.Executor {
	return console.Command{Cmd: "echo", Usage: "print arguments", Run: func(out io.Writer, args []string) error {
		fmt.Fprintln(out, strings.Join(args, "|"))
		return nil
	}}
}

func TestNewValidates(t *testing.T) {
	_, err := console.New(nil, nil, console.Config{})
	assert.Equal(t, errcode.Param, err)
}

func TestAcceptLimits(t *testing.T) {
	r := newRig(t, console.Config{})
	assert.Equal(t, errcode.Param, r.con.Accept(nil))
	for i := 0; i < console.MaxExecutors; i++ {
		require.NoError(t, r.con.Accept(console.Command{Cmd: fmt.Sprintf("c%d", i)}))
	}
	assert.Equal(t, errcode.InstanceDuplicate, r.con.Accept(console.Command{Cmd: "c3"}))
	assert.Equal(t, errcode.SlotsExhausted, r.con.Accept(console.Command{Cmd: "one-more"}))
	assert.Len(t, r.con.Executors(), console.MaxExecutors)
}

func TestDispatch(t *testing.T) {
	r := newRig(t, console.Config{})
	require.NoError(t, r.con.Accept(echo()))

	require.NoError(t, r.con.Dispatch("echo a  'b c'\r\n"))
	assert.Equal(t, "a|b c\r\n", string(r.sim.UARTOutput(uartH)))

	assert.Equal(t, errcode.InstanceNotFound, r.con.Dispatch("nope"))
	assert.Equal(t, errcode.FormatFailure, r.con.Dispatch(" \r\n"))
	assert.Equal(t, errcode.FormatFailure, errcode.Of(r.con.Dispatch("echo 'open")))
}

func TestExecutorErrorIsReturned(t *testing.T) {
	r := newRig(t, console.Config{})
	require.NoError(t, r.con.Accept(console.Command{Cmd: "fail", Run: func(io.Writer, []string) error {
		return errcode.Busy
	}}))
	assert.Equal(t, errcode.Busy, r.con.Dispatch("fail"))
}

func TestLogRecordFormat(t *testing.T) {
	r := newRig(t, console.Config{})
	r.con.Log(logsink.Warn, "can", "bus off")
	assert.Equal(t, "[ warn] can: bus off\r\n", string(r.sim.UARTOutput(uartH)))

	assert.Equal(t, errcode.FormatFailure, r.con.Print("%s", strings.Repeat("x", console.PrintBufferSize)))
	assert.Empty(t, r.sim.UARTOutput(uartH), "overflowing output is dropped whole")

	require.NoError(t, r.con.Print("n=%d", 3))
	assert.Equal(t, "n=3\r\n", string(r.sim.UARTOutput(uartH)))
}

func TestMainDispatchesReceivedLines(t *testing.T) {
	r := newRig(t, console.Config{Prompt: "> ", Banner: "mcukit"})
	require.NoError(t, r.con.Accept(echo()))
	r.run(t)
	r.waitOutput(t, "mcukit\r\n> ")

	r.sim.InjectUART(uartH, []byte("echo hello world\r\n"))
	r.waitOutput(t, "hello|world\r\n> ")

	r.sim.InjectUART(uartH, []byte("echo again\r\n"))
	r.waitOutput(t, "again\r\n")
}

func TestMainRestartsAfterReceiveError(t *testing.T) {
	r := newRig(t, console.Config{Prompt: "> "})
	require.NoError(t, r.con.Accept(echo()))
	r.run(t)
	r.waitOutput(t, "> ")

	r.sim.RaiseUARTError(uartH)
	r.sim.Sync()
	// The restarted receive picks up the next line.
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(r.seen.String(), "ok") && time.Now().Before(deadline) {
		r.sim.InjectUART(uartH, []byte("echo ok\r\n"))
		time.Sleep(50 * time.Millisecond)
		r.seen.Write(r.sim.UARTOutput(uartH))
	}
	assert.Contains(t, r.seen.String(), "ok\r\n")
}

func TestMainReportsToAliveWatch(t *testing.T) {
	r := newRig(t, console.Config{})
	kernel := gort.New()
	svc, err := alive.New(kernel, r.watchdog(t), alive.Config{CycleMS: 1000})
	require.NoError(t, err)
	r2, err := console.New(kernel, r.uart, console.Config{Watcher: svc})
	require.NoError(t, err)
	r.con = r2
	r.run(t)

	deadline := time.Now().Add(2 * time.Second)
	for {
		states := svc.States()
		if len(states) == 1 && states[0].Name == "console" && states[0].Enabled {
			assert.True(t, states[0].Alive)
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("console never registered: %+v", states)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHelpListsCommandsSorted(t *testing.T) {
	r := newRig(t, console.Config{})
	require.NoError(t, r.con.Accept(echo()))
	require.NoError(t, r.con.Accept(console.Help(r.con)))
	require.NoError(t, r.con.Dispatch("help"))
	out := string(r.sim.UARTOutput(uartH))
	assert.Equal(t, "echo     print arguments\r\nhelp     list commands\r\n", out)
}

func TestEnvReadsSensors(t *testing.T) {
	r := newRig(t, console.Config{})
	m, err := r.chip.AllocateI2cMaster(i2cH)
	require.NoError(t, err)
	sht := sim.NewSHTC3(23500, 4500)
	aht := sim.NewAHT20(-1250, 6000)
	r.sim.AttachI2C(i2cH, sim.SHTC3Address, sht)
	r.sim.AttachI2C(i2cH, sim.AHT20Address, aht)

	noSleep := func(time.Duration) {}
	require.NoError(t, r.con.Accept(console.Env(console.SHTC3(m), console.AHT20(m, noSleep))))

	require.NoError(t, r.con.Dispatch("env"))
	out := string(r.sim.UARTOutput(uartH))
	assert.Contains(t, out, "shtc3: 23.")
	assert.Contains(t, out, "aht20: -1.25 C 59.99 %RH")
	assert.True(t, sht.Asleep())
	assert.True(t, aht.Calibrated())

	require.NoError(t, r.con.Dispatch("env aht20"))
	out = string(r.sim.UARTOutput(uartH))
	assert.NotContains(t, out, "shtc3")
	assert.Contains(t, out, "aht20: -1.25 C")

	assert.Equal(t, errcode.InstanceNotFound, r.con.Dispatch("env bme280"))
}

func TestAliveCommand(t *testing.T) {
	r := newRig(t, console.Config{})
	require.NoError(t, r.con.Accept(console.Alive()))

	if alive.Instance() == nil {
		assert.Equal(t, errcode.NotAvailable, r.con.Dispatch("alive"))
		svc, err := alive.New(gort.New(), r.watchdog(t), alive.Config{CycleMS: 1000})
		require.NoError(t, err)
		require.NoError(t, alive.Initialize(svc))
	}
	h, err := alive.Instance().Watch("net")
	require.NoError(t, err)
	alive.Instance().UpdateAliveState(h)

	require.NoError(t, r.con.Dispatch("alive"))
	assert.Contains(t, string(r.sim.UARTOutput(uartH)), "net")
}
