package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/rtos"
	"mcukit/services/logsink"
)

func TestEmbeddedBoardsParse(t *testing.T) {
	require.Equal(t, []string{"challen-v2-f429", "nucleo-h563zi", "rp2040", "sim"}, Boards())
	for _, name := range Boards() {
		b, err := Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, b.Name)
		assert.Equal(t, name, b.HAL().Name)
	}

	sim, _ := Load("sim")
	assert.Equal(t, 1, sim.Console.UART)
	assert.Equal(t, logsink.Debug, sim.LogLevel())
	assert.Equal(t, rtos.PriorityNormal, sim.ConsolePriority())
	assert.True(t, sim.Alive.Enabled)
	assert.Equal(t, uint32(300), sim.Alive.CycleMS)
	assert.Equal(t, uint32(1000), sim.Heartbeat.IntervalMS)

	rp, _ := Load("rp2040")
	assert.Equal(t, rtos.PriorityHigh, rp.ConsolePriority())
	assert.Equal(t, 128, rp.Console.Buffer)
}

func TestLoadUnknownBoard(t *testing.T) {
	_, err := Load("pico")
	assert.Equal(t, errcode.InstanceNotFound, errcode.Of(err))
}

func TestParseRejects(t *testing.T) {
	base := `{"adc":1,"uart":1,"spi":1,"i2c":1,"can":1%s}`
	cases := map[string]string{
		"zero count":     `{"adc":0,"uart":1,"spi":1,"i2c":1,"can":1}`,
		"too many":       `{"adc":65,"uart":1,"spi":1,"i2c":1,"can":1}`,
		"bad json":       `{"adc":`,
		"unknown field":  strings.Replace(base, "%s", `,"gpio":3`, 1),
		"console uart":   strings.Replace(base, "%s", `,"console":{"uart":1}`, 1),
		"console level":  strings.Replace(base, "%s", `,"console":{"level":"loud"}`, 1),
		"priority":       strings.Replace(base, "%s", `,"console":{"priority":"urgent"}`, 1),
		"alive no cycle": strings.Replace(base, "%s", `,"alive":{"enabled":true}`, 1),
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Equal(t, errcode.Param, errcode.Of(err), name)
	}
}

func TestParseDefaults(t *testing.T) {
	b, err := Parse([]byte(`{"adc":64,"uart":1,"spi":1,"i2c":1,"can":1,"console":{"buffer":4096}}`))
	require.NoError(t, err)
	assert.Equal(t, MaxConsoleBuffer, b.Console.Buffer)
	assert.Equal(t, logsink.Info, b.LogLevel())
	assert.Equal(t, rtos.PriorityNormal, b.ConsolePriority())

	b, err = Parse([]byte(`{"adc":1,"uart":1,"spi":1,"i2c":1,"can":1}`))
	require.NoError(t, err)
	assert.Equal(t, 256, b.Console.Buffer)
}

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "sim" {
			return nil, false
		}
		return []byte(`{
			"name": "sim",
			"uart": 2,
			"alive": {"cycle_ms": 300}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "sim")
	svc.Start(ctx, conn)

	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			require.Len(t, m.Topic, 2)
			assert.Equal(t, configPrefix, m.Topic[0])
			key, ok := m.Topic[1].(string)
			require.True(t, ok, "topic[1] type %T", m.Topic[1])
			assert.True(t, m.Retained)
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, "sim", got["name"])
	assert.Equal(t, float64(2), got["uart"])
	alive, ok := got["alive"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(300), alive["cycle_ms"])
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	err := NewConfigService().publishConfig(context.Background(), conn)
	assert.Equal(t, errcode.Param, errcode.Of(err))
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	err := NewConfigService().publishConfig(ctx, conn)
	assert.Equal(t, errcode.InstanceNotFound, errcode.Of(err))
}
