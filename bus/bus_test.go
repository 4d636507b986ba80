package bus

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/errcode"
)

type record struct {
	Level string
	Msg   string
}

func recv(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatalf("no message on %v", sub.Topic())
		return nil
	}
}

func empty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected message on %v: %v", m.Topic, m.Payload)
	default:
	}
}

// sections drains n retained config messages and returns their last tokens.
func sections(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	for i := 0; i < n; i++ {
		m := recv(t, sub)
		require.True(t, m.Retained)
		out = append(out, m.Topic[len(m.Topic)-1].(string))
	}
	sort.Strings(out)
	return out
}

func TestTopicTokens(t *testing.T) {
	assert.Panics(t, func() { T("log", []string{"x"}) })
	assert.Panics(t, func() { T("log", nil) })

	base := T("log")
	warn := base.Append("warn", "can")
	info := base.Append("info")
	assert.Equal(t, Topic{"log", "warn", "can"}, warn)
	assert.Equal(t, Topic{"log", "info"}, info)
	assert.Equal(t, Topic{"log"}, base)

	// Ints and strings are distinct keys.
	b := NewBus(4)
	c := b.NewConnection("t")
	byInt := c.Subscribe(T("uart", 1))
	byStr := c.Subscribe(T("uart", "1"))
	c.Publish(c.NewMessage(T("uart", 1), "rx", false))
	assert.Equal(t, "rx", recv(t, byInt).Payload)
	empty(t, byStr)
}

func TestLogRecordsByLevelAndTag(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("log")

	anyLevelCan := c.Subscribe(T("log", "+", "can"))
	allWarn := c.Subscribe(T("log", "warn", "#"))
	all := c.Subscribe(T("log", "#"))

	c.Publish(c.NewMessage(T("log", "warn", "can"), record{"warn", "bus off"}, false))
	c.Publish(c.NewMessage(T("log", "info", "console"), record{"info", "ready"}, false))

	assert.Equal(t, record{"warn", "bus off"}, recv(t, anyLevelCan).Payload)
	empty(t, anyLevelCan)

	assert.Equal(t, "bus off", recv(t, allWarn).Payload.(record).Msg)
	empty(t, allWarn)

	assert.Equal(t, "bus off", recv(t, all).Payload.(record).Msg)
	assert.Equal(t, "ready", recv(t, all).Payload.(record).Msg)
	empty(t, all)

	// Records are not retained.
	late := c.Subscribe(T("log", "#"))
	empty(t, late)
}

func TestRetainedConfigSections(t *testing.T) {
	b := NewBus(8)
	pub := b.NewConnection("config")
	for _, k := range []string{"console", "alive", "heartbeat"} {
		pub.Publish(pub.NewMessage(T("config", k), map[string]any{"section": k}, true))
	}

	c := b.NewConnection("reader")
	assert.Equal(t, []string{"alive", "console", "heartbeat"}, sections(t, c.Subscribe(T("config", "#")), 3))
	assert.Equal(t, []string{"alive", "console", "heartbeat"}, sections(t, c.Subscribe(T("config", "+")), 3))

	hb := c.Subscribe(T("config", "heartbeat"))
	assert.Equal(t, []string{"heartbeat"}, sections(t, hb, 1))
	empty(t, hb)

	// A new value replaces the retained one and reaches live subscribers.
	pub.Publish(pub.NewMessage(T("config", "heartbeat"), map[string]any{"interval_ms": 250.0}, true))
	assert.Equal(t, 250.0, recv(t, hb).Payload.(map[string]any)["interval_ms"])
	again := c.Subscribe(T("config", "heartbeat"))
	assert.Equal(t, 250.0, recv(t, again).Payload.(map[string]any)["interval_ms"])
	empty(t, again)

	// A retained nil clears the section.
	pub.Publish(pub.NewMessage(T("config", "alive"), nil, true))
	assert.Equal(t, []string{"console", "heartbeat"}, sections(t, c.Subscribe(T("config", "#")), 2))
}

func TestAliveStatusRequest(t *testing.T) {
	b := NewBus(4)
	srv := b.NewConnection("alive")
	status := srv.Subscribe(T("alive", "status"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-status.Channel():
				srv.Reply(req, []string{"console"}, false)
			}
		}
	}()

	cli := b.NewConnection("shell")
	for i := 0; i < 2; i++ {
		reply, err := cli.RequestWait(ctx, cli.NewMessage(T("alive", "status"), nil, false))
		require.NoError(t, err)
		assert.Equal(t, []string{"console"}, reply.Payload)
		assert.Equal(t, Topic{"_reply", "shell"}, reply.Topic[:2])
	}

	// Each request gets its own reply topic.
	r1 := cli.Request(cli.NewMessage(T("nobody"), nil, false))
	r2 := cli.Request(cli.NewMessage(T("nobody"), nil, false))
	assert.NotEqual(t, r1.Topic(), r2.Topic())
	cli.Unsubscribe(r1)
	cli.Unsubscribe(r2)
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(4)
	cli := b.NewConnection("shell")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cli.RequestWait(ctx, cli.NewMessage(T("alive", "status"), nil, false))
	assert.Equal(t, errcode.Timeout, errcode.Of(err))
}

func TestReplyWithoutReplyToIsDropped(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("c")
	all := c.Subscribe(T("#"))
	c.Reply(c.NewMessage(T("alive", "status"), nil, false), "ignored", false)
	empty(t, all)
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("log")
	sub := c.Subscribe(T("log", "#"))
	for _, msg := range []string{"one", "two", "three"} {
		c.Publish(c.NewMessage(T("log", "info", "console"), msg, false))
	}
	assert.Equal(t, "two", recv(t, sub).Payload)
	assert.Equal(t, "three", recv(t, sub).Payload)
	empty(t, sub)
}

func TestUnsubscribePrunesTrie(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("c")
	c.Publish(c.NewMessage(T("config", "console"), "kept", true))

	s1 := c.Subscribe(T("alive", "status"))
	s2 := c.Subscribe(T("config", "console", "extra"))
	c.Unsubscribe(s1)
	c.Unsubscribe(s1)
	_, open := <-s1.Channel()
	assert.False(t, open)

	c.Disconnect()
	_, open = <-s2.Channel()
	assert.False(t, open)

	b.mu.RLock()
	defer b.mu.RUnlock()
	assert.Nil(t, b.root.child("alive", false), "empty branch removed")
	cfg := b.root.child("config", false)
	require.NotNil(t, cfg)
	console := cfg.child("console", false)
	require.NotNil(t, console, "retained node kept")
	assert.Nil(t, console.child("extra", false))
}
