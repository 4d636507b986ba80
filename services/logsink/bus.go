package logsink

import "mcukit/bus"

// TopicLog prefixes every record published by Bus; the full topic is
// log/<level>/<tag>.
var TopicLog = bus.T("log")

// Record is the payload Bus publishes.
type Record struct {
	Level Level
	Tag   string
	Msg   string
	Tick  uint32
}

// Bus publishes records on a bus connection.
type Bus struct {
	Conn *bus.Connection
	// Tick stamps records; nil leaves Tick zero.
	Tick func() uint32
}

func (b *Bus) Log(level Level, tag, msg string) {
	r := Record{Level: level, Tag: tag, Msg: msg}
	if b.Tick != nil {
		r.Tick = b.Tick()
	}
	b.Conn.Publish(b.Conn.NewMessage(TopicLog.Append(level.String(), tag), r, false))
}
