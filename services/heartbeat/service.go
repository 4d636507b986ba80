// Package heartbeat publishes a periodic liveness beat on the bus.
package heartbeat

import (
	"context"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/rtos"
	"mcukit/services/logsink"
)

const tag = "heartbeat"

var (
	// TopicBeat carries Beat payloads.
	TopicBeat = bus.T("system", "heartbeat")

	topicConfigHeartbeat = bus.T("config", "heartbeat")
)

const DefaultIntervalMS = 1000

type Beat struct {
	Seq  uint32
	Tick uint32
}

type Service struct {
	os       rtos.OS
	interval uint32
}

// New returns a heartbeat that beats every intervalMS; zero means
// DefaultIntervalMS.
func New(os rtos.OS, intervalMS uint32) (*Service, error) {
	if os == nil {
		return nil, errcode.Param
	}
	if intervalMS == 0 {
		intervalMS = DefaultIntervalMS
	}
	return &Service{os: os, interval: intervalMS}, nil
}

// intervalFrom reads {"interval_ms": n} from a config/heartbeat payload.
func intervalFrom(payload any) (uint32, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m["interval_ms"].(float64)
	if !ok || v < 1 || v > float64(rtos.WaitForever-1) {
		return 0, false
	}
	return uint32(v), true
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	var seq uint32
	next := s.os.Systick()
	for {
		select {
		case msg := <-cfgSub.Channel():
			if iv, ok := intervalFrom(msg.Payload); ok {
				s.interval = iv
				logsink.Infof(tag, "interval set to %d ms", iv)
			}
		default:
		}

		now := s.os.Systick()
		if int32(now-next) >= 0 {
			seq++
			conn.Publish(conn.NewMessage(TopicBeat, Beat{Seq: seq, Tick: now}, true))
			next = now + s.interval
		}
		wait := next - now
		if int32(wait) < 0 {
			wait = 0
		}
		// Short slices keep config changes responsive.
		if wait > 50 {
			wait = 50
		}
		if err := s.os.Delay(ctx, wait); err != nil {
			return
		}
	}
}

// Start runs the service until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
