// Package alive is a software watchdog over tasks.
//
// Each watched task reports in with UpdateAliveState. The service task
// refreshes the hardware watchdog once per cycle, but only while every
// enabled watch has reported within the allowed time; one stalled task is
// enough to let the watchdog reset the chip.
package alive

import (
	"context"
	"strings"
	"sync/atomic"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/rtos"
	"mcukit/services/logsink"
)

const tag = "alive"

// TopicStatus answers requests with the current []State.
var TopicStatus = bus.T("alive", "status")

// Handle identifies one watch.
type Handle int

// Watcher is what watched tasks see.
type Watcher interface {
	// Watch starts watching name; a second watch of the same name fails
	// with errcode.InstanceDuplicate.
	Watch(name string) (Handle, error)
	// WatchBack re-enables a stopped watch.
	WatchBack(h Handle) error
	StopWatch(h Handle) error
	// UpdateAliveState records that h is alive now. It takes no lock.
	UpdateAliveState(h Handle)
}

type State struct {
	Name     string
	Enabled  bool
	LastTick uint32
	Alive    bool
}

type watch struct {
	name    string
	enabled atomic.Bool
	tick    atomic.Uint32
}

// Config sets the service timing, in milliseconds.
type Config struct {
	CycleMS uint32
	// MaxMS is the longest a watch may stay silent. Zero means CycleMS.
	MaxMS uint32
}

type Service struct {
	os  rtos.OS
	wd  mcu.WatchDog
	cfg Config

	// watches is only appended to, under mu; readers load the snapshot.
	mu      rtos.Mutex
	watches atomic.Pointer[[]*watch]
}

var _ Watcher = (*Service)(nil)

func New(os rtos.OS, wd mcu.WatchDog, cfg Config) (*Service, error) {
	if os == nil || wd == nil || cfg.CycleMS == 0 {
		return nil, errcode.Param
	}
	if cfg.MaxMS == 0 {
		cfg.MaxMS = cfg.CycleMS
	}
	mu, err := os.NewMutex()
	if err != nil {
		return nil, errcode.Wrap(errcode.InstanceCreateFailure, "alive.New", err)
	}
	s := &Service{os: os, wd: wd, cfg: cfg, mu: mu}
	s.watches.Store(&[]*watch{})
	return s, nil
}

func (s *Service) list() []*watch { return *s.watches.Load() }

func (s *Service) get(h Handle) (*watch, error) {
	l := s.list()
	if h < 0 || int(h) >= len(l) {
		return nil, errcode.Param
	}
	return l[h], nil
}

func (s *Service) Watch(name string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.list()
	for _, w := range old {
		if w.name == name {
			return 0, errcode.InstanceDuplicate
		}
	}
	w := &watch{name: name}
	w.enabled.Store(true)
	w.tick.Store(s.os.Systick())
	next := make([]*watch, len(old), len(old)+1)
	copy(next, old)
	next = append(next, w)
	s.watches.Store(&next)
	return Handle(len(old)), nil
}

func (s *Service) setEnabled(h Handle, on bool) error {
	w, err := s.get(h)
	if err != nil {
		return err
	}
	if on {
		// A watch coming back starts from a fresh report.
		w.tick.Store(s.os.Systick())
	}
	w.enabled.Store(on)
	return nil
}

func (s *Service) WatchBack(h Handle) error { return s.setEnabled(h, true) }
func (s *Service) StopWatch(h Handle) error { return s.setEnabled(h, false) }

func (s *Service) UpdateAliveState(h Handle) {
	if w, err := s.get(h); err == nil {
		w.tick.Store(s.os.Systick())
	}
}

// alive reports whether last is within max of now. Tick arithmetic wraps.
func alive(now, last, max uint32) bool { return now-last <= max }

// States snapshots every watch.
func (s *Service) States() []State {
	now := s.os.Systick()
	l := s.list()
	out := make([]State, len(l))
	for i, w := range l {
		last := w.tick.Load()
		out[i] = State{
			Name:     w.name,
			Enabled:  w.enabled.Load(),
			LastTick: last,
			Alive:    alive(now, last, s.cfg.MaxMS),
		}
	}
	return out
}

// overdue lists enabled watches that have been silent too long.
func (s *Service) overdue(now uint32) []string {
	var late []string
	for _, w := range s.list() {
		if w.enabled.Load() && !alive(now, w.tick.Load(), s.cfg.MaxMS) {
			late = append(late, w.name)
		}
	}
	return late
}

// Check refreshes the watchdog if every enabled watch is alive and
// returns errcode.Timeout otherwise.
func (s *Service) Check() error {
	if late := s.overdue(s.os.Systick()); len(late) > 0 {
		logsink.Warnf(tag, "overdue: %s", strings.Join(late, ","))
		return &errcode.E{C: errcode.Timeout, Op: "alive.Check", Msg: strings.Join(late, ",")}
	}
	return s.refresh()
}

func (s *Service) refresh() error {
	if err := s.wd.Refresh(); err != nil {
		logsink.Errorf(tag, "watchdog refresh: %v", err)
		return err
	}
	return nil
}

// Main is the service task body.
func (s *Service) Main(ctx context.Context) {
	now := s.os.Systick()
	for _, w := range s.list() {
		w.tick.Store(now)
	}
	_ = s.refresh()
	for s.os.Delay(ctx, s.cfg.CycleMS) == nil {
		_ = s.Check()
	}
}

// Serve answers TopicStatus requests on conn until ctx is done.
func (s *Service) Serve(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(TopicStatus)
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			conn.Reply(msg, s.States(), false)
		}
	}
}

// -----------------------------------------------------------------------------
// Process-wide instance
// -----------------------------------------------------------------------------

var instance atomic.Pointer[Service]

// Initialize publishes s as the process instance, once.
func Initialize(s *Service) error {
	if s == nil {
		return errcode.NullReference
	}
	if !instance.CompareAndSwap(nil, s) {
		return errcode.InstanceDuplicate
	}
	return nil
}

// Instance returns the published service or nil.
func Instance() *Service { return instance.Load() }
