package mcu

// IoState is a pin level.
type IoState uint8

const (
	IoReset IoState = 0
	IoSet   IoState = 1
)

func (s IoState) String() string {
	if s == IoSet {
		return "set"
	}
	return "reset"
}

type Io interface {
	EventLauncher[IoEventAgent]

	State() IoState
	// SetState and Toggle only take effect in output mode.
	SetState(s IoState)
	Toggle()
}

type IoEventAgent interface {
	OnIoStateChange()
}

// IoEventFunc adapts a plain function to IoEventAgent.
type IoEventFunc func()

func (f IoEventFunc) OnIoStateChange() { f() }

// WatchDog is the independent watchdog; failing to Refresh resets the chip.
type WatchDog interface {
	Refresh() error
}
