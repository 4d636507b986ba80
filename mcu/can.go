package mcu

// CanHeader mirrors the vendor TX/RX header fields callers set.
type CanHeader struct {
	StdID uint32
	ExtID uint32
	IDE   uint32 // 0 standard, 4 extended
	RTR   uint32 // 0 data, 2 remote
	DLC   uint32
}

// CanMessage is one classic CAN frame.
type CanMessage struct {
	Header CanHeader
	Data   [8]byte
}

type Can interface {
	EventLauncher[CanEventAgent]

	Activate() error
	Deactivate() error

	// Transmit queues msg and waits for the mailbox to drain.
	Transmit(msg *CanMessage, timeout uint32) error
	// Receive pops one frame from the bound FIFO.
	Receive(msg *CanMessage, timeout uint32) error
	AsyncTransmit(msg *CanMessage) error
	// AsyncReceive records dst; each FIFO-pending interrupt fills it and
	// then calls OnCanMessageReceive.
	AsyncReceive(dst *CanMessage)
}

type CanEventAgent interface {
	OnCanMessageReceive()
	OnCanError()
}

// CanEvents gives CanEventAgent implementations no-op defaults.
type CanEvents struct{}

func (CanEvents) OnCanMessageReceive() {}
func (CanEvents) OnCanError()          {}
