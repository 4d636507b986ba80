package mcu

// I2cMemWidth is the register address width of a memory-mapped target.
type I2cMemWidth uint16

const (
	I2cMemWidth8  I2cMemWidth = 0
	I2cMemWidth16 I2cMemWidth = 1
)

// I2cDirection is the transfer direction requested by a master when it
// addresses us as a slave.
type I2cDirection uint8

const (
	I2cDirectionTransmit I2cDirection = 0
	I2cDirectionReceive  I2cDirection = 1
)

// I2cMem talks to register-addressed targets (EEPROMs, sensors).
type I2cMem interface {
	EventLauncher[I2cMemEventAgent]

	MemWrite(saddr, maddr uint16, width I2cMemWidth, data []byte, timeout uint32) error
	MemRead(saddr, maddr uint16, width I2cMemWidth, data []byte, timeout uint32) error
	AsyncMemWrite(saddr, maddr uint16, width I2cMemWidth, data []byte) error
	AsyncMemRead(saddr, maddr uint16, width I2cMemWidth, data []byte) error
}

type I2cMemEventAgent interface {
	OnI2cMemWriteComplete()
	OnI2cMemReadComplete()
	OnI2cMemError()
}

// I2cMaster drives the bus.
type I2cMaster interface {
	EventLauncher[I2cMasterEventAgent]

	Transmit(saddr uint16, data []byte, timeout uint32) error
	Receive(saddr uint16, data []byte, timeout uint32) error
	AsyncTransmit(saddr uint16, data []byte) error
	AsyncReceive(saddr uint16, data []byte) error
}

type I2cMasterEventAgent interface {
	OnI2cMasterTxComplete()
	OnI2cMasterRxComplete()
	OnI2cMasterError()
}

// I2cSlave answers a remote master.
type I2cSlave interface {
	EventLauncher[I2cSlaveEventAgent]

	Listen() error
	Transmit(data []byte, timeout uint32) error
	Receive(data []byte, timeout uint32) error
	AsyncTransmit(data []byte) error
	AsyncReceive(data []byte) error
}

type I2cSlaveEventAgent interface {
	OnI2cSlaveTxComplete()
	OnI2cSlaveRxComplete()
	OnI2cSlaveSelected(dir I2cDirection, addr uint16)
	OnI2cSlaveListenComplete()
	OnI2cSlaveError()
}

// No-op defaults for embedding.
type (
	I2cMemEvents    struct{}
	I2cMasterEvents struct{}
	I2cSlaveEvents  struct{}
)

func (I2cMemEvents) OnI2cMemWriteComplete() {}
func (I2cMemEvents) OnI2cMemReadComplete()  {}
func (I2cMemEvents) OnI2cMemError()         {}

func (I2cMasterEvents) OnI2cMasterTxComplete() {}
func (I2cMasterEvents) OnI2cMasterRxComplete() {}
func (I2cMasterEvents) OnI2cMasterError()      {}

func (I2cSlaveEvents) OnI2cSlaveTxComplete()                   {}
func (I2cSlaveEvents) OnI2cSlaveRxComplete()                   {}
func (I2cSlaveEvents) OnI2cSlaveSelected(I2cDirection, uint16) {}
func (I2cSlaveEvents) OnI2cSlaveListenComplete()               {}
func (I2cSlaveEvents) OnI2cSlaveError()                        {}
