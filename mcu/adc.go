package mcu

// Adc is the analog-to-digital converter capability.
type Adc interface {
	EventLauncher[AdcEventAgent]

	// ConvertOnce blocks until one conversion completes.
	ConvertOnce() (uint32, error)
	// AsyncConvertOnce starts a conversion; the result arrives through
	// OnAdcConvertOnceComplete.
	AsyncConvertOnce() error
	// AsyncConvertContinuous keeps rotating conversions into buf until
	// AsyncTerminateConversion.
	AsyncConvertContinuous(buf []uint32) error
	AsyncTerminateConversion() error
}

// AdcEventAgent receives ADC interrupts. Methods run in interrupt context
// and must not block.
type AdcEventAgent interface {
	OnAdcConvertOnceComplete(value uint32)
	OnAdcLevelOutOfWindow()
	OnAdcError()
}

// AdcEvents gives AdcEventAgent implementations no-op defaults.
type AdcEvents struct{}

func (AdcEvents) OnAdcConvertOnceComplete(uint32) {}
func (AdcEvents) OnAdcLevelOutOfWindow()          {}
func (AdcEvents) OnAdcError()                     {}
