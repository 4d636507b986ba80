package hal

import (
	"mcukit/errcode"
	"mcukit/mcu"
)

// adcPollTimeout bounds the conversion wait in ConvertOnce, in ms.
const adcPollTimeout uint32 = 1000

type Adc struct {
	mcu.NoChannel
	chip  *Chip
	h     ADCHandle
	agent mcu.AgentSlot[mcu.AdcEventAgent]
}

var _ mcu.Adc = (*Adc)(nil)

// AllocateAdc binds h. Binding the same handle twice returns the first
// wrapper.
func (c *Chip) AllocateAdc(h ADCHandle) (*Adc, error) {
	if h == 0 {
		return nil, errcode.Param
	}
	a, _, err := c.adcs.Allocate(&Adc{chip: c, h: h})
	return a, err
}

func (a *Adc) HandleValue() uintptr { return uintptr(a.h) }
func (a *Adc) Handle() ADCHandle    { return a.h }

func (a *Adc) SetEventAgent(agent mcu.AdcEventAgent) { a.agent.Set(agent) }
func (a *Adc) CleanEventAgent()                      { a.agent.Clear() }

// Release drops the agent and frees the registry slot.
func (a *Adc) Release() error {
	a.agent.Clear()
	return a.chip.adcs.Clean(mcu.KeyOf(a))
}

func (a *Adc) ConvertOnce() (uint32, error) {
	d := a.chip.drv
	if err := d.ADCStart(a.h).Err(); err != nil {
		return 0, err
	}
	if err := d.ADCPollForConversion(a.h, adcPollTimeout).Err(); err != nil {
		return 0, err
	}
	return d.ADCGetValue(a.h), nil
}

func (a *Adc) AsyncConvertOnce() error { return a.chip.drv.ADCStartIT(a.h).Err() }

func (a *Adc) AsyncConvertContinuous(buf []uint32) error {
	if len(buf) == 0 {
		return errcode.Param
	}
	return a.chip.drv.ADCStartDMA(a.h, buf).Err()
}

func (a *Adc) AsyncTerminateConversion() error { return a.chip.drv.ADCStopDMA(a.h).Err() }

// -----------------------------------------------------------------------------
// Interrupt shims
// -----------------------------------------------------------------------------

func (c *Chip) adcAgent(h ADCHandle) (mcu.AdcEventAgent, bool) {
	a, err := c.adcs.Search(mcu.Key{Handle: uintptr(h)})
	if err != nil {
		return nil, false
	}
	return a.agent.Load()
}

// ADCConvCpltCallback is HAL_ADC_ConvCpltCallback.
func (c *Chip) ADCConvCpltCallback(h ADCHandle) {
	if ag, ok := c.adcAgent(h); ok {
		ag.OnAdcConvertOnceComplete(c.drv.ADCGetValue(h))
	}
}

// ADCLevelOutOfWindowCallback is HAL_ADC_LevelOutOfWindowCallback.
func (c *Chip) ADCLevelOutOfWindowCallback(h ADCHandle) {
	if ag, ok := c.adcAgent(h); ok {
		ag.OnAdcLevelOutOfWindow()
	}
}

// ADCErrorCallback is HAL_ADC_ErrorCallback.
func (c *Chip) ADCErrorCallback(h ADCHandle) {
	if ag, ok := c.adcAgent(h); ok {
		ag.OnAdcError()
	}
}
