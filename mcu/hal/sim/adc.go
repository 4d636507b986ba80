package sim

import "mcukit/mcu/hal"

type adcState struct {
	value   uint32
	started bool
	dma     []uint32
}

func (d *Driver) adc(h hal.ADCHandle) *adcState {
	a := d.adcs[h]
	if a == nil {
		a = &adcState{}
		d.adcs[h] = a
	}
	return a
}

// SetADCValue sets what the next conversion on h returns.
func (d *Driver) SetADCValue(h hal.ADCHandle, v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adc(h).value = v
}

// RaiseADCWindow fires the analog watchdog callback for h.
func (d *Driver) RaiseADCWindow(h hal.ADCHandle) {
	d.raise(func(c *hal.Chip) { c.ADCLevelOutOfWindowCallback(h) })
}

// RaiseADCError fires HAL_ADC_ErrorCallback for h.
func (d *Driver) RaiseADCError(h hal.ADCHandle) {
	d.raise(func(c *hal.Chip) { c.ADCErrorCallback(h) })
}

func (d *Driver) ADCStart(h hal.ADCHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("ADCStart"); ok {
		return st
	}
	d.adc(h).started = true
	return hal.StatusOK
}

func (d *Driver) ADCPollForConversion(h hal.ADCHandle, timeout uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("ADCPollForConversion"); ok {
		return st
	}
	if !d.adc(h).started {
		return hal.StatusError
	}
	return hal.StatusOK
}

func (d *Driver) ADCGetValue(h hal.ADCHandle) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adc(h).value
}

func (d *Driver) ADCStartIT(h hal.ADCHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("ADCStartIT"); ok {
		return st
	}
	d.adc(h).started = true
	d.raise(func(c *hal.Chip) { c.ADCConvCpltCallback(h) })
	return hal.StatusOK
}

// ADCStartDMA fills buf with the current value once and reports the
// buffer-full completion; it stays armed until ADCStopDMA.
func (d *Driver) ADCStartDMA(h hal.ADCHandle, buf []uint32) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("ADCStartDMA"); ok {
		return st
	}
	a := d.adc(h)
	if a.dma != nil {
		return hal.StatusBusy
	}
	a.dma, a.started = buf, true
	for i := range buf {
		buf[i] = a.value
	}
	d.raise(func(c *hal.Chip) { c.ADCConvCpltCallback(h) })
	return hal.StatusOK
}

func (d *Driver) ADCStopDMA(h hal.ADCHandle) hal.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.fail("ADCStopDMA"); ok {
		return st
	}
	a := d.adc(h)
	a.dma, a.started = nil, false
	return hal.StatusOK
}
