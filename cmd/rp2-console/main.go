//go:build rp2040

// Command rp2-console runs the console and the alive watch on an RP2040
// board: console on UART0 (GP0/GP1), sensors on I2C0 (GP4/GP5).
package main

import (
	"context"
	"machine"
	"time"

	"mcukit/mcu/hal"
	"mcukit/mcu/hal/rp2"
	"mcukit/rtos/gort"
	"mcukit/services/config"
	"mcukit/services/console"
	"mcukit/services/system"
)

const (
	consoleBaud = 115200
	// The watchdog outlives a few alive cycles so only a real stall resets.
	watchdogMS = 4000
)

func halt(msg string, err error) {
	for {
		println("[rp2-console]", msg, err.Error())
		time.Sleep(2 * time.Second)
	}
}

func main() {
	// Let USB CDC enumerate before the first print.
	time.Sleep(1500 * time.Millisecond)

	cfg, err := config.Load("rp2040")
	if err != nil {
		halt("config", err)
	}

	drv := rp2.New()
	chip, err := hal.Init(cfg.HAL(), drv)
	if err != nil {
		halt("hal", err)
	}
	if err := drv.ConfigureUART(rp2.UART0, consoleBaud, machine.GP0, machine.GP1); err != nil {
		halt("uart", err)
	}
	if err := drv.ConfigureI2C(rp2.I2C0, machine.I2CConfig{SDA: machine.GP4, SCL: machine.GP5, Frequency: 400 * machine.KHz}); err != nil {
		halt("i2c", err)
	}

	uart, err := chip.AllocateUart(rp2.UART0)
	if err != nil {
		halt("uart", err)
	}
	i2c, err := chip.AllocateI2cMaster(rp2.I2C0)
	if err != nil {
		halt("i2c", err)
	}
	wd, err := chip.WatchDog(rp2.WDT)
	if err != nil {
		halt("watchdog", err)
	}
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogMS})
	machine.Watchdog.Start()

	_, err = system.Start(context.Background(), system.Options{
		Board:    cfg,
		OS:       gort.New(),
		Console:  uart,
		WatchDog: wd,
		Sensors:  []console.Thermometer{console.SHTC3(i2c), console.AHT20(i2c, nil)},
	})
	if err != nil {
		halt("start", err)
	}
	select {}
}
