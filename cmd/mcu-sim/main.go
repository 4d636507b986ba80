// Command mcu-sim runs a board description on the simulated HAL. Lines
// typed into the shell are fed to the board's console UART; shell
// commands starting with a dot inspect the board from outside.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"mcukit/mcu/hal"
	"mcukit/mcu/hal/sim"
	"mcukit/rtos/gort"
	"mcukit/services/config"
	"mcukit/services/console"
	"mcukit/services/logsink"
	"mcukit/services/system"
)

var (
	boardName = "sim"
	mqttURL   = ""
)

func init() {
	if val := os.Getenv("MCUKIT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&boardName, "board", boardName, "Embedded board description to run.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL to forward logs to.")
}

// Simulated peripheral handles, one register block apart.
func uartHandle(i int) hal.UARTHandle { return hal.UARTHandle(0x4001_1000 + i*0x400) }

const (
	i2cBus   = hal.I2CHandle(0x4000_5400)
	watchdog = hal.IWDGHandle(0x4000_3000)
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(boardName)
	if err != nil {
		glog.Exitf("board %s: %v", boardName, err)
	}

	drv := sim.New()
	defer drv.Close()
	chip, err := hal.Init(cfg.HAL(), drv)
	if err != nil {
		glog.Exit(err)
	}

	conH := uartHandle(cfg.Console.UART)
	uart, err := chip.AllocateUart(conH)
	if err != nil {
		glog.Exit(err)
	}
	drv.SetUARTOutput(conH, os.Stdout)

	wd, err := chip.WatchDog(watchdog)
	if err != nil {
		glog.Exit(err)
	}

	sensors := newSensors(drv)
	i2c, err := chip.AllocateI2cMaster(i2cBus)
	if err != nil {
		glog.Exit(err)
	}

	opts := system.Options{
		Board:    cfg,
		OS:       gort.New(),
		Console:  uart,
		WatchDog: wd,
		Sensors:  []console.Thermometer{console.SHTC3(i2c), console.AHT20(i2c, nil)},
	}
	if mqttURL != "" {
		id, err := machineid.ProtectedID("mcukit")
		if err != nil {
			glog.Exit(err)
		}
		sink, err := logsink.NewMQTT(mqttURL, "mcu-sim-"+id[:12])
		if err != nil {
			glog.Exit(err)
		}
		defer sink.Close(250)
		opts.Sinks = append(opts.Sinks, sink)
	}

	sys, err := system.Start(context.Background(), opts)
	if err != nil {
		glog.Exit(err)
	}
	defer sys.Stop()

	newShell(cfg, drv, conH, sys, sensors).Run()
}
