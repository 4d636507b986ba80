package console

import (
	"fmt"
	"io"
	"sort"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"

	"mcukit/drivers/aht20"
	"mcukit/errcode"
	"mcukit/services/alive"
	"mcukit/x/conv"
)

// Help lists the registered commands.
func Help(c *Console) Executor {
	return Command{
		Cmd:   "help",
		Usage: "list commands",
		Run: func(out io.Writer, _ []string) error {
			list := c.Executors()
			sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
			for _, e := range list {
				usage := ""
				if h, ok := e.(Helper); ok {
					usage = h.Help()
				}
				fmt.Fprintf(out, "%-8s %s\n", e.Name(), usage)
			}
			return nil
		},
	}
}

// Alive prints the watch table of the alive service instance.
func Alive() Executor {
	return Command{
		Cmd:   "alive",
		Usage: "show task watches",
		Run: func(out io.Writer, _ []string) error {
			s := alive.Instance()
			if s == nil {
				return errcode.NotAvailable
			}
			for _, st := range s.States() {
				state := "stopped"
				switch {
				case st.Enabled && st.Alive:
					state = "alive"
				case st.Enabled:
					state = "overdue"
				}
				fmt.Fprintf(out, "%-12s %-8s %d\n", st.Name, state, st.LastTick)
			}
			return nil
		},
	}
}

// Thermometer is an ambient temperature and humidity sensor.
type Thermometer interface {
	Model() string
	// Measure returns m°C and hundredths of %RH.
	Measure() (milliC, rhx100 int32, err error)
}

type shtc3Sensor struct{ dev shtc3.Device }

// SHTC3 reads a Sensirion SHTC3 on bus.
func SHTC3(bus drivers.I2C) Thermometer { return &shtc3Sensor{dev: shtc3.New(bus)} }

func (s *shtc3Sensor) Model() string { return "shtc3" }

func (s *shtc3Sensor) Measure() (int32, int32, error) {
	if err := s.dev.WakeUp(); err != nil {
		return 0, 0, err
	}
	t, rh, err := s.dev.ReadTemperatureHumidity()
	if serr := s.dev.Sleep(); err == nil {
		err = serr
	}
	return t, int32(rh), err
}

type aht20Sensor struct {
	dev        *aht20.Device
	configured bool
}

// AHT20 reads an Aosong AHT20 on bus. sleep paces its polling; nil means
// time.Sleep.
func AHT20(bus drivers.I2C, sleep func(time.Duration)) Thermometer {
	return &aht20Sensor{dev: aht20.New(bus, aht20.Config{Sleep: sleep})}
}

func (s *aht20Sensor) Model() string { return "aht20" }

func (s *aht20Sensor) Measure() (int32, int32, error) {
	if !s.configured {
		if err := s.dev.Configure(); err != nil {
			return 0, 0, err
		}
		s.configured = true
	}
	v, err := s.dev.Read()
	if err != nil {
		return 0, 0, err
	}
	return v.MilliCelsius(), v.RHx100(), nil
}

// Env reads every sensor in order, or only the one named by the first
// argument.
func Env(sensors ...Thermometer) Executor {
	return Command{
		Cmd:   "env",
		Usage: "[model] read temperature and humidity",
		Run: func(out io.Writer, args []string) error {
			if len(args) > 1 {
				return errcode.Param
			}
			read := 0
			for _, s := range sensors {
				if len(args) == 1 && args[0] != s.Model() {
					continue
				}
				read++
				t, rh, err := s.Measure()
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", s.Model(), err)
					continue
				}
				var tb, hb [16]byte
				fmt.Fprintf(out, "%s: %s C %s %%RH\n", s.Model(), conv.Fixed(tb[:], int64(t), 1000), conv.Fixed(hb[:], int64(rh), 100))
			}
			if read == 0 {
				return errcode.InstanceNotFound
			}
			return nil
		},
	}
}
