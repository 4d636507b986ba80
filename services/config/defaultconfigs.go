package config

// Embedded board descriptions, keyed by the name passed in ctx under
// CtxDeviceKey or to Load.

const cfgNucleoH563 = `{
  "name": "nucleo-h563zi",
  "adc": 2, "uart": 4, "spi": 2, "i2c": 2, "can": 2,
  "console": {"uart": 0, "buffer": 256, "prompt": "> ", "level": "info", "priority": "normal", "banner": true},
  "alive": {"enabled": false, "cycle_ms": 300}
}`

const cfgChallenF429 = `{
  "name": "challen-v2-f429",
  "adc": 3, "uart": 6, "spi": 3, "i2c": 3, "can": 2,
  "console": {"uart": 0, "buffer": 256, "prompt": "> ", "level": "info", "priority": "normal", "banner": true},
  "alive": {"enabled": true, "cycle_ms": 300}
}`

const cfgSim = `{
  "name": "sim",
  "adc": 4, "uart": 4, "spi": 2, "i2c": 2, "can": 4,
  "console": {"uart": 1, "buffer": 256, "prompt": "sim> ", "level": "debug", "priority": "normal", "banner": true},
  "alive": {"enabled": true, "cycle_ms": 300, "max_ms": 600},
  "heartbeat": {"interval_ms": 1000}
}`

const cfgRP2040 = `{
  "name": "rp2040",
  "adc": 1, "uart": 2, "spi": 1, "i2c": 2, "can": 1,
  "console": {"uart": 0, "buffer": 128, "prompt": "> ", "level": "info", "priority": "high", "banner": true},
  "alive": {"enabled": true, "cycle_ms": 500, "max_ms": 1500}
}`

var embeddedConfigs = map[string][]byte{
	"nucleo-h563zi":   []byte(cfgNucleoH563),
	"challen-v2-f429": []byte(cfgChallenF429),
	"sim":             []byte(cfgSim),
	"rp2040":          []byte(cfgRP2040),
}
