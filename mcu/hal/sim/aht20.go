package sim

import (
	"sync"

	"mcukit/x/mathx"
)

const AHT20Address = 0x38

// AHT20 emulates an Aosong AHT20. Each conversion reports busy once
// before the data is ready.
type AHT20 struct {
	mu         sync.Mutex
	milliC     int32
	rhx100     int32
	calibrated bool
	busy       int
	converted  bool
}

var _ I2CTarget = (*AHT20)(nil)

// NewAHT20 returns an uncalibrated sensor reading milliC and rhx100.
func NewAHT20(milliC, rhx100 int32) *AHT20 { return &AHT20{milliC: milliC, rhx100: rhx100} }

func (s *AHT20) Set(milliC, rhx100 int32) {
	s.mu.Lock()
	s.milliC, s.rhx100 = milliC, rhx100
	s.mu.Unlock()
}

func (s *AHT20) Calibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrated
}

func (s *AHT20) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) > 0 {
		switch w[0] {
		case 0xBE: // initialise
			s.calibrated = true
		case 0xBA: // soft reset
			s.calibrated, s.converted = false, false
		case 0xAC: // trigger
			if !s.calibrated {
				return errNack
			}
			s.busy, s.converted = 1, true
		case 0x71: // status
			if len(r) > 0 {
				r[0] = s.status()
			}
			return nil
		default:
			return errNack
		}
	}
	if len(r) == 0 {
		return nil
	}
	r[0] = s.status()
	if s.busy > 0 {
		s.busy--
		return nil
	}
	if !s.converted || len(r) < 6 {
		return nil
	}
	h, t := s.rawRH(), s.rawT()
	r[1] = byte(h >> 12)
	r[2] = byte(h >> 4)
	r[3] = byte(h<<4) | byte(t>>16)&0x0F
	r[4] = byte(t >> 8)
	r[5] = byte(t)
	return nil
}

func (s *AHT20) status() byte {
	var st byte
	if s.calibrated {
		st |= 0x08
	}
	if s.busy > 0 {
		st |= 0x80
	}
	return st
}

// rawT inverts T = raw/2^20 * 200 - 50.
func (s *AHT20) rawT() uint32 {
	v := (int64(s.milliC) + 50000) << 20 / 200000
	return uint32(mathx.Clamp(v, 0, 0xFFFFF))
}

// rawRH inverts RH = raw/2^20 * 100.
func (s *AHT20) rawRH() uint32 {
	v := int64(s.rhx100) << 20 / 10000
	return uint32(mathx.Clamp(v, 0, 0xFFFFF))
}
