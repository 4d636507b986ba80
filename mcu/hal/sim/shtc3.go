package sim

import (
	"sync"

	"mcukit/x/mathx"
)

// SHTC3Address is the sensor's fixed 7-bit address.
const SHTC3Address = 0x70

// SHTC3 emulates a Sensirion SHTC3 temperature/humidity sensor.
type SHTC3 struct {
	mu     sync.Mutex
	milliC int32
	rhx100 int32
	asleep bool
	next   []byte // response staged by the last command
}

var _ I2CTarget = (*SHTC3)(nil)

// NewSHTC3 returns an awake sensor reading milliC (m°C) and rhx100
// (hundredths of a percent).
func NewSHTC3(milliC, rhx100 int32) *SHTC3 { return &SHTC3{milliC: milliC, rhx100: rhx100} }

// Set changes what the next measurement reports.
func (s *SHTC3) Set(milliC, rhx100 int32) {
	s.mu.Lock()
	s.milliC, s.rhx100 = milliC, rhx100
	s.mu.Unlock()
}

func (s *SHTC3) Asleep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asleep
}

func (s *SHTC3) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) >= 2 {
		if err := s.command(uint16(w[0])<<8 | uint16(w[1])); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if s.asleep || len(s.next) == 0 {
			return errNack
		}
		n := copy(r, s.next)
		s.next = s.next[n:]
	}
	return nil
}

func (s *SHTC3) command(cmd uint16) error {
	if s.asleep && cmd != 0x3517 {
		return errNack
	}
	switch cmd {
	case 0x3517: // wake up
		s.asleep = false
	case 0xB098: // sleep
		s.asleep = true
	case 0x805D: // soft reset
		s.next = nil
	case 0xEFC8: // read ID
		s.next = word(0x0807, nil)
	case 0x7866, 0x7CA2, 0x609C, 0x6458: // temperature first
		s.next = append(word(s.rawT(), nil), word(s.rawRH(), nil)...)
	case 0x58E0, 0x5C24, 0x401A, 0x44DE: // humidity first
		s.next = append(word(s.rawRH(), nil), word(s.rawT(), nil)...)
	default:
		return errNack
	}
	return nil
}

// rawT inverts T = -45 + 175 * raw / 2^16.
func (s *SHTC3) rawT() uint16 {
	v := (int64(s.milliC) + 45000) << 16 / 175000
	return uint16(mathx.Clamp(v, 0, 0xFFFF))
}

// rawRH inverts RH = 100 * raw / 2^16.
func (s *SHTC3) rawRH() uint16 {
	v := int64(s.rhx100) << 16 / 10000
	return uint16(mathx.Clamp(v, 0, 0xFFFF))
}

// word appends v big-endian plus its CRC-8 to dst.
func word(v uint16, dst []byte) []byte {
	b := [2]byte{byte(v >> 8), byte(v)}
	return append(dst, b[0], b[1], crc8(b[:]))
}

// crc8 is the Sensirion checksum: polynomial 0x31, init 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
