package hal

import (
	"mcukit/errcode"
	"mcukit/x/conv"
)

// Status is the vendor HAL_StatusTypeDef.
type Status uint32

const (
	StatusOK      Status = 0x00
	StatusError   Status = 0x01
	StatusBusy    Status = 0x02
	StatusTimeout Status = 0x03
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusTimeout:
		return "timeout"
	default:
		var b [10]byte
		return "status(" + string(conv.Utoa(b[:], uint64(s))) + ")"
	}
}

// Err converts s into the package error taxonomy. Unknown values map to
// errcode.Unknown like HAL_ERROR.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusBusy:
		return errcode.Busy
	case StatusTimeout:
		return errcode.Timeout
	default:
		return errcode.Unknown
	}
}

// StatusOf is the reverse mapping, used by backends that build a vendor
// status out of a Go error.
func StatusOf(err error) Status {
	switch errcode.Of(err) {
	case errcode.OK:
		return StatusOK
	case errcode.Busy:
		return StatusBusy
	case errcode.Timeout:
		return StatusTimeout
	default:
		return StatusError
	}
}
