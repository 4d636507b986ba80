package errcode

// Code is a stable error identifier shared by every layer.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable). The set is flat on purpose: callers
// switch on the code, never on a hierarchy.
const (
	OK Code = "ok"

	Param                 Code = "param"
	Busy                  Code = "busy"
	Timeout               Code = "timeout"
	SlotsExhausted        Code = "slots_exhausted" // fixed-capacity structure full
	Permission            Code = "permission"
	NullReference         Code = "null_reference"
	MemAllocFailure       Code = "mem_alloc_failure"
	InstanceCreateFailure Code = "instance_create_failure" // RTOS object creation returned null
	InstanceNotFound      Code = "instance_not_found"
	InstanceDuplicate     Code = "instance_duplicate" // singleton initialised twice
	InstanceInUse         Code = "instance_in_use"
	NotSupported          Code = "not_supported"
	NotAvailable          Code = "not_available"
	FormatFailure         Code = "format_failure" // fixed text buffer overflowed

	Unknown Code = "unknown" // generic fallback
)

// E keeps a code together with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Busy) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches an operation name to a code.
func Wrap(c Code, op string, cause error) error {
	return &E{C: c, Op: op, Err: cause}
}

// Of extracts a Code from an error, defaulting to Unknown.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return Of(u.Unwrap())
	}
	return Unknown
}
