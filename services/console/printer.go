package console

import (
	"fmt"

	"mcukit/errcode"
	"mcukit/mcu"
	"mcukit/rtos"
	"mcukit/services/logsink"
)

const (
	PrintBufferSize = 256
	// printTimeoutMS bounds one blocking transmit.
	printTimeoutMS = 100
)

// fixedBuf is an io.Writer over a fixed array that refuses to grow.
type fixedBuf struct {
	b        [PrintBufferSize]byte
	n        int
	overflow bool
}

func (f *fixedBuf) Write(p []byte) (int, error) {
	n := copy(f.b[f.n:], p)
	f.n += n
	if n < len(p) {
		f.overflow = true
		return n, errcode.FormatFailure
	}
	return n, nil
}

func (f *fixedBuf) reset() { f.n, f.overflow = 0, false }

// printer serialises formatted output onto the UART. It is also the
// io.Writer executors write to.
type printer struct {
	mu   rtos.Mutex
	uart mcu.Uart
	buf  fixedBuf
}

func newPrinter(mu rtos.Mutex, uart mcu.Uart) *printer {
	return &printer{mu: mu, uart: uart}
}

func (p *printer) send(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return p.uart.Transmit(b, printTimeoutMS)
}

// format renders into the shared buffer and sends it. Output that does not
// fit is dropped whole.
func (p *printer) format(fn func(w *fixedBuf)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.reset()
	fn(&p.buf)
	if p.buf.overflow {
		return errcode.FormatFailure
	}
	return p.send(p.buf.b[:p.buf.n])
}

func (p *printer) printf(format string, args ...any) error {
	return p.format(func(w *fixedBuf) {
		fmt.Fprintf(w, format, args...)
		fmt.Fprint(w, "\r\n")
	})
}

func (p *printer) record(level logsink.Level, tag, msg string) error {
	return p.format(func(w *fixedBuf) {
		fmt.Fprintf(w, "[%5s] %s: %s\r\n", level, tag, msg)
	})
}

func (p *printer) write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.send(b)
}

// Write sends b, translating bare LF to CRLF.
func (p *printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := 0
	for i, c := range b {
		if c != '\n' || (i > 0 && b[i-1] == '\r') {
			continue
		}
		if err := p.send(b[start:i]); err != nil {
			return start, err
		}
		if err := p.send([]byte("\r\n")); err != nil {
			return start, err
		}
		start = i + 1
	}
	if err := p.send(b[start:]); err != nil {
		return start, err
	}
	return len(b), nil
}
