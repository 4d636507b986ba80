// Command mcu-term talks to a device console over a serial port.
//
//	mcu-term -port /dev/ttyACM0            interactive
//	mcu-term -port /dev/ttyACM0 alive      run one command and print its output
package main

import (
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/tarm/serial"
)

var (
	portName = "/dev/ttyACM0"
	baud     = 115200
	wait     = 500 * time.Millisecond
)

func init() {
	if val := os.Getenv("MCUKIT_PORT"); val != "" {
		portName = val
	}
	flag.StringVar(&portName, "port", portName, "Serial device of the console.")
	flag.IntVar(&baud, "baud", baud, "Baud rate.")
	flag.DurationVar(&wait, "wait", wait, "How long a one-shot command collects output.")
}

const readTimeout = 100 * time.Millisecond

func main() {
	flag.Parse()
	defer glog.Flush()

	port, err := serial.OpenPort(&serial.Config{Name: portName, Baud: baud, ReadTimeout: readTimeout})
	if err != nil {
		glog.Exitf("open %s: %v", portName, err)
	}
	defer port.Close()

	done := make(chan struct{})
	go pump(os.Stdout, port, done)

	if args := flag.Args(); len(args) > 0 {
		if err := send(port, strings.Join(args, " ")); err != nil {
			glog.Exit(err)
		}
		time.Sleep(wait)
		close(done)
		return
	}

	sh := ishell.New()
	sh.SetPrompt("")
	sh.NotFound(func(c *ishell.Context) {
		if err := send(port, strings.Join(c.RawArgs, " ")); err != nil {
			c.Err(err)
		}
	})
	sh.DeleteCmd("help")
	sh.Run()
	close(done)
}

// send writes one console line.
func send(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\r\n")
	return err
}

// pump copies device output to w until done closes. Read timeouts come
// back as empty reads and are skipped.
func pump(w io.Writer, r io.Reader, done <-chan struct{}) {
	buf := make([]byte, 256)
	for {
		select {
		case <-done:
			return
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
		}
		if err != nil && err != io.EOF {
			glog.Errorf("read: %v", err)
			return
		}
	}
}
