// Package serialport opens the UART end of the link.
package serialport

import (
	"fmt"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/rfcomm/pkg/link"
)

// Mode returns the port settings of the link at baud.
func Mode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens a serial port at link.BaudRate, 8N1.
func Open(name string) (serial.Port, error) {
	return OpenWithBaudRate(name, link.BaudRate)
}

// OpenWithBaudRate opens a serial port at a custom speed, for bridges
// which don't run the link speed.
func OpenWithBaudRate(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, Mode(baud))
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %v", name, err)
	}
	glog.Infof("serial port %s opened at %d baud", name, baud)
	return port, nil
}

// List lists available serial ports.
func List() ([]string, error) {
	return serial.GetPortsList()
}
