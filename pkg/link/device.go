package link

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rfcomm/pkg/framework"
)

// Fault describes a failed receive session.
type Fault struct {
	// Code is the error code shown by the Monitor.
	Code uint
	// Missing is the number of payload bytes which never arrived.
	Missing int
	// Err is the Completion error, nil for a timeout.
	Err error
}

// Timeout indicates the session ran out of time.
func (f Fault) Timeout() bool {
	return f.Err == nil
}

// FaultHandler is notified about every receive fault.
type FaultHandler interface {
	HandleFault(Fault)
}

// HandleFaultFunc is func type of FaultHandler.
type HandleFaultFunc func(Fault)

// HandleFault implements FaultHandler.
func (f HandleFaultFunc) HandleFault(fault Fault) {
	f(fault)
}

// Device is the controller end of the link. It owns all link state:
// the Framer, the Value, the transmit queue and the Monitor.
type Device struct {
	Transport Transport
	Clock     Clock
	Framer    *Framer
	Values    *ValueStore
	Monitor   *Monitor
	Identity  Identity
	Faults    FaultHandler

	idBytes []byte
	rxBuf   [ValueSize + ChecksumSize]byte
	tx      []byte
	faults  uint
}

// NewDevice creates a Device.
func NewDevice(t Transport, clock Clock, led LED) *Device {
	d := &Device{
		Transport: t,
		Clock:     clock,
		Values:    NewValueStore(),
		Monitor:   NewMonitor(led),
	}
	d.Framer = NewFramer(clock, d)
	d.SetIdentity(NewIdentity(DefaultName, time.Now()))
	d.Monitor.Start(clock.NowMillis())
	return d
}

// SetIdentity replaces the identity, must be called before the device runs.
func (d *Device) SetIdentity(id Identity) {
	d.Identity, d.idBytes = id, id.Bytes()
}

// Transmit queues bytes for transmission. Bytes already queued are sent first.
func (d *Device) Transmit(data []byte) {
	d.tx = append(d.tx, data...)
}

// Pending returns the number of bytes waiting for transmission.
func (d *Device) Pending() int {
	return len(d.tx)
}

// FaultCount returns the number of receive faults so far.
func (d *Device) FaultCount() uint {
	return d.faults
}

// Tick runs one cycle of the device: at most one byte is transmitted,
// at most one byte is received, then the timers are checked.
func (d *Device) Tick() {
	d.serviceTx()
	if b, ok := d.Transport.RxByte(); ok {
		d.Framer.Receive(b)
	}
	now := d.Clock.NowMillis()
	if d.Framer.Expired(now) {
		d.rxFault()
	}
	d.Monitor.Tick(now)
}

// Control implements Controller.
func (d *Device) Control(fx.ControlContext) error {
	d.Tick()
	return nil
}

// AddToLoop implements LoopAdder.
func (d *Device) AddToLoop(loop *fx.Loop) {
	loop.AddController(d)
	if runnable, ok := d.Transport.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
}

// Run ticks the device every interval until ctx is done.
func (d *Device) Run(ctx context.Context, interval time.Duration) error {
	return fx.NewLoopWithInterval(interval).Add(d).Run(ctx)
}

func (d *Device) serviceTx() {
	if len(d.tx) == 0 {
		return
	}
	if err := d.Transport.TxByte(d.tx[0]); err != nil {
		if err == ErrTxFull {
			return
		}
		if err != ErrNotConnected {
			glog.Warningf("transmit error, drop %d bytes: %v", len(d.tx), err)
		}
		d.tx = d.tx[:0]
		return
	}
	if d.tx = d.tx[1:]; len(d.tx) == 0 {
		d.tx = nil
	}
}

func (d *Device) rxFault() {
	fault := Fault{Missing: d.Framer.ByteCount(), Err: d.Framer.Err()}
	if fault.Err != nil {
		fault.Code = ErrorCodeChecksum
	} else {
		fault.Code = uint(fault.Missing)
	}
	d.Framer.StartReceive(nil, nil)
	d.faults++
	d.Monitor.ReportError(fault.Code)
	if fault.Timeout() {
		glog.Warningf("receive timeout, %d bytes missing", fault.Missing)
	} else {
		glog.Warningf("receive failed: %v", fault.Err)
	}
	if h := d.Faults; h != nil {
		h.HandleFault(fault)
	}
}
