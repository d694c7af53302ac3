package link

// Monitor timings in milliseconds.
const (
	// HeartbeatPeriod is the phase length while there's no error.
	HeartbeatPeriod uint32 = 1000 / 7
	// ErrorBlinkPeriod is the phase length while displaying an error.
	ErrorBlinkPeriod uint32 = 250
	// MonitorPhases is the number of phases in a display cycle.
	MonitorPhases = 16
	// ErrorDisplayCycles is the number of cycles an error is shown.
	ErrorDisplayCycles = 10
)

// LED is the status indicator driven by Monitor.
type LED interface {
	Set(on bool)
}

// LEDFunc is func type of LED.
type LEDFunc func(on bool)

// Set implements LED.
func (f LEDFunc) Set(on bool) {
	f(on)
}

// Monitor renders the link health on an LED.
//
// Without an error it shows a heartbeat: three short beats then a pause.
// After a fault it blinks the error code (one blink per unit, codes above
// 7 fill the whole cycle) for ErrorDisplayCycles cycles, then goes back
// to the heartbeat.
type Monitor struct {
	LED LED

	timer   Deadline
	phase   int
	code    uint
	display int
}

// NewMonitor creates a Monitor.
func NewMonitor(led LED) *Monitor {
	return &Monitor{LED: led}
}

// Start starts the heartbeat.
func (m *Monitor) Start(now Millis) {
	m.timer.Set(now, HeartbeatPeriod)
}

// ReportError starts displaying code from the beginning of a cycle.
func (m *Monitor) ReportError(code uint) {
	m.code, m.phase, m.display = code, 0, ErrorDisplayCycles
}

// ErrorCode returns the error being displayed, ErrorCodeNone if none.
func (m *Monitor) ErrorCode() uint {
	return m.code
}

// Phase returns the current display phase.
func (m *Monitor) Phase() int {
	return m.phase
}

// Tick advances the display when the phase timer expires.
func (m *Monitor) Tick(now Millis) {
	if !m.timer.Expired(now) {
		return
	}
	if m.code != ErrorCodeNone {
		m.set(m.phase&1 == 0 && uint(m.phase/2) < m.code)
	} else {
		switch m.phase {
		case 0, 2, 4:
			m.set(true)
		case 1, 3, 5:
			m.set(false)
		}
	}
	if m.phase++; m.phase >= MonitorPhases {
		m.phase = 0
		if m.display > 0 {
			if m.display--; m.display == 0 {
				m.code = ErrorCodeNone
			}
		}
	}
	period := HeartbeatPeriod
	if m.code != ErrorCodeNone {
		period = ErrorBlinkPeriod
	}
	m.timer.Reset(now, period)
}

func (m *Monitor) set(on bool) {
	if m.LED != nil {
		m.LED.Set(on)
	}
}
