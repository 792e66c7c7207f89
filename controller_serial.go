// controller_serial.go - controller/memory-card serial link (JOY_*).

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// JoyControl (JOY_CTRL) bits.
const (
	joyCtrlTXEN       = 1 << 0
	joyCtrlSelect     = 1 << 1 // /JOYn select, asserted low on real hardware; 1 here means "selected"
	joyCtrlRXEN       = 1 << 2
	joyCtrlAck        = 1 << 4 // write 1 to acknowledge (clear IRQ7)
	joyCtrlReset      = 1 << 6 // soft reset
	joyCtrlRXIRQMode  = 3 << 8
	joyCtrlTXIRQEn    = 1 << 10
	joyCtrlRXIRQEn    = 1 << 11
	joyCtrlACKIRQEn   = 1 << 12
	joyCtrlPortSelect = 1 << 13 // 0 = port 1, 1 = port 2
)

// JoyStat (JOY_STAT) bits.
const (
	joyStatTXReady1 = 1 << 0
	joyStatRXReady  = 1 << 1
	joyStatTXReady2 = 1 << 2
	joyStatACKLevel = 1 << 7
	joyStatIRQ      = 1 << 9
)

// JoyDevice is the narrow contract a controller or memory card plugged
// into a port implements: one byte exchanged per clock, with ack
// reporting whether the device wants to keep the exchange going (it
// pulls the ACK line low a few cycles after each byte if so).
type JoyDevice interface {
	Select()
	Exchange(b uint8) (resp uint8, ack bool)
}

// ControllerSerial implements the JOY_CTRL/JOY_MODE/JOY_STAT/JOY_BAUD
// register quartet and the byte-at-a-time exchange state machine that
// drives whichever JoyDevice is plugged into the selected port.
type ControllerSerial struct {
	irqs *InterruptController

	ctrl uint32
	mode uint32
	baud uint16

	txFIFO  uint8
	txValid bool
	rxFIFO  uint8
	rxValid bool

	devicesPort1 []JoyDevice // index 0 = controller, index 1 = memory card
	devicesPort2 []JoyDevice

	baudCounter   int32
	exchangeIndex int
	ackPending    bool
	ackDelay      int32
}

// NewControllerSerial wires the interrupt controller and the two ports'
// device chains (either may be nil/empty for an unplugged port).
func NewControllerSerial(irqs *InterruptController, port1, port2 []JoyDevice) *ControllerSerial {
	return &ControllerSerial{irqs: irqs, devicesPort1: port1, devicesPort2: port2}
}

// Reset restores cold-boot state: nothing selected, FIFOs empty.
func (s *ControllerSerial) Reset() {
	s.ctrl, s.mode, s.baud = 0, 0, 0
	s.txFIFO, s.txValid = 0, false
	s.rxFIFO, s.rxValid = 0, false
	s.baudCounter, s.exchangeIndex = 0, 0
	s.ackPending, s.ackDelay = false, 0
}

func (s *ControllerSerial) activePort() []JoyDevice {
	if s.ctrl&joyCtrlPortSelect != 0 {
		return s.devicesPort2
	}
	return s.devicesPort1
}

// ReadData pops the received byte (or 0xFFFFFFFF if nothing has arrived).
func (s *ControllerSerial) ReadData() uint32 {
	if !s.rxValid {
		return 0xFFFFFFFF
	}
	v := s.rxFIFO
	s.rxValid = false
	return uint32(v)
}

// WriteData stages a byte for transmission, starting the exchange if the
// port is selected and TX is enabled.
func (s *ControllerSerial) WriteData(v uint32) {
	s.txFIFO = uint8(v)
	s.txValid = true
	if s.ctrl&joyCtrlTXEN == 0 || s.ctrl&joyCtrlSelect == 0 {
		return
	}
	devices := s.activePort()
	if s.exchangeIndex >= len(devices) {
		s.rxFIFO, s.rxValid = 0xFF, true
		s.txValid = false
		return
	}
	resp, ack := devices[s.exchangeIndex].Exchange(s.txFIFO)
	s.rxFIFO, s.rxValid = resp, true
	s.txValid = false
	if ack {
		// Same device keeps answering for the rest of this transaction;
		// exchangeIndex only ever moves at the next Select().
		s.ackPending = true
		s.ackDelay = 2
	} else {
		s.exchangeIndex = 0
	}
}

// Stat reconstructs JOY_STAT from FIFO/ACK state.
func (s *ControllerSerial) Stat() uint32 {
	v := uint32(0)
	if !s.txValid {
		v |= joyStatTXReady1 | joyStatTXReady2
	}
	if s.rxValid {
		v |= joyStatRXReady
	}
	if s.ackPending {
		v |= joyStatACKLevel
	}
	return v
}

func (s *ControllerSerial) Ctrl() uint32 { return s.ctrl }

// WriteCtrl applies JOY_CTRL. Bit 6 (soft reset) clears the FIFOs and
// exchange state but leaves JOY_MODE and the baud-rate reload untouched,
// per the resolved open question on soft-reset scope. Bit 4 (ACK) clears
// the IRQ7/latched-ACK condition.
func (s *ControllerSerial) WriteCtrl(v uint32) {
	if v&joyCtrlSelect != 0 && s.ctrl&joyCtrlSelect == 0 {
		s.exchangeIndex = 0
		devices := s.activePort()
		if len(devices) > 0 {
			devices[0].Select()
		}
	}
	if v&joyCtrlReset != 0 {
		s.txValid, s.rxValid = false, false
		s.exchangeIndex = 0
		s.ackPending = false
	}
	if v&joyCtrlAck != 0 {
		s.ackPending = false
	}
	s.ctrl = v &^ (joyCtrlReset | joyCtrlAck)
}

func (s *ControllerSerial) Mode() uint32      { return s.mode }
func (s *ControllerSerial) WriteMode(v uint32) { s.mode = v & 0x1FF }
func (s *ControllerSerial) Baud() uint32       { return uint32(s.baud) }
func (s *ControllerSerial) WriteBaud(v uint32) { s.baud = uint16(v) }

// Clock counts n system-clock cycles off the post-exchange ACK delay and
// fires the ACK interrupt once it elapses; it does not model a baud counter.
func (s *ControllerSerial) Clock(n uint32) {
	if !s.ackPending || s.ackDelay <= 0 {
		return
	}
	s.ackDelay -= int32(n)
	if s.ackDelay <= 0 {
		if s.ctrl&joyCtrlACKIRQEn != 0 {
			s.irqs.Raise(IRQControllerMemCard)
		}
	}
}
