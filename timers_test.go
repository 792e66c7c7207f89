package main

import "testing"

// TestTimerModeReadClearsLatches exercises spec.md 8's invariant: reading
// the mode register clears REACHED_TARGET and REACHED_FFFF in the value
// retained by the timer, even though the returned snapshot still carries
// them.
func TestTimerModeReadClearsLatches(t *testing.T) {
	irqs := NewInterruptController()
	tm := NewTimer(0, irqs)
	tm.WriteTarget(10)
	tm.WriteMode(tmIRQOnTarget)
	tm.ClockPulse(10)

	mode := tm.ReadMode()
	if mode&tmReachedTgt == 0 {
		t.Fatalf("ReadMode() = 0x%X, want REACHED_TARGET set in the returned snapshot", mode)
	}
	if got := tm.ReadMode(); got&tmReachedTgt != 0 {
		t.Fatalf("second ReadMode() = 0x%X, want REACHED_TARGET cleared by the first read", got)
	}
}

// TestTimer2DivEightClockSource exercises spec.md 8's end-to-end scenario:
// timer 2 configured with clk_source bit 1 set (system clock / 8), clocked
// with 64 cycles seven times, yields a counter of exactly 56; with the
// target then set to 64 and reset-after-target enabled, eight more such
// ticks reach the target and the counter returns to 0 after the last one.
func TestTimer2DivEightClockSource(t *testing.T) {
	irqs := NewInterruptController()
	tm := NewTimer(2, irqs)
	tm.WriteMode(tmClockSrcMask & (2 << 8)) // clk_source bit 1 set: system clock / 8
	for i := 0; i < 7; i++ {
		tm.ClockPulse(64)
	}
	if got := tm.ReadCounter(); got != 56 {
		t.Fatalf("counter after 7*64 / 8 cycles = %d, want 56", got)
	}

	tm.WriteTarget(64)
	tm.WriteMode((2 << 8) | tmResetOnTgt)
	for i := 0; i < 8; i++ {
		tm.ClockPulse(64)
	}
	if got := tm.ReadCounter(); got != 0 {
		t.Fatalf("counter after reaching target with reset-on-target = %d, want 0", got)
	}
}

func TestTimerIRQOneShotFiresOnce(t *testing.T) {
	irqs := NewInterruptController()
	tm := NewTimer(1, irqs)
	tm.WriteTarget(5)
	tm.WriteMode(tmIRQOnTarget) // repeat bit clear: one-shot
	tm.ClockPulse(5)
	if irqs.Stat()&IRQTimer1 == 0 {
		t.Fatal("timer did not raise its IRQ on first reaching target")
	}
	irqs.WriteStat(^uint32(IRQTimer1)) // clear it back down for the next check

	tm.ClockPulse(0xFFFF) // wraps through target again without a mode-register write
	if irqs.Stat()&IRQTimer1 != 0 {
		t.Fatal("one-shot timer fired a second time without the mode register being rewritten")
	}
}
