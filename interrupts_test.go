package main

import "testing"

// TestInterruptWriteOneToClear exercises spec.md 8's invariant: after
// write(stat, x), new_stat = old_stat & x.
func TestInterruptWriteOneToClear(t *testing.T) {
	ic := NewInterruptController()
	ic.Raise(IRQVBlank | IRQGPU)
	ic.WriteStat(0xFFFFFFFE) // clear bit 0 (VBlank) only
	if got := ic.Stat(); got&IRQVBlank != 0 {
		t.Fatalf("Stat() = 0x%X, want VBlank cleared", got)
	}
	if got := ic.Stat(); got&IRQGPU == 0 {
		t.Fatalf("Stat() = 0x%X, want GPU untouched", got)
	}
}

// TestInterruptRoundTrip exercises spec.md 8's end-to-end scenario: unmask
// VBLANK, raise it, observe Pending()=true, then clear it via stat and
// confirm every other latched bit survives.
func TestInterruptRoundTrip(t *testing.T) {
	ic := NewInterruptController()
	ic.WriteMask(IRQVBlank)
	ic.Raise(IRQVBlank)
	if !ic.Pending() {
		t.Fatal("Pending() = false after raising an unmasked source")
	}
	ic.Raise(IRQCDROM) // masked, must not affect Pending but must still latch in stat
	ic.WriteStat(0xFFFE)
	if got := ic.Stat(); got&IRQVBlank != 0 {
		t.Fatalf("Stat() = 0x%X, want VBlank bit cleared", got)
	}
	if got := ic.Stat(); got&IRQCDROM == 0 {
		t.Fatalf("Stat() = 0x%X, want CDROM bit untouched by the write", got)
	}
	if ic.Pending() {
		t.Fatal("Pending() = true after clearing the only unmasked source")
	}
}

func TestInterruptMaskIsPlainOverwrite(t *testing.T) {
	ic := NewInterruptController()
	ic.WriteMask(IRQVBlank | IRQGPU)
	ic.WriteMask(IRQGPU)
	if got := ic.Mask(); got != IRQGPU {
		t.Fatalf("Mask() = 0x%X, want 0x%X (mask is a plain overwrite, not write-1-to-clear)", got, IRQGPU)
	}
}
