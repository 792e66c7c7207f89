package main

import (
	"os"
	"testing"
)

func TestDebugAddressParsing(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
		ok    bool
	}{
		{"$1000", 0x1000, true},
		{"0x1000", 0x1000, true},
		{"1000", 0x1000, true},
		{"#4096", 4096, true},
		{"$DEAD", 0xDEAD, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAddress(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseAddress(%q) = (%X, %v), want (%X, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDebugConditionRegisterEqual(t *testing.T) {
	sys := newTestSystem(t)
	d := NewDebugMIPS(sys)
	d.SetRegister("t0", 5)

	cond, err := ParseCondition("t0==$5")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !evaluateConditionWithHitCount(cond, d, 1) {
		t.Fatal("condition t0==5 should hold when t0 is 5")
	}
	d.SetRegister("t0", 6)
	if evaluateConditionWithHitCount(cond, d, 1) {
		t.Fatal("condition t0==5 should not hold when t0 is 6")
	}
}

func TestDebugConditionHitCount(t *testing.T) {
	cond, err := ParseCondition("hitcount>=3")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	sys := newTestSystem(t)
	d := NewDebugMIPS(sys)
	if evaluateConditionWithHitCount(cond, d, 2) {
		t.Fatal("hitcount>=3 should not hold at hit 2")
	}
	if !evaluateConditionWithHitCount(cond, d, 3) {
		t.Fatal("hitcount>=3 should hold at hit 3")
	}
}

// TestDebugBreakpointTrap steps a CPU executing NOPs and confirms a
// breakpoint placed a few instructions ahead is what stops the trap loop.
func TestDebugBreakpointTrap(t *testing.T) {
	sys := newTestSystem(t)
	d := NewDebugMIPS(sys)

	base := uint32(0x80010000)
	for i := uint32(0); i < 8; i++ {
		sys.Bus.Write32(base+i*4, 0) // nop
	}
	d.SetPC(uint64(base))

	target := uint64(base + 4*4)
	d.SetBreakpoint(target)

	events := make(chan BreakpointEvent, 1)
	d.SetBreakpointChannel(events, 0)
	d.Resume()

	ev := <-events
	if ev.Address != target {
		t.Fatalf("breakpoint fired at %#08x, want %#08x", ev.Address, target)
	}
	d.Freeze()
}

func TestDebugRegisterReadWrite(t *testing.T) {
	sys := newTestSystem(t)
	d := NewDebugMIPS(sys)

	if ok := d.SetRegister("a0", 0x1234); !ok {
		t.Fatal("SetRegister(a0) failed")
	}
	v, ok := d.GetRegister("a0")
	if !ok || v != 0x1234 {
		t.Fatalf("GetRegister(a0) = (%#x, %v), want (0x1234, true)", v, ok)
	}
	if _, ok := d.GetRegister("not-a-register"); ok {
		t.Fatal("GetRegister should fail for an unknown name")
	}
}

func TestDisassembleMIPSNop(t *testing.T) {
	mem := make([]byte, 16)
	readMem := func(addr uint64, size int) []byte {
		if int(addr)+size > len(mem) {
			return nil
		}
		return mem[addr : int(addr)+size]
	}
	lines := disassembleMIPS(readMem, 0, 4)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for _, l := range lines {
		if l.Mnemonic != "nop" {
			t.Fatalf("mnemonic = %q, want nop", l.Mnemonic)
		}
	}
}

func TestDebugScriptRegisterRoundTrip(t *testing.T) {
	sys := newTestSystem(t)
	d := NewDebugMIPS(sys)
	scripts := NewDebugScripts(d)

	script := t.TempDir() + "/t.lua"
	if err := os.WriteFile(script, []byte(`setreg("t1", 42)`), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := scripts.RunFile(script); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	v, _ := d.GetRegister("t1")
	if v != 42 {
		t.Fatalf("t1 = %d, want 42", v)
	}
}
