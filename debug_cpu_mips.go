// debug_cpu_mips.go - MIPS debug adapter wiring *System into the DebuggableCPU contract.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"strings"
	"sync"
	"sync/atomic"
)

// DebugMIPS adapts a whole System, not just the bare CPU, to
// DebuggableCPU: single-stepping through the debugger still has to clock
// timers and serial the same way runSlice does, or breakpoints set
// against timer/IRQ state would never trip.
type DebugMIPS struct {
	sys *System

	bpMu        sync.RWMutex
	breakpoints map[uint64]*ConditionalBreakpoint
	watchpoints map[uint64]*Watchpoint
	bpChan      chan<- BreakpointEvent
	cpuID       int
	trapRunning atomic.Bool
	trapStop    chan struct{}
}

// NewDebugMIPS wraps sys for debugger control. sys should already be Reset.
func NewDebugMIPS(sys *System) *DebugMIPS {
	return &DebugMIPS{
		sys:         sys,
		breakpoints: make(map[uint64]*ConditionalBreakpoint),
		watchpoints: make(map[uint64]*Watchpoint),
	}
}

func (d *DebugMIPS) CPUName() string   { return "MIPS R3000A" }
func (d *DebugMIPS) AddressWidth() int { return 32 }

func (d *DebugMIPS) GetRegisters() []RegisterInfo {
	c := d.sys.CPU
	out := make([]RegisterInfo, 0, 35)
	for i, name := range RegisterNames {
		out = append(out, RegisterInfo{Name: name, BitWidth: 32, Value: uint64(c.Reg.Read(uint8(i))), Group: "general"})
	}
	out = append(out,
		RegisterInfo{Name: "pc", BitWidth: 32, Value: uint64(c.pc), Group: "general"},
		RegisterInfo{Name: "hi", BitWidth: 32, Value: uint64(c.Reg.hi), Group: "general"},
		RegisterInfo{Name: "lo", BitWidth: 32, Value: uint64(c.Reg.lo), Group: "general"},
		RegisterInfo{Name: "sr", BitWidth: 32, Value: uint64(c.COP0.ReadData(12)), Group: "status"},
		RegisterInfo{Name: "cause", BitWidth: 32, Value: uint64(c.COP0.ReadData(13)), Group: "status"},
		RegisterInfo{Name: "epc", BitWidth: 32, Value: uint64(c.COP0.ReadData(14)), Group: "status"},
	)
	return out
}

func (d *DebugMIPS) gprIndex(name string) (uint8, bool) {
	name = strings.ToLower(name)
	for i, n := range RegisterNames {
		if n == name {
			return uint8(i), true
		}
	}
	return 0, false
}

func (d *DebugMIPS) GetRegister(name string) (uint64, bool) {
	c := d.sys.CPU
	switch strings.ToLower(name) {
	case "pc":
		return uint64(c.pc), true
	case "hi":
		return uint64(c.Reg.hi), true
	case "lo":
		return uint64(c.Reg.lo), true
	case "sr":
		return uint64(c.COP0.ReadData(12)), true
	case "cause":
		return uint64(c.COP0.ReadData(13)), true
	case "epc":
		return uint64(c.COP0.ReadData(14)), true
	}
	if idx, ok := d.gprIndex(name); ok {
		return uint64(c.Reg.Read(idx)), true
	}
	return 0, false
}

func (d *DebugMIPS) SetRegister(name string, value uint64) bool {
	c := d.sys.CPU
	switch strings.ToLower(name) {
	case "pc":
		c.pc = uint32(value)
		c.nextPC = c.pc + 4
		return true
	case "hi":
		c.Reg.hi = uint32(value)
		return true
	case "lo":
		c.Reg.lo = uint32(value)
		return true
	case "sr":
		c.COP0.WriteData(12, uint32(value))
		return true
	}
	if idx, ok := d.gprIndex(name); ok {
		c.Reg.Write(idx, uint32(value))
		return true
	}
	return false
}

func (d *DebugMIPS) GetPC() uint64     { return uint64(d.sys.CPU.pc) }
func (d *DebugMIPS) SetPC(addr uint64) { d.sys.CPU.pc = uint32(addr); d.sys.CPU.nextPC = uint32(addr) + 4 }

func (d *DebugMIPS) IsRunning() bool { return d.trapRunning.Load() }

func (d *DebugMIPS) Freeze() {
	if !d.trapRunning.Load() {
		return
	}
	close(d.trapStop)
	for d.trapRunning.Load() {
	}
}

// Resume starts the trap loop: a goroutine that single-steps the whole
// machine, checking breakpoints and watchpoints between instructions.
// There is no free-running mode separate from this — the debugger always
// single-steps once attached, trading throughput for the ability to trap.
func (d *DebugMIPS) Resume() {
	if d.trapRunning.Load() {
		return
	}
	d.trapStop = make(chan struct{})
	d.trapRunning.Store(true)
	go d.trapLoop()
}

func (d *DebugMIPS) trapLoop() {
	defer d.trapRunning.Store(false)
	for {
		select {
		case <-d.trapStop:
			return
		default:
		}

		pc := uint64(d.sys.CPU.pc)
		d.bpMu.RLock()
		bp := d.breakpoints[pc]
		d.bpMu.RUnlock()
		if bp != nil {
			bp.HitCount++
			if evaluateConditionWithHitCount(bp.Condition, d, bp.HitCount) {
				d.reportBreak(BreakpointEvent{CPUID: d.cpuID, Address: pc})
				return
			}
		}

		d.stepOnce()

		d.bpMu.RLock()
		for _, wp := range d.watchpoints {
			cur := d.ReadMemory(wp.Address, 1)
			if len(cur) == 0 || cur[0] == wp.LastValue {
				continue
			}
			old := wp.LastValue
			wp.LastValue = cur[0]
			d.bpMu.RUnlock()
			d.reportBreak(BreakpointEvent{
				CPUID: d.cpuID, Address: uint64(d.sys.CPU.pc),
				IsWatch: true, WatchAddr: wp.Address,
				WatchOldValue: old, WatchNewValue: cur[0],
			})
			return
		}
		d.bpMu.RUnlock()
	}
}

func (d *DebugMIPS) reportBreak(ev BreakpointEvent) {
	if d.bpChan != nil {
		select {
		case d.bpChan <- ev:
		default:
		}
	}
}

// stepOnce runs exactly one CPU instruction and clocks every peripheral
// by the cycles it was billed, mirroring clock.go's runSlice without its
// multi-instruction batching or excess-cycle carry (a debugger session
// single-steps; there is nothing to carry between steps).
func (d *DebugMIPS) stepOnce() int {
	sys := d.sys
	cycles := sys.CPU.Step()
	for _, t := range sys.Timers {
		t.ClockPulse(cycles)
	}
	sys.Serial.Clock(cycles)
	sys.CPU.COP0.SetHardwareIRQPending(sys.Interrupts.Pending())
	sys.checkShellReached()
	return int(cycles)
}

func (d *DebugMIPS) Step() int { return d.stepOnce() }

func (d *DebugMIPS) Disassemble(addr uint64, count int) []DisassembledLine {
	pc := uint64(d.sys.CPU.pc)
	lines := disassembleMIPS(d.ReadMemory, addr, count)
	for i := range lines {
		if lines[i].Address == pc {
			lines[i].IsPC = true
		}
	}
	return lines
}

func (d *DebugMIPS) SetBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints[addr] = &ConditionalBreakpoint{Address: addr}
	return true
}

func (d *DebugMIPS) SetConditionalBreakpoint(addr uint64, cond *BreakpointCondition) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints[addr] = &ConditionalBreakpoint{Address: addr, Condition: cond}
	return true
}

func (d *DebugMIPS) ClearBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	if _, ok := d.breakpoints[addr]; ok {
		delete(d.breakpoints, addr)
		return true
	}
	return false
}

func (d *DebugMIPS) ClearAllBreakpoints() {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints = make(map[uint64]*ConditionalBreakpoint)
}

func (d *DebugMIPS) ListBreakpoints() []uint64 {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	out := make([]uint64, 0, len(d.breakpoints))
	for addr := range d.breakpoints {
		out = append(out, addr)
	}
	return out
}

func (d *DebugMIPS) ListConditionalBreakpoints() []*ConditionalBreakpoint {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	out := make([]*ConditionalBreakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		out = append(out, bp)
	}
	return out
}

func (d *DebugMIPS) HasBreakpoint(addr uint64) bool {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	_, ok := d.breakpoints[addr]
	return ok
}

func (d *DebugMIPS) GetConditionalBreakpoint(addr uint64) *ConditionalBreakpoint {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	return d.breakpoints[addr]
}

func (d *DebugMIPS) SetWatchpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	cur := d.ReadMemory(addr, 1)
	var v byte
	if len(cur) == 1 {
		v = cur[0]
	}
	d.watchpoints[addr] = &Watchpoint{Address: addr, LastValue: v}
	return true
}

func (d *DebugMIPS) ClearWatchpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	if _, ok := d.watchpoints[addr]; ok {
		delete(d.watchpoints, addr)
		return true
	}
	return false
}

func (d *DebugMIPS) ClearAllWatchpoints() {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.watchpoints = make(map[uint64]*Watchpoint)
}

func (d *DebugMIPS) ListWatchpoints() []uint64 {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	out := make([]uint64, 0, len(d.watchpoints))
	for addr := range d.watchpoints {
		out = append(out, addr)
	}
	return out
}

func (d *DebugMIPS) ReadMemory(addr uint64, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		v, _ := d.sys.Bus.Read8(uint32(addr) + uint32(i))
		out[i] = v
	}
	return out
}

func (d *DebugMIPS) WriteMemory(addr uint64, data []byte) {
	for i, b := range data {
		d.sys.Bus.Write8(uint32(addr)+uint32(i), b)
	}
}

func (d *DebugMIPS) SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int) {
	d.bpChan = ch
	d.cpuID = cpuID
}
