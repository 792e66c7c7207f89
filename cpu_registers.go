// cpu_registers.go - MIPS R3000A general register file with load-delay slots.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// RegisterNames mirrors the conventional MIPS calling-convention aliases
// for r0..r31, used by the disassembler and debugger register dump.
var RegisterNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// pendingLoad is one entry of the two-slot load-delay pipeline.
type pendingLoad struct {
	valid bool
	reg   uint8
	value uint32
}

// Registers is the CPU's general-purpose register file plus HI/LO and
// the load-delay slot pair. Loads stage their destination through
// writeDelayed; every other instruction writes through write, which is
// visible immediately. The two-slot design (running, then committing)
// reproduces the hardware's one-instruction-late visibility of load
// results, including the same-register-drops-stale-load behavior.
type Registers struct {
	gpr [32]uint32
	hi  uint32
	lo  uint32

	running   pendingLoad // staged by the load currently executing
	committing pendingLoad // becomes visible at the start of the next instruction
}

// NewRegisters returns a register file reset to the CPU's cold-boot state.
func NewRegisters() *Registers {
	return &Registers{}
}

// Reset restores cold-boot state.
func (r *Registers) Reset() {
	*r = Registers{}
}

// Read returns the current value of general register idx. R0 always reads
// zero regardless of what write/writeDelayed has staged for it.
func (r *Registers) Read(idx uint8) uint32 {
	if idx == 0 {
		return 0
	}
	return r.gpr[idx]
}

// ReadLatest is like Read but also sees a value still sitting in the
// committing slot for idx. Used by LWL/LWR so a half-merged load can
// compose with a load still one cycle from landing in the same register.
func (r *Registers) ReadLatest(idx uint8) uint32 {
	if idx == 0 {
		return 0
	}
	if r.committing.valid && r.committing.reg == idx {
		return r.committing.value
	}
	return r.gpr[idx]
}

// Write stores data into general register idx immediately. Writes to R0
// are silently dropped. A write to a register with a load still in the
// committing slot cancels that load (the direct write wins).
func (r *Registers) Write(idx uint8, data uint32) {
	if idx == 0 {
		return
	}
	r.gpr[idx] = data
	if r.committing.valid && r.committing.reg == idx {
		r.committing.valid = false
	}
}

// WriteDelayed stages data to land in idx at the start of the next
// instruction. Only one load may be running at a time (the interpreter
// calls CommitDelayed between instructions to enforce this). If idx
// matches a load already sitting in the committing slot, that load is
// dropped in favor of the new one.
func (r *Registers) WriteDelayed(idx uint8, data uint32) {
	if r.committing.valid && r.committing.reg == idx {
		r.committing.valid = false
	}
	r.running = pendingLoad{valid: true, reg: idx, value: data}
}

// CommitDelayed promotes the committing slot's value into the register
// file (if any), then moves the running slot into the committing slot.
// Called once per instruction, after the instruction's own effects.
func (r *Registers) CommitDelayed() {
	if r.committing.valid {
		r.Write(r.committing.reg, r.committing.value)
	}
	r.committing = r.running
	r.running = pendingLoad{}
}

// FlushDelayed drains both delay slots immediately (used on exception
// entry, where the pipeline the slots model is discarded).
func (r *Registers) FlushDelayed() {
	r.CommitDelayed()
	r.CommitDelayed()
}
