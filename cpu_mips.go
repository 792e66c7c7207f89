// cpu_mips.go - MIPS R3000A interpreter: fetch/decode/execute, branch and load delay slots, exceptions.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import "log"

// CPU is the interpreted R3000A core. PC tracking follows the classic
// two-register trick for modeling the branch-delay slot without a real
// pipeline: pc is the address of the instruction about to execute,
// nextPC is what pc becomes afterward (ordinarily pc+4, or a branch
// target once a branch/jump has resolved). currentIsDelaySlot/
// nextIsDelaySlot shadow the same pair so EnterException can report
// whether the faulting instruction sat in a delay slot.
type CPU struct {
	Reg  *Registers
	COP0 *COP0
	GTE  *GTE
	bus  Bus

	pc     uint32
	nextPC uint32

	currentIsDelaySlot bool
	nextIsDelaySlot    bool
}

// NewCPU wires a fresh interpreter to bus, with every sub-unit at its
// cold-boot state.
func NewCPU(bus Bus) *CPU {
	c := &CPU{
		Reg:  NewRegisters(),
		COP0: NewCOP0(),
		GTE:  NewGTE(),
		bus:  bus,
	}
	c.Reset()
	return c
}

// Reset restores cold-boot state: PC at the BIOS reset vector, no
// pending branch or load.
func (c *CPU) Reset() {
	c.Reg.Reset()
	c.COP0.Reset()
	c.GTE.Reset()
	c.pc = 0xBFC00000
	c.nextPC = c.pc + 4
	c.currentIsDelaySlot = false
	c.nextIsDelaySlot = false
}

// Step executes exactly one instruction and returns the number of CPU
// cycles it is billed for (a flat 1; the interpreter has no pipeline
// model finer than that, matching the component's documented share of
// effort going to correctness of delay slots and exceptions rather than
// cycle-exact timing).
func (c *CPU) Step() uint32 {
	pc := c.pc
	inDelaySlot := c.currentIsDelaySlot

	c.pc = c.nextPC
	c.nextPC = c.pc + 4
	c.nextIsDelaySlot = false

	if pc%4 != 0 {
		c.raise(ExcAddressErrorLoad, pc, inDelaySlot, pc, 0)
		return 1
	}

	word, ok := c.bus.Read32(pc)
	if !ok {
		c.raise(ExcBusErrorFetch, pc, inDelaySlot, pc, 0)
		return 1
	}

	in := DecodeInstruction(pc, word)
	c.execute(in, inDelaySlot)
	c.currentIsDelaySlot = c.nextIsDelaySlot
	c.Reg.CommitDelayed()
	return 1
}

// raise drives an exception: flush the load-delay pipeline (it belongs to
// the instruction stream being abandoned), ask COP0 for the vector, and
// jump there with no further delay slot. The GuestException value never
// escapes this function; it exists so Code and BadAddr travel together
// instead of as two loose parameters.
func (c *CPU) raise(code ExcCode, epc uint32, inDelaySlot bool, badAddr uint32, copNo uint8) {
	exc := guestExcAddr(code, badAddr)
	if exc.Code == ExcBusErrorFetch || exc.Code == ExcBusErrorData {
		log.Printf("cpu: %v at pc=%#08x", exc, epc)
	}

	c.Reg.FlushDelayed()
	vector := c.COP0.EnterException(exc.Code, epc, inDelaySlot, exc.BadAddr, copNo)
	c.pc = vector
	c.nextPC = vector + 4
	c.currentIsDelaySlot = false
	c.nextIsDelaySlot = false
}

// CheckInterrupt asks COP0 whether a hardware or software interrupt is
// outstanding and, if so, raises it in place of executing the next
// instruction. The top-level clock calls this once per instruction
// boundary; COP0's hardware-IRQ latch it consults is refreshed from the
// interrupt controller at the end of each slice.
func (c *CPU) CheckInterrupt() bool {
	if !c.COP0.PendingIRQ() {
		return false
	}
	c.raise(ExcInterrupt, c.pc, c.currentIsDelaySlot, 0, 0)
	return true
}

func (c *CPU) branch(target uint32) {
	c.nextPC = target
	c.nextIsDelaySlot = true
}

func (c *CPU) execute(in Instruction, inDelaySlot bool) {
	switch in.Op {
	case OpNop, OpInvalid:
		if in.Op == OpInvalid {
			c.raise(ExcReservedInstr, in.PC, inDelaySlot, 0, 0)
		}

	case OpLui:
		c.Reg.Write(in.Rt, uint32(in.Imm16())<<16)

	case OpOri:
		c.Reg.Write(in.Rt, c.Reg.Read(in.Rs)|uint32(in.Imm16()))
	case OpAndi:
		c.Reg.Write(in.Rt, c.Reg.Read(in.Rs)&uint32(in.Imm16()))
	case OpXori:
		c.Reg.Write(in.Rt, c.Reg.Read(in.Rs)^uint32(in.Imm16()))

	case OpAddi:
		a := int32(c.Reg.Read(in.Rs))
		b := in.SImm16()
		sum := a + b
		if overflowsAdd(a, b, sum) {
			c.raise(ExcOverflow, in.PC, inDelaySlot, 0, 0)
			return
		}
		c.Reg.Write(in.Rt, uint32(sum))
	case OpAddiu:
		c.Reg.Write(in.Rt, c.Reg.Read(in.Rs)+uint32(in.SImm16()))

	case OpSlti:
		if int32(c.Reg.Read(in.Rs)) < in.SImm16() {
			c.Reg.Write(in.Rt, 1)
		} else {
			c.Reg.Write(in.Rt, 0)
		}
	case OpSltiu:
		if c.Reg.Read(in.Rs) < uint32(in.SImm16()) {
			c.Reg.Write(in.Rt, 1)
		} else {
			c.Reg.Write(in.Rt, 0)
		}

	case OpSll:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rt)<<in.Shamt())
	case OpSrl:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rt)>>in.Shamt())
	case OpSra:
		c.Reg.Write(in.Rd, uint32(int32(c.Reg.Read(in.Rt))>>in.Shamt()))
	case OpSllv:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rt)<<(c.Reg.Read(in.Rs)&0x1F))
	case OpSrlv:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rt)>>(c.Reg.Read(in.Rs)&0x1F))
	case OpSrav:
		c.Reg.Write(in.Rd, uint32(int32(c.Reg.Read(in.Rt))>>(c.Reg.Read(in.Rs)&0x1F)))

	case OpAdd:
		a := int32(c.Reg.Read(in.Rs))
		b := int32(c.Reg.Read(in.Rt))
		sum := a + b
		if overflowsAdd(a, b, sum) {
			c.raise(ExcOverflow, in.PC, inDelaySlot, 0, 0)
			return
		}
		c.Reg.Write(in.Rd, uint32(sum))
	case OpAddu:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rs)+c.Reg.Read(in.Rt))
	case OpSub:
		a := int32(c.Reg.Read(in.Rs))
		b := int32(c.Reg.Read(in.Rt))
		diff := a - b
		if overflowsSub(a, b, diff) {
			c.raise(ExcOverflow, in.PC, inDelaySlot, 0, 0)
			return
		}
		c.Reg.Write(in.Rd, uint32(diff))
	case OpSubu:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rs)-c.Reg.Read(in.Rt))
	case OpAnd:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rs)&c.Reg.Read(in.Rt))
	case OpOr:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rs)|c.Reg.Read(in.Rt))
	case OpXor:
		c.Reg.Write(in.Rd, c.Reg.Read(in.Rs)^c.Reg.Read(in.Rt))
	case OpNor:
		c.Reg.Write(in.Rd, ^(c.Reg.Read(in.Rs) | c.Reg.Read(in.Rt)))
	case OpSlt:
		if int32(c.Reg.Read(in.Rs)) < int32(c.Reg.Read(in.Rt)) {
			c.Reg.Write(in.Rd, 1)
		} else {
			c.Reg.Write(in.Rd, 0)
		}
	case OpSltu:
		if c.Reg.Read(in.Rs) < c.Reg.Read(in.Rt) {
			c.Reg.Write(in.Rd, 1)
		} else {
			c.Reg.Write(in.Rd, 0)
		}

	case OpMfhi:
		c.Reg.Write(in.Rd, c.Reg.hi)
	case OpMthi:
		c.Reg.hi = c.Reg.Read(in.Rs)
	case OpMflo:
		c.Reg.Write(in.Rd, c.Reg.lo)
	case OpMtlo:
		c.Reg.lo = c.Reg.Read(in.Rs)

	case OpMult:
		a := int64(int32(c.Reg.Read(in.Rs)))
		b := int64(int32(c.Reg.Read(in.Rt)))
		p := uint64(a * b)
		c.Reg.hi, c.Reg.lo = uint32(p>>32), uint32(p)
	case OpMultu:
		p := uint64(c.Reg.Read(in.Rs)) * uint64(c.Reg.Read(in.Rt))
		c.Reg.hi, c.Reg.lo = uint32(p>>32), uint32(p)

	case OpDiv:
		n := int32(c.Reg.Read(in.Rs))
		d := int32(c.Reg.Read(in.Rt))
		switch {
		case d == 0:
			c.Reg.lo = 0xFFFFFFFF
			if n >= 0 {
				c.Reg.lo = 1
			}
			c.Reg.hi = uint32(n)
		case n == -0x80000000 && d == -1:
			c.Reg.lo = 0x80000000
			c.Reg.hi = 0
		default:
			c.Reg.lo = uint32(n / d)
			c.Reg.hi = uint32(n % d)
		}
	case OpDivu:
		n := c.Reg.Read(in.Rs)
		d := c.Reg.Read(in.Rt)
		if d == 0 {
			c.Reg.lo = 0xFFFFFFFF
			c.Reg.hi = n
		} else {
			c.Reg.lo = n / d
			c.Reg.hi = n % d
		}

	case OpJ:
		target := (c.pc & 0xF0000000) | (in.Imm26() << 2)
		c.branch(target)
	case OpJal:
		c.Reg.Write(31, c.nextPC)
		target := (c.pc & 0xF0000000) | (in.Imm26() << 2)
		c.branch(target)
	case OpJr:
		c.branch(c.Reg.Read(in.Rs))
	case OpJalr:
		ret := c.nextPC
		c.branch(c.Reg.Read(in.Rs))
		c.Reg.Write(in.Rd, ret)

	case OpBeq:
		if c.Reg.Read(in.Rs) == c.Reg.Read(in.Rt) {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBne:
		if c.Reg.Read(in.Rs) != c.Reg.Read(in.Rt) {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBlez:
		if int32(c.Reg.Read(in.Rs)) <= 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBgtz:
		if int32(c.Reg.Read(in.Rs)) > 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBltz:
		if int32(c.Reg.Read(in.Rs)) < 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBgez:
		if int32(c.Reg.Read(in.Rs)) >= 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBltzal:
		c.Reg.Write(31, c.nextPC)
		if int32(c.Reg.Read(in.Rs)) < 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}
	case OpBgezal:
		c.Reg.Write(31, c.nextPC)
		if int32(c.Reg.Read(in.Rs)) >= 0 {
			c.branch(branchTarget(in.PC, in.SImm16()))
		}

	case OpSyscall:
		c.raise(ExcSyscall, in.PC, inDelaySlot, 0, 0)
	case OpBreak:
		c.raise(ExcBreak, in.PC, inDelaySlot, 0, 0)

	case OpLb, OpLbu, OpLh, OpLhu, OpLw, OpLwl, OpLwr:
		c.execLoad(in, inDelaySlot)
	case OpSb, OpSh, OpSw, OpSwl, OpSwr:
		c.execStore(in, inDelaySlot)

	case OpLwc0, OpLwc1, OpLwc2, OpLwc3:
		c.execLwc(in, inDelaySlot)
	case OpSwc0, OpSwc1, OpSwc2, OpSwc3:
		c.execSwc(in, inDelaySlot)

	case OpMfc, OpCfc, OpMtc, OpCtc, OpBcf, OpBct, OpCop, OpRfe:
		c.execCop(in, inDelaySlot)

	default:
		c.raise(ExcReservedInstr, in.PC, inDelaySlot, 0, 0)
	}
}

// branchTarget computes a conditional branch's destination from the
// branch instruction's own fetch address: target = pc + 4 + offset*4,
// the address of the delay slot plus the sign-extended word offset.
func branchTarget(pc uint32, offset int32) uint32 {
	return uint32(int32(pc) + 4 + offset*4)
}

func overflowsAdd(a, b, sum int32) bool {
	return (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum > 0)
}

func overflowsSub(a, b, diff int32) bool {
	return (a >= 0 && b < 0 && diff < 0) || (a < 0 && b >= 0 && diff >= 0)
}

func (c *CPU) execLoad(in Instruction, inDelaySlot bool) {
	addr := c.Reg.Read(in.Rs) + uint32(in.SImm16())

	switch in.Op {
	case OpLb:
		v, ok := c.bus.Read8(addr)
		if !ok {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
			return
		}
		c.Reg.WriteDelayed(in.Rt, uint32(int32(int8(v))))
	case OpLbu:
		v, ok := c.bus.Read8(addr)
		if !ok {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
			return
		}
		c.Reg.WriteDelayed(in.Rt, uint32(v))
	case OpLh:
		if addr%2 != 0 {
			c.raise(ExcAddressErrorLoad, in.PC, inDelaySlot, addr, 0)
			return
		}
		v, ok := c.bus.Read16(addr)
		if !ok {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
			return
		}
		c.Reg.WriteDelayed(in.Rt, uint32(int32(int16(v))))
	case OpLhu:
		if addr%2 != 0 {
			c.raise(ExcAddressErrorLoad, in.PC, inDelaySlot, addr, 0)
			return
		}
		v, ok := c.bus.Read16(addr)
		if !ok {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
			return
		}
		c.Reg.WriteDelayed(in.Rt, uint32(v))
	case OpLw:
		if addr%4 != 0 {
			c.raise(ExcAddressErrorLoad, in.PC, inDelaySlot, addr, 0)
			return
		}
		v, ok := c.bus.Read32(addr)
		if !ok {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
			return
		}
		c.Reg.WriteDelayed(in.Rt, v)
	case OpLwl, OpLwr:
		c.execLwlr(in, addr)
	}
}

// execLwlr implements the unaligned-word loads by merging a word-aligned
// fetch with the bytes already staged for the target register (including
// one still in flight via the load-delay pipeline), matching the R3000A's
// documented byte-merge behavior.
func (c *CPU) execLwlr(in Instruction, addr uint32) {
	aligned := addr &^ 3
	word, ok := c.bus.Read32(aligned)
	if !ok {
		return
	}
	cur := c.Reg.ReadLatest(in.Rt)
	shift := (addr & 3) * 8

	var merged uint32
	if in.Op == OpLwl {
		merged = (cur & (0x00FFFFFF >> shift)) | (word << (24 - shift))
	} else {
		merged = (cur &^ (0xFFFFFFFF >> shift)) | (word >> shift)
	}
	c.Reg.WriteDelayed(in.Rt, merged)
}

func (c *CPU) execStore(in Instruction, inDelaySlot bool) {
	addr := c.Reg.Read(in.Rs) + uint32(in.SImm16())
	if c.COP0.CacheIsolated() && physicalAddress(addr) < 0x800000 {
		return // instruction-cache fill emulation: stores aimed at main RAM are swallowed
	}

	switch in.Op {
	case OpSb:
		if !c.bus.Write8(addr, uint8(c.Reg.Read(in.Rt))) {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
		}
	case OpSh:
		if addr%2 != 0 {
			c.raise(ExcAddressErrorStore, in.PC, inDelaySlot, addr, 0)
			return
		}
		if !c.bus.Write16(addr, uint16(c.Reg.Read(in.Rt))) {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
		}
	case OpSw:
		if addr%4 != 0 {
			c.raise(ExcAddressErrorStore, in.PC, inDelaySlot, addr, 0)
			return
		}
		if !c.bus.Write32(addr, c.Reg.Read(in.Rt)) {
			c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
		}
	case OpSwl, OpSwr:
		c.execSwlr(in, addr)
	}
}

func (c *CPU) execSwlr(in Instruction, addr uint32) {
	aligned := addr &^ 3
	word, ok := c.bus.Read32(aligned)
	if !ok {
		return
	}
	v := c.Reg.Read(in.Rt)
	shift := (addr & 3) * 8

	var merged uint32
	if in.Op == OpSwl {
		merged = (word &^ (0xFFFFFFFF >> (24 - shift))) | (v >> (24 - shift))
	} else {
		merged = (word & (0x00FFFFFF >> (24 - shift))) | (v << shift)
	}
	c.bus.Write32(aligned, merged)
}

// execLwc/execSwc implement LWC0-3/SWC0-3: word transfers between memory
// and a coprocessor data register. Only COP0 and COP2 (GTE) are
// populated; COP1/COP3 have no backing coprocessor and always fault.
func (c *CPU) execLwc(in Instruction, inDelaySlot bool) {
	if in.CopN == 1 || in.CopN == 3 {
		c.raise(ExcCoprocessorUnusable, in.PC, inDelaySlot, 0, in.CopN)
		return
	}
	addr := c.Reg.Read(in.Rs) + uint32(in.SImm16())
	if addr%4 != 0 {
		c.raise(ExcAddressErrorLoad, in.PC, inDelaySlot, addr, 0)
		return
	}
	v, ok := c.bus.Read32(addr)
	if !ok {
		c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
		return
	}
	if in.CopN == 0 {
		c.COP0.WriteData(in.Rt, v)
	} else {
		c.GTE.WriteData(in.Rt, v)
	}
}

func (c *CPU) execSwc(in Instruction, inDelaySlot bool) {
	if in.CopN == 1 || in.CopN == 3 {
		c.raise(ExcCoprocessorUnusable, in.PC, inDelaySlot, 0, in.CopN)
		return
	}
	addr := c.Reg.Read(in.Rs) + uint32(in.SImm16())
	if addr%4 != 0 {
		c.raise(ExcAddressErrorStore, in.PC, inDelaySlot, addr, 0)
		return
	}
	var v uint32
	if in.CopN == 0 {
		v = c.COP0.ReadData(in.Rt)
	} else {
		v = c.GTE.ReadData(in.Rt)
	}
	if !c.bus.Write32(addr, v) {
		c.raise(ExcBusErrorData, in.PC, inDelaySlot, addr, 0)
	}
}

// execCop dispatches MFC/CFC/MTC/CTC/COP-function/RFE across the two
// populated coprocessors. COP1 and COP3 are always reserved: the PSX
// never fitted either slot with silicon.
func (c *CPU) execCop(in Instruction, inDelaySlot bool) {
	if in.Op == OpBcf || in.Op == OpBct {
		// Conditional branch on a coprocessor condition line: neither COP0
		// nor the GTE drives one, so these never take.
		return
	}

	if in.CopN == 1 || in.CopN == 3 {
		c.raise(ExcCoprocessorUnusable, in.PC, inDelaySlot, 0, in.CopN)
		return
	}

	switch in.Op {
	case OpMfc:
		var v uint32
		if in.CopN == 0 {
			v = c.COP0.ReadData(in.Rd)
		} else {
			v = c.GTE.ReadData(in.Rd)
		}
		c.Reg.WriteDelayed(in.Rt, v)
	case OpCfc:
		var v uint32
		if in.CopN == 0 {
			v = c.COP0.ReadData(in.Rd)
		} else {
			v = c.GTE.ReadCtrl(in.Rd)
		}
		c.Reg.WriteDelayed(in.Rt, v)
	case OpMtc:
		v := c.Reg.Read(in.Rt)
		if in.CopN == 0 {
			c.COP0.WriteData(in.Rd, v)
		} else {
			c.GTE.WriteData(in.Rd, v)
		}
	case OpCtc:
		v := c.Reg.Read(in.Rt)
		if in.CopN == 0 {
			c.COP0.WriteData(in.Rd, v)
		} else {
			c.GTE.WriteCtrl(in.Rd, v)
		}
	case OpRfe:
		c.COP0.ReturnFromException()
	case OpCop:
		if in.CopN == 2 {
			c.GTE.Execute(in.Word)
		}
	}
}
