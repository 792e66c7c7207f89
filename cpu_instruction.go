// cpu_instruction.go - MIPS R3000A instruction decode.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// Opcode is the closed set of decoded instruction forms the interpreter
// dispatches on. Secondary and Invalid are sentinels that never reach the
// interpreter's main switch directly — OpSecondary triggers a second
// table lookup, Invalid raises a Reserved Instruction exception.
type Opcode int

const (
	OpInvalid Opcode = iota
	OpSecondary
	OpNop

	// Primary: branches and jumps
	OpBcondz
	OpJ
	OpJal
	OpBeq
	OpBne
	OpBlez
	OpBgtz

	// Primary: immediate ALU
	OpAddi
	OpAddiu
	OpSlti
	OpSltiu
	OpAndi
	OpOri
	OpXori
	OpLui

	// Primary: loads/stores
	OpLb
	OpLh
	OpLwl
	OpLw
	OpLbu
	OpLhu
	OpLwr
	OpSb
	OpSh
	OpSwl
	OpSw
	OpSwr
	OpLwc0
	OpLwc1
	OpLwc2
	OpLwc3
	OpSwc0
	OpSwc1
	OpSwc2
	OpSwc3

	// Secondary: shifts
	OpSll
	OpSrl
	OpSra
	OpSllv
	OpSrlv
	OpSrav

	// Secondary: jumps/syscall
	OpJr
	OpJalr
	OpSyscall
	OpBreak

	// Secondary: hi/lo move
	OpMfhi
	OpMthi
	OpMflo
	OpMtlo

	// Secondary: mult/div
	OpMult
	OpMultu
	OpDiv
	OpDivu

	// Secondary: ALU reg-reg
	OpAdd
	OpAddu
	OpSub
	OpSubu
	OpAnd
	OpOr
	OpXor
	OpNor
	OpSlt
	OpSltu

	// Coprocessor family (n carried in Instruction.CopN)
	OpMfc
	OpCfc
	OpMtc
	OpCtc
	OpBcf
	OpBct
	OpCop
	OpRfe

	// Bcondz sub-forms
	OpBltz
	OpBgez
	OpBltzal
	OpBgezal
)

// Instruction is a decoded 32-bit word: the original bits, the PC it was
// fetched from, the resolved opcode, and the raw 5-bit register fields.
// Immediates are derived on demand rather than stored, matching the
// original's treatment of them as views over the word rather than
// separately materialized fields.
type Instruction struct {
	PC   uint32
	Word uint32
	Op   Opcode
	CopN uint8 // which coprocessor (0-3), valid for Mfc/Cfc/Mtc/Ctc/Bcf/Bct/Cop/Rfe/Lwc*/Swc*

	Rs uint8
	Rt uint8
	Rd uint8
}

func (i Instruction) Shamt() uint8  { return uint8(i.Word>>6) & 0x1F }
func (i Instruction) Imm16() uint16 { return uint16(i.Word) }
func (i Instruction) SImm16() int32 { return int32(int16(i.Word)) }
func (i Instruction) Imm25() uint32 { return i.Word & 0x01FFFFFF }
func (i Instruction) Imm26() uint32 { return i.Word & 0x03FFFFFF }
func (i Instruction) Funct() uint8  { return uint8(i.Word) & 0x3F }

// primaryOpcodes is the 64-entry table indexed by bits 31-26. Shape and
// contents ported from the reference interpreter's instruction table.
var primaryOpcodes = [64]Opcode{
	0x00: OpSecondary,
	0x01: OpBcondz,
	0x02: OpJ,
	0x03: OpJal,
	0x04: OpBeq,
	0x05: OpBne,
	0x06: OpBlez,
	0x07: OpBgtz,
	0x08: OpAddi,
	0x09: OpAddiu,
	0x0A: OpSlti,
	0x0B: OpSltiu,
	0x0C: OpAndi,
	0x0D: OpOri,
	0x0E: OpXori,
	0x0F: OpLui,
	0x10: OpCop, // COP0
	0x11: OpCop, // COP1
	0x12: OpCop, // COP2
	0x13: OpCop, // COP3
	0x20: OpLb,
	0x21: OpLh,
	0x22: OpLwl,
	0x23: OpLw,
	0x24: OpLbu,
	0x25: OpLhu,
	0x26: OpLwr,
	0x28: OpSb,
	0x29: OpSh,
	0x2A: OpSwl,
	0x2B: OpSw,
	0x2E: OpSwr,
	0x30: OpLwc0,
	0x31: OpLwc1,
	0x32: OpLwc2,
	0x33: OpLwc3,
	0x38: OpSwc0,
	0x39: OpSwc1,
	0x3A: OpSwc2,
	0x3B: OpSwc3,
}

// secondaryOpcodes is the 64-entry table indexed by bits 5-0 when the
// primary opcode is the "secondary" sentinel (0x00).
var secondaryOpcodes = [64]Opcode{
	0x00: OpSll,
	0x02: OpSrl,
	0x03: OpSra,
	0x04: OpSllv,
	0x06: OpSrlv,
	0x07: OpSrav,
	0x08: OpJr,
	0x09: OpJalr,
	0x0C: OpSyscall,
	0x0D: OpBreak,
	0x10: OpMfhi,
	0x11: OpMthi,
	0x12: OpMflo,
	0x13: OpMtlo,
	0x18: OpMult,
	0x19: OpMultu,
	0x1A: OpDiv,
	0x1B: OpDivu,
	0x20: OpAdd,
	0x21: OpAddu,
	0x22: OpSub,
	0x23: OpSubu,
	0x24: OpAnd,
	0x25: OpOr,
	0x26: OpXor,
	0x27: OpNor,
	0x2A: OpSlt,
	0x2B: OpSltu,
}

// DecodeInstruction turns a fetched word at pc into an Instruction. A zero
// word always decodes to NOP, matching silent/padded BIOS regions.
func DecodeInstruction(pc, word uint32) Instruction {
	if word == 0 {
		return Instruction{PC: pc, Word: word, Op: OpNop}
	}

	in := Instruction{
		PC:   pc,
		Word: word,
		Rs:   uint8(word>>21) & 0x1F,
		Rt:   uint8(word>>16) & 0x1F,
		Rd:   uint8(word>>11) & 0x1F,
	}

	primary := uint8(word>>26) & 0x3F
	op := primaryOpcodes[primary]

	switch op {
	case OpSecondary:
		op = secondaryOpcodes[in.Funct()]
	case OpCop:
		in.CopN = primary - 0x10
		decodeCopOpcode(&in)
		op = in.Op
	case OpBcondz:
		decodeBcondz(&in)
		op = in.Op
	case OpLwc0, OpLwc1, OpLwc2, OpLwc3, OpSwc0, OpSwc1, OpSwc2, OpSwc3:
		in.CopN = primary & 3
	case OpInvalid:
		// leave as invalid
	}

	in.Op = op
	return in
}

// decodeCopOpcode resolves a COP-family primary opcode into the specific
// MFC/CFC/MTC/CTC/BCF/BCT/COP/RFE form, following the bit-25-21 dispatch:
// rs==0 -> MFC, rs==2 -> CFC, rs==4 -> MTC, rs==6 -> CTC, rs==8 -> branch
// conditional (BCF/BCT on rt), rs bit 4 set -> COP-n function (RFE is the
// COP0-only special case of that with funct 0x10 and rs==0x10).
func decodeCopOpcode(in *Instruction) {
	switch {
	case in.Rs == 0x00:
		in.Op = OpMfc
	case in.Rs == 0x02:
		in.Op = OpCfc
	case in.Rs == 0x04:
		in.Op = OpMtc
	case in.Rs == 0x06:
		in.Op = OpCtc
	case in.Rs == 0x08:
		if in.Rt == 0x00 {
			in.Op = OpBcf
		} else if in.Rt == 0x01 {
			in.Op = OpBct
		} else {
			in.Op = OpInvalid
		}
	case in.Rs&0x10 != 0:
		if in.CopN == 0 && in.Rs == 0x10 && in.Funct() == 0x10 {
			in.Op = OpRfe
		} else {
			in.Op = OpCop
		}
	default:
		in.Op = OpInvalid
	}
}

// decodeBcondz resolves the BCONDZ family on rt: 0x10 -> BLTZAL,
// 0x11 -> BGEZAL, otherwise BLTZ if rt is even, BGEZ if odd.
func decodeBcondz(in *Instruction) {
	switch in.Rt {
	case 0x10:
		in.Op = OpBltzal
	case 0x11:
		in.Op = OpBgezal
	default:
		if in.Rt&1 == 0 {
			in.Op = OpBltz
		} else {
			in.Op = OpBgez
		}
	}
}
