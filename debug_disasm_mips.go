// debug_disasm_mips.go - MIPS R3000A disassembler for the debugger.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import "fmt"

// mipsOpcodeNames mirrors the Opcode enum with the mnemonic a reader would
// recognize; the few synthetic sentinels (Invalid/Secondary/Nop) never
// reach here with anything useful to print.
var mipsOpcodeNames = map[Opcode]string{
	OpNop: "nop",

	OpJ: "j", OpJal: "jal",
	OpBeq: "beq", OpBne: "bne", OpBlez: "blez", OpBgtz: "bgtz",
	OpBltz: "bltz", OpBgez: "bgez", OpBltzal: "bltzal", OpBgezal: "bgezal",

	OpAddi: "addi", OpAddiu: "addiu", OpSlti: "slti", OpSltiu: "sltiu",
	OpAndi: "andi", OpOri: "ori", OpXori: "xori", OpLui: "lui",

	OpLb: "lb", OpLh: "lh", OpLwl: "lwl", OpLw: "lw",
	OpLbu: "lbu", OpLhu: "lhu", OpLwr: "lwr",
	OpSb: "sb", OpSh: "sh", OpSwl: "swl", OpSw: "sw", OpSwr: "swr",
	OpLwc0: "lwc0", OpLwc1: "lwc1", OpLwc2: "lwc2", OpLwc3: "lwc3",
	OpSwc0: "swc0", OpSwc1: "swc1", OpSwc2: "swc2", OpSwc3: "swc3",

	OpSll: "sll", OpSrl: "srl", OpSra: "sra",
	OpSllv: "sllv", OpSrlv: "srlv", OpSrav: "srav",

	OpJr: "jr", OpJalr: "jalr", OpSyscall: "syscall", OpBreak: "break",

	OpMfhi: "mfhi", OpMthi: "mthi", OpMflo: "mflo", OpMtlo: "mtlo",
	OpMult: "mult", OpMultu: "multu", OpDiv: "div", OpDivu: "divu",

	OpAdd: "add", OpAddu: "addu", OpSub: "sub", OpSubu: "subu",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNor: "nor",
	OpSlt: "slt", OpSltu: "sltu",

	OpMfc: "mfc", OpCfc: "cfc", OpMtc: "mtc", OpCtc: "ctc",
	OpBcf: "bc_f", OpBct: "bc_t", OpCop: "cop", OpRfe: "rfe",
}

// disassembleMIPS renders count instructions starting at addr, reading
// bytes through readMem so it works identically over live memory or a
// captured snapshot.
func disassembleMIPS(readMem func(addr uint64, size int) []byte, addr uint64, count int) []DisassembledLine {
	var lines []DisassembledLine
	for i := 0; i < count; i++ {
		data := readMem(addr, 4)
		if len(data) < 4 {
			break
		}
		word := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		in := DecodeInstruction(uint32(addr), word)

		hexBytes := fmt.Sprintf("%02X %02X %02X %02X", data[0], data[1], data[2], data[3])
		lines = append(lines, DisassembledLine{
			Address:      addr,
			HexBytes:     hexBytes,
			Mnemonic:     formatMIPS(in),
			Size:         4,
			IsBranch:     isBranchOp(in.Op),
			BranchTarget: branchTargetOf(in),
		})
		addr += 4
	}
	return lines
}

func formatMIPS(in Instruction) string {
	name, ok := mipsOpcodeNames[in.Op]
	if !ok {
		return fmt.Sprintf("dw $%08X", in.Word)
	}

	rs, rt, rd := RegisterNames[in.Rs], RegisterNames[in.Rt], RegisterNames[in.Rd]
	switch in.Op {
	case OpNop, OpSyscall, OpBreak, OpRfe:
		return name
	case OpJ, OpJal:
		return fmt.Sprintf("%s $%08X", name, (in.PC&0xF0000000)|(in.Imm26()<<2))
	case OpJr:
		return fmt.Sprintf("%s %s", name, rs)
	case OpJalr:
		return fmt.Sprintf("%s %s, %s", name, rd, rs)
	case OpBeq, OpBne:
		return fmt.Sprintf("%s %s, %s, $%08X", name, rs, rt, branchTargetOf(in))
	case OpBlez, OpBgtz, OpBltz, OpBgez, OpBltzal, OpBgezal:
		return fmt.Sprintf("%s %s, $%08X", name, rs, branchTargetOf(in))
	case OpAddi, OpAddiu, OpSlti, OpSltiu:
		return fmt.Sprintf("%s %s, %s, %d", name, rt, rs, in.SImm16())
	case OpAndi, OpOri, OpXori:
		return fmt.Sprintf("%s %s, %s, $%04X", name, rt, rs, in.Imm16())
	case OpLui:
		return fmt.Sprintf("%s %s, $%04X", name, rt, in.Imm16())
	case OpLb, OpLh, OpLwl, OpLw, OpLbu, OpLhu, OpLwr:
		return fmt.Sprintf("%s %s, %d(%s)", name, rt, in.SImm16(), rs)
	case OpSb, OpSh, OpSwl, OpSw, OpSwr:
		return fmt.Sprintf("%s %s, %d(%s)", name, rt, in.SImm16(), rs)
	case OpLwc0, OpLwc1, OpLwc2, OpLwc3, OpSwc0, OpSwc1, OpSwc2, OpSwc3:
		return fmt.Sprintf("%s %d, %d(%s)", name, in.Rt, in.SImm16(), rs)
	case OpSll, OpSrl, OpSra:
		return fmt.Sprintf("%s %s, %s, %d", name, rd, rt, in.Shamt())
	case OpSllv, OpSrlv, OpSrav:
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rt, rs)
	case OpMfhi, OpMflo:
		return fmt.Sprintf("%s %s", name, rd)
	case OpMthi, OpMtlo:
		return fmt.Sprintf("%s %s", name, rs)
	case OpMult, OpMultu, OpDiv, OpDivu:
		return fmt.Sprintf("%s %s, %s", name, rs, rt)
	case OpAdd, OpAddu, OpSub, OpSubu, OpAnd, OpOr, OpXor, OpNor, OpSlt, OpSltu:
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rs, rt)
	case OpMfc, OpCfc:
		return fmt.Sprintf("%s%d %s, $%d", name, in.CopN, rt, in.Rd)
	case OpMtc, OpCtc:
		return fmt.Sprintf("%s%d %s, $%d", name, in.CopN, rt, in.Rd)
	case OpCop:
		return fmt.Sprintf("cop%d $%08X", in.CopN, in.Funct())
	default:
		return name
	}
}

func isBranchOp(op Opcode) bool {
	switch op {
	case OpJ, OpJal, OpJr, OpJalr,
		OpBeq, OpBne, OpBlez, OpBgtz, OpBltz, OpBgez, OpBltzal, OpBgezal:
		return true
	}
	return false
}

func branchTargetOf(in Instruction) uint64 {
	switch in.Op {
	case OpJ, OpJal:
		return uint64((in.PC & 0xF0000000) | (in.Imm26() << 2))
	case OpBeq, OpBne, OpBlez, OpBgtz, OpBltz, OpBgez, OpBltzal, OpBgezal:
		return uint64(branchTarget(in.PC, in.SImm16()))
	}
	return 0
}
