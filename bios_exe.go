// bios_exe.go - BIOS ROM and PSX-EXE loading.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"fmt"
	"os"
)

// LoadBIOS reads a 512 KiB BIOS image from path and maps it read-only at
// physical 0x1FC00000. Anything other than exactly biosSize bytes is
// rejected: a mismatched dump is almost always the wrong file entirely,
// not a benign truncation worth padding around.
func LoadBIOS(bus *MachineBus, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bios: %w", err)
	}
	if len(data) != biosSize {
		return fmt.Errorf("bios: %s is %d bytes, want exactly %d", path, len(data), biosSize)
	}
	bus.LoadBIOS(data)
	return nil
}

// exeHeaderSize is the fixed PSX-EXE header: ID string, entry point,
// initial GP, load address + length, and stack setup. Everything past
// the header is the raw payload, copied verbatim into RAM at LoadAddr.
const exeHeaderSize = 0x800

const exeMagic = "PS-X EXE"

// EXEHeader is the decoded PSX-EXE header (spec.md §6).
type EXEHeader struct {
	InitialPC  uint32
	InitialGP  uint32
	LoadAddr   uint32
	FileSize   uint32
	InitialSP  uint32 // R29/R30 base; add InitialSPOffset for the real value
	InitialSPOffset uint32
}

// ParseEXE validates the magic and decodes the fixed header fields.
func ParseEXE(data []byte) (EXEHeader, []byte, error) {
	if len(data) < exeHeaderSize {
		return EXEHeader{}, nil, fmt.Errorf("exe: file shorter than the %d-byte header", exeHeaderSize)
	}
	if string(data[0:8]) != exeMagic {
		return EXEHeader{}, nil, fmt.Errorf("exe: missing %q magic", exeMagic)
	}

	h := EXEHeader{
		InitialPC:       binary.LittleEndian.Uint32(data[0x10:]),
		InitialGP:       binary.LittleEndian.Uint32(data[0x14:]),
		LoadAddr:        binary.LittleEndian.Uint32(data[0x18:]),
		FileSize:        binary.LittleEndian.Uint32(data[0x1C:]),
		InitialSP:       binary.LittleEndian.Uint32(data[0x30:]),
		InitialSPOffset: binary.LittleEndian.Uint32(data[0x34:]),
	}

	payload := data[exeHeaderSize:]
	if uint32(len(payload)) < h.FileSize {
		return EXEHeader{}, nil, fmt.Errorf("exe: header claims %d byte payload, file only has %d", h.FileSize, len(payload))
	}
	return h, payload[:h.FileSize], nil
}

// LoadEXE reads path, validates it, and returns the decoded header and
// payload ready for InjectEXE. Kept separate from InjectEXE so fast-boot
// logic can validate a side-loaded EXE before the BIOS shell is reached.
func LoadEXE(path string) (EXEHeader, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EXEHeader{}, nil, fmt.Errorf("exe: %w", err)
	}
	return ParseEXE(data)
}

// InjectEXE copies the payload into RAM at LoadAddr and points the CPU
// at the entry point, matching real BIOS shell behavior when a memory
// card or CD boots a .EXE: GP is seeded from the header, SP and FP only
// when the header's initial SP is nonzero, and R0/AT and the rest of the general file are left exactly as the
// shell left them.
func InjectEXE(cpu *CPU, bus *MachineBus, h EXEHeader, payload []byte) {
	for i, b := range payload {
		bus.Write8(h.LoadAddr+uint32(i), b)
	}
	cpu.pc = h.InitialPC
	cpu.nextPC = h.InitialPC + 4
	cpu.Reg.Write(28, h.InitialGP)
	if h.InitialSP != 0 {
		sp := h.InitialSP + h.InitialSPOffset
		cpu.Reg.Write(29, sp)
		cpu.Reg.Write(30, sp)
	}
}
