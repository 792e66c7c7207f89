// errors.go - Guest exceptions vs host errors.

package main

import "fmt"

// ExcCode is a MIPS R3000A exception cause code (Cause register bits 2-6).
type ExcCode uint32

const (
	ExcInterrupt         ExcCode = 0x00
	ExcAddressErrorLoad  ExcCode = 0x04
	ExcAddressErrorStore ExcCode = 0x05
	ExcBusErrorFetch     ExcCode = 0x06
	ExcBusErrorData      ExcCode = 0x07
	ExcSyscall           ExcCode = 0x08
	ExcBreak             ExcCode = 0x09
	ExcReservedInstr     ExcCode = 0x0A
	ExcCoprocessorUnusable ExcCode = 0x0B
	ExcOverflow          ExcCode = 0x0C
)

// GuestException is raised by the CPU interpreter for conditions the
// emulated program itself is meant to observe. It never escapes the
// interpreter: raise() in cpu_mips.go builds it and drives COP0 exception entry.
type GuestException struct {
	Code ExcCode
	// BadAddr is set for address errors; carried into COP0 BadVAddr.
	BadAddr uint32
}

func (e *GuestException) Error() string {
	return fmt.Sprintf("guest exception %#x (badaddr=%#08x)", e.Code, e.BadAddr)
}

func guestExcAddr(code ExcCode, addr uint32) *GuestException {
	return &GuestException{Code: code, BadAddr: addr}
}
