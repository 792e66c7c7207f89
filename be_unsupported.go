//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

// be_unsupported.go - deliberate compile error on any non-little-endian target.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// psxcore decodes bus words with encoding/binary.LittleEndian and assumes a
// little-endian host for its GTE fixed-point math; it has no big-endian path.
var _ = "psxcore requires a little-endian host architecture" + 1
