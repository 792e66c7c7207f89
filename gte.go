// gte.go - GTE (COP2): fixed-point 3D math coprocessor register file.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import "math/bits"

// gteFlag bit positions, ported from the reference coprocessor's flag
// register layout (see GTE() error-bit aggregation below).
const (
	flagIR0Sat    = 1 << 12
	flagSY2Sat    = 1 << 13
	flagSX2Sat    = 1 << 14
	flagMAC0Neg   = 1 << 15
	flagMAC0Pos   = 1 << 16
	flagDivOvf    = 1 << 17
	flagSZ3Sat    = 1 << 18
	flagColorBSat = 1 << 19
	flagColorGSat = 1 << 20
	flagColorRSat = 1 << 21
	flagIR3Sat    = 1 << 22
	flagIR2Sat    = 1 << 23
	flagIR1Sat    = 1 << 24
	flagMAC3Neg   = 1 << 25
	flagMAC2Neg   = 1 << 26
	flagMAC1Neg   = 1 << 27
	flagMAC3Pos   = 1 << 28
	flagMAC2Pos   = 1 << 29
	flagMAC1Pos   = 1 << 30

	// flagErrorMask ORs together bits 30-23 and 18-13: any of these set
	// forces the aggregate error bit (31) on read.
	flagErrorMask = 0b01111111100001111110000000000000
)

type vec3i16 struct{ x, y, z int16 }

// GTE is the Geometry Transformation Engine: a 32-register data file plus
// a 32-register control file, sized and laid out exactly as the real
// hardware exposes them to MFC2/CFC2/MTC2/CTC2.
type GTE struct {
	v  [3]vec3i16
	rgbc uint32
	otz  uint16
	ir   [4]int16
	res1 uint32
	mac  [4]int32
	sxy  [3][2]int16 // (x, y) pairs; sxy[2] is the most recent, pushed via FIFO on write to reg 15
	sz   [4]uint16
	rgbFIFO [3]uint32
	irgb uint16
	orgb uint16
	lzcs int32
	lzcr uint32

	rotation   [3][3]int16
	translation [3]int32
	lightSrc   [3][3]int16
	lightColor [3][3]int16

	background [3]uint32
	farColor   [3]uint32
	screenOffX uint32
	screenOffY uint32
	projPlaneDist uint16
	dqa int16
	dqb uint32
	zsf3 int16
	zsf4 int16

	flag uint32
}

// NewGTE returns a GTE with every register zeroed, matching cold boot.
func NewGTE() *GTE { return &GTE{} }

// Reset zeroes every register.
func (g *GTE) Reset() { *g = GTE{} }

func (g *GTE) updateIR123FromIRGB() {
	r := uint32(g.irgb>>0) & 0x1F
	gr := uint32(g.irgb>>5) & 0x1F
	b := uint32(g.irgb>>10) & 0x1F
	g.ir[1] = int16(r * 0x80)
	g.ir[2] = int16(gr * 0x80)
	g.ir[3] = int16(b * 0x80)
}

func (g *GTE) updateORGBFromIR() {
	clamp := func(v int16) uint16 {
		x := v / 0x80
		if x < 0 {
			x = 0
		}
		if x > 0x1F {
			x = 0x1F
		}
		return uint16(x)
	}
	r := clamp(g.ir[1])
	gr := clamp(g.ir[2])
	b := clamp(g.ir[3])
	g.orgb = b<<10 | gr<<5 | r
}

func (g *GTE) updateLZCR() {
	if g.lzcs < 0 {
		g.lzcr = uint32(bits.LeadingZeros32(^uint32(g.lzcs)))
	} else {
		g.lzcr = uint32(bits.LeadingZeros32(uint32(g.lzcs)))
	}
}

// ReadData reads GTE data register n (0-31).
func (g *GTE) ReadData(n uint8) uint32 {
	switch {
	case n == 0 || n == 2 || n == 4:
		i := n / 2
		return uint32(uint16(g.v[i].y))<<16 | uint32(uint16(g.v[i].x))
	case n == 1 || n == 3 || n == 5:
		return uint32(int32(g.v[n/2].z))
	case n == 6:
		return g.rgbc
	case n == 7:
		return uint32(g.otz)
	case n >= 8 && n <= 11:
		return uint32(int32(g.ir[n-8]))
	case n >= 12 && n <= 14:
		i := n - 12
		return uint32(uint16(g.sxy[i][1]))<<16 | uint32(uint16(g.sxy[i][0]))
	case n == 15:
		return uint32(uint16(g.sxy[2][1]))<<16 | uint32(uint16(g.sxy[2][0]))
	case n >= 16 && n <= 19:
		return uint32(g.sz[n-16])
	case n >= 20 && n <= 22:
		return g.rgbFIFO[n-20]
	case n == 23:
		return g.res1
	case n >= 24 && n <= 27:
		return uint32(g.mac[n-24])
	case n == 28:
		return uint32(g.irgb)
	case n == 29:
		return uint32(g.orgb)
	case n == 30:
		return uint32(g.lzcs)
	case n == 31:
		return g.lzcr
	}
	return 0
}

// WriteData writes GTE data register n.
func (g *GTE) WriteData(n uint8, data uint32) {
	lsb := int16(data & 0xFFFF)
	msb := int16(data >> 16)

	switch {
	case n == 0 || n == 2 || n == 4:
		i := n / 2
		g.v[i].x = lsb
		g.v[i].y = msb
	case n == 1 || n == 3 || n == 5:
		g.v[n/2].z = int16(data)
	case n == 6:
		g.rgbc = data
	case n == 7:
		g.otz = uint16(data)
	case n >= 8 && n <= 11:
		g.ir[n-8] = int16(data)
		g.updateORGBFromIR()
	case n >= 12 && n <= 14:
		g.sxy[n-12] = [2]int16{lsb, msb}
	case n == 15:
		g.sxy[0] = g.sxy[1]
		g.sxy[1] = g.sxy[2]
		g.sxy[2] = [2]int16{lsb, msb}
	case n >= 16 && n <= 19:
		g.sz[n-16] = uint16(data)
	case n >= 20 && n <= 22:
		g.rgbFIFO[n-20] = data
	case n == 23:
		g.res1 = data
	case n >= 24 && n <= 27:
		g.mac[n-24] = int32(data)
	case n == 28:
		g.irgb = uint16(data) & 0x7FFF
		g.orgb = g.irgb
		g.updateIR123FromIRGB()
	case n == 29:
		// orgb is read-only
	case n == 30:
		g.lzcs = int32(data)
		g.updateLZCR()
	case n == 31:
		// lzcr is read-only
	}
}

// ReadCtrl reads GTE control register n (0-31): matrices, translation,
// background/far colors, screen geometry, and the flag register.
func (g *GTE) ReadCtrl(n uint8) uint32 {
	pack := func(lo, hi int16) uint32 { return uint32(uint16(hi))<<16 | uint32(uint16(lo)) }
	switch n {
	case 0:
		return pack(g.rotation[0][0], g.rotation[0][1])
	case 1:
		return pack(g.rotation[0][2], g.rotation[1][0])
	case 2:
		return pack(g.rotation[1][1], g.rotation[1][2])
	case 3:
		return pack(g.rotation[2][0], g.rotation[2][1])
	case 4:
		return uint32(int32(g.rotation[2][2]))
	case 5, 6, 7:
		return uint32(g.translation[n-5])
	case 8:
		return pack(g.lightSrc[0][0], g.lightSrc[0][1])
	case 9:
		return pack(g.lightSrc[0][2], g.lightSrc[1][0])
	case 10:
		return pack(g.lightSrc[1][1], g.lightSrc[1][2])
	case 11:
		return pack(g.lightSrc[2][0], g.lightSrc[2][1])
	case 12:
		return uint32(int32(g.lightSrc[2][2]))
	case 13, 14, 15:
		return g.background[n-13]
	case 16:
		return pack(g.lightColor[0][0], g.lightColor[0][1])
	case 17:
		return pack(g.lightColor[0][2], g.lightColor[1][0])
	case 18:
		return pack(g.lightColor[1][1], g.lightColor[1][2])
	case 19:
		return pack(g.lightColor[2][0], g.lightColor[2][1])
	case 20:
		return uint32(int32(g.lightColor[2][2]))
	case 21, 22, 23:
		return g.farColor[n-21]
	case 24:
		return g.screenOffX
	case 25:
		return g.screenOffY
	case 26:
		return uint32(int32(int16(g.projPlaneDist)))
	case 27:
		return uint32(g.dqa)
	case 28:
		return g.dqb
	case 29:
		return uint32(g.zsf3)
	case 30:
		return uint32(g.zsf4)
	case 31:
		return g.flagWithError()
	}
	return 0
}

// WriteCtrl writes GTE control register n.
func (g *GTE) WriteCtrl(n uint8, data uint32) {
	lsb := int16(data & 0xFFFF)
	msb := int16(data >> 16)
	switch n {
	case 0:
		g.rotation[0][0], g.rotation[0][1] = lsb, msb
	case 1:
		g.rotation[0][2], g.rotation[1][0] = lsb, msb
	case 2:
		g.rotation[1][1], g.rotation[1][2] = lsb, msb
	case 3:
		g.rotation[2][0], g.rotation[2][1] = lsb, msb
	case 4:
		g.rotation[2][2] = lsb
	case 5, 6, 7:
		g.translation[n-5] = int32(data)
	case 8:
		g.lightSrc[0][0], g.lightSrc[0][1] = lsb, msb
	case 9:
		g.lightSrc[0][2], g.lightSrc[1][0] = lsb, msb
	case 10:
		g.lightSrc[1][1], g.lightSrc[1][2] = lsb, msb
	case 11:
		g.lightSrc[2][0], g.lightSrc[2][1] = lsb, msb
	case 12:
		g.lightSrc[2][2] = lsb
	case 13, 14, 15:
		g.background[n-13] = data
	case 16:
		g.lightColor[0][0], g.lightColor[0][1] = lsb, msb
	case 17:
		g.lightColor[0][2], g.lightColor[1][0] = lsb, msb
	case 18:
		g.lightColor[1][1], g.lightColor[1][2] = lsb, msb
	case 19:
		g.lightColor[2][0], g.lightColor[2][1] = lsb, msb
	case 20:
		g.lightColor[2][2] = lsb
	case 21, 22, 23:
		g.farColor[n-21] = data
	case 24:
		g.screenOffX = data
	case 25:
		g.screenOffY = data
	case 26:
		g.projPlaneDist = uint16(data)
	case 27:
		g.dqa = int16(data)
	case 28:
		g.dqb = data
	case 29:
		g.zsf3 = int16(data)
	case 30:
		g.zsf4 = int16(data)
	case 31:
		g.flag = data & 0x7FFFF000
	}
}

// flagWithError ORs the aggregate error bit (31) into the stored flag
// bits: set whenever any of bits 30-23 or 18-13 are set.
func (g *GTE) flagWithError() uint32 {
	err := uint32(0)
	if g.flag&flagErrorMask != 0 {
		err = 1
	}
	return g.flag | err<<31
}
