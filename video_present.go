// video_present.go - converts GPU front-buffer hand-offs into RGBA frames
// for a VideoOutput backend, and drives controller input the other way.

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

// toRGBA unpacks 0BGR1555 native PSX pixels (as produced by
// gpu_backend_headless.go's packColor) into the RGBA8888 buffer every
// VideoOutput backend accepts.
func toRGBA(frame FrameImage) []byte {
	buf := make([]byte, frame.Width*frame.Height*4)
	for i, px := range frame.Pixels {
		r := uint8((px & 0x1F) << 3)
		g := uint8(((px >> 5) & 0x1F) << 3)
		b := uint8(((px >> 10) & 0x1F) << 3)
		o := i * 4
		buf[o], buf[o+1], buf[o+2], buf[o+3] = r, g, b, 0xFF
	}
	return buf
}

// presenter owns the host-facing video and input plumbing around a
// System: pulling frames out to a VideoOutput, pushing keyboard-mapped
// button edges back into a digital pad.
type presenter struct {
	sys    *System
	out    VideoOutput
	pad    *digitalPad
	width  int
	height int
}

func newPresenter(sys *System, out VideoOutput, pad *digitalPad) *presenter {
	p := &presenter{sys: sys, out: out, pad: pad, width: vramWidth / 2, height: 480}
	out.SetDisplayConfig(DisplayConfig{Width: p.width, Height: p.height, Scale: 1, PixelFormat: PixelFormatRGBA, RefreshRate: 60})
	if ci, ok := out.(ControllerInput); ok {
		ci.SetControllerHandler(pad.SetButton)
	}
	return p
}

// PresentFrame pulls the most recently captured VBlank frame and hands
// it to the video backend, resizing the display config if the GPU's
// resolution changed (a mode-set write to GP1 between frames).
func (p *presenter) PresentFrame() error {
	frame := p.sys.LatestFrame()
	if frame.Width == 0 || frame.Height == 0 {
		return nil
	}
	if frame.Width != p.width || frame.Height != p.height {
		p.width, p.height = frame.Width, frame.Height
		if err := p.out.SetDisplayConfig(DisplayConfig{Width: p.width, Height: p.height, Scale: 1, PixelFormat: PixelFormatRGBA, RefreshRate: 60}); err != nil {
			return err
		}
	}
	return p.out.UpdateFrame(toRGBA(frame))
}
