package emulator

import (
	"github.com/tuboc/chip8vm/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	panelLines = 8
	traceLines = panelLines
)

var keypadLayout = [4][4]uint8{
	{0x1, 0x2, 0x3, 0xc},
	{0x4, 0x5, 0x6, 0xd},
	{0x7, 0x8, 0x9, 0xe},
	{0xa, 0x0, 0xb, 0xf},
}

// panelLayout holds the debug panel metrics. Text is drawn with the CHIP-8
// font glyphs, which only cover hex digits.
type panelLayout struct {
	height int
	pixel  int32 // size of one glyph pixel
	margin int32
	charW  int32
	lineH  int32
}

func newPanelLayout(width int, enabled bool) panelLayout {
	if !enabled {
		return panelLayout{}
	}
	p := panelLayout{pixel: 2}
	if width < 340 {
		p.pixel = 1
	}
	p.margin = 4 * p.pixel
	p.charW = 5 * p.pixel
	p.lineH = 7 * p.pixel
	p.height = int(2*p.margin + panelLines*p.lineH)
	return p
}

// column returns the x offset of a text column.
func (p panelLayout) column(chars int32) int32 {
	return p.margin + chars*p.charW
}

func (p panelLayout) line(top int32, n int) int32 {
	return top + p.margin + int32(n)*p.lineH
}

func (e *Emulator) drawDebugInfo(s chip8.CPUState, top int32) error {
	p := e.panel
	theme := e.opts.Theme
	w, _ := e.window.GetSize()

	if err := e.setColor(theme.Panel); err != nil {
		return err
	}
	if err := e.renderer.FillRect(&sdl.Rect{X: 0, Y: top, W: w, H: int32(p.height)}); err != nil {
		return err
	}
	if err := e.setColor(theme.Text); err != nil {
		return err
	}

	// v registers, two columns of index and value
	for i, v := range s.V {
		col := int32(0)
		if i >= panelLines {
			col = 6
		}
		y := p.line(top, i%panelLines)
		if err := e.drawHex(uint16(i), 1, p.column(col), y); err != nil {
			return err
		}
		if err := e.drawHex(uint16(v), 2, p.column(col+2), y); err != nil {
			return err
		}
	}

	// index register, program counter, timers and stack depth
	other := []struct {
		value  uint16
		digits int
	}{
		{s.I, 4},
		{s.PC, 4},
		{uint16(s.DT), 2},
		{uint16(s.ST), 2},
		{uint16(len(s.Stack)), 2},
	}
	for i, o := range other {
		if err := e.drawHex(o.value, o.digits, p.column(12), p.line(top, i)); err != nil {
			return err
		}
	}

	if err := e.drawKeypad(e.machine.Keypad(), p.column(18), p.line(top, 0)); err != nil {
		return err
	}

	history := e.machine.Trace().History()
	if len(history) > traceLines {
		history = history[len(history)-traceLines:]
	}
	for i, entry := range history {
		y := p.line(top, i)
		if err := e.drawHex(entry.PC, 3, p.column(24), y); err != nil {
			return err
		}
		if err := e.drawHex(entry.Word, 4, p.column(28), y); err != nil {
			return err
		}
	}
	return nil
}

// drawHex draws the lowest digits of v with the font glyphs.
func (e *Emulator) drawHex(v uint16, digits int, x, y int32) error {
	for i := 0; i < digits; i++ {
		shift := uint(4 * (digits - 1 - i))
		glyph := chip8.Glyph(uint8(v>>shift) & 0xf)
		if err := e.drawGlyph(glyph, x+int32(i)*e.panel.charW, y); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emulator) drawGlyph(glyph [chip8.CharacterSpriteSize]byte, x, y int32) error {
	ps := e.panel.pixel
	for row, b := range glyph {
		for col := 0; col < 4; col++ {
			if b&(0x80>>col) == 0 {
				continue
			}
			rect := &sdl.Rect{X: x + int32(col)*ps, Y: y + int32(row)*ps, W: ps, H: ps}
			if err := e.renderer.FillRect(rect); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emulator) drawKeypad(k *chip8.Keypad, x, y int32) error {
	size := e.panel.lineH - e.panel.pixel
	for row, keys := range keypadLayout {
		for col, key := range keys {
			pressed, err := k.IsPressed(key)
			if err != nil {
				return err
			}
			rect := &sdl.Rect{X: x + int32(col)*e.panel.lineH, Y: y + int32(row)*e.panel.lineH, W: size, H: size}
			if pressed {
				err = e.renderer.FillRect(rect)
			} else {
				err = e.renderer.DrawRect(rect)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
