package emulator

import (
	"time"

	"github.com/tuboc/chip8vm/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

// keys on the left side of a qwerty keyboard, laid out like the hex keypad
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var scanCode2Key = map[sdl.Scancode]uint8{
	sdl.SCANCODE_1: 0x1,
	sdl.SCANCODE_2: 0x2,
	sdl.SCANCODE_3: 0x3,
	sdl.SCANCODE_4: 0xc,
	sdl.SCANCODE_Q: 0x4,
	sdl.SCANCODE_W: 0x5,
	sdl.SCANCODE_E: 0x6,
	sdl.SCANCODE_R: 0xd,
	sdl.SCANCODE_A: 0x7,
	sdl.SCANCODE_S: 0x8,
	sdl.SCANCODE_D: 0x9,
	sdl.SCANCODE_F: 0xe,
	sdl.SCANCODE_Z: 0xa,
	sdl.SCANCODE_X: 0x0,
	sdl.SCANCODE_C: 0xb,
	sdl.SCANCODE_V: 0xf,
}

// KeyForScancode maps an SDL scancode to a keypad key.
func KeyForScancode(code sdl.Scancode) (uint8, bool) {
	k, ok := scanCode2Key[code]
	return k, ok
}

// Input reads SDL events. Besides the keypad it handles quitting, reset,
// step mode and window focus.
type Input struct {
	quit     bool
	reset    bool
	stepMode bool
	step     bool
	focus    bool

	// a key pressed while execution was held
	held    uint8
	hasHeld bool
}

func newInput(stepMode bool) *Input {
	return &Input{stepMode: stepMode, focus: true}
}

func (in *Input) Poll(k *chip8.Keypad) error {
	in.hasHeld = false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, _, err := in.handle(event, k); err != nil {
			return err
		}
	}
	return nil
}

func (in *Input) QuitRequested() bool {
	return in.quit || in.reset
}

func (in *Input) WaitKeyPress(k *chip8.Keypad, timeout time.Duration) (uint8, bool, error) {
	if in.hasHeld {
		in.hasHeld = false
		return in.held, true, nil
	}

	deadline := time.Now().Add(timeout)
	for !in.QuitRequested() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false, nil
		}

		event := sdl.WaitEventTimeout(int(remaining / time.Millisecond))
		if event == nil {
			continue
		}
		key, pressed, err := in.handle(event, k)
		if err != nil || pressed {
			return key, pressed, err
		}
	}
	return 0, false, nil
}

// paused reports whether execution should hold.
func (in *Input) paused() bool {
	return (in.stepMode && !in.step) || !in.focus
}

// takeStep consumes a single step request.
func (in *Input) takeStep() {
	in.step = false
}

// takeReset reports and clears a reset request.
func (in *Input) takeReset() bool {
	r := in.reset
	in.reset = false
	return r
}

// hold applies an event received while execution is held. A key press is
// kept for the next WaitKeyPress.
func (in *Input) hold(event sdl.Event, k *chip8.Keypad) error {
	key, pressed, err := in.handle(event, k)
	if err != nil {
		return err
	}
	if pressed {
		in.held, in.hasHeld = key, true
	}
	return nil
}

// handle applies one event. It returns the keypad key if the event pressed
// a key that was released.
func (in *Input) handle(event sdl.Event, k *chip8.Keypad) (uint8, bool, error) {
	switch ev := event.(type) {
	case *sdl.QuitEvent:
		in.quit = true

	case *sdl.KeyboardEvent:
		code := ev.Keysym.Scancode
		key, ok := KeyForScancode(code)
		switch ev.Type {
		case sdl.KEYDOWN:
			if ok {
				wasPressed, err := k.IsPressed(key)
				if err != nil {
					return 0, false, err
				}
				if err := k.Press(key); err != nil {
					return 0, false, err
				}
				return key, !wasPressed, nil
			}
			if ev.Repeat != 0 {
				return 0, false, nil
			}
			in.handleControl(code)

		case sdl.KEYUP:
			if ok {
				return 0, false, k.Release(key)
			}
		}

	case *sdl.WindowEvent:
		switch ev.Event {
		case sdl.WINDOWEVENT_FOCUS_LOST:
			in.focus = false
		case sdl.WINDOWEVENT_FOCUS_GAINED:
			in.focus = true
		}
	}
	return 0, false, nil
}

func (in *Input) handleControl(code sdl.Scancode) {
	switch code {
	case sdl.SCANCODE_ESCAPE:
		in.quit = true
	case sdl.SCANCODE_SPACE:
		in.stepMode = !in.stepMode
	case sdl.SCANCODE_RETURN:
		if in.stepMode {
			in.step = true
		}
	case sdl.SCANCODE_F5:
		in.reset = true
	}
}
