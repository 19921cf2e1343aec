package emulator

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/chip8"
	"github.com/tuboc/chip8vm/config"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	FrameRate     = 60
	frameInterval = time.Second / FrameRate
	pauseTimeout  = 100 // milliseconds
)

// Emulator runs a machine inside an SDL window.
type Emulator struct {
	opts     config.Options
	logger   *log.Logger
	rom      []byte
	machine  *chip8.Machine
	window   *sdl.Window
	renderer *sdl.Renderer
	input    *Input
	panel    panelLayout

	lastFrame time.Time
}

func (e *Emulator) newMachine() (*chip8.Machine, error) {
	return chip8.NewMachine(bytes.NewReader(e.rom),
		chip8.WithLogger(e.logger),
		chip8.WithDisplayMode(e.opts.DisplayMode()),
		chip8.WithSpriteWrap(e.opts.SpriteWrap),
		chip8.WithTimerRate(e.opts.TimerRate),
		chip8.WithTraceDepth(e.opts.TraceDepth))
}

// NewEmulator loads the rom and opens the window. Close must be called to
// release the window.
func NewEmulator(rom []byte, opts config.Options, logger *log.Logger) (*Emulator, error) {
	e := &Emulator{
		opts:   opts,
		logger: logger,
		rom:    rom,
		input:  newInput(opts.StepMode),
	}

	m, err := e.newMachine()
	if err != nil {
		return nil, err
	}
	e.machine = m

	d := m.Display()
	e.panel = newPanelLayout(d.Width()*opts.Scale, opts.DebugPanel)
	w := int32(d.Width() * opts.Scale)
	h := int32(d.Height()*opts.Scale + e.panel.height)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("initializing sdl: %w", err)
	}

	e.window, err = sdl.CreateWindow("Chip-8 Emulator", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	e.renderer, err = sdl.CreateRenderer(e.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		e.window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	logger.Debug("Window opened",
		log.Int("width", int(w)),
		log.Int("height", int(h)))
	return e, nil
}

// Close releases the SDL resources.
func (e *Emulator) Close() {
	if e.renderer != nil {
		e.renderer.Destroy()
	}
	if e.window != nil {
		e.window.Destroy()
	}
	sdl.Quit()
}

// Run executes the rom until the window is closed. A reset reloads the rom
// into a fresh machine.
func (e *Emulator) Run(ctx context.Context) error {
	for {
		if err := e.machine.Run(ctx, e, e.input); err != nil {
			return err
		}
		if !e.input.takeReset() {
			return nil
		}

		m, err := e.newMachine()
		if err != nil {
			return err
		}
		e.machine = m
		e.logger.Info("Machine reset")
	}
}

// Render implements chip8.Screen. It holds execution while paused and
// presents at most FrameRate frames per second. Keys pressed while holding
// are kept for a pending key wait.
func (e *Emulator) Render(d *chip8.Display, s chip8.CPUState) error {
	for e.input.paused() && !e.input.QuitRequested() {
		if err := e.draw(d, s); err != nil {
			return err
		}
		if event := sdl.WaitEventTimeout(pauseTimeout); event != nil {
			if err := e.input.hold(event, e.machine.Keypad()); err != nil {
				return err
			}
		}
	}
	e.input.takeStep()

	if time.Since(e.lastFrame) < frameInterval {
		return nil
	}
	return e.draw(d, s)
}

func (e *Emulator) setColor(c config.Color) error {
	return e.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
}

func (e *Emulator) draw(d *chip8.Display, s chip8.CPUState) error {
	e.lastFrame = time.Now()
	theme := e.opts.Theme
	scale := int32(e.opts.Scale)

	if err := e.setColor(theme.Background); err != nil {
		return err
	}
	if err := e.renderer.Clear(); err != nil {
		return err
	}

	if err := e.setColor(theme.Foreground); err != nil {
		return err
	}
	for y := 0; y < d.Height(); y++ {
		for x := 0; x < d.Width(); x++ {
			if !d.Pixel(x, y) {
				continue
			}
			rect := &sdl.Rect{X: int32(x) * scale, Y: int32(y) * scale, W: scale, H: scale}
			if err := e.renderer.FillRect(rect); err != nil {
				return err
			}
		}
	}
	if e.opts.DebugPanel {
		if err := e.drawDebugInfo(s, int32(d.Height())*scale); err != nil {
			return err
		}
	}

	e.renderer.Present()
	return nil
}
