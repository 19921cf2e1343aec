package chip8

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const TimerFrequency = 60

var (
	// ErrQuit is returned by Step when the input requested to quit during a
	// key wait.
	ErrQuit = errors.New("quit requested")
	// ErrNoInput is returned by Step for a key wait without an input source.
	ErrNoInput = errors.New("key wait without input source")
)

// Screen presents the framebuffer. It is called once per cycle and once per
// timer period while a key wait blocks. The display must only be read.
type Screen interface {
	Render(d *Display, s CPUState) error
}

// Input feeds key events into the keypad.
type Input interface {
	// Poll applies all pending key events to the keypad.
	Poll(k *Keypad) error
	QuitRequested() bool
	// WaitKeyPress blocks for at most timeout until a key that was released
	// gets pressed. ok is false if the timeout passed without such a press.
	WaitKeyPress(k *Keypad, timeout time.Duration) (key uint8, ok bool, err error)
}

// Machine fetches, decodes and executes instructions against the memory,
// CPU, display and keypad it owns.
type Machine struct {
	logger  *log.Logger
	mem     *Memory
	cpu     *CPU
	display *Display
	keypad  *Keypad
	trace   *Trace

	random      func() byte
	now         func() time.Time
	timerPeriod time.Duration
	lastTick    time.Time
}

type options struct {
	logger     *log.Logger
	mode       Mode
	wrap       bool
	random     func() byte
	now        func() time.Time
	timerRate  int
	traceDepth int
}

// Option configures a Machine.
type Option func(*options)

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithDisplayMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithSpriteWrap makes sprite bodies wrap around the screen edges.
func WithSpriteWrap(wrap bool) Option {
	return func(o *options) { o.wrap = wrap }
}

// WithRand sets the byte source used by the RND instruction.
func WithRand(f func() byte) Option {
	return func(o *options) { o.random = f }
}

// WithClock sets the time source used to schedule the timers.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTimerRate sets the timer frequency in Hz.
func WithTimerRate(hz int) Option {
	return func(o *options) { o.timerRate = hz }
}

func WithTraceDepth(n int) Option {
	return func(o *options) { o.traceDepth = n }
}

// NewMachine loads rom and returns a machine ready to execute it.
func NewMachine(rom io.Reader, opts ...Option) (*Machine, error) {
	o := options{
		mode:       ModeChip8,
		now:        time.Now,
		timerRate:  TimerFrequency,
		traceDepth: DefaultTraceDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithConfig(log.DefaultConfig())
	}
	if o.random == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		o.random = func() byte { return byte(r.Intn(256)) }
	}
	if o.timerRate <= 0 {
		return nil, fmt.Errorf("%w: timer rate %d", ErrValueOutOfRange, o.timerRate)
	}

	mem, err := NewMemory(rom)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		logger:      o.logger,
		mem:         mem,
		cpu:         NewCPU(),
		display:     NewDisplay(o.mode, o.wrap),
		keypad:      &Keypad{},
		trace:       newTrace(o.traceDepth),
		random:      o.random,
		now:         o.now,
		timerPeriod: time.Second / time.Duration(o.timerRate),
	}
	m.lastTick = m.now()

	m.logger.Debug("Rom loaded",
		log.Int("size", mem.RomSize()),
		log.String("display", o.mode.String()))
	return m, nil
}

func (m *Machine) Memory() *Memory {
	return m.mem
}

func (m *Machine) CPU() *CPU {
	return m.cpu
}

func (m *Machine) Display() *Display {
	return m.display
}

func (m *Machine) Keypad() *Keypad {
	return m.keypad
}

func (m *Machine) Trace() *Trace {
	return m.trace
}

// Run executes instructions until the context is cancelled or the input
// requests to quit. Any fault stops the run and is returned.
func (m *Machine) Run(ctx context.Context, screen Screen, input Input) error {
	m.lastTick = m.now()

	for !input.QuitRequested() {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.TickTimers()

		if err := m.Step(ctx, screen, input); err != nil {
			if errors.Is(err, ErrQuit) {
				break
			}
			if ctx.Err() == nil {
				m.logFault(err)
			}
			return err
		}

		if err := input.Poll(m.keypad); err != nil {
			return fmt.Errorf("polling input: %w", err)
		}
		if err := m.render(screen); err != nil {
			return err
		}
	}
	return nil
}

// render presents the display and clears its change flag. A nil screen is
// skipped.
func (m *Machine) render(screen Screen) error {
	if screen == nil {
		return nil
	}
	if err := screen.Render(m.display, m.cpu.Snapshot()); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	m.display.ResetDirty()
	return nil
}

// TickTimers decrements the delay and sound timers once if a timer period
// has passed since the last tick.
func (m *Machine) TickTimers() {
	now := m.now()
	if now.Sub(m.lastTick) < m.timerPeriod {
		return
	}
	m.cpu.Tick()
	m.lastTick = m.lastTick.Add(m.timerPeriod)
	// do not burst after a stall
	if now.Sub(m.lastTick) >= m.timerPeriod {
		m.lastTick = now
	}
}

// Step executes the instruction at PC. The screen is only used to keep
// presenting frames while a key wait blocks and may be nil.
func (m *Machine) Step(ctx context.Context, screen Screen, input Input) error {
	pc := m.cpu.PC()
	word, err := m.fetch(pc)
	if err != nil {
		return &ExecError{PC: pc, Err: err}
	}

	ins := Decode(word)
	m.trace.add(TraceEntry{PC: pc, Word: word, Mnemonic: Disassemble(ins)})

	if err := m.execute(ctx, ins, screen, input); err != nil {
		if errors.Is(err, ErrQuit) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &ExecError{PC: pc, Opcode: word, Err: err}
	}
	return nil
}

func (m *Machine) fetch(pc uint16) (uint16, error) {
	hi, err := m.mem.Read(pc)
	if err != nil {
		return 0, err
	}
	lo, err := m.mem.Read(pc + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// waitKey blocks until a key is pressed. The timers keep running and the
// screen keeps rendering while waiting.
func (m *Machine) waitKey(ctx context.Context, screen Screen, input Input) (uint8, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if input.QuitRequested() {
			return 0, ErrQuit
		}

		key, ok, err := input.WaitKeyPress(m.keypad, m.timerPeriod)
		if err != nil {
			return 0, err
		}
		if ok {
			return key, nil
		}
		m.TickTimers()
		if err := m.render(screen); err != nil {
			return 0, err
		}
	}
}

func (m *Machine) logFault(err error) {
	m.logger.Error("Emulation halted", log.Err(err))
	for _, e := range m.trace.History() {
		m.logger.Debug("Trace", log.String("instruction", e.String()))
	}
}
